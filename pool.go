package facesense

import (
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// Models groups a landmark extractor and emotion classifier pair that is
// checked out of a Pool together for the duration of one frame
type Models struct {
	Extractor  LandmarkExtractor
	Classifier EmotionClassifier
}

// Pool holds multiple extractor and classifier pairs so that sessions
// processed in parallel never share a DNN instance.  Pool itself implements
// both LandmarkExtractor and EmotionClassifier by checking a pair out for
// each call
type Pool struct {
	// pool of model pairs
	models chan *Models
	// size of pool
	size  int
	close sync.Once
}

// NewPool creates a new model pool of the given size using the factory to
// construct each extractor and classifier pair
func NewPool(size int, factory func() (*Models, error)) (*Pool, error) {
	p := &Pool{
		models: make(chan *Models, size),
		size:   size,
	}

	for i := 0; i < size; i++ {
		m, err := factory()

		if err != nil {
			// close any instances that may have been created before
			// receiving the error
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(m)
	}

	return p, nil
}

// Get a model pair from the pool
func (p *Pool) Get() *Models {
	return <-p.models
}

// Return a model pair to the pool
func (p *Pool) Return(m *Models) {
	select {
	case p.models <- m:
	default:
		// pool is full or closed
	}
}

// Extract implements LandmarkExtractor using a pooled extractor
func (p *Pool) Extract(img gocv.Mat) (*LandmarkSet, error) {
	m := p.Get()
	defer p.Return(m)

	return m.Extractor.Extract(img)
}

// Classify implements EmotionClassifier using a pooled classifier
func (p *Pool) Classify(img gocv.Mat) (*ClassifierResult, error) {
	m := p.Get()
	defer p.Return(m)

	return m.Classifier.Classify(img)
}

// Close the pool and release all model resources in it
func (p *Pool) Close() {
	p.close.Do(func() {
		// close channel
		close(p.models)

		// close all models
		for next := range p.models {
			if c, ok := next.Extractor.(io.Closer); ok {
				_ = c.Close()
			}

			if c, ok := next.Classifier.(io.Closer); ok {
				_ = c.Close()
			}
		}
	})
}
