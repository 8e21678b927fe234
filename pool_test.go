package facesense

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

// stubExtractor counts calls and records closure
type stubExtractor struct {
	calls  int
	closed bool
}

func (s *stubExtractor) Extract(img gocv.Mat) (*LandmarkSet, error) {
	s.calls++
	return nil, nil
}

func (s *stubExtractor) Close() error {
	s.closed = true
	return nil
}

type stubClassifier struct {
	calls  int
	closed bool
}

func (s *stubClassifier) Classify(img gocv.Mat) (*ClassifierResult, error) {
	s.calls++
	return nil, nil
}

func (s *stubClassifier) Close() error {
	s.closed = true
	return nil
}

func TestPoolRoundTrip(t *testing.T) {

	pool, err := NewPool(2, func() (*Models, error) {
		return &Models{
			Extractor:  &stubExtractor{},
			Classifier: &stubClassifier{},
		}, nil
	})

	if err != nil {
		t.Fatalf("pool creation failed: %v", err)
	}

	m1 := pool.Get()
	m2 := pool.Get()

	if m1 == m2 {
		t.Error("expected distinct model pairs")
	}

	pool.Return(m1)
	pool.Return(m2)

	if got := pool.Get(); got == nil {
		t.Error("expected model pair after return")
	}
}

func TestPoolImplementsAdapters(t *testing.T) {

	ext := &stubExtractor{}
	cls := &stubClassifier{}

	pool, err := NewPool(1, func() (*Models, error) {
		return &Models{Extractor: ext, Classifier: cls}, nil
	})

	if err != nil {
		t.Fatalf("pool creation failed: %v", err)
	}

	// the pool itself satisfies both adapter interfaces
	var _ LandmarkExtractor = pool
	var _ EmotionClassifier = pool

	img := gocv.NewMat()
	defer img.Close()

	if _, err := pool.Extract(img); err != nil {
		t.Errorf("pooled extract failed: %v", err)
	}

	if _, err := pool.Classify(img); err != nil {
		t.Errorf("pooled classify failed: %v", err)
	}

	if ext.calls != 1 || cls.calls != 1 {
		t.Errorf("expected one call each, got extract=%d classify=%d", ext.calls, cls.calls)
	}
}

func TestPoolClose(t *testing.T) {

	ext := &stubExtractor{}
	cls := &stubClassifier{}

	pool, err := NewPool(1, func() (*Models, error) {
		return &Models{Extractor: ext, Classifier: cls}, nil
	})

	if err != nil {
		t.Fatalf("pool creation failed: %v", err)
	}

	pool.Close()
	// closing twice is safe
	pool.Close()

	if !ext.closed || !cls.closed {
		t.Errorf("expected models closed, got extractor=%v classifier=%v",
			ext.closed, cls.closed)
	}
}

func TestPoolFactoryError(t *testing.T) {

	want := errors.New("model load failed")

	calls := 0

	_, err := NewPool(3, func() (*Models, error) {
		calls++

		if calls == 2 {
			return nil, want
		}

		return &Models{
			Extractor:  &stubExtractor{},
			Classifier: &stubClassifier{},
		}, nil
	})

	if !errors.Is(err, want) {
		t.Errorf("expected factory error propagated, got %v", err)
	}
}
