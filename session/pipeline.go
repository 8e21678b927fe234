// Package session runs the full per frame analysis pipeline and keeps the
// per session state needed for temporal signals and end of session
// summaries.  A Pipeline owns a registry of independent sessions keyed by
// caller supplied identifier.
package session

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"gocv.io/x/gocv"

	facesense "github.com/clinsight/go-facesense"
	"github.com/clinsight/go-facesense/fusion"
	"github.com/clinsight/go-facesense/microsignal"
	"github.com/clinsight/go-facesense/preprocess"
)

var (
	// ErrSessionExists is returned by Start for an identifier that already
	// has a live session
	ErrSessionExists = errors.New("session: already exists")
	// ErrSessionNotFound is returned for operations on an unknown identifier
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionStopped is returned when frames are submitted after Stop
	ErrSessionStopped = errors.New("session: stopped")
)

// Params defines the pipeline wide settings applied to every session
type Params struct {
	// CropMargin expands the face outline polygon before the classifier
	// crop, proportional to outline area over perimeter
	CropMargin float64 `yaml:"crop_margin"`
	// Microsignal thresholds applied to each session's analyzer
	Microsignal microsignal.Params `yaml:"microsignal"`
	// Fusion weights shared by all sessions
	Fusion fusion.Params `yaml:"fusion"`
}

// DefaultParams returns an instance of Params configured with the default
// settings
func DefaultParams() Params {
	return Params{
		CropMargin:  1.0,
		Microsignal: microsignal.DefaultParams(),
		Fusion:      fusion.DefaultParams(),
	}
}

// state is the private record for one live session.  The mutex serializes
// frame processing against summary reads, frames within a session arrive
// in order by contract
type state struct {
	sync.Mutex
	analyzer *microsignal.Analyzer
	frames   []fusion.FrameAnalysis
	// landmarks of the most recently processed frame, nil when that frame
	// had no face
	landmarks *facesense.LandmarkSet
	stopped   bool
}

// Pipeline drives the landmark extractor, emotion classifier, micro-signal
// analyzer and fusion engine for any number of concurrent sessions.  The
// extractor and classifier are shared across sessions, typically a
// facesense.Pool so parallel sessions never share a DNN instance
type Pipeline struct {
	p          Params
	extractor  facesense.LandmarkExtractor
	classifier facesense.EmotionClassifier
	engine     *fusion.Engine
	log        *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*state
}

// NewPipeline returns a Pipeline using the given model adapters.  A nil
// logger discards pipeline log output
func NewPipeline(p Params, extractor facesense.LandmarkExtractor,
	classifier facesense.EmotionClassifier, log *slog.Logger) *Pipeline {

	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Pipeline{
		p:          p,
		extractor:  extractor,
		classifier: classifier,
		engine:     fusion.NewEngine(p.Fusion),
		log:        log,
		sessions:   make(map[string]*state),
	}
}

// Start registers a new session under the given identifier.  Starting an
// identifier that already has a session is rejected with ErrSessionExists,
// the existing session keeps its state
func (pl *Pipeline) Start(id string) error {

	pl.mu.Lock()
	defer pl.mu.Unlock()

	if _, ok := pl.sessions[id]; ok {
		return ErrSessionExists
	}

	pl.sessions[id] = &state{
		analyzer: microsignal.NewAnalyzer(pl.p.Microsignal),
	}

	pl.log.Info("session started", "session", id)

	return nil
}

// ProcessFrame runs the full analysis pipeline on one frame and returns its
// fused record.  Timestamp is in seconds relative to the session start.
// Model errors are degraded rather than propagated, an extractor failure
// becomes a no face frame and a classifier failure falls back to the
// neutral default, so a transient bad frame never aborts a session
func (pl *Pipeline) ProcessFrame(id string, img gocv.Mat, timestamp float64) (fusion.FrameAnalysis, error) {

	s, err := pl.lookup(id)

	if err != nil {
		return fusion.FrameAnalysis{}, err
	}

	s.Lock()
	defer s.Unlock()

	if s.stopped {
		return fusion.FrameAnalysis{}, ErrSessionStopped
	}

	lm, err := pl.extractor.Extract(img)

	if err != nil {
		pl.log.Warn("landmark extraction failed", "session", id, "error", err)
		lm = nil
	}

	s.landmarks = lm

	if lm == nil {
		fa := fusion.NoFace(timestamp)
		s.frames = append(s.frames, fa)
		return fa, nil
	}

	cls := pl.classify(id, img, lm)
	signals := s.analyzer.Analyze(lm, timestamp)

	fa := pl.engine.Fuse(cls, signals, timestamp)
	s.frames = append(s.frames, fa)

	return fa, nil
}

// classify crops the expanded face region out of the frame and runs the
// emotion classifier on it.  A failed classification returns nil so fusion
// substitutes the neutral default
func (pl *Pipeline) classify(id string, img gocv.Mat, lm *facesense.LandmarkSet) *facesense.ClassifierResult {

	roi := preprocess.FaceCropROI(lm.Outline(), img.Cols(), img.Rows(), pl.p.CropMargin)

	region := img.Region(roi)
	defer region.Close()

	cls, err := pl.classifier.Classify(region)

	if err != nil {
		pl.log.Warn("emotion classification failed", "session", id, "error", err)
		return nil
	}

	return cls
}

// Landmarks returns the landmark set of the most recently processed frame,
// for drawing overlays on the source image.  It is nil when the last frame
// had no face or no frame has been processed yet
func (pl *Pipeline) Landmarks(id string) (*facesense.LandmarkSet, error) {

	s, err := pl.lookup(id)

	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	return s.landmarks, nil
}

// Summary computes the aggregate report for a session from the frames
// analyzed so far.  It can be called on a live or stopped session.  A
// session with no face detected frames returns nil with no error
func (pl *Pipeline) Summary(id string) (*Summary, error) {

	s, err := pl.lookup(id)

	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	return summarize(s.frames), nil
}

// Stop ends a session.  Its state is retained so Summary remains valid
// until the session is removed, further frames are rejected with
// ErrSessionStopped.  Stopping an already stopped session is a no-op
func (pl *Pipeline) Stop(id string) error {

	s, err := pl.lookup(id)

	if err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	s.stopped = true

	pl.log.Info("session stopped", "session", id, "frames", len(s.frames))

	return nil
}

// Remove discards a session and all its state
func (pl *Pipeline) Remove(id string) error {

	pl.mu.Lock()
	defer pl.mu.Unlock()

	if _, ok := pl.sessions[id]; !ok {
		return ErrSessionNotFound
	}

	delete(pl.sessions, id)

	return nil
}

// Active returns the identifiers of all registered sessions in sorted order
func (pl *Pipeline) Active() []string {

	pl.mu.RLock()
	defer pl.mu.RUnlock()

	ids := make([]string, 0, len(pl.sessions))

	for id := range pl.sessions {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// lookup finds the state for a session identifier
func (pl *Pipeline) lookup(id string) (*state, error) {

	pl.mu.RLock()
	defer pl.mu.RUnlock()

	s, ok := pl.sessions[id]

	if !ok {
		return nil, ErrSessionNotFound
	}

	return s, nil
}
