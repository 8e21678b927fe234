package session

import (
	"errors"
	"sync"
	"testing"

	"gocv.io/x/gocv"

	facesense "github.com/clinsight/go-facesense"
	"github.com/clinsight/go-facesense/microsignal"
)

// scriptExtractor replays a fixed sequence of landmark sets, one per frame,
// then reports no face
type scriptExtractor struct {
	frames []*facesense.LandmarkSet
	next   int
}

func (s *scriptExtractor) Extract(img gocv.Mat) (*facesense.LandmarkSet, error) {

	if s.next >= len(s.frames) {
		return nil, nil
	}

	lm := s.frames[s.next]
	s.next++

	return lm, nil
}

// errExtractor always fails
type errExtractor struct{}

func (errExtractor) Extract(img gocv.Mat) (*facesense.LandmarkSet, error) {
	return nil, errors.New("model crashed")
}

// stubClassifier returns the same result for every frame
type stubClassifier struct {
	res *facesense.ClassifierResult
	err error
}

func (s *stubClassifier) Classify(img gocv.Mat) (*facesense.ClassifierResult, error) {
	return s.res, s.err
}

func happyClassifier() *stubClassifier {
	return &stubClassifier{
		res: &facesense.ClassifierResult{
			Dominant:   facesense.Happy,
			Confidence: 0.85,
			Probabilities: map[facesense.Emotion]float64{
				facesense.Happy:   0.85,
				facesense.Neutral: 0.15,
			},
		},
	}
}

// calmFace builds a synthetic neutral face where no indicator fires
func calmFace() *facesense.LandmarkSet {
	var lm facesense.LandmarkSet

	set := func(i int, x, y float64) {
		lm[i] = facesense.Point{X: x, Y: y}
	}

	set(facesense.IdxForehead, 100, 60)
	set(facesense.IdxChin, 100, 210)
	set(facesense.IdxLeftBrowTop, 80, 80)
	set(facesense.IdxLeftEyeTop, 80, 91)
	set(facesense.IdxRightBrowTop, 120, 80)
	set(facesense.IdxRightEyeTop, 120, 91)
	set(facesense.IdxUpperLipInner, 100, 150)
	set(facesense.IdxLowerLipInner, 100, 156)
	set(facesense.IdxUpperLipTop, 100, 150)
	set(facesense.IdxMouthLeft, 80, 153)
	set(facesense.IdxMouthRight, 120, 153)
	set(facesense.IdxJawLeft, 60, 150)
	set(facesense.IdxJawRight, 140, 150)

	// left eye contour at a relaxed aspect ratio of 1/3
	set(33, 60, 100)
	set(160, 70, 95)
	set(158, 80, 95)
	set(133, 90, 100)
	set(153, 80, 105)
	set(144, 70, 105)

	return &lm
}

// tenseFace builds a face with a clenched jaw and closed eyes so the jaw
// tension and blink rate indicators fire
func tenseFace() *facesense.LandmarkSet {
	lm := calmFace()

	lm[facesense.IdxJawLeft] = facesense.Point{X: 40, Y: 150}
	lm[facesense.IdxJawRight] = facesense.Point{X: 160, Y: 150}

	lm[160] = facesense.Point{X: 70, Y: 99}
	lm[158] = facesense.Point{X: 80, Y: 99}
	lm[153] = facesense.Point{X: 80, Y: 101}
	lm[144] = facesense.Point{X: 70, Y: 101}

	return lm
}

func testFrame(t *testing.T) gocv.Mat {
	t.Helper()

	img := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { img.Close() })

	return img
}

func TestStartDuplicateRejected(t *testing.T) {

	pl := NewPipeline(DefaultParams(), &scriptExtractor{}, happyClassifier(), nil)

	if err := pl.Start("alpha"); err != nil {
		t.Fatalf("first start failed: %v", err)
	}

	if err := pl.Start("alpha"); !errors.Is(err, ErrSessionExists) {
		t.Errorf("expected ErrSessionExists, got %v", err)
	}

	// a different identifier is unaffected
	if err := pl.Start("beta"); err != nil {
		t.Errorf("second session start failed: %v", err)
	}
}

func TestUnknownSession(t *testing.T) {

	pl := NewPipeline(DefaultParams(), &scriptExtractor{}, happyClassifier(), nil)
	img := testFrame(t)

	if _, err := pl.ProcessFrame("ghost", img, 0); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ProcessFrame: expected ErrSessionNotFound, got %v", err)
	}

	if _, err := pl.Summary("ghost"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Summary: expected ErrSessionNotFound, got %v", err)
	}

	if err := pl.Stop("ghost"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Stop: expected ErrSessionNotFound, got %v", err)
	}

	if err := pl.Remove("ghost"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Remove: expected ErrSessionNotFound, got %v", err)
	}
}

func TestProcessAfterStop(t *testing.T) {

	ext := &scriptExtractor{frames: []*facesense.LandmarkSet{calmFace(), calmFace()}}
	pl := NewPipeline(DefaultParams(), ext, happyClassifier(), nil)
	img := testFrame(t)

	if err := pl.Start("s1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if _, err := pl.ProcessFrame("s1", img, 0); err != nil {
		t.Fatalf("frame failed: %v", err)
	}

	if err := pl.Stop("s1"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	// stop is idempotent
	if err := pl.Stop("s1"); err != nil {
		t.Errorf("repeated stop failed: %v", err)
	}

	if _, err := pl.ProcessFrame("s1", img, 1); !errors.Is(err, ErrSessionStopped) {
		t.Errorf("expected ErrSessionStopped, got %v", err)
	}

	// state is retained after stop, summary remains valid
	sum, err := pl.Summary("s1")

	if err != nil {
		t.Fatalf("summary after stop failed: %v", err)
	}

	if sum == nil || sum.TotalFrames != 1 {
		t.Errorf("expected summary over 1 frame after stop, got %+v", sum)
	}
}

func TestSummaryWithoutFaceFrames(t *testing.T) {

	pl := NewPipeline(DefaultParams(), &scriptExtractor{}, happyClassifier(), nil)
	img := testFrame(t)

	if err := pl.Start("s1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		fa, err := pl.ProcessFrame("s1", img, float64(i))

		if err != nil {
			t.Fatalf("frame %d failed: %v", i, err)
		}

		if fa.FaceDetected {
			t.Fatalf("frame %d unexpectedly detected a face", i)
		}
	}

	sum, err := pl.Summary("s1")

	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}

	if sum != nil {
		t.Errorf("expected nil summary without face frames, got %+v", sum)
	}
}

func TestExtractorErrorDegradesToNoFace(t *testing.T) {

	pl := NewPipeline(DefaultParams(), errExtractor{}, happyClassifier(), nil)
	img := testFrame(t)

	if err := pl.Start("s1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	fa, err := pl.ProcessFrame("s1", img, 0)

	if err != nil {
		t.Fatalf("expected degraded frame, got error %v", err)
	}

	if fa.FaceDetected {
		t.Error("expected no face frame on extractor failure")
	}
}

func TestClassifierErrorFallsBackToNeutral(t *testing.T) {

	ext := &scriptExtractor{frames: []*facesense.LandmarkSet{calmFace()}}
	cls := &stubClassifier{err: errors.New("model crashed")}

	pl := NewPipeline(DefaultParams(), ext, cls, nil)
	img := testFrame(t)

	if err := pl.Start("s1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	fa, err := pl.ProcessFrame("s1", img, 0)

	if err != nil {
		t.Fatalf("frame failed: %v", err)
	}

	if !fa.FaceDetected {
		t.Fatal("expected face detected frame")
	}

	if fa.Emotion.Dominant != facesense.Neutral {
		t.Errorf("expected neutral fallback, got %s", fa.Emotion.Dominant)
	}
}

func TestTwoPhaseSession(t *testing.T) {

	// 5 calm frames then 5 tense frames.  The tense half must raise the
	// average stress and report jaw tension and elevated blink rate
	var frames []*facesense.LandmarkSet

	for i := 0; i < 5; i++ {
		frames = append(frames, calmFace())
	}

	for i := 0; i < 5; i++ {
		frames = append(frames, tenseFace())
	}

	pl := NewPipeline(DefaultParams(), &scriptExtractor{frames: frames}, happyClassifier(), nil)
	img := testFrame(t)

	if err := pl.Start("s1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var calmStress, tenseStress float64
	var last map[microsignal.Signal]microsignal.MicroSignal

	for i := 0; i < 10; i++ {
		fa, err := pl.ProcessFrame("s1", img, float64(i))

		if err != nil {
			t.Fatalf("frame %d failed: %v", i, err)
		}

		if !fa.FaceDetected {
			t.Fatalf("frame %d lost the face", i)
		}

		if i < 5 {
			calmStress += fa.Scores.Stress
		} else {
			tenseStress += fa.Scores.Stress
		}

		last = fa.MicroExpressions
	}

	if tenseStress <= calmStress {
		t.Errorf("expected stress to rise in tense half, calm=%f tense=%f",
			calmStress/5, tenseStress/5)
	}

	if _, ok := last[microsignal.JawTension]; !ok {
		t.Error("expected jaw_tension detected in tense half")
	}

	if _, ok := last[microsignal.BlinkRate]; !ok {
		t.Error("expected blink_rate detected in tense half")
	}

	sum, err := pl.Summary("s1")

	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}

	if sum.TotalFrames != 10 {
		t.Errorf("expected 10 frames analyzed, got %d", sum.TotalFrames)
	}

	if sum.DurationSeconds != 9 {
		t.Errorf("expected duration 9s, got %f", sum.DurationSeconds)
	}

	var totalShare float64

	for _, share := range sum.EmotionDistribution {
		totalShare += share
	}

	if diff := totalShare - 1; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected emotion distribution to sum to 1, got %f", totalShare)
	}

	if sum.PredominantEmotion != facesense.Happy {
		t.Errorf("expected predominant happy, got %s", sum.PredominantEmotion)
	}

	if sum.AvgStress <= 0 {
		t.Errorf("expected positive average stress, got %f", sum.AvgStress)
	}
}

func TestLandmarksFollowLastFrame(t *testing.T) {

	ext := &scriptExtractor{frames: []*facesense.LandmarkSet{calmFace()}}
	pl := NewPipeline(DefaultParams(), ext, happyClassifier(), nil)
	img := testFrame(t)

	if err := pl.Start("s1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// nothing processed yet
	lm, err := pl.Landmarks("s1")

	if err != nil {
		t.Fatalf("landmarks failed: %v", err)
	}

	if lm != nil {
		t.Error("expected nil landmarks before first frame")
	}

	if _, err := pl.ProcessFrame("s1", img, 0); err != nil {
		t.Fatalf("frame failed: %v", err)
	}

	lm, err = pl.Landmarks("s1")

	if err != nil {
		t.Fatalf("landmarks failed: %v", err)
	}

	if lm == nil {
		t.Fatal("expected landmarks after face frame")
	}

	if lm[facesense.IdxChin] != (facesense.Point{X: 100, Y: 210}) {
		t.Errorf("unexpected chin landmark %+v", lm[facesense.IdxChin])
	}

	// the extractor script is exhausted, the next frame has no face
	if _, err := pl.ProcessFrame("s1", img, 1); err != nil {
		t.Fatalf("frame failed: %v", err)
	}

	lm, err = pl.Landmarks("s1")

	if err != nil {
		t.Fatalf("landmarks failed: %v", err)
	}

	if lm != nil {
		t.Error("expected nil landmarks after no face frame")
	}

	if _, err := pl.Landmarks("ghost"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestConcurrentSummaryDuringFrames(t *testing.T) {

	// one writer feeds frames in order while readers hammer the aggregate
	// accessors on the same session
	const frames = 50

	var script []*facesense.LandmarkSet

	for i := 0; i < frames; i++ {
		script = append(script, calmFace())
	}

	pl := NewPipeline(DefaultParams(), &scriptExtractor{frames: script}, happyClassifier(), nil)
	img := testFrame(t)

	if err := pl.Start("s1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var wg sync.WaitGroup
	done := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for {
				select {
				case <-done:
					return
				default:
				}

				sum, err := pl.Summary("s1")

				if err != nil {
					t.Errorf("summary failed: %v", err)
					return
				}

				if sum != nil && sum.TotalFrames > frames {
					t.Errorf("summary saw %d frames, more than the %d processed",
						sum.TotalFrames, frames)
					return
				}

				if _, err := pl.Landmarks("s1"); err != nil {
					t.Errorf("landmarks failed: %v", err)
					return
				}

				pl.Active()
			}
		}()
	}

	for i := 0; i < frames; i++ {
		if _, err := pl.ProcessFrame("s1", img, float64(i)); err != nil {
			t.Fatalf("frame %d failed: %v", i, err)
		}
	}

	close(done)
	wg.Wait()

	sum, err := pl.Summary("s1")

	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}

	if sum.TotalFrames != frames {
		t.Errorf("expected %d frames analyzed, got %d", frames, sum.TotalFrames)
	}
}

func TestRemoveAndActive(t *testing.T) {

	pl := NewPipeline(DefaultParams(), &scriptExtractor{}, happyClassifier(), nil)

	for _, id := range []string{"charlie", "alpha", "beta"} {
		if err := pl.Start(id); err != nil {
			t.Fatalf("start %s failed: %v", id, err)
		}
	}

	active := pl.Active()

	if len(active) != 3 || active[0] != "alpha" || active[1] != "beta" || active[2] != "charlie" {
		t.Errorf("expected sorted [alpha beta charlie], got %v", active)
	}

	if err := pl.Remove("beta"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	if _, err := pl.Summary("beta"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected removed session unknown, got %v", err)
	}

	// identifier is reusable after removal
	if err := pl.Start("beta"); err != nil {
		t.Errorf("restart after remove failed: %v", err)
	}
}
