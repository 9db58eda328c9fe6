package recommend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/classifier"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
	"github.com/tusur-bots/faculty-advisor/internal/scoring"
)

// stubModel is a scripted Model.
type stubModel struct {
	mu         sync.Mutex
	ready      bool
	loadErr    error
	trainErr   error
	predictErr error
	rec        applicant.Recommendation
	loads      int
	trains     int
	saves      int
	predicts   int
}

func (m *stubModel) Predict(applicant.Response) (applicant.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predicts++
	if m.predictErr != nil {
		return applicant.Recommendation{}, m.predictErr
	}
	return m.rec, nil
}

func (m *stubModel) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *stubModel) Load(string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr == nil {
		m.ready = true
	}
	return m.loadErr
}

func (m *stubModel) Save(string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return nil
}

func (m *stubModel) Train(context.Context) (classifier.TrainReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trains++
	if m.trainErr != nil {
		return classifier.TrainReport{}, m.trainErr
	}
	m.ready = true
	return classifier.TrainReport{ValidationAccuracy: 0.9}, nil
}

func (m *stubModel) Metadata() classifier.Metadata {
	return classifier.Metadata{RunID: "stub"}
}

var modelRec = applicant.Recommendation{
	FacultyCode: "ФИТ",
	FacultyName: "Факультет инновационных технологий",
	Confidence:  0.93,
	Source:      applicant.SourceClassifier,
}

func newScorer() *scoring.Scorer {
	return scoring.NewScorer(lexicon.Default(), scoring.Options{})
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.ArtifactPath = "model.gob"
	return opts
}

func TestRecommendUsesClassifier(t *testing.T) {
	model := &stubModel{rec: modelRec}
	svc := NewService(newScorer(), model, testOptions())
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	rec := svc.Recommend(context.Background(), applicant.Response{Interests: "психология"})
	if rec != modelRec {
		t.Errorf("expected classifier recommendation, got %+v", rec)
	}
	if model.loads != 1 || model.trains != 0 {
		t.Errorf("expected load without training, got loads=%d trains=%d", model.loads, model.trains)
	}
}

func TestRecommendFallsBackOnPredictionError(t *testing.T) {
	model := &stubModel{rec: modelRec, predictErr: &classifier.PredictionError{Err: errors.New("boom")}}
	svc := NewService(newScorer(), model, testOptions())
	svc.Initialize(context.Background())

	rec := svc.Recommend(context.Background(), applicant.Response{Interests: "психология"})
	if rec.Source != applicant.SourceKeywords {
		t.Fatalf("expected keyword fallback, got %+v", rec)
	}
	if rec.FacultyCode != "ГФ" {
		t.Errorf("expected ГФ from scorer, got %s", rec.FacultyCode)
	}
	if rec.Confidence != scoring.Confidence {
		t.Errorf("expected confidence %v, got %v", scoring.Confidence, rec.Confidence)
	}
}

func TestRecommendWithoutArtifactOrTraining(t *testing.T) {
	model := &stubModel{loadErr: &classifier.PersistenceError{Op: "load", Err: errors.New("corrupt")}}
	opts := testOptions()
	opts.TrainIfMissing = false

	svc := NewService(newScorer(), model, opts)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	rec := svc.Recommend(context.Background(), applicant.Response{})
	if rec.Source != applicant.SourceKeywords || rec.Confidence != scoring.Confidence {
		t.Errorf("expected keyword recommendation, got %+v", rec)
	}
	if rec.FacultyCode != lexicon.DefaultFacultyCode {
		t.Errorf("expected default faculty, got %s", rec.FacultyCode)
	}
	if model.predicts != 0 {
		t.Error("classifier should not be asked when it is not ready")
	}
}

func TestInitializeTrainsWhenArtifactMissing(t *testing.T) {
	model := &stubModel{rec: modelRec, loadErr: &classifier.PersistenceError{Op: "load", Err: os.ErrNotExist}}
	svc := NewService(newScorer(), model, testOptions())

	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if model.trains != 1 || model.saves != 1 {
		t.Errorf("expected one training and one save, got trains=%d saves=%d", model.trains, model.saves)
	}
	if rec := svc.Recommend(context.Background(), applicant.Response{}); rec.Source != applicant.SourceClassifier {
		t.Errorf("expected classifier after training, got %s", rec.Source)
	}
}

func TestInitializeRunsOnce(t *testing.T) {
	model := &stubModel{rec: modelRec}
	svc := NewService(newScorer(), model, testOptions())

	svc.Initialize(context.Background())
	svc.Initialize(context.Background())
	if model.loads != 1 {
		t.Errorf("expected a single load, got %d", model.loads)
	}
}

func TestInitializeTrainingFailureStillServes(t *testing.T) {
	model := &stubModel{
		loadErr:  &classifier.PersistenceError{Op: "load", Err: os.ErrNotExist},
		trainErr: errors.New("no data"),
	}
	svc := NewService(newScorer(), model, testOptions())

	if err := svc.Initialize(context.Background()); err == nil {
		t.Fatal("expected training error")
	}
	if !svc.Ready() {
		t.Fatal("service must be ready even after a failed initialization")
	}
	if rec := svc.Recommend(context.Background(), applicant.Response{}); rec.Source != applicant.SourceKeywords {
		t.Errorf("expected keyword fallback, got %s", rec.Source)
	}
}

func TestRecommendBeforeReadyHonoursContext(t *testing.T) {
	model := &stubModel{rec: modelRec}
	svc := NewService(newScorer(), model, testOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	rec := svc.Recommend(ctx, applicant.Response{})
	if rec.Source != applicant.SourceKeywords {
		t.Errorf("expected keyword fallback while initializing, got %s", rec.Source)
	}
}

func TestRecommendWaitsForInitialization(t *testing.T) {
	model := &stubModel{rec: modelRec}
	svc := NewService(newScorer(), model, testOptions())

	done := make(chan applicant.Recommendation, 1)
	go func() {
		done <- svc.Recommend(context.Background(), applicant.Response{})
	}()

	time.Sleep(20 * time.Millisecond)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case rec := <-done:
		if rec.Source != applicant.SourceClassifier {
			t.Errorf("expected classifier recommendation, got %s", rec.Source)
		}
	case <-time.After(time.Second):
		t.Fatal("Recommend did not return after initialization")
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	model := &stubModel{predictErr: &classifier.PredictionError{Err: errors.New("boom")}}
	opts := testOptions()
	opts.Breaker.FailureThreshold = 2
	opts.Breaker.Timeout = time.Hour

	svc := NewService(newScorer(), model, opts)
	svc.Initialize(context.Background())

	for i := 0; i < 5; i++ {
		svc.Recommend(context.Background(), applicant.Response{})
	}
	if model.predicts != 2 {
		t.Errorf("expected breaker to stop calls after 2 failures, got %d calls", model.predicts)
	}
}

func TestScorerOnlyService(t *testing.T) {
	svc := NewService(newScorer(), nil, testOptions())
	if !svc.Ready() {
		t.Fatal("scorer-only service should be ready immediately")
	}
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if _, err := svc.Retrain(context.Background()); err == nil {
		t.Error("expected Retrain to fail without a classifier")
	}

	rec := svc.Recommend(context.Background(), applicant.Response{Liked: []string{"math"}, Interests: "программирование алгоритмы"})
	if rec.FacultyCode != "ФИТ" {
		t.Errorf("expected ФИТ, got %s", rec.FacultyCode)
	}
}

func TestRecommendIsIdempotent(t *testing.T) {
	svc := NewService(newScorer(), nil, testOptions())
	resp := applicant.Response{Liked: []string{"literature"}, Interests: "языки"}

	first := svc.Recommend(context.Background(), resp)
	if again := svc.Recommend(context.Background(), resp); again != first {
		t.Errorf("expected identical recommendations, got %+v and %+v", first, again)
	}
}

func TestRealClassifierCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	if err := os.WriteFile(path, []byte{0x1f, 0x8b, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	opts := testOptions()
	opts.ArtifactPath = path
	opts.TrainIfMissing = false

	model := classifier.New(lexicon.Default(), classifier.DefaultConfig())
	svc := NewService(newScorer(), model, opts)
	svc.Initialize(context.Background())

	rec := svc.Recommend(context.Background(), applicant.Response{Interests: "радиотехника"})
	if rec.Source != applicant.SourceKeywords || rec.Confidence != scoring.Confidence {
		t.Errorf("expected keyword recommendation, got %+v", rec)
	}
	if rec.FacultyCode != "РТФ" {
		t.Errorf("expected РТФ, got %s", rec.FacultyCode)
	}
}
