/*
Package classifier implements the trainable faculty classifier.

The classifier is a small feed-forward network trained on synthetic
questionnaire answers fabricated from the faculty profiles. A trained model
is saved as a single artifact holding the network parameters together with
the feature layout and label order, so a loaded model encodes answers
exactly as it did during training.

Lifecycle:

	Uninitialized --Load--> Loaded
	Uninitialized --Train--> Trained --Save--> Trained (saved)
	Loaded/Trained --Train--> Trained

Predict is served only in Loaded or Trained.
*/
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/features"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
	"github.com/tusur-bots/faculty-advisor/internal/logging"
	"github.com/tusur-bots/faculty-advisor/internal/scoring"
)

// State is the lifecycle stage of a Classifier.
type State int

const (
	StateUninitialized State = iota
	StateLoaded
	StateTrained
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateTrained:
		return "trained"
	default:
		return "uninitialized"
	}
}

// Config controls training.
type Config struct {
	Hidden          []int     `koanf:"hidden"`
	Dropout         []float64 `koanf:"dropout"`
	LearningRate    float64   `koanf:"learning_rate"`
	Epochs          int       `koanf:"epochs"`
	BatchSize       int       `koanf:"batch_size"`
	Samples         int       `koanf:"samples"`
	ValidationSplit float64   `koanf:"validation_split"`
	Seed            int64     `koanf:"seed"`
	Noise           Noise     `koanf:"noise"`
}

// DefaultConfig returns the production training setup.
func DefaultConfig() Config {
	return Config{
		Hidden:          []int{128, 64, 32},
		Dropout:         []float64{0.3, 0.2, 0.1},
		LearningRate:    0.001,
		Epochs:          40,
		BatchSize:       32,
		Samples:         2000,
		ValidationSplit: 0.2,
		Seed:            42,
		Noise:           DefaultNoise(),
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.LearningRate <= 0:
		return errors.New("learning rate must be positive")
	case c.Epochs <= 0:
		return errors.New("epochs must be positive")
	case c.BatchSize <= 0:
		return errors.New("batch size must be positive")
	case c.Samples < 10:
		return errors.New("at least 10 samples are required")
	case c.ValidationSplit < 0 || c.ValidationSplit >= 1:
		return errors.New("validation split must be in [0, 1)")
	}
	for _, h := range c.Hidden {
		if h <= 0 {
			return errors.New("hidden layer sizes must be positive")
		}
	}
	for _, p := range c.Dropout {
		if p < 0 || p >= 1 {
			return errors.New("dropout rates must be in [0, 1)")
		}
	}
	return nil
}

// TrainReport summarises a training run.
type TrainReport struct {
	RunID              string
	Samples            int
	TrainSize          int
	ValidationSize     int
	Epochs             int
	FinalLoss          float64
	ValidationAccuracy float64
	Duration           time.Duration
}

// Classifier predicts a faculty from questionnaire answers.
type Classifier struct {
	lex *lexicon.Lexicon
	cfg Config

	mu     sync.RWMutex
	state  State
	saved  bool
	enc    *features.Encoder
	net    *network
	labels []string
	meta   Metadata
}

// New creates an uninitialized classifier.
func New(lex *lexicon.Lexicon, cfg Config) *Classifier {
	return &Classifier{lex: lex, cfg: cfg}
}

// State returns the lifecycle stage.
func (c *Classifier) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Ready reports whether Predict can be served.
func (c *Classifier) Ready() bool {
	return c.State() != StateUninitialized
}

// Saved reports whether the current model is persisted.
func (c *Classifier) Saved() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saved
}

// Metadata describes the current model.
func (c *Classifier) Metadata() Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta
}

// Train fabricates a training set, fits a fresh network and swaps it in.
// On error or cancellation the previous model, if any, stays in place.
func (c *Classifier) Train(ctx context.Context) (TrainReport, error) {
	cfg := c.cfg
	if err := cfg.Validate(); err != nil {
		return TrainReport{}, fmt.Errorf("invalid training config: %w", err)
	}

	start := time.Now()
	log := logging.Component("classifier")
	rng := rand.New(rand.NewSource(cfg.Seed))

	faculties := c.lex.Faculties()
	labels := make([]string, len(faculties))
	for i, f := range faculties {
		labels[i] = f.Code
	}

	enc := features.NewEncoder(features.SchemaFromLexicon(c.lex))
	data := newSynthesizer(c.lex, cfg.Noise, rng).generate(cfg.Samples)

	xs := make([][]float64, len(data))
	ys := make([]int, len(data))
	for i, d := range data {
		xs[i] = enc.Encode(d.Response)
		ys[i] = d.Label
	}

	trainIdx, valIdx := stratifiedSplit(ys, len(labels), cfg.ValidationSplit, rng)
	trainX, trainY := subset(xs, ys, trainIdx)
	valX, valY := subset(xs, ys, valIdx)

	sizes := append([]int{enc.Dim()}, cfg.Hidden...)
	sizes = append(sizes, len(labels))
	net := newNetwork(sizes, rng)
	tr := newTrainer(net, cfg.Dropout, cfg.LearningRate, rng)

	log.Info().
		Int("samples", len(data)).
		Int("train", len(trainX)).
		Int("validation", len(valX)).
		Ints("layers", sizes).
		Msg("training started")

	var loss float64
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		var err error
		loss, err = tr.epoch(ctx, trainX, trainY, cfg.BatchSize)
		if err != nil {
			return TrainReport{}, fmt.Errorf("training interrupted at epoch %d: %w", epoch, err)
		}
		if epoch%10 == 0 || epoch == cfg.Epochs {
			log.Debug().Int("epoch", epoch).Float64("loss", loss).Msg("epoch finished")
		}
	}

	acc := net.accuracy(valX, valY)
	report := TrainReport{
		RunID:              uuid.NewString(),
		Samples:            len(data),
		TrainSize:          len(trainX),
		ValidationSize:     len(valX),
		Epochs:             cfg.Epochs,
		FinalLoss:          loss,
		ValidationAccuracy: acc,
		Duration:           time.Since(start),
	}

	c.mu.Lock()
	c.enc = enc
	c.net = net
	c.labels = labels
	c.state = StateTrained
	c.saved = false
	c.meta = Metadata{
		RunID:              report.RunID,
		TrainedAt:          time.Now().UTC(),
		Samples:            report.Samples,
		Epochs:             report.Epochs,
		ValidationAccuracy: acc,
	}
	c.mu.Unlock()

	log.Info().
		Str("run_id", report.RunID).
		Float64("validation_accuracy", acc).
		Float64("loss", loss).
		Dur("duration", report.Duration).
		Msg("training finished")

	return report, nil
}

// stratifiedSplit holds out share of every class for validation.
func stratifiedSplit(ys []int, classes int, share float64, rng *rand.Rand) (train, val []int) {
	byClass := make([][]int, classes)
	for i, y := range ys {
		byClass[y] = append(byClass[y], i)
	}
	for _, idx := range byClass {
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		n := int(float64(len(idx)) * share)
		if n == 0 && share > 0 && len(idx) > 1 {
			n = 1
		}
		val = append(val, idx[:n]...)
		train = append(train, idx[n:]...)
	}
	return train, val
}

func subset(xs [][]float64, ys []int, idx []int) ([][]float64, []int) {
	sx := make([][]float64, len(idx))
	sy := make([]int, len(idx))
	for i, j := range idx {
		sx[i] = xs[j]
		sy[i] = ys[j]
	}
	return sx, sy
}

// Predict recommends a faculty. It fails with ErrModelUnavailable before a
// model is present and with *PredictionError when inference breaks.
func (c *Classifier) Predict(resp applicant.Response) (rec applicant.Recommendation, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state == StateUninitialized {
		return rec, ErrModelUnavailable
	}

	defer func() {
		if r := recover(); r != nil {
			rec = applicant.Recommendation{}
			err = &PredictionError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	probs := c.net.forward(c.enc.Encode(resp))
	idx := argmax(probs)
	confidence := probs[idx]
	if math.IsNaN(confidence) {
		return rec, &PredictionError{Err: errors.New("model produced NaN")}
	}

	f, ok := c.lex.Faculty(c.labels[idx])
	if !ok {
		return rec, &PredictionError{Err: fmt.Errorf("unknown label %q", c.labels[idx])}
	}

	return applicant.Recommendation{
		FacultyCode: f.Code,
		FacultyName: f.Name,
		Reason:      explain(c.lex, f, resp, confidence),
		Directions:  scoring.Directions(f),
		Confidence:  confidence,
		Source:      applicant.SourceClassifier,
	}, nil
}

// Save persists the current model to path.
func (c *Classifier) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateUninitialized {
		return ErrModelUnavailable
	}

	schema := c.enc.Schema()
	state := modelState{
		Subjects: schema.Subjects,
		Keywords: schema.Keywords,
		Labels:   c.labels,
		Layers:   make([]layer, len(c.net.layers)),
	}
	for i, l := range c.net.layers {
		state.Layers[i] = *l
	}

	if err := writeArtifact(path, c.meta, state); err != nil {
		return &PersistenceError{Path: path, Op: "save", Err: err}
	}
	c.saved = true
	return nil
}

// Load replaces the current model with the artifact at path. Any failure
// leaves the classifier unchanged and is reported as *PersistenceError.
func (c *Classifier) Load(path string) error {
	meta, state, err := readArtifact(path)
	if err != nil {
		return &PersistenceError{Path: path, Op: "load", Err: err}
	}
	for _, code := range state.Labels {
		if _, ok := c.lex.Faculty(code); !ok {
			return &PersistenceError{Path: path, Op: "load", Err: fmt.Errorf("unknown faculty label %q", code)}
		}
	}

	net := &network{layers: make([]*layer, len(state.Layers))}
	for i := range state.Layers {
		l := state.Layers[i]
		net.layers[i] = &l
	}
	enc := features.NewEncoder(features.Schema{Subjects: state.Subjects, Keywords: state.Keywords})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.enc = enc
	c.net = net
	c.labels = state.Labels
	c.meta = meta
	c.state = StateLoaded
	c.saved = true
	return nil
}
