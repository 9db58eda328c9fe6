/*
Package recommend orchestrates the classifier and the keyword scorer.

Recommend never fails: every classifier problem (no model yet, an inference
error, an open circuit breaker, a cancelled context) is logged with its kind
and answered by the keyword scorer instead.
*/
package recommend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/classifier"
	"github.com/tusur-bots/faculty-advisor/internal/logging"
	"github.com/tusur-bots/faculty-advisor/internal/metrics"
	"github.com/tusur-bots/faculty-advisor/internal/scoring"
)

// Fallback reasons, also used as metric labels.
const (
	reasonUnavailable = "unavailable"
	reasonPrediction  = "prediction"
	reasonBreakerOpen = "breaker_open"
	reasonContext     = "context"
)

// Model is the trainable classifier as seen by the service.
type Model interface {
	Predict(resp applicant.Response) (applicant.Recommendation, error)
	Ready() bool
	Load(path string) error
	Save(path string) error
	Train(ctx context.Context) (classifier.TrainReport, error)
	Metadata() classifier.Metadata
}

// BreakerConfig configures the circuit breaker around inference.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// Options configures a Service.
type Options struct {
	// ArtifactPath is where the model is loaded from and saved to.
	ArtifactPath string `koanf:"artifact_path"`

	// TrainIfMissing trains a model when no usable artifact exists.
	TrainIfMissing bool `koanf:"train_if_missing"`

	// Workers bounds concurrent inference.
	Workers int `koanf:"workers"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// DefaultOptions returns production settings.
func DefaultOptions() Options {
	return Options{
		ArtifactPath:   "data/faculty-model.gob",
		TrainIfMissing: true,
		Workers:        4,
		Breaker: BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// Service produces recommendations.
type Service struct {
	scorer  *scoring.Scorer
	model   Model
	opts    Options
	breaker *gobreaker.CircuitBreaker[applicant.Recommendation]
	slots   *semaphore.Weighted
	log     zerolog.Logger

	ready    chan struct{}
	initOnce sync.Once
	initErr  error
	trainMu  sync.Mutex
}

// NewService creates a service. model may be nil, in which case only the
// keyword scorer is used and the service is ready immediately.
func NewService(scorer *scoring.Scorer, model Model, opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Breaker.FailureThreshold == 0 {
		opts.Breaker.FailureThreshold = DefaultOptions().Breaker.FailureThreshold
	}

	s := &Service{
		scorer: scorer,
		model:  model,
		opts:   opts,
		slots:  semaphore.NewWeighted(int64(opts.Workers)),
		log:    logging.Component("recommend"),
		ready:  make(chan struct{}),
	}

	s.breaker = gobreaker.NewCircuitBreaker[applicant.Recommendation](gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: opts.Breaker.MaxRequests,
		Interval:    opts.Breaker.Interval,
		Timeout:     opts.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.Breaker.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, classifier.ErrModelUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.ClassifierBreakerState.Set(float64(to))
			s.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	if model == nil {
		s.initOnce.Do(func() { close(s.ready) })
	}
	return s
}

// Initialize loads the model artifact, training and saving a new model when
// loading fails and TrainIfMissing is set. It runs once; later calls return
// the first result. Recommend waits for Initialize to finish.
func (s *Service) Initialize(ctx context.Context) error {
	s.initOnce.Do(func() {
		defer close(s.ready)
		s.initErr = s.initialize(ctx)
	})
	return s.initErr
}

func (s *Service) initialize(ctx context.Context) error {
	if s.opts.ArtifactPath != "" {
		err := s.model.Load(s.opts.ArtifactPath)
		if err == nil {
			meta := s.model.Metadata()
			metrics.ValidationAccuracy.Set(meta.ValidationAccuracy)
			s.log.Info().
				Str("path", s.opts.ArtifactPath).
				Str("run_id", meta.RunID).
				Float64("validation_accuracy", meta.ValidationAccuracy).
				Msg("classifier loaded")
			return nil
		}
		s.log.Warn().Err(err).Str("kind", "persistence").Msg("classifier artifact unusable")
	}

	if !s.opts.TrainIfMissing {
		s.log.Warn().Msg("classifier unavailable, serving keyword recommendations only")
		return nil
	}

	_, err := s.train(ctx)
	return err
}

// Retrain fits a new model and swaps it in. Recommendations keep being
// served by the previous model while training runs.
func (s *Service) Retrain(ctx context.Context) (classifier.TrainReport, error) {
	if s.model == nil {
		return classifier.TrainReport{}, errors.New("recommend: no classifier configured")
	}
	return s.train(ctx)
}

func (s *Service) train(ctx context.Context) (classifier.TrainReport, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	report, err := s.model.Train(ctx)
	if err != nil {
		metrics.TrainingRuns.WithLabelValues("failed").Inc()
		s.log.Error().Err(err).Msg("classifier training failed")
		return report, err
	}
	metrics.TrainingRuns.WithLabelValues("succeeded").Inc()
	metrics.ValidationAccuracy.Set(report.ValidationAccuracy)

	if s.opts.ArtifactPath != "" {
		if err := s.model.Save(s.opts.ArtifactPath); err != nil {
			s.log.Warn().Err(err).Str("kind", "persistence").Msg("classifier artifact not saved")
		}
	}
	return report, nil
}

// Ready reports whether initialization has finished.
func (s *Service) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Recommend returns a recommendation for resp. It never fails.
func (s *Service) Recommend(ctx context.Context, resp applicant.Response) applicant.Recommendation {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	}()

	rec, reason := s.classify(ctx, resp)
	if reason != "" {
		metrics.ClassifierFallbacks.WithLabelValues(reason).Inc()
		rec = s.scorer.Score(resp)
	}

	metrics.RecommendationsTotal.WithLabelValues(string(rec.Source), rec.FacultyCode).Inc()
	return rec
}

// classify asks the model. A non-empty reason means the caller must fall
// back to the scorer.
func (s *Service) classify(ctx context.Context, resp applicant.Response) (applicant.Recommendation, string) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		s.log.Warn().Err(ctx.Err()).Str("kind", reasonContext).Msg("classifier not ready in time")
		return applicant.Recommendation{}, reasonContext
	}

	if s.model == nil || !s.model.Ready() {
		return applicant.Recommendation{}, reasonUnavailable
	}

	if err := s.slots.Acquire(ctx, 1); err != nil {
		s.log.Warn().Err(err).Str("kind", reasonContext).Msg("no inference slot")
		return applicant.Recommendation{}, reasonContext
	}
	defer s.slots.Release(1)

	rec, err := s.breaker.Execute(func() (applicant.Recommendation, error) {
		return s.model.Predict(resp)
	})
	if err == nil {
		return rec, ""
	}

	reason := reasonPrediction
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		reason = reasonBreakerOpen
	case errors.Is(err, classifier.ErrModelUnavailable):
		reason = reasonUnavailable
	}
	s.log.Warn().Err(err).Str("kind", reason).Msg("classifier failed, using keyword scorer")
	return applicant.Recommendation{}, reason
}
