/*
Package config loads faculty-advisor configuration.

Settings are layered: built-in defaults, then an optional YAML file, then
environment variables. The file is taken from FA_CONFIG or looked up in the
working directory.

Example faculty-advisor.yaml:

	bot:
	  token: "123:abc"
	  workers: 8
	store:
	  driver: sqlite
	  path: data/faculty-advisor.db
	model:
	  enabled: true
	  artifact_path: data/faculty-model.gob
	  classifier:
	    epochs: 40
	dialogue:
	  min_liked: 1
	faculties:
	  ФИТ: Факультет инновационных технологий
*/
package config

import (
	"time"

	"github.com/tusur-bots/faculty-advisor/internal/advisor"
	"github.com/tusur-bots/faculty-advisor/internal/classifier"
	"github.com/tusur-bots/faculty-advisor/internal/dialogue"
	"github.com/tusur-bots/faculty-advisor/internal/logging"
	"github.com/tusur-bots/faculty-advisor/internal/recommend"
	"github.com/tusur-bots/faculty-advisor/internal/scoring"
	"github.com/tusur-bots/faculty-advisor/internal/storage"
	"github.com/tusur-bots/faculty-advisor/internal/telegram"
)

// ConfigPathEnvVar names the variable holding an explicit config path.
const ConfigPathEnvVar = "FA_CONFIG"

// DefaultConfigPaths are searched when no path is given.
var DefaultConfigPaths = []string{
	"faculty-advisor.yaml",
	"faculty-advisor.yml",
	"config/faculty-advisor.yaml",
}

// Config is the root configuration.
type Config struct {
	Bot       telegram.Config   `koanf:"bot"`
	Store     storage.Config    `koanf:"store"`
	Model     ModelConfig       `koanf:"model"`
	Recommend RecommendConfig   `koanf:"recommend"`
	Dialogue  dialogue.Config   `koanf:"dialogue"`
	Advisor   advisor.Config    `koanf:"advisor"`
	Metrics   MetricsConfig     `koanf:"metrics"`
	Logging   logging.Config    `koanf:"logging"`
	Tracking  TrackingConfig    `koanf:"tracking"`
	Faculties map[string]string `koanf:"faculties"`
}

// ModelConfig configures the trainable classifier and the service around it.
type ModelConfig struct {
	// Enabled turns the classifier on. When off only the keyword scorer runs.
	Enabled        bool                    `koanf:"enabled"`
	ArtifactPath   string                  `koanf:"artifact_path"`
	TrainIfMissing bool                    `koanf:"train_if_missing"`
	Workers        int                     `koanf:"workers"`
	Breaker        recommend.BreakerConfig `koanf:"breaker"`
	Classifier     classifier.Config       `koanf:"classifier"`
}

// ServiceOptions returns the recommendation service settings.
func (m ModelConfig) ServiceOptions() recommend.Options {
	return recommend.Options{
		ArtifactPath:   m.ArtifactPath,
		TrainIfMissing: m.TrainIfMissing,
		Workers:        m.Workers,
		Breaker:        m.Breaker,
	}
}

// RecommendConfig tunes the keyword scorer.
type RecommendConfig struct {
	ReasonItems int `koanf:"reason_items"`
}

// ScorerOptions returns the keyword scorer settings.
func (r RecommendConfig) ScorerOptions() scoring.Options {
	return scoring.Options{ReasonItems: r.ReasonItems}
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	Path    string `koanf:"path"`
}

// TrackingConfig configures the recommendation history.
type TrackingConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	svc := recommend.DefaultOptions()
	return &Config{
		Bot: telegram.DefaultConfig(),
		Store: storage.Config{
			Driver: string(storage.DriverSQLite),
			Path:   "data/faculty-advisor.db",
		},
		Model: ModelConfig{
			Enabled:        true,
			ArtifactPath:   svc.ArtifactPath,
			TrainIfMissing: svc.TrainIfMissing,
			Workers:        svc.Workers,
			Breaker:        svc.Breaker,
			Classifier:     classifier.DefaultConfig(),
		},
		Recommend: RecommendConfig{ReasonItems: 3},
		Dialogue:  dialogue.DefaultConfig(),
		Advisor:   advisor.Config{Timeout: 15 * time.Second},
		Metrics:   MetricsConfig{Addr: ":9090", Path: "/metrics"},
		Logging:   logging.Config{Level: "info", Format: "console"},
		Tracking:  TrackingConfig{Enabled: true},
	}
}
