package config

import (
	"fmt"
	"strings"

	"github.com/tusur-bots/faculty-advisor/internal/logging"
	"github.com/tusur-bots/faculty-advisor/internal/storage"
)

// Validate checks the configuration and returns an *InvalidConfigError
// listing every problem found. The bot token is not required here because
// offline commands run without it.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch storage.Driver(c.Store.Driver) {
	case storage.DriverSQLite:
		if c.Store.Path == "" {
			add("store.path is required for the sqlite driver")
		}
	case storage.DriverPostgres:
		if c.Store.DSN == "" {
			add("store.dsn is required for the postgres driver")
		}
	default:
		add("store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}

	if c.Bot.Workers < 1 {
		add("bot.workers must be at least 1")
	}
	if c.Bot.PollTimeout < 1 {
		add("bot.poll_timeout must be at least 1 second")
	}

	if c.Model.Enabled {
		if c.Model.ArtifactPath == "" {
			add("model.artifact_path is required when the model is enabled")
		}
		if c.Model.Workers < 1 {
			add("model.workers must be at least 1")
		}
		if err := c.Model.Classifier.Validate(); err != nil {
			add("model.classifier: %v", err)
		}
	}

	if c.Recommend.ReasonItems < 1 {
		add("recommend.reason_items must be at least 1")
	}
	if c.Dialogue.MinLiked < 1 || c.Dialogue.MinDisliked < 1 || c.Dialogue.MinExams < 1 {
		add("dialogue minimums must be at least 1")
	}

	if c.Advisor.Enabled && (c.Advisor.APIKey == "" || c.Advisor.FolderID == "") {
		add("advisor.api_key and advisor.folder_id are required when the advisor is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		add("metrics.addr is required when metrics are enabled")
	}
	if !logging.ValidLevel(c.Logging.Level) {
		add("logging.level %q is not a known level", c.Logging.Level)
	}
	if f := c.Logging.Format; f != "json" && f != "console" {
		add("logging.format must be json or console, got %q", f)
	}

	if len(problems) == 0 {
		return nil
	}
	return &InvalidConfigError{
		Message: strings.Join(problems, "\n"),
		Hint:    "Fix the listed settings in the config file or environment",
	}
}

// normalize fills settings implied by others.
func (c *Config) normalize() {
	dsn := strings.ToLower(c.Store.DSN)
	if c.Store.Driver == string(storage.DriverSQLite) &&
		(strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")) {
		c.Store.Driver = string(storage.DriverPostgres)
	}
}
