package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Load builds the configuration. An explicit path must exist; with an
// empty path FA_CONFIG and DefaultConfigPaths are tried and a missing file
// is not an error.
func Load(path string) (*Config, error) {
	k, err := load(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    sourceName(path),
			Message: fmt.Sprintf("failed to unmarshal configuration: %v", err),
			Hint:    "Check value types against the example in the package documentation",
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		var invalid *InvalidConfigError
		if errors.As(err, &invalid) && invalid.Path == "" {
			invalid.Path = sourceName(path)
		}
		return nil, err
	}
	return cfg, nil
}

func load(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if err := checkReadable(path); err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, &InvalidConfigError{
				Path:    path,
				Message: fmt.Sprintf("YAML parse error: %v", err),
				Hint:    "Restore from .bak file if available",
			}
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	return k, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err == nil {
		return f.Close()
	}
	if errors.Is(err, fs.ErrNotExist) {
		return &ConfigNotFoundError{
			Path: path,
			Hint: "Run 'faculty-advisor config init " + path + "' to create it",
		}
	}
	if errors.Is(err, fs.ErrPermission) {
		return &PermissionError{
			Path:    path,
			Op:      "read",
			Fix:     readPermissionFix(path),
			Details: "Config file is not readable by the current user",
		}
	}
	return fmt.Errorf("failed to access config: %w", err)
}

func readPermissionFix(path string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("Right-click %s → Properties → Security → Edit permissions", path)
	}
	return fmt.Sprintf("Run: chmod 644 %s", path)
}

func sourceName(path string) string {
	if path != "" {
		return path
	}
	if found := findConfigFile(); found != "" {
		return found
	}
	return "<defaults+env>"
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"model.classifier.hidden",
	"model.classifier.dropout",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envPaths are the settings that can be overridden from the environment as
// FA_<PATH> with dots replaced by underscores, e.g. FA_BOT_TOKEN.
var envPaths = []string{
	"bot.token", "bot.poll_timeout", "bot.workers", "bot.handler_timeout", "bot.debug",
	"store.driver", "store.path", "store.dsn",
	"model.enabled", "model.artifact_path", "model.train_if_missing", "model.workers",
	"model.breaker.max_requests", "model.breaker.interval", "model.breaker.timeout", "model.breaker.failure_threshold",
	"model.classifier.hidden", "model.classifier.dropout", "model.classifier.learning_rate",
	"model.classifier.epochs", "model.classifier.batch_size", "model.classifier.samples",
	"model.classifier.validation_split", "model.classifier.seed",
	"recommend.reason_items",
	"dialogue.min_liked", "dialogue.min_disliked", "dialogue.min_exams", "dialogue.search_limit",
	"advisor.enabled", "advisor.api_key", "advisor.folder_id", "advisor.timeout",
	"metrics.enabled", "metrics.addr", "metrics.path",
	"logging.level", "logging.format",
	"tracking.enabled",
}

// legacyEnv maps variable names used by earlier deployments.
var legacyEnv = map[string]string{
	"bot_token":        "bot.token",
	"database_url":     "store.dsn",
	"yandex_api_key":   "advisor.api_key",
	"yandex_folder_id": "advisor.folder_id",
	"log_level":        "logging.level",
}

var envMappings = buildEnvMappings()

func buildEnvMappings() map[string]string {
	m := make(map[string]string, len(envPaths)+len(legacyEnv))
	for _, p := range envPaths {
		m["fa_"+strings.ReplaceAll(p, ".", "_")] = p
	}
	for k, v := range legacyEnv {
		m[k] = v
	}
	return m
}

// envTransformFunc maps an environment variable to a config path. Unknown
// variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
