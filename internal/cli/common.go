/*
Package cli implements the faculty-advisor commands.

Every command loads configuration through the config package; the root
command's --config flag, FA_CONFIG and the default search paths are tried
in that order.
*/
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tusur-bots/faculty-advisor/internal/classifier"
	"github.com/tusur-bots/faculty-advisor/internal/config"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
	"github.com/tusur-bots/faculty-advisor/internal/logging"
	"github.com/tusur-bots/faculty-advisor/internal/recommend"
	"github.com/tusur-bots/faculty-advisor/internal/scoring"
	"github.com/tusur-bots/faculty-advisor/internal/storage"
)

// configPath returns the --config value if the flag is defined on the
// command or one of its parents.
func configPath(cmd *cobra.Command) string {
	if f := cmd.Flag("config"); f != nil {
		return f.Value.String()
	}
	return ""
}

// loadConfig loads the configuration and initializes logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Logging)
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*storage.SQLStorage, error) {
	store, err := storage.New(cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func newLexicon(cfg *config.Config) *lexicon.Lexicon {
	return lexicon.Default().WithDisplayNames(cfg.Faculties)
}

// newService wires the scorer and, when enabled, the classifier. The
// returned service still needs Initialize.
func newService(cfg *config.Config, lex *lexicon.Lexicon, withModel bool) *recommend.Service {
	scorer := scoring.NewScorer(lex, cfg.Recommend.ScorerOptions())
	if !withModel || !cfg.Model.Enabled {
		return recommend.NewService(scorer, nil, cfg.Model.ServiceOptions())
	}
	return recommend.NewService(scorer, classifier.New(lex, cfg.Model.Classifier), cfg.Model.ServiceOptions())
}
