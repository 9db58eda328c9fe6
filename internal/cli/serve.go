package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tusur-bots/faculty-advisor/internal/advisor"
	"github.com/tusur-bots/faculty-advisor/internal/config"
	"github.com/tusur-bots/faculty-advisor/internal/dialogue"
	"github.com/tusur-bots/faculty-advisor/internal/logging"
	"github.com/tusur-bots/faculty-advisor/internal/metrics"
	"github.com/tusur-bots/faculty-advisor/internal/search"
	"github.com/tusur-bots/faculty-advisor/internal/telegram"
	"github.com/tusur-bots/faculty-advisor/internal/tracking"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the 'serve' command that runs the Telegram bot.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Long: `Start the faculty-advisor Telegram bot.

The bot long-polls the Bot API, walks applicants through the questionnaire
and recommends a faculty. The classifier is loaded (or trained) in the
background; until it is ready recommendations wait for it, and when it is
unavailable the keyword scorer answers instead.

With metrics enabled a Prometheus endpoint is served on metrics.addr.`,
		Example: `  # Token from the environment
  FA_BOT_TOKEN=123:abc faculty-advisor serve

  # Explicit config file
  faculty-advisor serve --config /etc/faculty-advisor.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	return cmd
}

// runServe starts the bot and shuts it down on SIGINT/SIGTERM/SIGQUIT.
func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logging.Component("serve")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	bot, err := telegram.NewBot(cfg.Bot)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	lex := newLexicon(cfg)
	svc := newService(cfg, lex, true)

	catalogue, err := search.NewCatalogue(lex)
	if err != nil {
		return fmt.Errorf("failed to build faculty catalogue: %w", err)
	}
	defer catalogue.Close()

	deps := dialogue.Deps{Recommender: svc, Store: store, Searcher: catalogue}
	if cfg.Tracking.Enabled {
		tracker := tracking.NewTracker(store)
		defer tracker.Stop()
		deps.Tracker = tracker
	}
	adv, err := advisor.New(lex, cfg.Advisor)
	if err != nil {
		return err
	}
	if adv != nil {
		deps.Advisor = adv
	}

	gateway := telegram.NewGateway(bot, dialogue.New(lex, cfg.Dialogue, deps), cfg.Bot)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := svc.Initialize(gctx); err != nil {
			log.Error().Err(err).Msg("classifier initialization failed, using keyword scorer")
		}
		return nil
	})

	if cfg.Metrics.Enabled {
		srv := newMetricsServer(cfg.Metrics)
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Str("path", cfg.Metrics.Path).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		defer stop()
		return gateway.Run(gctx)
	})

	log.Info().Str("store", cfg.Store.Driver).Bool("model", cfg.Model.Enabled).Msg("faculty-advisor started")
	err = g.Wait()
	log.Info().Msg("shutdown complete")
	return err
}

func newMetricsServer(cfg config.MetricsConfig) *http.Server {
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
