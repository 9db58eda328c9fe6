/*
Package telegram connects the dialogue to the Telegram Bot API.

The gateway long-polls for updates, converts each one to a dialogue event,
and renders the resulting output as Telegram messages, edits and callback
answers. Updates are handled concurrently by a bounded set of workers.
*/
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/tusur-bots/faculty-advisor/internal/dialogue"
	"github.com/tusur-bots/faculty-advisor/internal/logging"
	"github.com/tusur-bots/faculty-advisor/internal/metrics"
)

// Config configures the bot connection.
type Config struct {
	Token          string        `koanf:"token"`
	PollTimeout    int           `koanf:"poll_timeout"`
	Workers        int           `koanf:"workers"`
	HandlerTimeout time.Duration `koanf:"handler_timeout"`
	Debug          bool          `koanf:"debug"`
}

// DefaultConfig returns the polling defaults.
func DefaultConfig() Config {
	return Config{PollTimeout: 60, Workers: 8, HandlerTimeout: 30 * time.Second}
}

// ErrNoToken is returned when the bot token is not configured.
var ErrNoToken = errors.New("telegram: bot token is empty")

// BotAPI is the subset of *tgbotapi.BotAPI used by the gateway.
type BotAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler processes dialogue events.
type Handler interface {
	Handle(ctx context.Context, ev dialogue.Event) dialogue.Output
}

// NewBot authorizes against the Bot API.
func NewBot(cfg Config) (*tgbotapi.BotAPI, error) {
	if cfg.Token == "" {
		return nil, ErrNoToken
	}
	if err := tgbotapi.SetLogger(botLogger{log: logging.Component("tgbotapi")}); err != nil {
		return nil, err
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize bot: %w", err)
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

// botLogger routes library logs to zerolog.
type botLogger struct {
	log zerolog.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.log.Debug().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Msgf(format, v...)
}

// Gateway moves updates between Telegram and the dialogue.
type Gateway struct {
	bot     BotAPI
	handler Handler
	cfg     Config
	log     zerolog.Logger
}

// NewGateway creates a gateway. Zero config fields take defaults.
func NewGateway(bot BotAPI, handler Handler, cfg Config) *Gateway {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = def.PollTimeout
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = def.HandlerTimeout
	}
	return &Gateway{bot: bot, handler: handler, cfg: cfg, log: logging.Component("telegram")}
}

// Run polls for updates until ctx is done, then waits for in-flight
// handlers.
func (g *Gateway) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = g.cfg.PollTimeout
	updates := g.bot.GetUpdatesChan(u)

	slots := semaphore.NewWeighted(int64(g.cfg.Workers))
	var wg sync.WaitGroup
	defer wg.Wait()

	g.log.Info().Int("workers", g.cfg.Workers).Msg("polling for updates")

	for {
		select {
		case <-ctx.Done():
			g.bot.StopReceivingUpdates()
			g.log.Info().Msg("stopped polling")
			return nil

		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if err := slots.Acquire(ctx, 1); err != nil {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer slots.Release(1)
				g.handleUpdate(ctx, upd)
			}()
		}
	}
}

func (g *Gateway) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	ev, messageID, ok := eventFromUpdate(upd)
	if !ok {
		metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
		return
	}

	kind := "message"
	if ev.Callback != "" {
		kind = "callback"
	}
	metrics.UpdatesTotal.WithLabelValues(kind).Inc()

	// Replies still go out when shutdown begins mid-update.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.HandlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Interface("panic", r).Int64("chat", ev.ChatID).Msg("update handler panicked")
		}
	}()

	out := g.handler.Handle(hctx, ev)

	if upd.CallbackQuery != nil {
		if _, err := g.bot.Request(callbackAnswer(upd.CallbackQuery.ID, out)); err != nil {
			g.log.Warn().Err(err).Msg("failed to answer callback")
		}
	}

	for _, r := range out.Replies {
		g.send(ev.ChatID, messageID, r)
	}
}

func (g *Gateway) send(chatID int64, messageID int, r dialogue.Reply) {
	_, err := g.bot.Send(renderReply(chatID, messageID, r))
	if err == nil {
		return
	}
	if strings.Contains(err.Error(), "message is not modified") {
		return
	}
	if !r.Edit || messageID == 0 {
		g.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to send message")
		return
	}

	// Old messages cannot be edited; post the content instead.
	g.log.Debug().Err(err).Int64("chat", chatID).Msg("edit failed, sending new message")
	if _, err := g.bot.Send(newMessage(chatID, r)); err != nil {
		g.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to send message")
	}
}
