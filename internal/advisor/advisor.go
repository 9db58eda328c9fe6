// Package advisor asks YandexGPT for a short personal comment on a
// recommendation. It is optional and disabled unless credentials are set.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	yandexgpt "github.com/sheeiavellie/go-yandexgpt"
	"github.com/sony/gobreaker/v2"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
	"github.com/tusur-bots/faculty-advisor/internal/logging"
)

// Config configures the YandexGPT client.
type Config struct {
	Enabled  bool          `koanf:"enabled"`
	APIKey   string        `koanf:"api_key"`
	FolderID string        `koanf:"folder_id"`
	Timeout  time.Duration `koanf:"timeout"`
}

// ErrEmptyAnswer is returned when the model produced no alternatives.
var ErrEmptyAnswer = errors.New("advisor: empty answer")

const (
	maxCommentRunes = 800
	failuresToTrip  = 3
)

const systemPrompt = `Ты консультант приемной комиссии ТУСУР. Абитуриент прошел анкету, и система уже
рекомендовала ему факультет. Напиши короткий (3-4 предложения) дружелюбный комментарий на "ты":
почему факультет ему подходит и что стоит подтянуть до поступления. Не предлагай другие вузы,
не придумывай факты о ТУСУР, не используй разметку.`

type completeFunc func(ctx context.Context, req yandexgpt.YandexGPTRequest) (string, error)

// Advisor produces comments through a circuit breaker.
type Advisor struct {
	lex      *lexicon.Lexicon
	folderID string
	timeout  time.Duration
	complete completeFunc
	breaker  *gobreaker.CircuitBreaker[string]
	log      zerolog.Logger
}

// New creates an advisor. It returns nil, nil when the advisor is disabled.
func New(lex *lexicon.Lexicon, cfg Config) (*Advisor, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.APIKey == "" || cfg.FolderID == "" {
		return nil, errors.New("advisor: api_key and folder_id are required")
	}

	client := yandexgpt.NewYandexGPTClientWithAPIKey(cfg.APIKey)
	complete := func(ctx context.Context, req yandexgpt.YandexGPTRequest) (string, error) {
		resp, err := client.GetCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Result.Alternatives) == 0 {
			return "", ErrEmptyAnswer
		}
		return resp.Result.Alternatives[0].Message.Text, nil
	}
	return newAdvisor(lex, cfg, complete), nil
}

func newAdvisor(lex *lexicon.Lexicon, cfg Config, complete completeFunc) *Advisor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	a := &Advisor{
		lex:      lex,
		folderID: cfg.FolderID,
		timeout:  cfg.Timeout,
		complete: complete,
		log:      logging.Component("advisor"),
	}
	a.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "yandexgpt",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failuresToTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return a
}

// Comment returns a short comment on rec.
func (a *Advisor) Comment(ctx context.Context, resp applicant.Response, rec applicant.Recommendation) (string, error) {
	req := a.request(resp, rec)

	text, err := a.breaker.Execute(func() (string, error) {
		cctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		return a.complete(cctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("advisor: %w", err)
	}

	text = strings.TrimSpace(text)
	if r := []rune(text); len(r) > maxCommentRunes {
		text = string(r[:maxCommentRunes]) + "..."
	}
	return text, nil
}

func (a *Advisor) request(resp applicant.Response, rec applicant.Recommendation) yandexgpt.YandexGPTRequest {
	return yandexgpt.YandexGPTRequest{
		ModelURI: yandexgpt.MakeModelURI(a.folderID, yandexgpt.YandexGPT4Model32k),
		CompletionOptions: yandexgpt.YandexGPTCompletionOptions{
			Stream:      false,
			Temperature: 0.5,
			MaxTokens:   400,
		},
		Messages: []yandexgpt.YandexGPTMessage{
			{Role: yandexgpt.YandexGPTMessageRoleSystem, Text: systemPrompt},
			{Role: yandexgpt.YandexGPTMessageRoleUser, Text: a.prompt(resp, rec)},
		},
	}
}

// prompt describes the applicant and the recommendation in plain text.
func (a *Advisor) prompt(resp applicant.Response, rec applicant.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Любимые предметы: %s\n", a.names(resp.Liked, a.lex.SubjectName))
	fmt.Fprintf(&b, "Нелюбимые предметы: %s\n", a.names(resp.Disliked, a.lex.SubjectName))
	fmt.Fprintf(&b, "Экзамены: %s\n", a.names(resp.Exams, a.lex.ExamName))
	fmt.Fprintf(&b, "Интересы: %s\n", orDash(resp.Interests))
	fmt.Fprintf(&b, "Не интересно: %s\n", orDash(resp.Dislikes))
	fmt.Fprintf(&b, "Рекомендованный факультет: %s (%s)\n", rec.FacultyName, rec.FacultyCode)
	if f, ok := a.lex.Faculty(rec.FacultyCode); ok && len(f.Programmes) > 0 {
		fmt.Fprintf(&b, "Направления факультета: %s\n", strings.Join(f.Programmes, ", "))
	}
	fmt.Fprintf(&b, "Обоснование системы: %s", rec.Reason)
	return b.String()
}

func (a *Advisor) names(codes []string, name func(string) string) string {
	if len(codes) == 0 {
		return "-"
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = name(c)
	}
	return strings.Join(out, ", ")
}

func orDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}
