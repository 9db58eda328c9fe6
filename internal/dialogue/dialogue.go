/*
Package dialogue implements the applicant conversation independently of the
messenger transport.

A conversation is a sequence of steps driven by a transition table. Every
incoming Event (a text message or a button press) is handled against the
chat's session and produces an Output: replies to send and an optional
acknowledgement for the pressed button. The gateway renders Output for the
concrete messenger.
*/
package dialogue

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
	"github.com/tusur-bots/faculty-advisor/internal/logging"
	"github.com/tusur-bots/faculty-advisor/internal/search"
	"github.com/tusur-bots/faculty-advisor/internal/storage"
	"github.com/tusur-bots/faculty-advisor/internal/tracking"
)

// Recommender produces a recommendation for a completed questionnaire.
type Recommender interface {
	Recommend(ctx context.Context, resp applicant.Response) applicant.Recommendation
}

// Store is the part of storage the dialogue needs.
type Store interface {
	UpsertUser(ctx context.Context, u storage.User) (storage.User, error)
	FindUserByExternalID(ctx context.Context, externalID int64) (storage.User, error)
	UpdateContacts(ctx context.Context, userID int64, phone, email string) error
	AddApplication(ctx context.Context, userID int64, facultyCode string) (storage.Application, bool, error)
	ListApplicationsByUser(ctx context.Context, userID int64) ([]storage.Application, error)
}

// Tracker receives every shown recommendation.
type Tracker interface {
	Track(ev tracking.Event)
}

// Advisor adds a free-form comment to a recommendation.
type Advisor interface {
	Comment(ctx context.Context, resp applicant.Response, rec applicant.Recommendation) (string, error)
}

// Searcher looks faculties up by free text.
type Searcher interface {
	Search(text string, limit int) ([]search.Result, error)
}

// Config holds questionnaire limits.
type Config struct {
	MinLiked    int `koanf:"min_liked"`
	MinDisliked int `koanf:"min_disliked"`
	MinExams    int `koanf:"min_exams"`
	SearchLimit int `koanf:"search_limit"`
}

// DefaultConfig requires one selection per list.
func DefaultConfig() Config {
	return Config{MinLiked: 1, MinDisliked: 1, MinExams: 1, SearchLimit: 3}
}

// Deps are the collaborators of a Dialogue. Recommender and Store are
// required; the rest may be nil.
type Deps struct {
	Recommender Recommender
	Store       Store
	Tracker     Tracker
	Advisor     Advisor
	Searcher    Searcher
}

// User identifies the messenger account behind an event.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Event is one incoming update. Exactly one of Text and Callback is set.
type Event struct {
	ChatID   int64
	User     User
	Text     string
	Callback string
}

// Button is an inline button.
type Button struct {
	Text string
	Data string
}

// Reply is one outgoing message. Text is HTML.
type Reply struct {
	Text string

	// Inline is an inline keyboard attached to the message.
	Inline [][]Button

	// Menu attaches the main menu keyboard.
	Menu bool

	// Edit replaces the message whose button was pressed.
	Edit bool
}

// Output is the result of handling an Event.
type Output struct {
	Replies []Reply

	// Ack answers a button press. Alert shows it as a modal.
	Ack   string
	Alert bool
}

func (o *Output) add(r Reply) {
	o.Replies = append(o.Replies, r)
}

// Dialogue routes events through per-chat sessions.
type Dialogue struct {
	lex  *lexicon.Lexicon
	cfg  Config
	deps Deps
	log  zerolog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

// New creates a Dialogue.
func New(lex *lexicon.Lexicon, cfg Config, deps Deps) *Dialogue {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultConfig().SearchLimit
	}
	return &Dialogue{
		lex:      lex,
		cfg:      cfg,
		deps:     deps,
		log:      logging.Component("dialogue"),
		sessions: make(map[int64]*session),
	}
}

// Step returns the current step of a chat.
func (d *Dialogue) Step(chatID int64) Step {
	s := d.session(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Sessions returns the number of chats with an active questionnaire.
func (d *Dialogue) Sessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, s := range d.sessions {
		s.mu.Lock()
		if s.step != StepIdle {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

func (d *Dialogue) session(chatID int64) *session {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[chatID]
	if !ok {
		s = &session{}
		d.sessions[chatID] = s
	}
	return s
}

// Handle processes one event. Events of the same chat are serialized.
func (d *Dialogue) Handle(ctx context.Context, ev Event) Output {
	s := d.session(ev.ChatID)
	s.mu.Lock()
	defer s.mu.Unlock()

	var out Output
	if ev.Callback != "" {
		d.handleCallback(ctx, s, ev, &out)
	} else {
		d.handleText(ctx, s, ev, &out)
	}
	return out
}

func (d *Dialogue) handleText(ctx context.Context, s *session, ev Event, out *Output) {
	text := strings.TrimSpace(ev.Text)
	command, arg := splitCommand(text)

	switch {
	case command == "/start":
		s.reset()
		d.start(ctx, ev, out)
		return
	case command == "/cancel":
		s.reset()
		out.add(Reply{Text: textCancelled, Menu: true})
		return
	case command == "/find":
		d.find(arg, out)
		return
	case command == "/help":
		out.add(Reply{Text: textHelp})
		return
	}

	switch text {
	case MenuPick:
		s.reset()
		d.beginQuestionnaire(s, out)
		return
	case MenuApplications, MenuProfile, MenuHelp:
		if s.step != StepIdle {
			s.reset()
			out.add(Reply{Text: textCancelled, Menu: true})
		}
		switch text {
		case MenuApplications:
			d.applications(ctx, ev, out)
		case MenuProfile:
			d.profile(ctx, ev, out)
		default:
			out.add(Reply{Text: textHelp})
		}
		return
	}

	switch s.step {
	case StepInterests:
		s.interests = text
		d.advance(s)
		out.add(Reply{Text: textDislikesPrompt})
	case StepDislikes:
		s.dislikes = text
		d.recommend(ctx, s, ev, out)
	case StepPhone:
		d.enterPhone(s, text, out)
	case StepEmail:
		d.enterEmail(s, text, out)
	case StepIdle:
		out.add(Reply{Text: textChooseAction, Menu: true})
	default:
		out.add(Reply{Text: textUseButtons})
	}
}

func (d *Dialogue) handleCallback(ctx context.Context, s *session, ev Event, out *Output) {
	kind, arg, _ := strings.Cut(ev.Callback, ":")

	switch kind {
	case cbNoop:
	case cbMenu:
		s.reset()
		out.add(Reply{Text: textBackToMenu, Edit: true})
		out.add(Reply{Text: textChooseAction, Menu: true})
	case cbToggle:
		d.toggle(s, arg, out)
	case cbDone:
		d.finishList(s, arg, out)
	case cbFaculty:
		d.chooseFaculty(ctx, s, ev, arg, out)
	case cbKeepContacts:
		d.keepContacts(s, out)
	case cbChangeContacts:
		d.changeContacts(s, out)
	case cbEditSubjects:
		d.editSubjects(s, out)
	case cbSubmit:
		d.submit(ctx, s, ev, out)
	default:
		d.stale(out)
	}
}

func (d *Dialogue) stale(out *Output) {
	out.Ack = textStale
	out.Alert = true
}

func splitCommand(text string) (command, arg string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	command, arg, _ = strings.Cut(text, " ")
	// Group chats address commands as /find@botname.
	command, _, _ = strings.Cut(command, "@")
	return strings.ToLower(command), strings.TrimSpace(arg)
}
