package dialogue

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/tusur-bots/faculty-advisor/internal/metrics"
	"github.com/tusur-bots/faculty-advisor/internal/storage"
	"github.com/tusur-bots/faculty-advisor/internal/tracking"
)

func (d *Dialogue) advance(s *session) {
	if next, ok := transitions[s.step]; ok {
		s.step = next
	}
}

func (d *Dialogue) beginQuestionnaire(s *session, out *Output) {
	s.step = StepLiked
	out.add(Reply{
		Text:   listPrompt(listLiked, d.cfg.MinLiked),
		Inline: d.selectionKeyboard(listLiked, s.liked),
	})
}

// toggle handles "subj:<list>:<code>".
func (d *Dialogue) toggle(s *session, arg string, out *Output) {
	list, code, ok := strings.Cut(arg, ":")
	step, known := listSteps[list]
	if !ok || !known || step != s.step || !d.knownOption(list, code) {
		d.stale(out)
		return
	}

	sel := s.selection(list)
	*sel = toggle(*sel, code)

	out.add(Reply{
		Text:   listPrompt(list, d.minimum(list)),
		Inline: d.selectionKeyboard(list, *sel),
		Edit:   true,
	})
}

func (d *Dialogue) knownOption(list, code string) bool {
	for _, o := range d.options(list) {
		if o.code == code {
			return true
		}
	}
	return false
}

// finishList handles "done:<list>".
func (d *Dialogue) finishList(s *session, list string, out *Output) {
	step, ok := listSteps[list]
	if !ok || step != s.step {
		d.stale(out)
		return
	}

	need := max(d.minimum(list), 1)
	if len(*s.selection(list)) < need {
		out.Ack = fmt.Sprintf("Выберите хотя бы %d!", need)
		out.Alert = true
		return
	}

	d.advance(s)
	switch s.step {
	case StepDisliked:
		out.add(Reply{
			Text:   listPrompt(listDisliked, d.cfg.MinDisliked),
			Inline: d.selectionKeyboard(listDisliked, s.disliked),
			Edit:   true,
		})
	case StepExams:
		out.add(Reply{
			Text:   listPrompt(listExams, d.cfg.MinExams),
			Inline: d.selectionKeyboard(listExams, s.exams),
			Edit:   true,
		})
	case StepInterests:
		out.add(Reply{Text: textInterestsPrompt, Edit: true})
	}
}

// recommend runs once the free-text answers are in.
func (d *Dialogue) recommend(ctx context.Context, s *session, ev Event, out *Output) {
	resp := s.response()
	rec := d.deps.Recommender.Recommend(ctx, resp)

	s.recommended = rec
	d.advance(s)

	if d.deps.Tracker != nil {
		d.deps.Tracker.Track(tracking.Event{ChatID: ev.ChatID, Recommendation: rec, Timestamp: time.Now()})
	}

	d.log.Info().
		Str("faculty", rec.FacultyCode).
		Str("source", string(rec.Source)).
		Float64("confidence", rec.Confidence).
		Msg("recommendation shown")

	out.add(Reply{Text: recommendationText(rec), Inline: d.facultyKeyboard(rec.FacultyCode)})

	if d.deps.Advisor == nil {
		return
	}
	comment, err := d.deps.Advisor.Comment(ctx, resp, rec)
	if err != nil {
		d.log.Warn().Err(err).Msg("advisor comment failed")
		return
	}
	if comment != "" {
		out.add(Reply{Text: "💬 " + html.EscapeString(comment)})
	}
}

// chooseFaculty handles "fac:<code>".
func (d *Dialogue) chooseFaculty(ctx context.Context, s *session, ev Event, code string, out *Output) {
	f, ok := d.lex.Faculty(code)
	if s.step != StepChooseFaculty || !ok {
		d.stale(out)
		return
	}
	s.faculty = f.Code

	u, err := d.deps.Store.FindUserByExternalID(ctx, ev.User.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		d.log.Warn().Err(err).Int64("user", ev.User.ID).Msg("failed to look up user")
	}
	if err == nil && u.HasContacts() {
		s.phone, s.email = u.Phone, u.Email
		s.step = StepReuseContacts
		out.add(Reply{
			Text:   reuseContactsText(f.Name, u.Phone, u.Email),
			Inline: reuseContactsKeyboard(),
			Edit:   true,
		})
		return
	}

	d.advance(s)
	out.add(Reply{
		Text: fmt.Sprintf("<b>Выбран факультет:</b> %s\n\n", html.EscapeString(f.Name)) + textPhonePrompt,
		Edit: true,
	})
}

func (d *Dialogue) keepContacts(s *session, out *Output) {
	if s.step != StepReuseContacts {
		d.stale(out)
		return
	}
	d.advance(s)
	out.add(Reply{
		Text:   confirmText(d.facultyName(s.faculty), s.phone, s.email),
		Inline: confirmKeyboard(),
		Edit:   true,
	})
}

func (d *Dialogue) changeContacts(s *session, out *Output) {
	if s.step != StepReuseContacts && s.step != StepConfirm {
		d.stale(out)
		return
	}
	s.step = StepPhone
	out.add(Reply{Text: textNewPhonePrompt, Edit: true})
}

// editSubjects restarts the questionnaire keeping earlier answers.
func (d *Dialogue) editSubjects(s *session, out *Output) {
	if s.step != StepConfirm {
		d.stale(out)
		return
	}
	s.step = StepLiked
	out.add(Reply{
		Text:   listPrompt(listLiked, d.cfg.MinLiked),
		Inline: d.selectionKeyboard(listLiked, s.liked),
		Edit:   true,
	})
}

func (d *Dialogue) enterPhone(s *session, text string, out *Output) {
	if !ValidPhone(text) {
		out.add(Reply{Text: textBadPhone})
		return
	}
	s.phone = text
	d.advance(s)
	out.add(Reply{Text: textEmailPrompt})
}

func (d *Dialogue) enterEmail(s *session, text string, out *Output) {
	if !ValidEmail(text) {
		out.add(Reply{Text: textBadEmail})
		return
	}
	s.email = text
	d.advance(s)
	out.add(Reply{
		Text:   confirmText(d.facultyName(s.faculty), s.phone, s.email),
		Inline: confirmKeyboard(),
	})
}

func (d *Dialogue) submit(ctx context.Context, s *session, ev Event, out *Output) {
	if s.step != StepConfirm || s.faculty == "" {
		d.stale(out)
		return
	}

	app, created, err := d.saveApplication(ctx, s, ev.User)
	if err != nil {
		d.log.Error().Err(err).Int64("user", ev.User.ID).Str("faculty", s.faculty).Msg("failed to submit application")
		out.Ack = truncate("Ошибка при подаче заявки: "+err.Error(), 150)
		out.Alert = true
		return
	}

	name := d.facultyName(app.FacultyCode)
	s.reset()

	if !created {
		out.add(Reply{
			Text: fmt.Sprintf("ℹ️ Заявка на факультет <b>%s</b> уже была подана ранее (статус: %s).",
				html.EscapeString(name), html.EscapeString(app.Status)),
			Edit: true,
		})
		out.add(Reply{Text: textChooseAction, Menu: true})
		return
	}

	metrics.ApplicationsSubmitted.WithLabelValues(app.FacultyCode).Inc()
	d.log.Info().Int64("user", app.UserID).Str("faculty", app.FacultyCode).Msg("application submitted")

	out.add(Reply{
		Text: fmt.Sprintf("🎉 Ваша заявка на факультет <b>%s</b> успешно подана!\n", html.EscapeString(name)) +
			"В ближайшее время с вами свяжутся сотрудники приемной комиссии.",
		Edit: true,
	})
	out.add(Reply{Text: textChooseAction, Menu: true})
	out.Ack = "Заявка отправлена!"
	out.Alert = true
}

func (d *Dialogue) saveApplication(ctx context.Context, s *session, u User) (storage.Application, bool, error) {
	user, err := d.deps.Store.UpsertUser(ctx, storage.User{
		ExternalID: u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	})
	if err != nil {
		return storage.Application{}, false, err
	}
	if user.Phone != s.phone || user.Email != s.email {
		if err := d.deps.Store.UpdateContacts(ctx, user.ID, s.phone, s.email); err != nil {
			return storage.Application{}, false, err
		}
	}
	return d.deps.Store.AddApplication(ctx, user.ID, s.faculty)
}
