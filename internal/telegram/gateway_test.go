package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tusur-bots/faculty-advisor/internal/dialogue"
)

type fakeBot struct {
	mu       sync.Mutex
	updates  chan tgbotapi.Update
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  func(c tgbotapi.Chattable) error
	stopped  bool
}

func newFakeBot() *fakeBot {
	return &fakeBot{updates: make(chan tgbotapi.Update, 10)}
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeBot) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		if err := f.sendErr(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeHandler struct {
	mu     sync.Mutex
	events []dialogue.Event
	out    dialogue.Output
}

func (f *fakeHandler) Handle(_ context.Context, ev dialogue.Event) dialogue.Output {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.out
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 10,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: 7, UserName: "ivan", FirstName: "Иван"},
		Text:      text,
	}}
}

func callbackUpdate(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "q1",
		From: &tgbotapi.User{ID: 7},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 55,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	}}
}

func TestEventFromUpdate(t *testing.T) {
	ev, msgID, ok := eventFromUpdate(textUpdate(1, "/start"))
	if !ok || ev.ChatID != 1 || ev.Text != "/start" || msgID != 0 {
		t.Errorf("unexpected text event: %+v msg=%d ok=%v", ev, msgID, ok)
	}
	if ev.User.ID != 7 || ev.User.Username != "ivan" || ev.User.FirstName != "Иван" {
		t.Errorf("expected user to be copied, got %+v", ev.User)
	}

	ev, msgID, ok = eventFromUpdate(callbackUpdate(2, "done:liked"))
	if !ok || ev.ChatID != 2 || ev.Callback != "done:liked" || msgID != 55 {
		t.Errorf("unexpected callback event: %+v msg=%d ok=%v", ev, msgID, ok)
	}

	if _, _, ok := eventFromUpdate(tgbotapi.Update{}); ok {
		t.Error("expected empty update to be ignored")
	}
	if _, _, ok := eventFromUpdate(textUpdate(1, "")); ok {
		t.Error("expected message without text to be ignored")
	}
}

func TestRenderReply(t *testing.T) {
	inline := [][]dialogue.Button{{{Text: "A", Data: "a"}, {Text: "B", Data: "b"}}}

	msg, ok := renderReply(1, 0, dialogue.Reply{Text: "hi", Inline: inline, Edit: true}).(tgbotapi.MessageConfig)
	if !ok {
		t.Fatal("expected a new message when there is nothing to edit")
	}
	if msg.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("expected HTML parse mode, got %q", msg.ParseMode)
	}
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("expected 1x2 inline keyboard, got %+v", msg.ReplyMarkup)
	}
	if data := kb.InlineKeyboard[0][1].CallbackData; data == nil || *data != "b" {
		t.Errorf("expected callback data b, got %v", data)
	}

	edit, ok := renderReply(1, 9, dialogue.Reply{Text: "hi", Inline: inline, Edit: true}).(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatal("expected an edit")
	}
	if edit.MessageID != 9 || edit.ReplyMarkup == nil {
		t.Errorf("expected edit of message 9 with markup, got %+v", edit)
	}

	edit, ok = renderReply(1, 9, dialogue.Reply{Text: "hi", Edit: true}).(tgbotapi.EditMessageTextConfig)
	if !ok || edit.ReplyMarkup != nil {
		t.Errorf("expected plain edit, got %+v", edit)
	}

	msg, ok = renderReply(1, 9, dialogue.Reply{Text: "menu", Menu: true, Edit: true}).(tgbotapi.MessageConfig)
	if !ok {
		t.Fatal("expected menu to be sent as a new message")
	}
	menu, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok || len(menu.Keyboard) != len(dialogue.MenuLayout) {
		t.Errorf("expected main menu keyboard, got %+v", msg.ReplyMarkup)
	}
	if menu.Keyboard[0][0].Text != dialogue.MenuPick {
		t.Errorf("expected %q first, got %q", dialogue.MenuPick, menu.Keyboard[0][0].Text)
	}
}

func TestCallbackAnswer(t *testing.T) {
	ack := callbackAnswer("q", dialogue.Output{Ack: "done", Alert: true})
	if !ack.ShowAlert || ack.Text != "done" || ack.CallbackQueryID != "q" {
		t.Errorf("unexpected alert answer: %+v", ack)
	}
	ack = callbackAnswer("q", dialogue.Output{})
	if ack.ShowAlert || ack.Text != "" {
		t.Errorf("expected silent answer, got %+v", ack)
	}
}

func TestHandleUpdateAnswersCallback(t *testing.T) {
	bot := newFakeBot()
	h := &fakeHandler{out: dialogue.Output{
		Replies: []dialogue.Reply{{Text: "one", Edit: true}, {Text: "two", Menu: true}},
		Ack:     "ok",
	}}
	g := NewGateway(bot, h, Config{})

	g.handleUpdate(context.Background(), callbackUpdate(3, "menu"))

	if len(bot.requests) != 1 {
		t.Fatalf("expected 1 callback answer, got %d", len(bot.requests))
	}
	if len(bot.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(bot.sent))
	}
	if _, ok := bot.sent[0].(tgbotapi.EditMessageTextConfig); !ok {
		t.Errorf("expected first reply to edit, got %T", bot.sent[0])
	}
}

func TestSendFallsBackWhenEditFails(t *testing.T) {
	bot := newFakeBot()
	bot.sendErr = func(c tgbotapi.Chattable) error {
		if _, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			return errors.New("Bad Request: message can't be edited")
		}
		return nil
	}
	g := NewGateway(bot, &fakeHandler{}, Config{})

	g.send(1, 9, dialogue.Reply{Text: "x", Edit: true})

	if len(bot.sent) != 1 {
		t.Fatalf("expected fallback message, got %d sends", len(bot.sent))
	}
	if _, ok := bot.sent[0].(tgbotapi.MessageConfig); !ok {
		t.Errorf("expected new message, got %T", bot.sent[0])
	}
}

func TestSendIgnoresNotModified(t *testing.T) {
	bot := newFakeBot()
	bot.sendErr = func(tgbotapi.Chattable) error {
		return errors.New("Bad Request: message is not modified")
	}
	g := NewGateway(bot, &fakeHandler{}, Config{})

	g.send(1, 9, dialogue.Reply{Text: "x", Edit: true})

	if len(bot.sent) != 0 {
		t.Errorf("expected no fallback, got %d sends", len(bot.sent))
	}
}

func TestRunDispatchesUntilCancelled(t *testing.T) {
	bot := newFakeBot()
	h := &fakeHandler{out: dialogue.Output{Replies: []dialogue.Reply{{Text: "pong"}}}}
	g := NewGateway(bot, h, Config{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	bot.updates <- textUpdate(1, "ping")
	bot.updates <- textUpdate(2, "ping")
	bot.updates <- tgbotapi.Update{}

	deadline := time.Now().Add(2 * time.Second)
	for bot.sentCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	if bot.sentCount() != 2 {
		t.Errorf("expected 2 replies, got %d", bot.sentCount())
	}
	if !bot.stopped {
		t.Error("expected polling to be stopped")
	}
	if len(h.events) != 2 {
		t.Errorf("expected 2 handled events, got %d", len(h.events))
	}
}

func TestNewBotRequiresToken(t *testing.T) {
	if _, err := NewBot(Config{}); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}
