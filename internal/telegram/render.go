package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tusur-bots/faculty-advisor/internal/dialogue"
)

// eventFromUpdate converts an update to a dialogue event. messageID is the
// message a pressed button belongs to, zero for text messages.
func eventFromUpdate(upd tgbotapi.Update) (ev dialogue.Event, messageID int, ok bool) {
	switch {
	case upd.CallbackQuery != nil:
		q := upd.CallbackQuery
		if q.Message == nil || q.Message.Chat == nil || q.From == nil {
			return dialogue.Event{}, 0, false
		}
		return dialogue.Event{
			ChatID:   q.Message.Chat.ID,
			User:     userOf(q.From),
			Callback: q.Data,
		}, q.Message.MessageID, true

	case upd.Message != nil:
		m := upd.Message
		if m.Chat == nil || m.From == nil || m.Text == "" {
			return dialogue.Event{}, 0, false
		}
		return dialogue.Event{
			ChatID: m.Chat.ID,
			User:   userOf(m.From),
			Text:   m.Text,
		}, 0, true
	}
	return dialogue.Event{}, 0, false
}

func userOf(u *tgbotapi.User) dialogue.User {
	return dialogue.User{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func menuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(dialogue.MenuLayout))
	for _, labels := range dialogue.MenuLayout {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func inlineKeyboard(rows [][]dialogue.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

// newMessage renders a reply as a fresh message.
func newMessage(chatID int64, r dialogue.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	switch {
	case len(r.Inline) > 0:
		msg.ReplyMarkup = inlineKeyboard(r.Inline)
	case r.Menu:
		msg.ReplyMarkup = menuKeyboard()
	}
	return msg
}

// renderReply edits the source message when asked and possible, and sends
// a new message otherwise. Editing drops the inline keyboard unless the
// reply carries one.
func renderReply(chatID int64, messageID int, r dialogue.Reply) tgbotapi.Chattable {
	if !r.Edit || messageID == 0 || r.Menu {
		return newMessage(chatID, r)
	}

	if len(r.Inline) > 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, r.Text, inlineKeyboard(r.Inline))
		edit.ParseMode = tgbotapi.ModeHTML
		return edit
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, r.Text)
	edit.ParseMode = tgbotapi.ModeHTML
	return edit
}

// callbackAnswer acknowledges a button press.
func callbackAnswer(queryID string, out dialogue.Output) tgbotapi.CallbackConfig {
	if out.Alert {
		return tgbotapi.NewCallbackWithAlert(queryID, out.Ack)
	}
	return tgbotapi.NewCallback(queryID, out.Ack)
}
