// Package telegram provides the Telegram Bot API types and client used by the
// webhook transport.
package telegram

// Update is an incoming webhook update.
type Update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *Message `json:"message,omitempty"`
	EditedMessage *Message `json:"edited_message,omitempty"`
}

// Message is a chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
}

// User is the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// TextMessage returns the chat id and text of a new text message. Edits,
// non-text messages and messages from bots are ignored.
func (u *Update) TextMessage() (int64, string, bool) {
	m := u.Message
	if m == nil || m.Text == "" {
		return 0, "", false
	}
	if m.From != nil && m.From.IsBot {
		return 0, "", false
	}
	return m.Chat.ID, m.Text, true
}
