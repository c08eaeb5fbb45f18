// Package protocol defines the WebSocket message protocol between console
// clients and the server.
package protocol

// Message types from client to server
const (
	TypeHello = "hello"
	TypeText  = "text"
)

// Message types from server to client
const (
	TypeHelloAck = "hello_ack"
	TypeReply    = "reply"
	TypeError    = "error"
)

// SessionPrefix marks session ids that belong to console clients.
const SessionPrefix = "console_"

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// HelloMessage is sent by the client to bind the connection to a session.
type HelloMessage struct {
	BaseMessage
	APIKey     string            `json:"api_key,omitempty"`
	ClientMeta map[string]string `json:"client_meta,omitempty"`
}

// HelloAckMessage is sent by the server after a successful hello.
type HelloAckMessage struct {
	BaseMessage
}

// TextMessage carries one line typed by the operator.
type TextMessage struct {
	BaseMessage
	Content string `json:"content"`
}

// ReplyMessage carries one reply of the conversation engine.
type ReplyMessage struct {
	BaseMessage
	Text     string   `json:"text"`
	Keyboard []string `json:"keyboard,omitempty"`
}

// ErrorMessage is sent by the server when a message cannot be handled.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeUnauthorized    = "unauthorized"
	ErrorCodeSessionRequired = "session_required"
)
