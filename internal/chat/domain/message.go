package domain

import "errors"

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one transcript entry. Messages are never mutated once appended.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Fixed texts shown to the citizen.
const (
	Greeting           = "Hi there! I'm your AI Disaster Assistant. Ask me about safety, shelters, or alerts."
	NoReplyText        = "Sorry, I couldn't get a response right now. Please try again."
	ServerErrorText    = "The assistant server ran into a problem. Please try again in a moment."
	TransportErrorText = "Failed to reach the AI assistant server. Please ensure it's running."
)

// ErrEmptyMessage is returned for blank chat input.
var ErrEmptyMessage = errors.New("message must not be empty")

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the success body of POST /api/chat. A missing reply is a
// soft failure.
type ChatResponse struct {
	Reply string `json:"reply,omitempty"`
}
