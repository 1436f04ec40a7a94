package chat

import (
	"context"

	"github.com/mudly/realtime/internal/services/moderation"
)

// Logger defines the logging interface used across chat services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// SendMessageInput is an inbound message before moderation and persistence.
type SendMessageInput struct {
	ConversationID string   `json:"conversationId"`
	Content        string   `json:"content"`
	Images         []string `json:"images,omitempty"`
}

// Moderator is the review step run before a chat message is stored.
type Moderator interface {
	ReviewChat(ctx context.Context, text string) (moderation.Verdict, error)
}
