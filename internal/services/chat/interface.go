package chat

import (
	"context"
	"time"

	"github.com/mudly/realtime/internal/domain"
)

// ConversationProvider handles conversation lifecycle
type ConversationProvider interface {
	CreateConversation(ctx context.Context, creatorID string, participantIDs []string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error)
	GetConversation(ctx context.Context, userID, conversationID string) (*domain.Conversation, error)
}

// MessageProvider handles message persistence and seen state
type MessageProvider interface {
	// SendMessage reviews the content, then persists it. A rejected message
	// returns a CONTENT_REJECTED error and is never stored.
	SendMessage(ctx context.Context, senderID string, in SendMessageInput) (*domain.Message, error)
	MarkSeen(ctx context.Context, userID, conversationID, messageID string) (domain.SeenReceipt, error)
	History(ctx context.Context, userID, conversationID string, before time.Time, limit int) ([]domain.Message, error)
}

// Service combines all chat capabilities
type Service interface {
	ConversationProvider
	MessageProvider
}
