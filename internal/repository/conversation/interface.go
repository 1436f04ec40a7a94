// File: internal/repository/conversation/interface.go
package conversation

import (
	"context"

	"github.com/mudly/realtime/internal/domain"
)

type ConversationRepository interface {
	// Create stores the conversation and its participants atomically.
	Create(ctx context.Context, conv *domain.Conversation, participantIDs []string) (*domain.Conversation, error)
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)
	// ListForUser returns the user's conversations, most recently active first,
	// each with its latest message attached.
	ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
}
