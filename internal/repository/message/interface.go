// File: internal/repository/message/interface.go
package message

import (
	"context"
	"time"

	"github.com/mudly/realtime/internal/domain"
)

type MessageRepository interface {
	// Append persists msg and bumps the conversation's updated_at in one
	// transaction. Nothing is written if the conversation does not exist.
	Append(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	// MarkSeen adds userID to the message's seen-set. Added is false when the
	// user was already present. A non-empty conversationID must match the
	// message's conversation, otherwise nothing is written.
	MarkSeen(ctx context.Context, messageID, conversationID, userID string) (domain.SeenReceipt, error)
	SeenBy(ctx context.Context, messageID string) ([]string, error)
	// ListByConversation returns up to limit messages older than before (zero
	// means now), oldest first.
	ListByConversation(ctx context.Context, conversationID string, before time.Time, limit int) ([]domain.Message, error)
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)
