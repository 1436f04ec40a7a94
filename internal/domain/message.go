// File: internal/domain/message.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message is a single chat message belonging to exactly one conversation.
type Message struct {
	ID             string                      `json:"id" gorm:"primaryKey;size:64"`
	ConversationID string                      `json:"conversationId" gorm:"size:64;not null;index:idx_messages_conversation_created,priority:1"`
	SenderID       string                      `json:"senderId" gorm:"size:64;not null"`
	Content        string                      `json:"content" gorm:"type:text;not null"`
	Images         datatypes.JSONSlice[string] `json:"images"`
	SeenBy         []string                    `json:"seenBy" gorm:"-"` // loaded from message_seen
	CreatedAt      time.Time                   `json:"createdAt" gorm:"index:idx_messages_conversation_created,priority:2"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Images == nil {
		m.Images = datatypes.JSONSlice[string]{}
	}
	return nil
}

// MessageSeen records that a user has seen a message. The unique index on
// (message_id, user_id) makes the seen-set a deduplicating upsert target.
type MessageSeen struct {
	ID        uint      `gorm:"primarykey"`
	MessageID string    `gorm:"size:64;not null;uniqueIndex:idx_message_seen_user"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_message_seen_user"`
	SeenAt    time.Time `gorm:"autoCreateTime"`
}

func (MessageSeen) TableName() string {
	return "message_seen"
}

// SeenReceipt is returned after a seen mark; Added is false when the user
// had already seen the message.
type SeenReceipt struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Added          bool   `json:"-"`
}
