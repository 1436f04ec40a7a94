// File: internal/domain/conversation.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is a durable chat thread with a fixed, ordered participant set.
type Conversation struct {
	ID           string                    `json:"id" gorm:"primaryKey;size:64"`
	Participants []ConversationParticipant `json:"participants" gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
	LastMessage  *Message                  `json:"lastMessage,omitempty" gorm:"-"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt" gorm:"index"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// ParticipantIDs returns the participant user ids in insertion order.
func (c *Conversation) ParticipantIDs() []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

type ConversationParticipant struct {
	ID             uint      `json:"-" gorm:"primarykey"`
	ConversationID string    `json:"conversationId" gorm:"size:64;not null;uniqueIndex:idx_conversation_participant"`
	UserID         string    `json:"userId" gorm:"size:64;not null;uniqueIndex:idx_conversation_participant;index"`
	Position       int       `json:"-" gorm:"not null"`
	JoinedAt       time.Time `json:"joinedAt" gorm:"autoCreateTime"`
}

// UniqueParticipants merges the requested ids with the creator, dropping
// blanks and duplicates while keeping first-seen order.
func UniqueParticipants(creatorID string, participantIDs []string) []string {
	seen := make(map[string]struct{}, len(participantIDs)+1)
	out := make([]string, 0, len(participantIDs)+1)
	for _, id := range append(append([]string{}, participantIDs...), creatorID) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
