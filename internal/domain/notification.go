// File: internal/domain/notification.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationNewMessage  NotificationType = "NEW_MESSAGE"
	NotificationNewComment  NotificationType = "NEW_COMMENT"
	NotificationNewReaction NotificationType = "NEW_REACTION"
	NotificationMention     NotificationType = "MENTION"
	NotificationAIWarning   NotificationType = "AI_WARNING"
	NotificationSystem      NotificationType = "SYSTEM"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNewMessage, NotificationNewComment, NotificationNewReaction,
		NotificationMention, NotificationAIWarning, NotificationSystem:
		return true
	}
	return false
}

// RecentNotificationLimit is the size of the retrieval window for a user's
// notifications.
const RecentNotificationLimit = 20

// Notification is addressed to exactly one user.
type Notification struct {
	ID        string            `json:"id" gorm:"primaryKey;size:64"`
	UserID    string            `json:"userId" gorm:"size:64;not null;index:idx_notifications_user_created,priority:1"`
	Type      NotificationType  `json:"type" gorm:"size:32;not null"`
	Content   string            `json:"content" gorm:"type:text;not null"`
	Metadata  datatypes.JSONMap `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt" gorm:"index:idx_notifications_user_created,priority:2"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Metadata == nil {
		n.Metadata = datatypes.JSONMap{}
	}
	return nil
}
