package notification

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mudly/realtime/internal/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	// ListRecent returns the newest notifications for userID first.
	ListRecent(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
}

type gormNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &gormNotificationRepository{db: db}
}

func (r *gormNotificationRepository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		log.Printf("[NotificationRepository] Database error creating %s notification for user %s: %v", n.Type, n.UserID, err)
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (r *gormNotificationRepository) ListRecent(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > domain.RecentNotificationLimit {
		limit = domain.RecentNotificationLimit
	}

	notifications := make([]domain.Notification, 0, limit)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		log.Printf("[NotificationRepository] Database error listing notifications for user %s: %v", userID, err)
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}
