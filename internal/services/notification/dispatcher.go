package notification

import (
	"context"
	"strings"

	"github.com/mudly/realtime/internal/domain"
	"github.com/mudly/realtime/internal/realtime"
	notificationrepo "github.com/mudly/realtime/internal/repository/notification"
)

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Broadcaster pushes an event to every session joined to a room.
type Broadcaster interface {
	Broadcast(roomID string, ev realtime.Event, exclude *realtime.Session) (int, error)
}

// Dispatcher persists notifications and pushes them to the addressee's
// private room. Persistence always happens first.
type Dispatcher struct {
	store  notificationrepo.NotificationRepository
	pusher Broadcaster
	logger Logger
}

func NewDispatcher(store notificationrepo.NotificationRepository, pusher Broadcaster, logger Logger) *Dispatcher {
	return &Dispatcher{store: store, pusher: pusher, logger: logger}
}

// Dispatch stores the notification, then delivers it live to any session in
// user:{userID}. With no session joined the push is a silent no-op. A failed
// push never fails the call since the row is already durable.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, typ domain.NotificationType, content string, metadata map[string]interface{}) (*domain.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("dispatch", "userId is required")
	}
	if !typ.Valid() {
		return nil, NewValidationError("dispatch", "unknown notification type: "+string(typ))
	}
	if strings.TrimSpace(content) == "" {
		return nil, NewValidationError("dispatch", "content is required")
	}

	n, err := d.store.Create(ctx, &domain.Notification{
		UserID:   userID,
		Type:     typ,
		Content:  content,
		Metadata: metadata,
	})
	if err != nil {
		d.logger.Error("Failed to store notification", "user_id", userID, "type", typ, "error", err)
		return nil, NewPersistenceError("dispatch", userID, err)
	}

	delivered, err := d.pusher.Broadcast(realtime.UserRoom(userID), realtime.NewEvent(realtime.EventNotificationNew, n), nil)
	if err != nil {
		d.logger.Warn("Notification push failed", "notification_id", n.ID, "user_id", userID, "error", err)
	}
	d.logger.Debug("Notification dispatched", "notification_id", n.ID, "user_id", userID, "type", typ, "delivered", delivered)
	return n, nil
}

// ListRecent returns the addressee's newest notifications.
func (d *Dispatcher) ListRecent(ctx context.Context, userID string) ([]domain.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("list_recent", "userId is required")
	}
	list, err := d.store.ListRecent(ctx, userID, domain.RecentNotificationLimit)
	if err != nil {
		return nil, NewPersistenceError("list_recent", userID, err)
	}
	return list, nil
}

// Warn sends an AI_WARNING, used when moderation blocks a user's content.
func (d *Dispatcher) Warn(ctx context.Context, userID, reason string, metadata map[string]interface{}) (*domain.Notification, error) {
	return d.Dispatch(ctx, userID, domain.NotificationAIWarning, reason, metadata)
}
