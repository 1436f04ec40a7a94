// File: internal/handlers/notification_handler.go
package handlers

import (
	"context"
	"net/http"

	"github.com/mudly/realtime/internal/domain"
	"github.com/mudly/realtime/internal/middleware"
)

// NotificationDispatcher is the notification capability the REST surface uses.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, userID string, typ domain.NotificationType, content string, metadata map[string]interface{}) (*domain.Notification, error)
	ListRecent(ctx context.Context, userID string) ([]domain.Notification, error)
	Warn(ctx context.Context, userID, reason string, metadata map[string]interface{}) (*domain.Notification, error)
}

type NotificationHandler struct {
	dispatcher NotificationDispatcher
	logger     Logger
}

func NewNotificationHandler(d NotificationDispatcher, logger Logger) *NotificationHandler {
	return &NotificationHandler{dispatcher: d, logger: logger}
}

type dispatchRequest struct {
	UserID   string                  `json:"userId"`
	Type     domain.NotificationType `json:"type"`
	Content  string                  `json:"content"`
	Metadata map[string]interface{}  `json:"metadata"`
}

// GetMine lists the caller's most recent notifications.
func (h *NotificationHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	list, err := h.dispatcher.ListRecent(r.Context(), principal.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Dispatch lets other services (and admins) send a notification to any user.
func (h *NotificationHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body")
		return
	}

	n, err := h.dispatcher.Dispatch(r.Context(), req.UserID, req.Type, req.Content, req.Metadata)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}
