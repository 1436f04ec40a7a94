// File: internal/handlers/notification_socket.go
package handlers

import (
	"errors"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/mudly/realtime/internal/realtime"
)

// NotificationSocketHandler keeps a push-only connection in the user's
// private room. Inbound frames are read only to notice the close.
type NotificationSocketHandler struct {
	gateway *Gateway
	logger  Logger
}

func NewNotificationSocketHandler(gateway *Gateway, logger Logger) *NotificationSocketHandler {
	return &NotificationSocketHandler{gateway: gateway, logger: logger}
}

func (h *NotificationSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.gateway.serve(w, r, h.readLoop)
}

func (h *NotificationSocketHandler) readLoop(conn *websocket.Conn, s *realtime.Session) {
	for {
		if _, err := receive(conn); err != nil && !errors.Is(err, errFrameTooLarge) {
			if !isClosed(err) {
				h.logger.Debug("Notification read failed", "session_id", s.ID(), "error", err)
			}
			return
		}
	}
}
