// File: internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mudly/realtime/internal/services/chat"
	"github.com/mudly/realtime/internal/services/notification"
)

// Logger is the logging surface handlers need.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// envelope is the shape of every REST response.
type envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	ErrorCode string      `json:"errorCode,omitempty"`
}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: message, ErrorCode: code})
}

// writeServiceError maps service error types onto HTTP responses.
func writeServiceError(w http.ResponseWriter, logger Logger, err error) {
	var chatErr *chat.ChatError
	if errors.As(err, &chatErr) {
		switch chatErr.Type {
		case chat.ErrTypeValidation:
			writeError(w, http.StatusBadRequest, string(chatErr.Type), chatErr.Message)
		case chat.ErrTypeNotFound:
			writeError(w, http.StatusNotFound, string(chatErr.Type), chatErr.Message)
		case chat.ErrTypeForbidden:
			writeError(w, http.StatusForbidden, string(chatErr.Type), chatErr.Message)
		case chat.ErrTypeContentRejected:
			writeError(w, http.StatusUnprocessableEntity, string(chatErr.Type), chatErr.Message)
		default:
			logger.Error("Chat service failure", "operation", chatErr.Operation, "error", err)
			writeError(w, http.StatusInternalServerError, string(chatErr.Type), "Internal server error")
		}
		return
	}

	var notifErr *notification.NotificationError
	if errors.As(err, &notifErr) {
		if notifErr.Type == notification.ErrTypeValidation {
			writeError(w, http.StatusBadRequest, string(notifErr.Type), notifErr.Message)
			return
		}
		logger.Error("Notification service failure", "operation", notifErr.Operation, "error", err)
		writeError(w, http.StatusInternalServerError, string(notifErr.Type), "Internal server error")
		return
	}

	logger.Error("Unhandled service error", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
