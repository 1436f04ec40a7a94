// File: internal/handlers/conversation_handler.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mudly/realtime/internal/middleware"
	"github.com/mudly/realtime/internal/services/chat"
)

type ConversationHandler struct {
	ChatService chat.Service
	logger      Logger
}

func NewConversationHandler(cs chat.Service, logger Logger) *ConversationHandler {
	return &ConversationHandler{ChatService: cs, logger: logger}
}

type createConversationRequest struct {
	ParticipantIDs []string `json:"participantIds"`
}

// ListConversations returns the caller's conversations, most recent activity first.
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	convs, err := h.ChatService.ListConversations(r.Context(), principal.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	var req createConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body")
		return
	}

	conv, err := h.ChatService.CreateConversation(r.Context(), principal.UserID, req.ParticipantIDs)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// GetMessages returns one page of history. `before` is an RFC 3339 timestamp.
func (h *ConversationHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	conversationID := mux.Vars(r)["id"]
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "VALIDATION", "limit must be a positive integer")
			return
		}
		limit = n
	}

	var before time.Time
	if raw := query.Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "before must be an RFC 3339 timestamp")
			return
		}
		before = t
	}

	msgs, err := h.ChatService.History(r.Context(), principal.UserID, conversationID, before, limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
