// File: internal/handlers/chat_socket.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/mudly/realtime/internal/domain"
	"github.com/mudly/realtime/internal/realtime"
	"github.com/mudly/realtime/internal/services/chat"
)

// ChatSocketHandler runs the chat protocol over one websocket per client.
type ChatSocketHandler struct {
	gateway  *Gateway
	registry *realtime.Registry
	chat     chat.MessageProvider
	logger   Logger
}

func NewChatSocketHandler(gateway *Gateway, chatService chat.MessageProvider, logger Logger) *ChatSocketHandler {
	return &ChatSocketHandler{
		gateway:  gateway,
		registry: gateway.registry,
		chat:     chatService,
		logger:   logger,
	}
}

func (h *ChatSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.gateway.serve(w, r, h.readLoop)
}

type conversationRef struct {
	ConversationID string `json:"conversationId"`
}

type seenPayload struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

// readLoop processes this connection's frames one at a time, in arrival order.
func (h *ChatSocketHandler) readLoop(conn *websocket.Conn, s *realtime.Session) {
	ctx := conn.Request().Context()
	window := frameWindow{max: h.gateway.config.MaxFramesPerSecond}
	decodeErrors := 0

	for {
		raw, err := receive(conn)
		if err != nil && !errors.Is(err, errFrameTooLarge) {
			if !isClosed(err) {
				h.logger.Debug("Chat read failed", "session_id", s.ID(), "error", err)
			}
			return
		}

		if s.Closed() {
			return
		}

		if !window.allow(time.Now()) {
			h.sendError(s, "rate limit exceeded")
			h.logger.Warn("Chat session exceeded frame budget", "session_id", s.ID(), "user_id", s.UserID())
			return
		}

		var frame realtime.Frame
		if err == nil {
			err = json.Unmarshal(raw, &frame)
		}
		if err != nil || strings.TrimSpace(frame.Event) == "" {
			decodeErrors++
			if errors.Is(err, errFrameTooLarge) {
				h.sendError(s, "payload too large")
			} else {
				h.sendError(s, "invalid frame payload")
			}
			if limit := h.gateway.config.MaxDecodeErrors; limit > 0 && decodeErrors >= limit {
				return
			}
			continue
		}
		decodeErrors = 0

		h.handleFrame(ctx, s, frame)
	}
}

func (h *ChatSocketHandler) handleFrame(ctx context.Context, s *realtime.Session, frame realtime.Frame) {
	switch frame.Event {
	case realtime.EventConversationJoin:
		h.handleJoin(s, frame.Data)
	case realtime.EventConversationLeave:
		h.handleLeave(s, frame.Data)
	case realtime.EventMessageSend:
		h.handleSend(ctx, s, frame.Data)
	case realtime.EventTypingStart, realtime.EventTypingStop:
		h.handleTyping(s, frame.Event, frame.Data)
	case realtime.EventMessageSeen:
		h.handleSeen(ctx, s, frame.Data)
	default:
		h.sendError(s, "unsupported event: "+frame.Event)
	}
}

func (h *ChatSocketHandler) handleJoin(s *realtime.Session, data json.RawMessage) {
	conversationID, ok := conversationIDFrom(data)
	if !ok {
		h.sendError(s, "conversationId is required")
		return
	}
	if err := h.registry.Join(conversationID, s); err != nil {
		h.logger.Warn("Conversation join failed", "session_id", s.ID(), "conversation_id", conversationID, "error", err)
		return
	}
	_ = s.Send(realtime.NewEvent(realtime.EventConversationJoined, domain.JoinedEvent{ConversationID: conversationID}))
}

func (h *ChatSocketHandler) handleLeave(s *realtime.Session, data json.RawMessage) {
	conversationID, ok := conversationIDFrom(data)
	if !ok {
		h.sendError(s, "conversationId is required")
		return
	}
	h.registry.Leave(conversationID, s)
}

func (h *ChatSocketHandler) handleSend(ctx context.Context, s *realtime.Session, data json.RawMessage) {
	var in chat.SendMessageInput
	if err := json.Unmarshal(data, &in); err != nil {
		h.sendError(s, "invalid message payload")
		return
	}
	in.ConversationID = strings.TrimSpace(in.ConversationID)

	msg, err := h.chat.SendMessage(ctx, s.UserID(), in)
	if err != nil {
		h.sendError(s, socketErrorMessage(err))
		return
	}

	if _, err := h.registry.Broadcast(msg.ConversationID, realtime.NewEvent(realtime.EventMessageNew, msg), nil); err != nil {
		h.logger.Error("Broadcast failed", "conversation_id", msg.ConversationID, "message_id", msg.ID, "error", err)
	}
}

func (h *ChatSocketHandler) handleTyping(s *realtime.Session, event string, data json.RawMessage) {
	conversationID, ok := conversationIDFrom(data)
	if !ok {
		h.sendError(s, "conversationId is required")
		return
	}
	payload := domain.TypingEvent{UserID: s.UserID(), ConversationID: conversationID}
	_, _ = h.registry.Broadcast(conversationID, realtime.NewEvent(event, payload), s)
}

func (h *ChatSocketHandler) handleSeen(ctx context.Context, s *realtime.Session, data json.RawMessage) {
	var in seenPayload
	if err := json.Unmarshal(data, &in); err != nil {
		h.sendError(s, "invalid seen payload")
		return
	}

	receipt, err := h.chat.MarkSeen(ctx, s.UserID(), strings.TrimSpace(in.ConversationID), strings.TrimSpace(in.MessageID))
	if err != nil {
		h.sendError(s, socketErrorMessage(err))
		return
	}

	// relayed on every mark, even when the user was already in the seen-set
	payload := domain.SeenEvent{UserID: s.UserID(), MessageID: receipt.MessageID, ConversationID: receipt.ConversationID}
	_, _ = h.registry.Broadcast(receipt.ConversationID, realtime.NewEvent(realtime.EventMessageSeen, payload), s)
}

func (h *ChatSocketHandler) sendError(s *realtime.Session, message string) {
	if err := s.Send(realtime.NewEvent(realtime.EventError, domain.ErrorEvent{Message: message})); err != nil {
		h.logger.Debug("Error event dropped", "session_id", s.ID(), "error", err)
	}
}

// conversationIDFrom accepts either {"conversationId": "..."} or a bare
// JSON string.
func conversationIDFrom(data json.RawMessage) (string, bool) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		id = strings.TrimSpace(id)
		return id, id != ""
	}
	var ref conversationRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return "", false
	}
	id = strings.TrimSpace(ref.ConversationID)
	return id, id != ""
}

func socketErrorMessage(err error) string {
	var chatErr *chat.ChatError
	if !errors.As(err, &chatErr) {
		return "Internal server error"
	}
	switch chatErr.Type {
	case chat.ErrTypeValidation, chat.ErrTypeNotFound, chat.ErrTypeContentRejected, chat.ErrTypeForbidden:
		return chatErr.Message
	case chat.ErrTypeModeration:
		return "Message could not be reviewed, try again later"
	default:
		return "Failed to process message"
	}
}
