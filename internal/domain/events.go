// File: internal/domain/events.go
package domain

// Payloads relayed to room members. Message and Notification are pushed as-is.

type TypingEvent struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

type SeenEvent struct {
	UserID         string `json:"userId"`
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

type JoinedEvent struct {
	ConversationID string `json:"conversationId"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}
