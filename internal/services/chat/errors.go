package chat

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeValidation      ErrorType = "VALIDATION"
	ErrTypeNotFound        ErrorType = "NOT_FOUND"
	ErrTypeForbidden       ErrorType = "FORBIDDEN"
	ErrTypeContentRejected ErrorType = "CONTENT_REJECTED"
	ErrTypeModeration      ErrorType = "MODERATION"
	ErrTypePersistence     ErrorType = "PERSISTENCE"
)

// BlockedMessage is the text reported to a sender whose message failed moderation.
const BlockedMessage = "Message blocked due to toxicity."

type ChatError struct {
	Type           ErrorType
	Operation      string
	Message        string
	ConversationID string
	UserID         string
	Cause          error
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Chat %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Chat %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Cause
}

func NewValidationError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewNotFoundError(operation, msg string, cause error) *ChatError {
	return &ChatError{Type: ErrTypeNotFound, Operation: operation, Message: msg, Cause: cause}
}

func NewForbiddenError(userID, conversationID string) *ChatError {
	return &ChatError{
		Type:           ErrTypeForbidden,
		Operation:      "authorization",
		Message:        "conversation not found or unauthorized",
		UserID:         userID,
		ConversationID: conversationID,
	}
}

func NewContentRejectedError(userID, conversationID string) *ChatError {
	return &ChatError{
		Type:           ErrTypeContentRejected,
		Operation:      "send_message",
		Message:        BlockedMessage,
		UserID:         userID,
		ConversationID: conversationID,
	}
}

func NewModerationError(operation string, cause error) *ChatError {
	return &ChatError{Type: ErrTypeModeration, Operation: operation, Message: "moderation unavailable", Cause: cause}
}

func NewPersistenceError(operation, msg string, cause error) *ChatError {
	return &ChatError{Type: ErrTypePersistence, Operation: operation, Message: msg, Cause: cause}
}

// TypeOf returns the ChatError type carried by err, or "" if there is none.
func TypeOf(err error) ErrorType {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr.Type
	}
	return ""
}
