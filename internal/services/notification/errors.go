package notification

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypePersistence ErrorType = "PERSISTENCE"
)

type NotificationError struct {
	Type      ErrorType
	Operation string
	Message   string
	UserID    string
	Cause     error
}

func (e *NotificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Notification %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Notification %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *NotificationError) Unwrap() error {
	return e.Cause
}

func NewValidationError(operation, msg string) *NotificationError {
	return &NotificationError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewPersistenceError(operation, userID string, cause error) *NotificationError {
	return &NotificationError{
		Type:      ErrTypePersistence,
		Operation: operation,
		Message:   "notification store failed",
		UserID:    userID,
		Cause:     cause,
	}
}

// IsValidation reports whether err is a NotificationError caused by bad input.
func IsValidation(err error) bool {
	var nErr *NotificationError
	return errors.As(err, &nErr) && nErr.Type == ErrTypeValidation
}
