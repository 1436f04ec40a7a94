package moderation

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeProvider   ErrorType = "PROVIDER"
	ErrTypeValidation ErrorType = "VALIDATION"
)

type ModerationError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *ModerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Moderation %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Moderation %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ModerationError) Unwrap() error {
	return e.Cause
}

func NewConfigError(msg string) *ModerationError {
	return &ModerationError{Type: ErrTypeConfig, Operation: "config", Message: msg}
}

func NewProviderError(operation, msg string, cause error) *ModerationError {
	return &ModerationError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}
