// File: internal/middleware/constants.go
package middleware

// Context keys for middleware communication
type contextKey string

const (
	PrincipalKey contextKey = "principal"
	RequestIDKey contextKey = "request_id"
)

const InternalKeyHeader = "X-Internal-Key"
