package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/mudly/realtime/internal/auth"
	"github.com/mudly/realtime/internal/domain"
)

// TokenVerifier validates bearer credentials.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

// NewJWTMiddleware rejects requests without a valid bearer token and stores
// the principal in the request context.
func NewJWTMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				log.Printf("[AuthMiddleware] Invalid token for %s: %v", r.URL.Path, err)
				msg := "Invalid token"
				if auth.IsExpired(err) {
					msg = "Token expired"
				}
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(domain.Principal)
	return p, ok && p.UserID != ""
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   false,
		"message":   message,
		"errorCode": code,
	})
}
