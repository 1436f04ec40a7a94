// File: internal/middleware/admin_middleware.go
package middleware

import (
	"log"
	"net/http"
)

// RequireAdmin allows only principals with the ADMIN role.
// It MUST be used AFTER the JWT middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		if !principal.IsAdmin() {
			log.Printf("[AdminMiddleware] FORBIDDEN: user %s attempted to access admin route: %s", principal.UserID, r.URL.Path)
			writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
