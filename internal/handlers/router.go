// File: internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mudly/realtime/internal/middleware"
	"github.com/mudly/realtime/internal/ratelimit"
)

type RouterDeps struct {
	Verifier           middleware.TokenVerifier
	InternalKey        string
	APILimiter         *ratelimit.MemoryRateLimiter
	ChatSocket         http.Handler
	NotificationSocket http.Handler
	Conversations      *ConversationHandler
	Notifications      *NotificationHandler
	Moderation         *ModerationHandler
	Logs               *LogHandler
	Health             http.HandlerFunc
	Logger             Logger
}

func NewRouter(d RouterDeps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.CORS)
	r.Use(middleware.RecoverPanic(d.Logger))
	r.Use(middleware.LoggingMiddleware(d.Logger))

	// --- Public Routes ---
	r.HandleFunc("/health", d.Health).Methods(http.MethodGet)
	r.Handle("/ws/chat", d.ChatSocket).Methods(http.MethodGet)
	r.Handle("/ws/notifications", d.NotificationSocket).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if d.APILimiter != nil {
		api.Use(middleware.RateLimitMiddleware(d.APILimiter, "api"))
	}
	api.HandleFunc("/log", d.Logs.LogFrontendEvent).Methods(http.MethodPost)

	// --- Service-to-service Routes ---
	internal := api.PathPrefix("/notifications/internal").Subrouter()
	internal.Use(middleware.RequireInternalKey(d.InternalKey))
	internal.HandleFunc("", d.Notifications.Dispatch).Methods(http.MethodPost)

	// --- Protected Routes ---
	authMiddleware := middleware.NewJWTMiddleware(d.Verifier)
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/chat/conversations", d.Conversations.ListConversations).Methods(http.MethodGet)
	protected.HandleFunc("/chat/conversations", d.Conversations.CreateConversation).Methods(http.MethodPost)
	protected.HandleFunc("/chat/conversations/{id}/messages", d.Conversations.GetMessages).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/me", d.Notifications.GetMine).Methods(http.MethodGet)
	protected.HandleFunc("/ai/toxic-detect", d.Moderation.ToxicDetect).Methods(http.MethodPost)
	protected.HandleFunc("/moderation/comments/review", d.Moderation.ReviewComment).Methods(http.MethodPost)

	// --- Admin Routes ---
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/notifications", d.Notifications.Dispatch).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})
	return r
}
