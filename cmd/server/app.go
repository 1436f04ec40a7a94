// File: cmd/server/app.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mudly/realtime/internal/auth"
	"github.com/mudly/realtime/internal/config"
	"github.com/mudly/realtime/internal/handlers"
	"github.com/mudly/realtime/internal/ratelimit"
	"github.com/mudly/realtime/internal/realtime"
	"github.com/mudly/realtime/internal/repository"
	"github.com/mudly/realtime/internal/repository/conversation"
	"github.com/mudly/realtime/internal/repository/message"
	notificationrepo "github.com/mudly/realtime/internal/repository/notification"
	"github.com/mudly/realtime/internal/services"
	"github.com/mudly/realtime/internal/services/chat"
	"github.com/mudly/realtime/internal/services/moderation"
	"github.com/mudly/realtime/internal/services/notification"
)

// Application aggregates everything the server process owns.
type Application struct {
	Config      *config.Config
	Logger      services.Logger
	DB          *gorm.DB
	ChatRooms   *realtime.Registry
	NotifyRooms *realtime.Registry
	Handshakes  *ratelimit.MemoryRateLimiter
	APILimiter  *ratelimit.MemoryRateLimiter
	ChatService chat.Service
	Dispatcher  *notification.Dispatcher
	Gate        *moderation.Gate
	Router      http.Handler
}

// ProvideModerationConfig maps environment settings onto the gate config.
func ProvideModerationConfig(cfg *config.Config) moderation.Config {
	modCfg := moderation.DefaultConfig()
	if cfg.ModerationProvider != "" {
		modCfg.Provider = strings.ToLower(cfg.ModerationProvider)
	}
	if len(cfg.BannedTerms) > 0 {
		modCfg.BannedTerms = cfg.BannedTerms
	}
	if cfg.ChatThreshold > 0 {
		modCfg.ChatThreshold = cfg.ChatThreshold
	}
	if cfg.CommentThreshold > 0 {
		modCfg.CommentThreshold = cfg.CommentThreshold
	}
	modCfg.OpenAI.APIKey = cfg.OpenAIAPIKey
	modCfg.OpenAI.BaseURL = cfg.OpenAIBaseURL
	modCfg.OpenAI.Model = cfg.OpenAIModel
	return modCfg
}

func ProvideGatewayConfig(cfg *config.Config) handlers.GatewayConfig {
	return handlers.GatewayConfig{
		SendBuffer:         cfg.WSSendBuffer,
		MaxFramesPerSecond: cfg.WSMaxFramesPerSecond,
		MaxDecodeErrors:    cfg.WSMaxDecodeErrors,
		MaxPayloadBytes:    cfg.WSMaxPayloadBytes,
	}
}

func ProvideHandshakeLimiter(cfg *config.Config) *ratelimit.MemoryRateLimiter {
	rl := ratelimit.DefaultHandshakeConfig()
	rl.MaxAttempts = cfg.HandshakeMaxFailures
	if cfg.HandshakeBanDuration > 0 {
		rl.BanDuration = cfg.HandshakeBanDuration
	}
	return ratelimit.NewMemoryRateLimiter(rl)
}

// ProvideAPILimiter returns nil when API rate limiting is disabled.
func ProvideAPILimiter(cfg *config.Config) *ratelimit.MemoryRateLimiter {
	if cfg.APIRequestsPerMinute <= 0 {
		return nil
	}
	rl := ratelimit.DefaultAPIConfig()
	rl.MaxAttempts = cfg.APIRequestsPerMinute
	return ratelimit.NewMemoryRateLimiter(rl)
}

// InitializeApplication builds the object graph on an open, migrated database.
func InitializeApplication(cfg *config.Config, logger services.Logger, db *gorm.DB) (*Application, error) {
	verifier, err := auth.NewVerifier(cfg.JWTSecretKey)
	if err != nil {
		return nil, fmt.Errorf("jwt verifier: %w", err)
	}

	modCfg := ProvideModerationConfig(cfg)
	classifier, err := moderation.NewClassifier(modCfg)
	if err != nil {
		return nil, fmt.Errorf("moderation classifier: %w", err)
	}
	gate := moderation.NewGate(classifier, modCfg, logger)

	chatRooms := realtime.NewRegistry(logger)
	notifyRooms := realtime.NewRegistry(logger)

	chatService, err := chat.NewService(
		conversation.NewConversationRepository(db),
		message.NewMessageRepository(db),
		gate,
		chat.DefaultConfig(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("chat service: %w", err)
	}
	dispatcher := notification.NewDispatcher(notificationrepo.NewNotificationRepository(db), notifyRooms, logger)

	handshakes := ProvideHandshakeLimiter(cfg)
	apiLimiter := ProvideAPILimiter(cfg)
	gwCfg := ProvideGatewayConfig(cfg)

	router := handlers.NewRouter(handlers.RouterDeps{
		Verifier:           verifier,
		InternalKey:        cfg.InternalAPIKey,
		APILimiter:         apiLimiter,
		ChatSocket:         handlers.NewChatSocketHandler(handlers.NewGateway("chat", chatRooms, verifier, handshakes, gwCfg, logger), chatService, logger),
		NotificationSocket: handlers.NewNotificationSocketHandler(handlers.NewGateway("notifications", notifyRooms, verifier, handshakes, gwCfg, logger), logger),
		Conversations:      handlers.NewConversationHandler(chatService, logger),
		Notifications:      handlers.NewNotificationHandler(dispatcher, logger),
		Moderation:         handlers.NewModerationHandler(gate, dispatcher, logger),
		Logs:               handlers.NewLogHandler(logger),
		Health: handlers.NewHealthHandler(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}, map[string]*realtime.Registry{"chat": chatRooms, "notifications": notifyRooms}),
		Logger: logger,
	})

	return &Application{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		ChatRooms:   chatRooms,
		NotifyRooms: notifyRooms,
		Handshakes:  handshakes,
		APILimiter:  apiLimiter,
		ChatService: chatService,
		Dispatcher:  dispatcher,
		Gate:        gate,
		Router:      router,
	}, nil
}

// Close disconnects every session and releases background resources.
func (a *Application) Close() {
	a.ChatRooms.Close()
	a.NotifyRooms.Close()
	a.Handshakes.Close()
	if a.APILimiter != nil {
		a.APILimiter.Close()
	}
	if err := repository.Close(a.DB); err != nil {
		a.Logger.Warn("Database close failed", "error", err)
	}
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
