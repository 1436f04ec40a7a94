package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
	"gorm.io/gorm"

	"github.com/mudly/realtime/internal/auth"
	"github.com/mudly/realtime/internal/domain"
	"github.com/mudly/realtime/internal/ratelimit"
	"github.com/mudly/realtime/internal/realtime"
	"github.com/mudly/realtime/internal/repository"
	"github.com/mudly/realtime/internal/repository/conversation"
	"github.com/mudly/realtime/internal/repository/message"
	notificationrepo "github.com/mudly/realtime/internal/repository/notification"
	"github.com/mudly/realtime/internal/services/chat"
	"github.com/mudly/realtime/internal/services/moderation"
	"github.com/mudly/realtime/internal/services/notification"
)

const (
	testSecret      = "handlers-test-secret"
	testInternalKey = "internal-test-key"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

type harness struct {
	srv         *httptest.Server
	db          *gorm.DB
	issuer      *auth.Issuer
	chatRooms   *realtime.Registry
	notifyRooms *realtime.Registry
}

func newHarness(t *testing.T, gwCfg GatewayConfig) *harness {
	t.Helper()

	db, err := repository.Open(repository.Config{
		Driver: repository.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "handlers.db"),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)
	issuer, err := auth.NewIssuer(testSecret)
	require.NoError(t, err)

	logger := nopLogger{}
	chatRooms := realtime.NewRegistry(logger)
	notifyRooms := realtime.NewRegistry(logger)

	gate := moderation.NewGate(moderation.NewKeywordClassifier(), moderation.DefaultConfig(), logger)
	chatService, err := chat.NewService(
		conversation.NewConversationRepository(db),
		message.NewMessageRepository(db),
		gate,
		nil,
		logger,
	)
	require.NoError(t, err)
	dispatcher := notification.NewDispatcher(notificationrepo.NewNotificationRepository(db), notifyRooms, logger)

	limiter := ratelimit.NewMemoryRateLimiter(&ratelimit.Config{
		WindowSize:    time.Minute,
		MaxAttempts:   3,
		CleanupPeriod: time.Hour,
		BanDuration:   time.Minute,
	})

	router := NewRouter(RouterDeps{
		Verifier:           verifier,
		InternalKey:        testInternalKey,
		ChatSocket:         NewChatSocketHandler(NewGateway("chat", chatRooms, verifier, limiter, gwCfg, logger), chatService, logger),
		NotificationSocket: NewNotificationSocketHandler(NewGateway("notifications", notifyRooms, verifier, limiter, gwCfg, logger), logger),
		Conversations:      NewConversationHandler(chatService, logger),
		Notifications:      NewNotificationHandler(dispatcher, logger),
		Moderation:         NewModerationHandler(gate, dispatcher, logger),
		Logs:               NewLogHandler(logger),
		Health: NewHealthHandler(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}, map[string]*realtime.Registry{"chat": chatRooms, "notifications": notifyRooms}),
		Logger: logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		chatRooms.Close()
		notifyRooms.Close()
		limiter.Close()
		_ = repository.Close(db)
	})

	return &harness{srv: srv, db: db, issuer: issuer, chatRooms: chatRooms, notifyRooms: notifyRooms}
}

func (h *harness) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := h.issuer.Issue(domain.Principal{UserID: userID, Email: userID + "@example.com", Role: "USER"}, time.Hour)
	require.NoError(t, err)
	return token
}

func (h *harness) adminToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := h.issuer.Issue(domain.Principal{UserID: userID, Role: domain.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	return token
}

func (h *harness) dial(t *testing.T, path, userID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(h.srv.URL, "http") + path
	cfg, err := websocket.NewConfig(wsURL, h.srv.URL)
	require.NoError(t, err)
	cfg.Header = http.Header{}
	cfg.Header.Set("Authorization", "Bearer "+h.token(t, userID))

	conn, err := websocket.DialConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (h *harness) seedConversation(t *testing.T, id string, participants ...string) {
	t.Helper()
	_, err := conversation.NewConversationRepository(h.db).
		Create(context.Background(), &domain.Conversation{ID: id}, participants)
	require.NoError(t, err)
}

type wsEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	require.NoError(t, websocket.JSON.Send(conn, map[string]interface{}{"event": event, "data": data}))
}

func readEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var raw []byte
	require.NoError(t, websocket.Message.Receive(conn, &raw))
	var ev wsEvent
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

// join sends conversation:join and waits for the acknowledgement so the
// session is a room member before the test continues.
func join(t *testing.T, conn *websocket.Conn, conversationID string) {
	t.Helper()
	sendEvent(t, conn, realtime.EventConversationJoin, map[string]string{"conversationId": conversationID})
	ev := readEvent(t, conn)
	require.Equal(t, realtime.EventConversationJoined, ev.Event)
}

func (h *harness) doJSON(t *testing.T, method, path, token string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequest(method, h.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}
