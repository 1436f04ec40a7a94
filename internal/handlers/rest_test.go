package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudly/realtime/internal/domain"
	"github.com/mudly/realtime/internal/middleware"
)

func TestConversationRoutes(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())
	alice := h.token(t, "1")

	resp, body := h.doJSON(t, http.MethodPost, "/api/chat/conversations", alice, map[string]interface{}{
		"participantIds": []string{"2", "2", ""},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	conv := body["data"].(map[string]interface{})
	convID := conv["id"].(string)
	assert.NotEmpty(t, convID)
	assert.Len(t, conv["participants"], 2)

	resp, body = h.doJSON(t, http.MethodPost, "/api/chat/conversations", alice, map[string]interface{}{
		"participantIds": []string{"1"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["errorCode"])

	resp, body = h.doJSON(t, http.MethodGet, "/api/chat/conversations", h.token(t, "2"), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := body["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, convID, list[0].(map[string]interface{})["id"])

	resp, body = h.doJSON(t, http.MethodGet, "/api/chat/conversations", h.token(t, "3"), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["data"])
}

func TestGetMessagesPagesHistory(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())
	h.seedConversation(t, "conv-1", "1", "2")

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, h.db.Create(&domain.Message{
			ID: id, ConversationID: "conv-1", SenderID: "1", Content: id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	resp, body := h.doJSON(t, http.MethodGet, "/api/chat/conversations/conv-1/messages?limit=2", h.token(t, "2"), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := body["data"].([]interface{})
	require.Len(t, page, 2)
	assert.Equal(t, "m2", page[0].(map[string]interface{})["id"])
	assert.Equal(t, "m3", page[1].(map[string]interface{})["id"])

	before := base.Add(time.Minute).Format(time.RFC3339Nano)
	resp, body = h.doJSON(t, http.MethodGet, "/api/chat/conversations/conv-1/messages?before="+before, h.token(t, "1"), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = body["data"].([]interface{})
	require.Len(t, page, 1)
	assert.Equal(t, "m1", page[0].(map[string]interface{})["id"])

	resp, _ = h.doJSON(t, http.MethodGet, "/api/chat/conversations/conv-1/messages?limit=zero", h.token(t, "1"), nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.doJSON(t, http.MethodGet, "/api/chat/conversations/conv-1/messages?before=yesterday", h.token(t, "1"), nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = h.doJSON(t, http.MethodGet, "/api/chat/conversations/conv-1/messages", h.token(t, "9"), nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["errorCode"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())

	resp, body := h.doJSON(t, http.MethodGet, "/api/chat/conversations", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	resp, _ = h.doJSON(t, http.MethodGet, "/api/notifications/me", "not-a-jwt", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotificationsMeListsRecent(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())
	key := map[string]string{middleware.InternalKeyHeader: testInternalKey}

	for _, content := range []string{"first", "second"} {
		resp, _ := h.doJSON(t, http.MethodPost, "/api/notifications/internal", "", map[string]interface{}{
			"userId": "1", "type": "SYSTEM", "content": content,
		}, key)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp, _ := h.doJSON(t, http.MethodPost, "/api/notifications/internal", "", map[string]interface{}{
		"userId": "2", "type": "SYSTEM", "content": "not yours",
	}, key)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := h.doJSON(t, http.MethodGet, "/api/notifications/me", h.token(t, "1"), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := body["data"].([]interface{})
	require.Len(t, list, 2)
	for _, item := range list {
		assert.Equal(t, "1", item.(map[string]interface{})["userId"])
	}
}

func TestInternalDispatchGuards(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())
	payload := map[string]interface{}{"userId": "1", "type": "SYSTEM", "content": "hi"}

	resp, _ := h.doJSON(t, http.MethodPost, "/api/notifications/internal", "", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = h.doJSON(t, http.MethodPost, "/api/notifications/internal", "", payload,
		map[string]string{middleware.InternalKeyHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := h.doJSON(t, http.MethodPost, "/api/notifications/internal", "", map[string]interface{}{
		"userId": "1", "type": "BOGUS", "content": "hi",
	}, map[string]string{middleware.InternalKeyHeader: testInternalKey})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["errorCode"])
}

func TestAdminDispatchRequiresAdminRole(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())
	payload := map[string]interface{}{"userId": "1", "type": "SYSTEM", "content": "hello from ops"}

	resp, _ := h.doJSON(t, http.MethodPost, "/api/admin/notifications", h.token(t, "1"), payload, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := h.doJSON(t, http.MethodPost, "/api/admin/notifications", h.adminToken(t, "ops"), payload, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "hello from ops", body["data"].(map[string]interface{})["content"])
}

func TestToxicDetect(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())
	tok := h.token(t, "1")

	resp, body := h.doJSON(t, http.MethodPost, "/api/ai/toxic-detect", tok, map[string]string{"text": "you are SPAM"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := body["data"].(map[string]interface{})
	assert.Equal(t, true, res["toxic"])
	assert.Equal(t, float64(30), res["score"])
	assert.Equal(t, "spam", res["category"])

	resp, _ = h.doJSON(t, http.MethodPost, "/api/ai/toxic-detect", tok, map[string]string{"text": "  "}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommentReviewWarnsAuthorWhenBlocked(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())
	tok := h.token(t, "1")

	resp, body := h.doJSON(t, http.MethodPost, "/api/moderation/comments/review", tok, map[string]string{
		"authorId": "5", "postId": "p-9", "text": "toxic hate spam",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verdict := body["data"].(map[string]interface{})
	assert.Equal(t, false, verdict["allowed"])
	assert.Equal(t, float64(80), verdict["threshold"])

	var warnings []domain.Notification
	require.NoError(t, h.db.Where("user_id = ?", "5").Find(&warnings).Error)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.NotificationAIWarning, warnings[0].Type)
	assert.Equal(t, "p-9", warnings[0].Metadata["postId"])
	assert.Equal(t, "hate", warnings[0].Metadata["category"])

	// 60 clears the comment threshold even though it would block a chat message.
	resp, body = h.doJSON(t, http.MethodPost, "/api/moderation/comments/review", tok, map[string]string{
		"authorId": "6", "text": "toxic spam",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["data"].(map[string]interface{})["allowed"])

	var count int64
	require.NoError(t, h.db.Model(&domain.Notification{}).Where("user_id = ?", "6").Count(&count).Error)
	assert.Zero(t, count)

	resp, _ = h.doJSON(t, http.MethodPost, "/api/moderation/comments/review", tok, map[string]string{"text": "hi"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndFallbackRoutes(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())

	resp, body := h.doJSON(t, http.MethodGet, "/health", "", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.Contains(t, data["rooms"], "chat")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = h.doJSON(t, http.MethodGet, "/nope", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["errorCode"])
}

func TestFrontendLogAccepted(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())

	resp, _ := h.doJSON(t, http.MethodPost, "/api/log", "", map[string]interface{}{
		"level": "warn", "message": "socket reconnecting", "context": map[string]int{"attempt": 3},
	}, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
