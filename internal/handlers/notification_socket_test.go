package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudly/realtime/internal/domain"
	"github.com/mudly/realtime/internal/middleware"
	"github.com/mudly/realtime/internal/realtime"
)

func TestNotificationSocketReceivesOnlyOwnNotifications(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())

	mine := h.dial(t, "/ws/notifications", "7")
	other := h.dial(t, "/ws/notifications", "8")
	chatConn := h.dial(t, "/ws/chat", "7")
	require.Eventually(t, func() bool {
		return len(h.notifyRooms.Members(realtime.UserRoom("7"))) == 1 &&
			len(h.notifyRooms.Members(realtime.UserRoom("8"))) == 1
	}, 3*time.Second, 10*time.Millisecond)

	resp, body := h.doJSON(t, http.MethodPost, "/api/notifications/internal", "", map[string]interface{}{
		"userId":   "7",
		"type":     "MENTION",
		"content":  "You were mentioned",
		"metadata": map[string]interface{}{"postId": "p-1"},
	}, map[string]string{middleware.InternalKeyHeader: testInternalKey})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	ev := readEvent(t, mine)
	require.Equal(t, realtime.EventNotificationNew, ev.Event)
	var n domain.Notification
	require.NoError(t, json.Unmarshal(ev.Data, &n))
	assert.Equal(t, "7", n.UserID)
	assert.Equal(t, domain.NotificationMention, n.Type)
	assert.Equal(t, "p-1", n.Metadata["postId"])

	// The chat socket shares the user id but not the registry.
	join(t, chatConn, "conv-1")

	// Nothing reached user 8: its next frame is the one dispatched to it.
	resp, _ = h.doJSON(t, http.MethodPost, "/api/notifications/internal", "", map[string]interface{}{
		"userId": "8", "type": "SYSTEM", "content": "maintenance tonight",
	}, map[string]string{middleware.InternalKeyHeader: testInternalKey})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ev = readEvent(t, other)
	require.Equal(t, realtime.EventNotificationNew, ev.Event)
	assert.Contains(t, string(ev.Data), "maintenance tonight")
}

func TestNotificationSocketPushesEveryOpenSessionOfUser(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())

	first := h.dial(t, "/ws/notifications", "7")
	second := h.dial(t, "/ws/notifications", "7")
	require.Eventually(t, func() bool {
		return len(h.notifyRooms.Members(realtime.UserRoom("7"))) == 2
	}, 3*time.Second, 10*time.Millisecond)

	resp, _ := h.doJSON(t, http.MethodPost, "/api/notifications/internal", "", map[string]interface{}{
		"userId": "7", "type": "NEW_MESSAGE", "content": "ping",
	}, map[string]string{middleware.InternalKeyHeader: testInternalKey})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, realtime.EventNotificationNew, readEvent(t, first).Event)
	assert.Equal(t, realtime.EventNotificationNew, readEvent(t, second).Event)
}

func TestNotificationSocketDisconnectLeavesPrivateRoom(t *testing.T) {
	h := newHarness(t, DefaultGatewayConfig())

	conn := h.dial(t, "/ws/notifications", "7")
	require.Eventually(t, func() bool { return h.notifyRooms.RoomCount() == 1 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.notifyRooms.RoomCount() == 0 }, 3*time.Second, 10*time.Millisecond)
}
