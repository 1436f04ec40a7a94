package notification

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudly/realtime/internal/domain"
	"github.com/mudly/realtime/internal/realtime"
	"github.com/mudly/realtime/internal/repository"
	notificationrepo "github.com/mudly/realtime/internal/repository/notification"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

type recordingPusher struct {
	rooms []string
}

func (p *recordingPusher) Broadcast(roomID string, ev realtime.Event, exclude *realtime.Session) (int, error) {
	p.rooms = append(p.rooms, roomID)
	return 0, nil
}

type failingStore struct{}

func (failingStore) Create(context.Context, *domain.Notification) (*domain.Notification, error) {
	return nil, errors.New("disk full")
}

func (failingStore) ListRecent(context.Context, string, int) ([]domain.Notification, error) {
	return nil, errors.New("disk full")
}

func newStore(t *testing.T) notificationrepo.NotificationRepository {
	t.Helper()
	db, err := repository.Open(repository.Config{
		Driver: repository.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "dispatch.db"),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() { _ = repository.Close(db) })
	return notificationrepo.NewNotificationRepository(db)
}

func TestDispatchWithoutLiveSessionPersists(t *testing.T) {
	store := newStore(t)
	reg := realtime.NewRegistry(nopLogger{})
	d := NewDispatcher(store, reg, nopLogger{})
	ctx := context.Background()

	n, err := d.Dispatch(ctx, "3", domain.NotificationMention, "x mentioned you", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, domain.NotificationMention, n.Type)

	list, err := d.ListRecent(ctx, "3")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
	assert.Zero(t, reg.RoomCount())
}

func TestDispatchPushesToPrivateRoom(t *testing.T) {
	reg := realtime.NewRegistry(nopLogger{})
	d := NewDispatcher(newStore(t), reg, nopLogger{})

	mine := realtime.NewSession(domain.Principal{UserID: "1"}, 4)
	other := realtime.NewSession(domain.Principal{UserID: "2"}, 4)
	require.NoError(t, reg.Join(realtime.UserRoom("1"), mine))
	require.NoError(t, reg.Join(realtime.UserRoom("2"), other))

	var frames [][]byte
	w := writerFunc(func(p []byte) (int, error) {
		frames = append(frames, append([]byte(nil), p...))
		reg.DisconnectAll(mine)
		return len(p), nil
	})

	n, err := d.Dispatch(context.Background(), "1", domain.NotificationNewComment, "New comment on your post", map[string]interface{}{
		"actorId": "2",
		"postId":  "post-9",
	})
	require.NoError(t, err)
	require.NoError(t, mine.WritePump(w))

	require.Len(t, frames, 1)
	var got struct {
		Event string              `json:"event"`
		Data  domain.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frames[0], &got))
	assert.Equal(t, realtime.EventNotificationNew, got.Event)
	assert.Equal(t, n.ID, got.Data.ID)
	assert.Equal(t, "post-9", got.Data.Metadata["postId"])
	assert.Empty(t, reg.Members(realtime.UserRoom("1")))
	assert.Len(t, reg.Members(realtime.UserRoom("2")), 1)
}

func TestDispatchStoreFailureSkipsPush(t *testing.T) {
	pusher := &recordingPusher{}
	d := NewDispatcher(failingStore{}, pusher, nopLogger{})

	_, err := d.Dispatch(context.Background(), "1", domain.NotificationSystem, "hello", nil)
	var nErr *NotificationError
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, ErrTypePersistence, nErr.Type)
	assert.Empty(t, pusher.rooms)

	_, err = d.ListRecent(context.Background(), "1")
	assert.Error(t, err)
}

func TestDispatchValidation(t *testing.T) {
	pusher := &recordingPusher{}
	d := NewDispatcher(failingStore{}, pusher, nopLogger{})
	ctx := context.Background()

	_, err := d.Dispatch(ctx, "", domain.NotificationSystem, "x", nil)
	assert.True(t, IsValidation(err))
	_, err = d.Dispatch(ctx, "1", domain.NotificationType("PARTY"), "x", nil)
	assert.True(t, IsValidation(err))
	_, err = d.Dispatch(ctx, "1", domain.NotificationSystem, " ", nil)
	assert.True(t, IsValidation(err))
	_, err = d.ListRecent(ctx, "")
	assert.True(t, IsValidation(err))
	assert.Empty(t, pusher.rooms)
}

func TestWarnSendsAIWarning(t *testing.T) {
	pusher := &recordingPusher{}
	d := NewDispatcher(newStore(t), pusher, nopLogger{})

	n, err := d.Warn(context.Background(), "1", "Your comment was blocked", map[string]interface{}{"score": 90})
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationAIWarning, n.Type)
	assert.Equal(t, "Your comment was blocked", n.Content)
	assert.Equal(t, []string{"user:1"}, pusher.rooms)
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
