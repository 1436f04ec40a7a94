package realtime

import (
	"encoding/json"
	"fmt"
)

// Wire event names shared by the chat and notification gateways.
const (
	EventConversationJoin   = "conversation:join"
	EventConversationJoined = "conversation:joined"
	EventConversationLeave  = "conversation:leave"
	EventMessageSend        = "message:send"
	EventMessageNew         = "message:new"
	EventMessageSeen        = "message:seen"
	EventTypingStart        = "typing:start"
	EventTypingStop         = "typing:stop"
	EventNotificationNew    = "notification:new"
	EventError              = "error"
)

// UserRoom is the private channel of a single user.
func UserRoom(userID string) string {
	return "user:" + userID
}

// Event is one outbound frame: {"event": name, "data": payload}.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

func NewEvent(name string, data interface{}) Event {
	return Event{Name: name, Data: data}
}

func (e Event) Encode() ([]byte, error) {
	if e.Name == "" {
		return nil, fmt.Errorf("event name is required")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Name, err)
	}
	return b, nil
}

// Frame is one inbound frame. Data is decoded per event type by the gateway.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
