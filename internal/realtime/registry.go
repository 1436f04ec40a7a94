package realtime

import (
	"errors"
	"sync"
)

// Logger interface for the realtime package
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Registry maps room ids to the sessions currently joined to them. The
// registry lock covers only the room lookup table; each room guards its own
// member set, so unrelated rooms never contend.
//
// Membership is never persisted. A restart drops every room and clients
// rejoin after reconnecting.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	closed bool
	logger Logger
}

type room struct {
	mu      sync.Mutex
	id      string
	members map[*Session]struct{}
	removed bool // pruned from the table; joiners must fetch a fresh room
}

func NewRegistry(logger Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*room),
		logger: logger,
	}
}

// Join adds s to roomID. Joining twice is the same as joining once. A
// disconnected session can never be joined again.
func (r *Registry) Join(roomID string, s *Session) error {
	if roomID == "" {
		return errors.New("room id is required")
	}
	if s == nil {
		return errors.New("session is required")
	}

	for {
		rm, err := r.roomFor(roomID)
		if err != nil {
			return err
		}

		rm.mu.Lock()
		if rm.removed {
			rm.mu.Unlock()
			continue
		}
		if !s.addRoom(roomID) {
			rm.mu.Unlock()
			return ErrSessionClosed
		}
		rm.members[s] = struct{}{}
		rm.mu.Unlock()

		r.logger.Debug("session joined room", "room", roomID, "session_id", s.ID(), "user_id", s.UserID())
		return nil
	}
}

// Leave removes s from roomID. It is a no-op when the room does not exist or
// s is not a member.
func (r *Registry) Leave(roomID string, s *Session) {
	if s == nil {
		return
	}
	r.leave(roomID, s)
}

// Broadcast delivers ev to a snapshot of the room's members, skipping
// exclude. It returns how many sessions accepted the frame. An empty or
// unknown room is a no-op.
func (r *Registry) Broadcast(roomID string, ev Event, exclude *Session) (int, error) {
	frame, err := ev.Encode()
	if err != nil {
		return 0, err
	}

	r.mu.RLock()
	rm := r.rooms[roomID]
	r.mu.RUnlock()
	if rm == nil {
		return 0, nil
	}

	rm.mu.Lock()
	targets := make([]*Session, 0, len(rm.members))
	for member := range rm.members {
		if member != exclude {
			targets = append(targets, member)
		}
	}
	rm.mu.Unlock()

	delivered := 0
	for _, target := range targets {
		switch err := target.deliver(frame); {
		case err == nil:
			delivered++
		case errors.Is(err, ErrSendBufferFull):
			r.logger.Warn("dropping frame for slow session",
				"room", roomID, "event", ev.Name, "session_id", target.ID(), "user_id", target.UserID())
		}
	}
	return delivered, nil
}

// DisconnectAll removes s from every room it joined and closes it. Calling it
// again is a no-op.
func (r *Registry) DisconnectAll(s *Session) {
	if s == nil {
		return
	}
	rooms := s.markClosed()
	for _, roomID := range rooms {
		r.leave(roomID, s)
	}
	if len(rooms) > 0 {
		r.logger.Debug("session disconnected", "session_id", s.ID(), "user_id", s.UserID(), "rooms", len(rooms))
	}
}

// Members returns the sessions currently joined to roomID.
func (r *Registry) Members(roomID string) []*Session {
	r.mu.RLock()
	rm := r.rooms[roomID]
	r.mu.RUnlock()
	if rm == nil {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	members := make([]*Session, 0, len(rm.members))
	for member := range rm.members {
		members = append(members, member)
	}
	return members
}

// RoomCount returns the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Close disconnects every session and clears the table. Later joins fail.
func (r *Registry) Close() {
	r.mu.Lock()
	rooms := r.rooms
	r.rooms = make(map[string]*room)
	r.closed = true
	r.mu.Unlock()

	sessions := make(map[*Session]struct{})
	for _, rm := range rooms {
		rm.mu.Lock()
		rm.removed = true
		for member := range rm.members {
			sessions[member] = struct{}{}
		}
		rm.members = make(map[*Session]struct{})
		rm.mu.Unlock()
	}
	for s := range sessions {
		s.markClosed()
	}
	r.logger.Info("room registry closed", "rooms", len(rooms), "sessions", len(sessions))
}

var errRegistryClosed = errors.New("room registry closed")

func (r *Registry) roomFor(roomID string) (*room, error) {
	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, errRegistryClosed
	}
	if ok {
		return rm, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errRegistryClosed
	}
	if rm, ok := r.rooms[roomID]; ok {
		return rm, nil
	}
	rm = &room{id: roomID, members: make(map[*Session]struct{})}
	r.rooms[roomID] = rm
	return rm, nil
}

// leave drops s from the room's member set and prunes the room once empty.
func (r *Registry) leave(roomID string, s *Session) {
	r.mu.RLock()
	rm := r.rooms[roomID]
	r.mu.RUnlock()
	if rm == nil {
		s.removeRoom(roomID)
		return
	}

	rm.mu.Lock()
	s.removeRoom(roomID)
	delete(rm.members, s)
	empty := len(rm.members) == 0
	rm.mu.Unlock()
	if !empty {
		return
	}

	r.mu.Lock()
	rm.mu.Lock()
	if len(rm.members) == 0 && r.rooms[roomID] == rm {
		rm.removed = true
		delete(r.rooms, roomID)
	}
	rm.mu.Unlock()
	r.mu.Unlock()
}
