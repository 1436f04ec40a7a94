package realtime

import (
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mudly/realtime/internal/domain"
)

// DefaultSendBuffer is the number of outbound frames a session may queue before
// further frames for it are dropped.
const DefaultSendBuffer = 64

var (
	ErrSessionClosed  = errors.New("session closed")
	ErrSendBufferFull = errors.New("session send buffer full")
)

// Session is the server-side handle of one open connection. Its principal is
// fixed at construction; its room set is mutated only by the Registry.
type Session struct {
	id        string
	principal domain.Principal

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	rooms  map[string]struct{}
	closed bool
}

func NewSession(principal domain.Principal, sendBuffer int) *Session {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Session{
		id:        uuid.NewString(),
		principal: principal,
		out:       make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		rooms:     make(map[string]struct{}),
	}
}

func (s *Session) ID() string                  { return s.id }
func (s *Session) Principal() domain.Principal { return s.principal }
func (s *Session) UserID() string              { return s.principal.UserID }

// Done is closed once the session has been disconnected.
func (s *Session) Done() <-chan struct{} { return s.done }

// Rooms returns the joined room ids, sorted.
func (s *Session) Rooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		rooms = append(rooms, id)
	}
	sort.Strings(rooms)
	return rooms
}

// Closed reports whether the session has been disconnected.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Send queues an event for this session only.
func (s *Session) Send(ev Event) error {
	frame, err := ev.Encode()
	if err != nil {
		return err
	}
	return s.deliver(frame)
}

// deliver never blocks. A full queue drops the frame for this session only.
func (s *Session) deliver(frame []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.out <- frame:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		return ErrSendBufferFull
	}
}

// WritePump drains queued frames into w, one Write per frame, until the
// session is closed or a write fails. Frames queued before the close are
// still flushed.
func (s *Session) WritePump(w io.Writer) error {
	for {
		select {
		case <-s.done:
			return s.flush(w)
		case frame := <-s.out:
			if _, err := w.Write(frame); err != nil {
				return err
			}
		}
	}
}

func (s *Session) flush(w io.Writer) error {
	for {
		select {
		case frame := <-s.out:
			if _, err := w.Write(frame); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// markClosed flips the session to closed and returns the rooms it had joined.
func (s *Session) markClosed() []string {
	s.mu.Lock()
	rooms := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		rooms = append(rooms, id)
	}
	s.rooms = make(map[string]struct{})
	s.closed = true
	s.mu.Unlock()

	s.closeOnce.Do(func() { close(s.done) })
	return rooms
}

func (s *Session) addRoom(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.rooms[roomID] = struct{}{}
	return true
}

func (s *Session) removeRoom(roomID string) {
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()
}
