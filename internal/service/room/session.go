package room

import "sync"

// Session is the per-connection view of room membership. roomID and name
// change only inside Service.Join and Service.Leave.
type Session struct {
	ID string

	mu     sync.Mutex
	roomID string
	name   string
}

func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Current returns the joined room and display name, ok is false when the
// session is not in a room.
func (s *Session) Current() (roomID, name string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID, s.name, s.roomID != ""
}
