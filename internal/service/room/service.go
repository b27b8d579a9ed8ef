package room

import (
	"context"
	"errors"
	"log/slog"

	"codeshare-backend/internal/dto"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var ErrRoomNotFound = errors.New("room: not found")

var validate = validator.New()

// Emitter delivers an event to the given connections and reports how many
// accepted it. Implementations must not block.
type Emitter interface {
	Emit(connIDs []string, event dto.Event) int
}

// Service applies membership and buffer changes to rooms. Every change and
// the broadcast it produces happen under the room's lock, so members observe
// events in mutation order.
type Service struct {
	registry *Registry
	emitter  Emitter
	log      *slog.Logger
}

func New(registry *Registry, emitter Emitter, log *slog.Logger) *Service {
	return &Service{
		registry: registry,
		emitter:  emitter,
		log:      log,
	}
}

// Join admits the session into the room, leaving any other room first.
// Empty room ids or names are ignored and Join reports false.
func (s *Service) Join(sess *Session, p dto.JoinPayload) bool {
	if err := validate.Struct(p); err != nil {
		s.log.Debug("join ignored", "conn", sess.ID, "err", err)
		return false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.roomID != "" && sess.roomID != p.RoomID {
		s.leaveLocked(sess)
	}

	for {
		r := s.registry.GetOrCreate(p.RoomID)
		r.mu.Lock()
		if r.closed {
			// lost a race with the last member leaving; the registry already
			// holds (or will create) a fresh room
			r.mu.Unlock()
			continue
		}
		r.add(sess.ID, p.UserName)
		s.emitter.Emit(r.connIDs(""), dto.UserJoined(r.names()))
		s.emitter.Emit([]string{sess.ID}, dto.CodeUpdate(r.code))
		r.mu.Unlock()
		break
	}

	sess.roomID = p.RoomID
	sess.name = p.UserName
	countOp("join")
	s.log.Info("session joined room", "conn", sess.ID, "room", p.RoomID, "user", p.UserName)
	return true
}

// Leave removes the session from its room, if any. The room is destroyed when
// it was the last member.
func (s *Service) Leave(sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.leaveLocked(sess)
}

func (s *Service) leaveLocked(sess *Session) {
	if sess.roomID == "" {
		return
	}
	roomID := sess.roomID
	sess.roomID = ""
	sess.name = ""
	countOp("leave")

	r, ok := s.registry.Get(roomID)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.remove(sess.ID) {
		return
	}
	if r.empty() {
		r.close()
		s.registry.release(r)
		s.log.Info("room closed", "room", roomID)
		return
	}
	s.emitter.Emit(r.connIDs(""), dto.UserJoined(r.names()))
	s.log.Info("session left room", "conn", sess.ID, "room", roomID)
}

// Edit stores the full buffer and forwards it to every member but the sender.
func (s *Service) Edit(sess *Session, p dto.CodeChangePayload) {
	applied := s.withRoom(p.RoomID, func(r *Room) {
		r.code = p.Code
		s.emitter.Emit(r.connIDs(sess.ID), dto.CodeUpdate(p.Code))
	})
	if applied {
		countOp("edit")
	}
}

func (s *Service) Typing(sess *Session, p dto.TypingPayload) {
	s.withRoom(p.RoomID, func(r *Room) {
		s.emitter.Emit(r.connIDs(sess.ID), dto.UserTyping(p.UserName))
	})
}

// ChangeLanguage echoes the selection to every member, the sender included.
func (s *Service) ChangeLanguage(p dto.LanguageChangePayload) {
	applied := s.withRoom(p.RoomID, func(r *Room) {
		s.emitter.Emit(r.connIDs(""), dto.LanguageUpdate(p.Language))
	})
	if applied {
		countOp("language")
	}
}

// Broadcast sends event to every current member and returns the number of
// deliveries. Unknown rooms get nothing.
func (s *Service) Broadcast(roomID string, event dto.Event) int {
	delivered := 0
	s.withRoom(roomID, func(r *Room) {
		delivered = s.emitter.Emit(r.connIDs(""), event)
	})
	return delivered
}

func (s *Service) SendTo(connID string, event dto.Event) {
	s.emitter.Emit([]string{connID}, event)
}

// RoomContext returns a context cancelled when the room is destroyed.
func (s *Service) RoomContext(roomID string) (context.Context, bool) {
	var ctx context.Context
	ok := s.withRoom(roomID, func(r *Room) {
		ctx = r.ctx
	})
	return ctx, ok
}

func (s *Service) RecordOutput(roomID, output string) {
	s.withRoom(roomID, func(r *Room) {
		r.lastOutput = output
	})
}

func (s *Service) Snapshot(roomID string) (dto.RoomRes, error) {
	var res dto.RoomRes
	if !s.withRoom(roomID, func(r *Room) { res = snapshot(r) }) {
		return dto.RoomRes{}, ErrRoomNotFound
	}
	return res, nil
}

// Snapshots lists every live room sorted by id.
func (s *Service) Snapshots() []dto.RoomRes {
	return lo.FilterMap(s.registry.IDs(), func(id string, _ int) (dto.RoomRes, bool) {
		res, err := s.Snapshot(id)
		return res, err == nil
	})
}

func (s *Service) RoomCount() int {
	return s.registry.Count()
}

// withRoom runs fn under the room's lock. It reports false for unknown or
// already destroyed rooms.
func (s *Service) withRoom(roomID string, fn func(r *Room)) bool {
	r, ok := s.registry.Get(roomID)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	fn(r)
	return true
}

func snapshot(r *Room) dto.RoomRes {
	return dto.RoomRes{
		ID:          r.ID,
		Members:     r.names(),
		Connections: len(r.members),
		CodeLength:  len(r.code),
		LastOutput:  r.lastOutput,
	}
}
