package room

import (
	"context"
	"sync"

	"github.com/samber/lo"
)

type member struct {
	connID string
	name   string
}

// Room is one shared buffer plus its members. Every field below mu is only
// touched while mu is held.
type Room struct {
	ID string

	mu         sync.Mutex
	members    []member // join order, keyed by connection id
	code       string
	lastOutput string
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
}

func newRoom(id string) *Room {
	ctx, cancel := context.WithCancel(context.Background())
	return &Room{
		ID:     id,
		ctx:    ctx,
		cancel: cancel,
	}
}

// add inserts the connection or renames it in place if already present.
func (r *Room) add(connID, name string) {
	for i := range r.members {
		if r.members[i].connID == connID {
			r.members[i].name = name
			return
		}
	}
	r.members = append(r.members, member{connID: connID, name: name})
}

func (r *Room) remove(connID string) bool {
	before := len(r.members)
	r.members = lo.Reject(r.members, func(m member, _ int) bool {
		return m.connID == connID
	})
	return len(r.members) != before
}

func (r *Room) empty() bool {
	return len(r.members) == 0
}

// names is the de-duplicated display name list in first-join order.
func (r *Room) names() []string {
	return lo.Uniq(lo.Map(r.members, func(m member, _ int) string {
		return m.name
	}))
}

// connIDs lists member connections, skipping except when it is non-empty.
func (r *Room) connIDs(except string) []string {
	return lo.FilterMap(r.members, func(m member, _ int) (string, bool) {
		return m.connID, except == "" || m.connID != except
	})
}

func (r *Room) close() {
	r.closed = true
	r.cancel()
}
