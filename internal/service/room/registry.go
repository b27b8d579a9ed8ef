package room

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Registry owns every live Room. It only guards the id -> room map; room
// contents are protected by each room's own mutex.
//
// Lock order is session -> room -> registry. The registry never takes a room
// lock while holding its own.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

func (g *Registry) GetOrCreate(id string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[id]; ok {
		return r
	}
	r := newRoom(id)
	g.rooms[id] = r
	setRooms(len(g.rooms))
	return r
}

func (g *Registry) Get(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// Remove drops the room and cancels its lifetime context. Unknown ids are a no-op.
func (g *Registry) Remove(id string) {
	g.mu.Lock()
	r, ok := g.rooms[id]
	if ok {
		delete(g.rooms, id)
		setRooms(len(g.rooms))
	}
	g.mu.Unlock()

	if ok {
		r.mu.Lock()
		r.close()
		r.mu.Unlock()
	}
}

// release deletes r if it is still the registered room for its id.
// Caller holds r.mu.
func (g *Registry) release(r *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.rooms[r.ID]; ok && cur == r {
		delete(g.rooms, r.ID)
		setRooms(len(g.rooms))
	}
}

func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

func (g *Registry) IDs() []string {
	g.mu.RLock()
	ids := lo.Keys(g.rooms)
	g.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
