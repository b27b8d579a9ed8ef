package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"codeshare-backend/internal/dto"
)

// Hub tracks live connections by id and delivers encoded events to them.
// It implements room.Emitter.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*WSClient
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*WSClient),
		log:     log,
	}
}

func (h *Hub) Register(cl *WSClient) {
	h.mu.Lock()
	h.clients[cl.ID] = cl
	h.mu.Unlock()
	incConnections()
}

func (h *Hub) Unregister(cl *WSClient) {
	h.mu.Lock()
	cur, ok := h.clients[cl.ID]
	if ok && cur == cl {
		delete(h.clients, cl.ID)
	}
	h.mu.Unlock()

	if ok && cur == cl {
		decConnections()
	}
	cl.closeSend()
}

// Emit encodes event once and queues it on every listed connection.
func (h *Hub) Emit(connIDs []string, event dto.Event) int {
	if len(connIDs) == 0 {
		return 0
	}
	frame, err := json.Marshal(event)
	if err != nil {
		h.log.Error("encode event", "event", event.Name, "err", err)
		return 0
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(connIDs))
	for _, id := range connIDs {
		if cl, ok := h.clients[id]; ok {
			targets = append(targets, cl)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, cl := range targets {
		if cl.enqueue(frame) {
			delivered++
		}
	}
	if delivered > 0 {
		addDelivered(delivered)
	}
	return delivered
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
