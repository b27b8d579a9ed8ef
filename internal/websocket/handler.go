package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"codeshare-backend/internal/service/execution"
	"codeshare-backend/internal/service/room"
	"codeshare-backend/utils"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Options struct {
	BufferSize     int
	MaxMessageSize int64
	AllowedOrigins []string
}

type Handler struct {
	hub      *Hub
	rooms    *room.Service
	router   *Router
	upgrader websocket.Upgrader
	opts     Options
	log      *slog.Logger
}

func NewHandler(hub *Hub, rooms *room.Service, bridge *execution.Service, opts Options, log *slog.Logger) *Handler {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 256
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 1 << 20
	}
	return &Handler{
		hub:    hub,
		rooms:  rooms,
		router: NewRouter(rooms, bridge, log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		opts: opts,
		log:  log,
	}
}

// ServeWS upgrades the request and starts the connection's pumps. After
// Upgrade the response belongs to the websocket, so failures are only logged.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "ip", utils.RealClientIP(r), "err", err)
		return nil
	}

	cl := newClient(conn, utils.NewConnectionID(), h.opts.BufferSize, h.log)
	h.hub.Register(cl)
	cl.log.Debug("client connected", "ip", utils.RealClientIP(r))

	go cl.keepAlive()
	go cl.writeMessage()
	go cl.readMessage(h)
	return nil
}

// ClientCount reports the live gateway connections.
func (h *Handler) ClientCount() int {
	return h.hub.ClientCount()
}

// disconnect runs once per connection, after its read loop ends.
func (h *Handler) disconnect(cl *WSClient) {
	h.rooms.Leave(cl.session)
	h.hub.Unregister(cl)
	cl.log.Debug("client disconnected")
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || lo.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return lo.ContainsBy(allowed, func(a string) bool {
			return strings.EqualFold(a, origin) || strings.EqualFold(a, u.Host)
		})
	}
}
