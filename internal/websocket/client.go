package websocket

import (
	"log/slog"
	"sync"
	"time"

	"codeshare-backend/internal/service/room"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type WSClient struct {
	Conn    *websocket.Conn
	Message chan []byte
	ID      string

	session *room.Session
	log     *slog.Logger
	done    chan struct{} // closed when the read loop exits

	mu       sync.Mutex // serializes writes on Conn
	isClosed bool

	sendMu     sync.Mutex // guards closing Message
	sendClosed bool
}

func newClient(conn *websocket.Conn, id string, bufferSize int, log *slog.Logger) *WSClient {
	return &WSClient{
		Conn:    conn,
		Message: make(chan []byte, bufferSize),
		ID:      id,
		session: room.NewSession(id),
		log:     log.With("conn", id),
		done:    make(chan struct{}),
	}
}

// enqueue hands a frame to the writer without blocking. A client whose
// buffer is full is cut off: its channel is closed so the writer hangs up.
func (cl *WSClient) enqueue(frame []byte) bool {
	cl.sendMu.Lock()
	defer cl.sendMu.Unlock()
	if cl.sendClosed {
		return false
	}
	select {
	case cl.Message <- frame:
		return true
	default:
		cl.log.Warn("client send buffer full, disconnecting")
		countDropped()
		cl.closeSendLocked()
		return false
	}
}

func (cl *WSClient) closeSend() {
	cl.sendMu.Lock()
	defer cl.sendMu.Unlock()
	cl.closeSendLocked()
}

func (cl *WSClient) closeSendLocked() {
	if !cl.sendClosed {
		cl.sendClosed = true
		close(cl.Message)
	}
}

func (cl *WSClient) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			_ = cl.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := cl.Conn.WriteMessage(websocket.PingMessage, nil)
			cl.mu.Unlock()

			if err != nil {
				cl.log.Debug("ping failed", "err", err)
				return
			}
		}
	}
}

func (cl *WSClient) writeMessage() {
	defer func() {
		cl.mu.Lock()
		cl.isClosed = true
		cl.Conn.Close()
		cl.mu.Unlock()
	}()

	for {
		select {
		case <-cl.done:
			return
		case msg, ok := <-cl.Message:
			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			_ = cl.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				select {
				case <-cl.done:
				default:
					_ = cl.Conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "send buffer overflow"))
				}
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteMessage(websocket.TextMessage, msg)
			cl.mu.Unlock()

			if err != nil {
				cl.log.Debug("write failed", "err", err)
				return
			}
		}
	}
}

func (cl *WSClient) readMessage(h *Handler) {
	defer func() {
		if r := recover(); r != nil {
			cl.log.Error("recovered from panic in read loop", "panic", r)
		}
		close(cl.done)
		h.disconnect(cl)
	}()

	cl.Conn.SetReadLimit(h.opts.MaxMessageSize)
	_ = cl.Conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.Conn.SetPongHandler(func(string) error {
		return cl.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := cl.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				cl.log.Warn("read failed", "err", err)
			}
			return
		}
		h.router.Dispatch(cl, message)
	}
}
