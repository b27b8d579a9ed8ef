package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"codeshare-backend/internal/dto"
	"codeshare-backend/internal/service/room"
)

// WebsocketServer upgrades a request into a gateway connection.
type WebsocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
	ClientCount() int
}

type RoomEndpoints struct {
	rooms      *room.Service
	ws         WebsocketServer
	roomPrefix string
}

// NewRoomEndpoints serves room diagnostics under roomPrefix ("/.../rooms/")
// and the websocket upgrade.
func NewRoomEndpoints(rooms *room.Service, ws WebsocketServer, roomPrefix string) *RoomEndpoints {
	return &RoomEndpoints{rooms: rooms, ws: ws, roomPrefix: roomPrefix}
}

func (e *RoomEndpoints) Rooms(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) error {
			return WriteJSON(w, http.StatusOK, e.rooms.Snapshots())
		},
	})
}

func (e *RoomEndpoints) Room(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) error {
			id := strings.TrimPrefix(r.URL.Path, e.roomPrefix)
			if id == "" || strings.Contains(id, "/") {
				return roomNotFound(fmt.Errorf("invalid room path: %s", r.URL.Path))
			}
			snap, err := e.rooms.Snapshot(id)
			if errors.Is(err, room.ErrRoomNotFound) {
				return roomNotFound(err)
			}
			if err != nil {
				return err
			}
			return WriteJSON(w, http.StatusOK, snap)
		},
	})
}

func (e *RoomEndpoints) Stats(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) error {
			return WriteJSON(w, http.StatusOK, dto.StatsRes{
				Rooms:       e.rooms.RoomCount(),
				Connections: e.ws.ClientCount(),
			})
		},
	})
}

func (e *RoomEndpoints) Websocket(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: e.ws.ServeWS,
	})
}

func roomNotFound(err error) error {
	return &HTTPError{StatusCode: http.StatusNotFound, Message: "Room not found", ErrorLog: err}
}
