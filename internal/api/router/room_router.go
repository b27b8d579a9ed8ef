package router

import (
	"net/http"
	"strings"

	"codeshare-backend/internal/api"
	"codeshare-backend/internal/api/endpoints"
)

func RoomRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		base := strings.TrimRight(prefix, "/")
		roomEndpoints := endpoints.NewRoomEndpoints(s.Rooms(), s.Handler(), base+"/rooms/")

		mux.HandleFunc(base+"/rooms", s.MakeHTTPHandleFunc(roomEndpoints.Rooms))
		mux.HandleFunc(base+"/rooms/", s.MakeHTTPHandleFunc(roomEndpoints.Room))
		mux.HandleFunc(base+"/stats", s.MakeHTTPHandleFunc(roomEndpoints.Stats))
		mux.HandleFunc(base+"/socket", s.MakeHTTPHandleFunc(roomEndpoints.Websocket))
	}
}
