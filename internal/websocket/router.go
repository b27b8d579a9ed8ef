package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"codeshare-backend/internal/dto"
	"codeshare-backend/internal/service/execution"
	"codeshare-backend/internal/service/room"
)

type eventHandler func(cl *WSClient, data json.RawMessage) error

// Router maps inbound event names to the room and execution services.
type Router struct {
	routes map[string]eventHandler
	log    *slog.Logger
}

func NewRouter(rooms *room.Service, bridge *execution.Service, log *slog.Logger) *Router {
	return &Router{
		log: log,
		routes: map[string]eventHandler{
			dto.EventJoin: func(cl *WSClient, data json.RawMessage) error {
				var p dto.JoinPayload
				if err := decode(data, &p); err != nil {
					return err
				}
				rooms.Join(cl.session, p)
				return nil
			},
			dto.EventCodeChange: func(cl *WSClient, data json.RawMessage) error {
				var p dto.CodeChangePayload
				if err := decode(data, &p); err != nil {
					return err
				}
				rooms.Edit(cl.session, p)
				return nil
			},
			dto.EventTyping: func(cl *WSClient, data json.RawMessage) error {
				var p dto.TypingPayload
				if err := decode(data, &p); err != nil {
					return err
				}
				rooms.Typing(cl.session, p)
				return nil
			},
			dto.EventLanguageChange: func(cl *WSClient, data json.RawMessage) error {
				var p dto.LanguageChangePayload
				if err := decode(data, &p); err != nil {
					return err
				}
				rooms.ChangeLanguage(p)
				return nil
			},
			dto.EventCompileCode: func(cl *WSClient, data json.RawMessage) error {
				var p dto.CompileCodePayload
				if err := decode(data, &p); err != nil {
					return err
				}
				bridge.Submit(cl.ID, p)
				return nil
			},
			dto.EventLeaveRoom: func(cl *WSClient, _ json.RawMessage) error {
				rooms.Leave(cl.session)
				return nil
			},
		},
	}
}

// Dispatch decodes one frame and runs its handler. Bad frames and unknown
// events are logged and dropped; the connection stays open.
func (r *Router) Dispatch(cl *WSClient, frame []byte) {
	var in dto.InboundEvent
	if err := json.Unmarshal(frame, &in); err != nil {
		countEvent("invalid")
		r.log.Debug("undecodable frame", "conn", cl.ID, "err", err)
		return
	}
	handle, ok := r.routes[in.Name]
	if !ok {
		countEvent("unknown")
		r.log.Debug("unknown event", "conn", cl.ID, "event", in.Name)
		return
	}
	countEvent(in.Name)
	if err := handle(cl, in.Data); err != nil {
		r.log.Debug("event ignored", "conn", cl.ID, "event", in.Name, "err", err)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
