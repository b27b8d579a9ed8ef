package dto

import "encoding/json"

// Inbound event names.
const (
	EventJoin           = "join"
	EventCodeChange     = "codeChange"
	EventTyping         = "typing"
	EventLanguageChange = "languageChange"
	EventCompileCode    = "compileCode"
	EventLeaveRoom      = "leaveRoom"
)

// Outbound event names.
const (
	EventUserJoined     = "userJoined"
	EventCodeUpdate     = "codeUpdate"
	EventUserTyping     = "userTyping"
	EventLanguageUpdate = "languageUpdate"
	EventCodeResponse   = "codeResponse"
)

// Event is the envelope written to clients.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// InboundEvent is the envelope read from clients; Data is decoded by the
// handler registered for Name.
type InboundEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	UserName string `json:"userName" validate:"required"`
}

type CodeChangePayload struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

type TypingPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

type LanguageChangePayload struct {
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
}

type CompileCodePayload struct {
	Code     string `json:"code"`
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
	Version  string `json:"version"`
	Input    string `json:"input"`
}

func UserJoined(names []string) Event {
	if names == nil {
		names = []string{}
	}
	return Event{Name: EventUserJoined, Data: names}
}

func CodeUpdate(code string) Event {
	return Event{Name: EventCodeUpdate, Data: code}
}

func UserTyping(userName string) Event {
	return Event{Name: EventUserTyping, Data: userName}
}

func LanguageUpdate(language string) Event {
	return Event{Name: EventLanguageUpdate, Data: language}
}

func CodeResponse(resp ExecuteResponse) Event {
	return Event{Name: EventCodeResponse, Data: resp}
}
