package dto

type RoomRes struct {
	ID          string   `json:"id"`
	Members     []string `json:"members"`
	Connections int      `json:"connections"`
	CodeLength  int      `json:"codeLength"`
	LastOutput  string   `json:"lastOutput,omitempty"`
}

type StatsRes struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}
