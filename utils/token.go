package utils

import "github.com/google/uuid"

// NewConnectionID returns a fresh opaque id for a websocket connection.
func NewConnectionID() string {
	return uuid.NewString()
}
