package queue

import "errors"

var (
	ErrQueueFull   = errors.New("queue: full")
	ErrQueueClosed = errors.New("queue: closed")
	ErrJobPanic    = errors.New("queue: job panicked")
)
