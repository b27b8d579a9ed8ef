package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"codeshare-backend/internal/dto"
	"codeshare-backend/internal/queue"
)

//go:generate mockgen -destination=../../../mocks/mock_execution.go -package=mocks codeshare-backend/internal/service/execution Executor,ResultSink

const (
	roomNotFoundMessage = "Room not found"
	failurePrefix       = "Compile request failed:\n"
	sinkTimeout         = 5 * time.Second
)

var ErrQueueFull = errors.New("execution: too many runs in flight, try again")

type Executor interface {
	Execute(ctx context.Context, req dto.ExecuteRequest) (dto.ExecuteResponse, error)
}

// ResultSink receives every codeResponse broadcast to a room.
type ResultSink interface {
	Publish(ctx context.Context, roomID string, resp dto.ExecuteResponse) error
}

// Rooms is the slice of the room service the bridge depends on.
type Rooms interface {
	RoomContext(roomID string) (context.Context, bool)
	Broadcast(roomID string, event dto.Event) int
	SendTo(connID string, event dto.Event)
	RecordOutput(roomID, output string)
}

type Service struct {
	rooms    Rooms
	executor Executor
	queue    *queue.RequestQueueManager
	sink     ResultSink
	timeout  time.Duration
	log      *slog.Logger
}

// New wires the bridge. sink may be nil.
func New(rooms Rooms, executor Executor, q *queue.RequestQueueManager, sink ResultSink, timeout time.Duration, log *slog.Logger) *Service {
	return &Service{
		rooms:    rooms,
		executor: executor,
		queue:    q,
		sink:     sink,
		timeout:  timeout,
		log:      log,
	}
}

// Submit schedules a run on the worker queue without blocking the caller.
// A missing room is answered to the requester only; a full queue is
// reported to the whole room like any other failed run.
func (s *Service) Submit(connID string, p dto.CompileCodePayload) {
	if _, ok := s.rooms.RoomContext(p.RoomID); !ok {
		s.rejectMissingRoom(connID, p.RoomID)
		return
	}

	err := s.queue.TryEnqueueJob(queue.Job{Fn: func() error {
		s.Run(connID, p)
		return nil
	}})
	if err != nil {
		s.log.Warn("run rejected", "room", p.RoomID, "conn", connID, "err", err)
		s.complete(p.RoomID, dto.FailedResponse(failurePrefix+ErrQueueFull.Error()), outcomeRejected)
	}
}

// Run performs one execution and broadcasts the result. It always ends in
// exactly one codeResponse unless the room disappeared meanwhile.
func (s *Service) Run(connID string, p dto.CompileCodePayload) {
	roomCtx, ok := s.rooms.RoomContext(p.RoomID)
	if !ok {
		s.rejectMissingRoom(connID, p.RoomID)
		return
	}

	s.log.Debug("run requested", "room", p.RoomID, "conn", connID, "language", p.Language, "version", p.Version)

	ctx, cancel := context.WithTimeout(roomCtx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.executor.Execute(ctx, dto.ExecuteRequest{
		Language: p.Language,
		Version:  p.Version,
		Files:    []dto.ExecuteFile{{Content: p.Code}},
		Stdin:    p.Input,
	})
	observeDuration(time.Since(start))

	if err != nil {
		if roomCtx.Err() != nil {
			s.log.Info("run abandoned, room closed", "room", p.RoomID)
			countRun(outcomeAbandoned)
			return
		}
		s.log.Warn("run failed", "room", p.RoomID, "err", err)
		s.complete(p.RoomID, dto.FailedResponse(s.describeFailure(err)), outcomeFailed)
		return
	}

	s.rooms.RecordOutput(p.RoomID, resp.Run.Output)
	s.complete(p.RoomID, resp, outcomeOK)
}

func (s *Service) rejectMissingRoom(connID, roomID string) {
	s.log.Debug("run for unknown room", "room", roomID, "conn", connID)
	s.rooms.SendTo(connID, dto.CodeResponse(dto.FailedResponse(roomNotFoundMessage)))
	countRun(outcomeRoomNotFound)
}

func (s *Service) complete(roomID string, resp dto.ExecuteResponse, outcome string) {
	delivered := s.rooms.Broadcast(roomID, dto.CodeResponse(resp))
	countRun(outcome)
	s.log.Debug("run completed", "room", roomID, "outcome", outcome, "delivered", delivered)

	if s.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	if err := s.sink.Publish(ctx, roomID, resp); err != nil {
		s.log.Warn("result sink publish failed", "room", roomID, "err", err)
	}
}

func (s *Service) describeFailure(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return failurePrefix + fmt.Sprintf("execution timed out after %s", s.timeout)
	case errors.As(err, &statusErr):
		body := statusErr.Body
		if body == "" {
			body = fmt.Sprintf("%d %s", statusErr.StatusCode, http.StatusText(statusErr.StatusCode))
		}
		return failurePrefix + body
	default:
		return failurePrefix + err.Error()
	}
}
