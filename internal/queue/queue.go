package queue

import (
	"log/slog"
	"sync"
)

type Job struct {
	Fn   func() error
	Errc chan error
}

// RequestQueueManager runs jobs on a fixed set of workers fed by a bounded channel.
type RequestQueueManager struct {
	JobQueue   chan Job
	MaxWorkers int
	name       string
	log        *slog.Logger
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewRequestQueueManager(name string, queueSize int, maxWorkers int, log *slog.Logger) *RequestQueueManager {
	manager := &RequestQueueManager{
		JobQueue:   make(chan Job, queueSize),
		MaxWorkers: maxWorkers,
		name:       name,
		log:        log,
	}
	manager.startWorkers()
	return manager
}

func (rqm *RequestQueueManager) startWorkers() {
	for i := 0; i < rqm.MaxWorkers; i++ {
		rqm.wg.Add(1)
		go func(workerID int) {
			defer rqm.wg.Done()
			rqm.log.Debug("queue worker started", "queue", rqm.name, "worker", workerID)
			for job := range rqm.JobQueue {
				err := rqm.runJob(job)
				if job.Errc != nil {
					job.Errc <- err
				}
			}
			rqm.log.Debug("queue worker stopped", "queue", rqm.name, "worker", workerID)
		}(i)
	}
}

func (rqm *RequestQueueManager) runJob(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			rqm.log.Error("queue job panicked", "queue", rqm.name, "panic", r)
			err = ErrJobPanic
		}
	}()
	return job.Fn()
}

// EnqueueJob blocks until a slot frees up. Jobs submitted after Shutdown are
// rejected with ErrQueueClosed on their Errc.
func (rqm *RequestQueueManager) EnqueueJob(job Job) {
	rqm.mu.RLock()
	defer rqm.mu.RUnlock()
	if rqm.closed {
		if job.Errc != nil {
			job.Errc <- ErrQueueClosed
		}
		return
	}
	rqm.JobQueue <- job
}

// TryEnqueueJob never blocks: it returns ErrQueueFull when every slot is taken.
func (rqm *RequestQueueManager) TryEnqueueJob(job Job) error {
	rqm.mu.RLock()
	defer rqm.mu.RUnlock()
	if rqm.closed {
		return ErrQueueClosed
	}
	select {
	case rqm.JobQueue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (rqm *RequestQueueManager) Depth() int {
	return len(rqm.JobQueue)
}

func (rqm *RequestQueueManager) Shutdown() {
	rqm.mu.Lock()
	if rqm.closed {
		rqm.mu.Unlock()
		return
	}
	rqm.closed = true
	close(rqm.JobQueue)
	rqm.mu.Unlock()
	rqm.wg.Wait()
}
