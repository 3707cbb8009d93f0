// Package jobs runs background work such as blob cleanup on an in-memory worker pool.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxBackoff    = time.Minute
	drainInterval = 20 * time.Millisecond
)

// ErrClosed is returned by Enqueue once the queue is stopping or was never started.
var ErrClosed = errors.New("queue closed")

// Job is one unit of background work. Payload is interpreted by the handler for Type.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A returned error schedules a retry.
type Handler func(context.Context, Job) error

// QueueConfig sizes the worker pool and its retry policy.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue dispatches jobs to the handler registered for their type. A failed job is
// retried with exponential backoff starting at RetryDelay, at most MaxRetries times.
type Queue struct {
	name string
	cfg  QueueConfig
	log  *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	ctx      context.Context
	cancel   context.CancelFunc
	open     atomic.Bool
	stopped  bool

	jobs    chan Job
	pending atomic.Int64 // buffered plus running
	wg       sync.WaitGroup
}

// NewQueue builds an idle queue. Register handlers before Start.
func NewQueue(name string, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:     name,
		cfg:      cfg,
		log:      cfg.Logger.With(zap.String("queue", name)),
		handlers: make(map[string]Handler),
		jobs:     make(chan Job, cfg.BufferSize),
	}
}

// Handle registers the handler for jobType.
func (q *Queue) Handle(jobType string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Start launches the workers. Cancelling ctx aborts running handlers; Stop drains first.
// Calls after the first are ignored.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ctx != nil {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.open.Store(true)
	q.log.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop refuses new jobs, waits until buffered and running jobs finish or ctx expires,
// then stops the workers. Pending retries are abandoned.
func (q *Queue) Stop(ctx context.Context) {
	q.mu.Lock()
	if q.ctx == nil || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.open.Store(false)
	q.mu.Unlock()

	if !q.drain(ctx) {
		q.log.Warn("queue drain interrupted", zap.Int("pending", len(q.jobs)))
	}
	q.cancel()
	q.wg.Wait()
	q.log.Info("queue stopped", zap.Int("dropped", len(q.jobs)))
}

// drain waits until no job is buffered or running. It reports false when ctx ends first.
func (q *Queue) drain(ctx context.Context) bool {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for q.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
	return true
}

// Enqueue buffers job, assigning an id and timestamp when missing. It fails when the
// queue is not accepting work, the type has no handler or the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	if !q.open.Load() {
		return fmt.Errorf("queue %s: %w", q.name, ErrClosed)
	}
	return q.push(job)
}

func (q *Queue) push(job Job) error {
	q.mu.RLock()
	_, known := q.handlers[job.Type]
	q.mu.RUnlock()
	if !known {
		return fmt.Errorf("queue %s has no handler for %q", q.name, job.Type)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	q.pending.Add(1)
	select {
	case q.jobs <- job:
		return nil
	default:
		q.pending.Add(-1)
		return fmt.Errorf("queue %s is full", q.name)
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
			q.pending.Add(-1)
		}
	}
}

func (q *Queue) run(job Job) {
	q.mu.RLock()
	handler := q.handlers[job.Type]
	q.mu.RUnlock()

	log := q.log.With(zap.String("job_id", job.ID), zap.String("type", job.Type))
	err := handler(q.ctx, job)
	if err == nil {
		log.Debug("job done", zap.Int("attempt", job.Attempt))
		return
	}

	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		log.Error("job exceeded retries", zap.Int("attempts", job.Attempt), zap.Error(err))
		return
	}
	delay := backoff(q.cfg.RetryDelay, job.Attempt)
	log.Warn("job failed, retrying", zap.Int("attempt", job.Attempt), zap.Duration("delay", delay), zap.Error(err))

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.push(job); err != nil {
				log.Error("requeue failed", zap.Error(err))
			}
		}
	}()
}

// backoff doubles base per attempt, capped at maxBackoff.
func backoff(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
