// Package outbox runs best-effort side effects (notifications, audit entries)
// off the request path. A job failure is logged and dropped; it can never
// reach or roll back the operation that enqueued it.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Job is one side effect
type Job struct {
	Kind string
	Run  func(ctx context.Context) error
}

// Outbox is a bounded in-process queue drained by a single worker.
type Outbox struct {
	queue      chan Job
	jobTimeout time.Duration
	wg         sync.WaitGroup
	closeOnce  sync.Once
	mu         sync.RWMutex
	closed     bool
	onResult   func(kind string, err error)
}

// Option configures an Outbox
type Option func(*Outbox)

// WithJobTimeout bounds each job's context
func WithJobTimeout(d time.Duration) Option {
	return func(o *Outbox) { o.jobTimeout = d }
}

// WithResultHook is called after each job finishes, e.g. for metrics
func WithResultHook(fn func(kind string, err error)) Option {
	return func(o *Outbox) { o.onResult = fn }
}

// New creates an outbox and starts its worker
func New(buffer int, opts ...Option) *Outbox {
	if buffer <= 0 {
		buffer = 256
	}
	o := &Outbox{
		queue:      make(chan Job, buffer),
		jobTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.wg.Add(1)
	go o.worker()
	return o
}

// Enqueue schedules a job. It never blocks: when the queue is full or
// closed the job is dropped with a warning.
func (o *Outbox) Enqueue(kind string, run func(ctx context.Context) error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		log.Warn().Str("kind", kind).Msg("Outbox closed, dropping side effect")
		return
	}

	select {
	case o.queue <- Job{Kind: kind, Run: run}:
	default:
		log.Warn().Str("kind", kind).Msg("Outbox full, dropping side effect")
	}
}

func (o *Outbox) worker() {
	defer o.wg.Done()

	for job := range o.queue {
		o.run(job)
	}
}

func (o *Outbox) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), o.jobTimeout)
	defer cancel()

	err := safeRun(ctx, job)
	if err != nil {
		log.Error().Err(err).Str("kind", job.Kind).Msg("Side effect failed")
	}
	if o.onResult != nil {
		o.onResult(job.Kind, err)
	}
}

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("kind", job.Kind).Msg("Side effect panicked")
			err = errPanicked
		}
	}()
	return job.Run(ctx)
}

// Close stops accepting jobs and waits for queued jobs to finish
func (o *Outbox) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.queue)
		o.mu.Unlock()
	})
	o.wg.Wait()
}
