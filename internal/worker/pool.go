// Package worker runs background jobs on a fixed-size pool with a bounded
// queue. Callers submit a job and poll its task entry for completion; jobs
// run to completion or failure with no mid-job cancellation.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/jfries/batchlens/internal/logger"
)

// ErrQueueFull is returned when the job queue cannot accept more work.
var ErrQueueFull = errors.New("worker queue full")

// Job is a unit of background work. The context passed in is the pool's
// base context, which ends only at process shutdown.
type Job func(ctx context.Context)

// Pool executes jobs on a bounded number of workers.
type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	baseCtx context.Context
	log     *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool creates and starts a pool with the given worker count and queue
// capacity. Values below 1 are clamped to 1.
func NewPool(ctx context.Context, workers, queueSize int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logger.GetDefault()
	}

	p := &Pool{
		jobs:    make(chan Job, queueSize),
		baseCtx: ctx,
		log:     log,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(id, job)
	}
}

func (p *Pool) run(id int, job Job) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.WithFields(logger.Fields{"worker": id, "panic": rec}).Error("Job panicked")
		}
	}()
	job(p.baseCtx)
}

// Submit enqueues a job without blocking. Returns ErrQueueFull when the
// queue is at capacity so the request path can report back pressure
// instead of stalling.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("worker pool stopped")
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}
