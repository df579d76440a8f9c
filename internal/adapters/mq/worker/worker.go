// Package worker drains the refresh queue and recomputes derived member
// state in the background.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/foundercircle/growthengine/internal/adapters/mq/queue"
	"github.com/foundercircle/growthengine/pkg/logger"
	"github.com/foundercircle/growthengine/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 4
	poolShutdownTimeout = 30 * time.Second
)

// Refresher recomputes one member's derived state: the behavior profile
// cache and a fresh funding score snapshot.
type Refresher interface {
	Refresh(ctx context.Context, memberID string) error
}

// Queue defines how workers receive refresh jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker is a single refresh loop.
type Worker struct {
	queue     Queue
	refresher Refresher
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker's log name.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
			w.logger = logger.Get().Named(name)
		}
	}
}

// NewWorker creates a refresh worker.
func NewWorker(q Queue, r Refresher, opts ...Option) *Worker {
	w := &Worker{
		queue:     q,
		refresher: r,
		name:      "refresh-worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("refresh-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes jobs until ctx is canceled, the queue closes, or Shutdown
// is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight job.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("worker shutdown: %w", ctx.Err())
	}
}

func (w *Worker) process(ctx context.Context, j queue.Job) {
	start := time.Now()
	err := w.refresher.Refresh(ctx, j.MemberID)
	metrics.RecordRefreshLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordRefreshError()
		w.logger.Error(ctx, "refresh failed",
			logger.String("memberID", j.MemberID),
			logger.String("reason", j.Reason),
			logger.Error(err),
		)
		return
	}
	metrics.RecordRefreshProcessed()
}

// Pool manages a fixed set of refresh workers.
type Pool struct {
	workers []*Worker
	logger  logger.Logger
}

// NewPool creates a pool of workerCount refresh workers.
func NewPool(workerCount int, q Queue, r Refresher) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("refresh-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(q, r, WithName("refresh-worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "refresh pool started", logger.Int("workers", len(p.workers)))
}

// Stop shuts all workers down, waiting up to the pool timeout.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), poolShutdownTimeout)
	defer cancel()
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker did not stop cleanly", logger.Error(err))
		}
	}
	metrics.UpdateWorkerCount(0)
}
