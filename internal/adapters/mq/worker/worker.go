// Package worker runs refresh cycles off the trigger queue. Exactly one
// worker consumes the queue, so cycles never overlap and the view store has
// a single writer.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/pkg/logger"
	"github.com/okian/consolidator/pkg/metrics"
)

// Trigger is what the worker reads off the queue.
type Trigger = model.Trigger

// Refresher runs one refresh cycle.
type Refresher interface {
	Refresh(ctx context.Context, t Trigger) error
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, t Trigger) error

// Refresh calls f.
func (f RefresherFunc) Refresh(ctx context.Context, t Trigger) error { return f(ctx, t) }

// Queue defines how the worker receives triggers.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Trigger
}

// Worker processes triggers until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, the queue closes or
	// Shutdown is called.
	Run(ctx context.Context)
	// Shutdown stops the loop after the cycle in progress, if any.
	Shutdown(ctx context.Context) error
}

// RefreshWorker implements Worker over a Refresher.
type RefreshWorker struct {
	queue     Queue
	refresher Refresher
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

var _ Worker = (*RefreshWorker)(nil)

// NewRefreshWorker creates a worker with configuration options.
func NewRefreshWorker(queue Queue, refresher Refresher, opts ...Option) *RefreshWorker {
	w := &RefreshWorker{
		queue:     queue,
		refresher: refresher,
		name:      "refresh-worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *RefreshWorker) Run(ctx context.Context) {
	defer close(w.done)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	triggers := w.queue.Dequeue(runCtx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-triggers:
			if !ok {
				return
			}
			if err := w.process(ctx, t); err != nil {
				w.logger.Error(ctx, "refresh cycle failed",
					logger.String("trigger_id", t.ID),
					logger.String("reason", string(t.Reason)),
					logger.Error(err),
				)
			}
		}
	}
}

// Done is closed when Run returns.
func (w *RefreshWorker) Done() <-chan struct{} { return w.done }

// Shutdown gracefully stops the worker.
func (w *RefreshWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *RefreshWorker) process(ctx context.Context, t Trigger) error {
	if !t.RequestedAt.IsZero() {
		metrics.RecordQueueWaitLatency(float64(time.Since(t.RequestedAt).Milliseconds()))
	}
	metrics.UpdateWorkerBusy(true)
	defer metrics.UpdateWorkerBusy(false)

	start := time.Now()
	if err := w.refresher.Refresh(ctx, t); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorLatency("worker", "refresh_failed", float64(time.Since(start).Milliseconds()))
		return fmt.Errorf("trigger %s: %w", t.ID, err)
	}
	return nil
}
