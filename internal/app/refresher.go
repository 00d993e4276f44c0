package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/consolidator/internal/adapters/cache"
	"github.com/okian/consolidator/internal/adapters/mq/notify"
	"github.com/okian/consolidator/internal/adapters/repository"
	"github.com/okian/consolidator/internal/adapters/source"
	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/pipeline"
	"github.com/okian/consolidator/pkg/logger"
	"github.com/okian/consolidator/pkg/metrics"
)

// Refresher runs one acquisition and build cycle and publishes the result.
// It is driven by the single refresh worker, so cycles never overlap.
type Refresher struct {
	fetcher   source.Fetcher
	cache     *cache.Cache
	builder   *pipeline.Builder
	store     repository.Store
	publisher notify.Publisher
	timeout   time.Duration
	now       func() time.Time
	logger    logger.Logger
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithSourceCache lets forced triggers drop cached tables before fetching.
func WithSourceCache(c *cache.Cache) RefresherOption {
	return func(r *Refresher) { r.cache = c }
}

// WithPublisher sets the cycle notification publisher.
func WithPublisher(p notify.Publisher) RefresherOption {
	return func(r *Refresher) {
		if p != nil {
			r.publisher = p
		}
	}
}

// WithFetchTimeout bounds the acquisition of all three tables.
func WithFetchTimeout(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRefresherClock overrides time.Now.
func WithRefresherClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRefresherLogger sets the logger.
func WithRefresherLogger(l logger.Logger) RefresherOption {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRefresher creates a Refresher.
func NewRefresher(f source.Fetcher, b *pipeline.Builder, store repository.Store, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		fetcher:   f,
		builder:   b,
		store:     store,
		publisher: notify.Nop{},
		timeout:   30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("refresher")
	}
	return r
}

// Refresh implements worker.Refresher. On failure the served view is kept
// and the failure recorded; the error is returned for the worker to log.
func (r *Refresher) Refresh(ctx context.Context, t model.Trigger) error {
	start := r.now()
	reason := string(t.Reason)
	metrics.UpdateRefreshLastAttempt(start.Unix())

	if t.Force && r.cache != nil {
		r.cache.Invalidate()
		r.logger.Debug(ctx, "source cache invalidated", logger.String("trigger_id", t.ID))
	}

	view, err := r.cycle(ctx)
	if err == nil {
		err = r.store.Publish(ctx, view)
	}
	elapsed := r.now().Sub(start)
	metrics.RecordRefreshDuration(float64(elapsed.Milliseconds()))

	ev := notify.CycleEvent{
		TriggerID:  t.ID,
		Reason:     reason,
		At:         r.now(),
		DurationMs: elapsed.Milliseconds(),
	}

	if err != nil {
		r.store.RecordFailure(ctx, start, err)
		metrics.RecordRefreshCycle(reason, metrics.OutcomeFailure)
		metrics.RecordErrorByComponent("refresh", errorKind(err))

		ev.Outcome = notify.OutcomeFailure
		ev.FailedSource = pipeline.FailedSource(err)
		ev.Error = err.Error()
		if ev.FailedSource != "" {
			r.logger.Error(ctx, "source unavailable",
				logger.String("source", ev.FailedSource),
				logger.String("reason", reason),
				logger.Error(err),
			)
		}
		r.notify(ctx, ev)
		return fmt.Errorf("refresh: %w", err)
	}

	metrics.RecordRefreshCycle(reason, metrics.OutcomeSuccess)
	metrics.UpdateRefreshLastSuccess(view.BuiltAt.Unix())
	metrics.UpdateDriftColumns(len(view.Drift))
	for _, d := range view.Drift {
		r.logger.Warn(ctx, "schema drift",
			logger.String("table", d.Table),
			logger.String("column", d.Column),
		)
	}
	r.logger.Info(ctx, "refresh cycle complete",
		logger.String("view_id", view.ID),
		logger.String("reason", reason),
		logger.Int("records", view.Summary.Total),
		logger.Int("critical", view.Summary.Critical),
		logger.Int("matched", view.Summary.Matched),
		logger.Duration("took", elapsed),
	)

	ev.Outcome = notify.OutcomeSuccess
	ev.ViewID = view.ID
	ev.Total = view.Summary.Total
	ev.Critical = view.Summary.Critical
	ev.Matched = view.Summary.Matched
	ev.Flagged = view.Summary.Flagged
	ev.DriftColumns = len(view.Drift)
	r.notify(ctx, ev)
	return nil
}

func (r *Refresher) cycle(ctx context.Context) (*pipeline.View, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	in, err := source.FetchAll(fetchCtx, r.fetcher)
	if err != nil {
		return nil, err
	}
	return r.builder.Build(ctx, in)
}

// notify never fails the cycle; a broker outage only costs the message.
func (r *Refresher) notify(ctx context.Context, ev notify.CycleEvent) {
	if _, ok := r.publisher.(notify.Nop); ok {
		metrics.RecordNotification(metrics.OutcomeSkipped)
		return
	}
	if err := r.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		metrics.RecordNotification(metrics.OutcomeFailure)
		r.logger.Warn(ctx, "cycle notification failed",
			logger.String("trigger_id", ev.TriggerID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordNotification(metrics.OutcomeSuccess)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, pipeline.ErrSourceUnavailable):
		return "source_unavailable"
	default:
		return "build_failed"
	}
}
