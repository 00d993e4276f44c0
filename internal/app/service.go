// Package service wires acquisition, the refresh worker and the view store
// into the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/consolidator/internal/adapters/cache"
	"github.com/okian/consolidator/internal/adapters/mq/notify"
	"github.com/okian/consolidator/internal/adapters/mq/queue"
	"github.com/okian/consolidator/internal/adapters/mq/worker"
	"github.com/okian/consolidator/internal/adapters/repository"
	"github.com/okian/consolidator/internal/adapters/source"
	"github.com/okian/consolidator/internal/config"
	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/pipeline"
	"github.com/okian/consolidator/pkg/logger"
)

// Service implements the API dependencies for the consolidation engine.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	store     *repository.ViewStore
	queue     *queue.InMemoryQueue
	cache     *cache.Cache
	source    source.Fetcher
	fetcher   source.Fetcher
	publisher notify.Publisher
	refresher *Refresher
	worker    *worker.RefreshWorker

	// Injected overrides
	sourceOverride    source.Fetcher
	publisherOverride notify.Publisher
	pipelineOpts      []pipeline.Option

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	now     func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFetcher replaces the configured acquisition strategy.
func WithFetcher(f source.Fetcher) Option {
	return func(s *Service) { s.sourceOverride = f }
}

// WithNotifier replaces the configured cycle notification publisher.
func WithNotifier(p notify.Publisher) Option {
	return func(s *Service) { s.publisherOverride = p }
}

// WithPipelineOptions appends options to the configured pipeline builder.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(s *Service) { s.pipelineOpts = append(s.pipelineOpts, opts...) }
}

// WithClock overrides time.Now for triggers and staleness.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. The view store and trigger queue exist from the
// start, so reads and manual refresh requests work before Start returns.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{
		cfg:    cfg,
		stopCh: make(chan struct{}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	// A view older than two refresh intervals means at least one cycle
	// was missed.
	s.store = repository.NewViewStore(
		repository.WithStaleAfter(2*cfg.RefreshInterval),
		repository.WithClock(s.now),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.RefreshQueueSize))
	return s
}

// Start initializes the acquisition stack, starts the refresh worker and
// the scheduler, and enqueues the startup refresh.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.queue.IsClosed() {
		return ErrStopped
	}
	s.logger.Info(ctx, "starting consolidation service...")

	builder, err := NewBuilder(s.cfg, s.pipelineOpts...)
	if err != nil {
		return err
	}

	s.source = s.sourceOverride
	if s.source == nil {
		if s.source, err = source.New(ctx, s.cfg); err != nil {
			return fmt.Errorf("init source: %w", err)
		}
	}
	s.cache = cache.New(
		cache.WithTTL(s.cfg.CacheTTL),
		cache.WithEarlyExpiry(time.Second),
		cache.WithClock(s.now),
	)
	s.fetcher = cache.Wrap(s.source, s.cache)

	s.publisher = s.publisherOverride
	if s.publisher == nil {
		s.publisher, err = s.dialNotifier()
		if err != nil {
			_ = source.Close(s.source)
			return err
		}
	}

	s.refresher = NewRefresher(s.fetcher, builder, s.store,
		WithSourceCache(s.cache),
		WithPublisher(s.publisher),
		WithFetchTimeout(s.cfg.FetchTimeout),
		WithRefresherClock(s.now),
		WithRefresherLogger(s.logger.Named("refresher")),
	)
	s.worker = worker.NewRefreshWorker(s.queue, s.refresher,
		worker.WithLogger(s.logger.Named("refresh-worker")))

	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.worker.Run(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.schedule(runCtx, s.cfg.RefreshInterval)
	}()

	if err := s.queue.Enqueue(ctx, model.NewTrigger(model.TriggerStartup, s.now())); err != nil {
		s.logger.Warn(ctx, "startup refresh not enqueued", logger.Error(err))
	}

	s.started = true
	s.logger.Info(ctx, "consolidation service started",
		logger.String("strategy", s.cfg.Source.Strategy),
		logger.Duration("refresh_interval", s.cfg.RefreshInterval),
		logger.Duration("cache_ttl", s.cfg.CacheTTL),
		logger.Int("queue_size", s.cfg.RefreshQueueSize),
	)
	return nil
}

func (s *Service) dialNotifier() (notify.Publisher, error) {
	if s.cfg.Notify.AMQPURL == "" {
		return notify.Nop{}, nil
	}
	p, err := notify.Dial(s.cfg.Notify.AMQPURL, s.cfg.Notify.Exchange)
	if err != nil {
		return nil, fmt.Errorf("init notifier: %w", err)
	}
	return p, nil
}

// Stop halts the scheduler, lets the cycle in progress finish within ctx,
// and releases the source and notifier.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping consolidation service...")

	close(s.stopCh)
	errs := []error{s.worker.Shutdown(ctx)}
	errs = append(errs, s.queue.Close())

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("wait for background loops: %w", ctx.Err()))
	}

	errs = append(errs, s.publisher.Close(), source.Close(s.source))

	s.started = false
	s.logger.Info(ctx, "consolidation service stopped")
	return errors.Join(errs...)
}

// RequestRefresh enqueues a manual, cache-bypassing refresh. It returns
// queue.ErrFull when the queue is at capacity.
func (s *Service) RequestRefresh(ctx context.Context) (model.Trigger, error) {
	t := model.NewTrigger(model.TriggerManual, s.now())
	if err := s.queue.Enqueue(ctx, t); err != nil {
		return model.Trigger{}, err
	}
	s.logger.Debug(ctx, "manual refresh enqueued", logger.String("trigger_id", t.ID))
	return t, nil
}

// Current returns the served view or repository.ErrNoView.
func (s *Service) Current(ctx context.Context) (*pipeline.View, error) {
	return s.store.Current(ctx)
}

// Status reports availability and freshness of the served view.
func (s *Service) Status(ctx context.Context) repository.Status {
	return s.store.Status(ctx)
}

// Store exposes the view store.
func (s *Service) Store() *repository.ViewStore { return s.store }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	st := s.store.Status(ctx)
	stats := map[string]any{
		"started":             s.started,
		"strategy":            s.cfg.Source.Strategy,
		"refreshInterval":     s.cfg.RefreshInterval.String(),
		"queueCapacity":       s.cfg.RefreshQueueSize,
		"queueLength":         s.queue.Len(ctx),
		"viewAvailable":       st.Available,
		"viewStale":           st.Stale,
		"records":             st.Records,
		"consecutiveFailures": st.ConsecutiveFailures,
	}
	if s.cache != nil {
		stats["cachedTables"] = s.cache.Len()
	}
	return stats
}
