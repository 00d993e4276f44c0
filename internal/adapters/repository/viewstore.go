package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/consolidator/internal/domain/pipeline"
	"github.com/okian/consolidator/pkg/metrics"
)

// Snapshot is the immutable pair swapped on every publish or failure.
type Snapshot struct {
	View   *pipeline.View
	Status Status
}

// ViewStore keeps the last good view behind an atomic pointer. Reads never
// lock; writes are serialized.
type ViewStore struct {
	mu         sync.Mutex
	snapshot   atomic.Pointer[Snapshot]
	staleAfter time.Duration
	now        func() time.Time
}

var _ Store = (*ViewStore)(nil)

// NewViewStore constructs an empty store.
func NewViewStore(opts ...Option) *ViewStore {
	s := &ViewStore{
		staleAfter: 10 * time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{})
	metrics.UpdateViewAvailable(false)
	return s
}

// Publish implements Store.Publish.
func (s *ViewStore) Publish(_ context.Context, v *pipeline.View) error {
	if v == nil {
		return ErrNilView
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	at := v.BuiltAt
	if at.IsZero() {
		at = s.now()
	}
	s.snapshot.Store(&Snapshot{
		View: v,
		Status: Status{
			Available:   true,
			ViewID:      v.ID,
			Records:     len(v.Records),
			LastSuccess: at,
			LastAttempt: at,
		},
	})

	tiers := make(map[string]int, len(v.Summary.ByTier))
	for _, tc := range v.Summary.ByTier {
		tiers[tc.Tier] = tc.Count
	}
	metrics.UpdateViewAvailable(true)
	metrics.UpdateView(metrics.ViewStats{
		Records:      v.Summary.Total,
		Critical:     v.Summary.Critical,
		Matched:      v.Summary.Matched,
		Flagged:      v.Summary.Flagged,
		DriftColumns: len(v.Drift),
		Tiers:        tiers,
	})
	return nil
}

// RecordFailure implements Store.RecordFailure.
func (s *ViewStore) RecordFailure(_ context.Context, at time.Time, err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshot.Load()
	st := prev.Status
	st.LastAttempt = at
	st.LastError = err.Error()
	st.FailedSource = pipeline.FailedSource(err)
	st.ConsecutiveFailures++
	s.snapshot.Store(&Snapshot{View: prev.View, Status: st})
}

// Current implements Store.Current.
func (s *ViewStore) Current(_ context.Context) (*pipeline.View, error) {
	snap := s.snapshot.Load()
	if snap.View == nil {
		return nil, ErrNoView
	}
	return snap.View, nil
}

// Status implements Store.Status. Staleness is evaluated at call time.
func (s *ViewStore) Status(_ context.Context) Status {
	return s.withStaleness(s.snapshot.Load().Status)
}

// Snapshot returns the current view and its status together.
func (s *ViewStore) Snapshot() Snapshot {
	snap := s.snapshot.Load()
	return Snapshot{View: snap.View, Status: s.withStaleness(snap.Status)}
}

func (s *ViewStore) withStaleness(st Status) Status {
	if st.Available {
		st.Stale = st.ConsecutiveFailures > 0 || s.now().Sub(st.LastSuccess) > s.staleAfter
	}
	return st
}
