package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/consolidator/internal/domain/pipeline"
	"github.com/okian/consolidator/internal/domain/report"
)

func testView(id string, at time.Time, records int) *pipeline.View {
	return &pipeline.View{
		ID:      id,
		BuiltAt: at,
		Summary: report.Summary{Total: records, ByTier: []report.TierCount{{Tier: "Normal", Count: records}}},
	}
}

func TestViewStore_NoView(t *testing.T) {
	ctx := context.Background()
	store := NewViewStore()

	if _, err := store.Current(ctx); !errors.Is(err, ErrNoView) {
		t.Fatalf("expected ErrNoView, got %v", err)
	}
	st := store.Status(ctx)
	if st.Available || st.Stale {
		t.Errorf("empty store should be unavailable and not stale: %+v", st)
	}
	if err := store.Publish(ctx, nil); !errors.Is(err, ErrNilView) {
		t.Errorf("expected ErrNilView, got %v", err)
	}
}

func TestViewStore_PublishAndFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	store := NewViewStore(WithStaleAfter(10*time.Minute), WithClock(func() time.Time { return now }))

	first := testView("v1", now, 3)
	if err := store.Publish(ctx, first); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got, err := store.Current(ctx)
	if err != nil || got != first {
		t.Fatalf("expected first view, got %v, %v", got, err)
	}
	st := store.Status(ctx)
	if !st.Available || st.Stale || st.ViewID != "v1" || st.Records != 3 {
		t.Errorf("unexpected status after publish: %+v", st)
	}

	// A failed cycle keeps the last good view.
	failure := pipeline.NewSourceError("Return Order", errors.New("timeout"))
	store.RecordFailure(ctx, now.Add(time.Minute), failure)

	got, err = store.Current(ctx)
	if err != nil || got != first {
		t.Fatalf("last good view must survive a failure, got %v, %v", got, err)
	}
	st = store.Status(ctx)
	if !st.Stale || st.FailedSource != "Return Order" || st.ConsecutiveFailures != 1 {
		t.Errorf("unexpected status after failure: %+v", st)
	}
	if !st.LastAttempt.Equal(now.Add(time.Minute)) || !st.LastSuccess.Equal(now) {
		t.Errorf("attempt/success times wrong: %+v", st)
	}

	// The next success clears the failure.
	if err := store.Publish(ctx, testView("v2", now.Add(2*time.Minute), 5)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	st = store.Status(ctx)
	if st.Stale || st.ConsecutiveFailures != 0 || st.LastError != "" || st.ViewID != "v2" {
		t.Errorf("unexpected status after recovery: %+v", st)
	}
}

func TestViewStore_FailureBeforeFirstView(t *testing.T) {
	ctx := context.Background()
	store := NewViewStore()

	store.RecordFailure(ctx, time.Now(), pipeline.NewSourceError("Parcel", errors.New("403")))
	store.RecordFailure(ctx, time.Now(), nil)

	if _, err := store.Current(ctx); !errors.Is(err, ErrNoView) {
		t.Fatalf("expected ErrNoView, got %v", err)
	}
	st := store.Status(ctx)
	if st.Available || st.FailedSource != "Parcel" || st.ConsecutiveFailures != 1 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestViewStore_StaleByAge(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	clock := now
	store := NewViewStore(WithStaleAfter(time.Minute), WithClock(func() time.Time { return clock }))

	_ = store.Publish(ctx, testView("v1", now, 1))
	clock = now.Add(2 * time.Minute)

	if !store.Status(ctx).Stale {
		t.Error("view older than the freshness window should be stale")
	}
	if snap := store.Snapshot(); snap.View == nil || !snap.Status.Stale {
		t.Errorf("snapshot should carry the view and staleness: %+v", snap.Status)
	}
}

func TestViewStore_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	store := NewViewStore()
	base := time.Now()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := store.Snapshot()
				if snap.View != nil && snap.Status.ViewID != snap.View.ID {
					t.Errorf("torn read: status %s, view %s", snap.Status.ViewID, snap.View.ID)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		_ = store.Publish(ctx, testView(time.Duration(i).String(), base, i))
	}
	close(stop)
	wg.Wait()
}
