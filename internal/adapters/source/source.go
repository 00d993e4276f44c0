// Package source defines how the three logical tables are acquired. A
// strategy is chosen once from configuration; callers only see Fetcher.
package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/consolidator/internal/domain/pipeline"
	"github.com/okian/consolidator/internal/domain/table"
	"github.com/okian/consolidator/pkg/metrics"
)

// Fetcher returns one logical table. A fetch that fails returns an error; a
// reachable source with no data rows returns an empty table.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (*table.Table, error)
}

// BulkFetcher is implemented by strategies that obtain every logical table
// in one round trip.
type BulkFetcher interface {
	Fetcher
	FetchAll(ctx context.Context) (map[string]*table.Table, error)
}

// FetchAll acquires the three logical tables. Bulk strategies are called
// once; others are fetched in parallel. The first failure cancels the rest
// and is returned as a pipeline.SourceError naming the table.
func FetchAll(ctx context.Context, f Fetcher) (pipeline.Inputs, error) {
	start := time.Now()

	if bf, ok := f.(BulkFetcher); ok {
		tables, err := bf.FetchAll(ctx)
		elapsed := float64(time.Since(start).Milliseconds())
		if err != nil {
			src := pipeline.FailedSource(err)
			if src == "" {
				src = "bulk"
				err = pipeline.NewSourceError(src, err)
			}
			metrics.RecordSourceFetchError(src)
			return pipeline.Inputs{}, err
		}
		for _, name := range table.Names() {
			if tables[name] == nil {
				metrics.RecordSourceFetchError(name)
				return pipeline.Inputs{}, pipeline.NewSourceError(name, ErrEmptyTable)
			}
			metrics.RecordSourceFetchLatency(name, elapsed)
			metrics.UpdateSourceRows(name, tables[name].Len())
		}
		return pipeline.FromMap(tables), nil
	}

	var (
		mu     sync.Mutex
		tables = make(map[string]*table.Table, len(table.Names()))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range table.Names() {
		name := name
		g.Go(func() error {
			t0 := time.Now()
			t, err := f.Fetch(gctx, name)
			metrics.RecordSourceFetchLatency(name, float64(time.Since(t0).Milliseconds()))
			if err == nil && t == nil {
				err = ErrEmptyTable
			}
			if err != nil {
				metrics.RecordSourceFetchError(name)
				return pipeline.NewSourceError(name, err)
			}
			metrics.UpdateSourceRows(name, t.Len())
			mu.Lock()
			tables[name] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return pipeline.Inputs{}, err
	}
	return pipeline.FromMap(tables), nil
}

// Func adapts a function to Fetcher.
type Func func(ctx context.Context, name string) (*table.Table, error)

// Fetch calls fn.
func (fn Func) Fetch(ctx context.Context, name string) (*table.Table, error) {
	return fn(ctx, name)
}

// Static serves fixed tables. It backs tests and offline report runs.
type Static map[string]*table.Table

// Fetch returns the stored table for name.
func (s Static) Fetch(_ context.Context, name string) (*table.Table, error) {
	t, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}
