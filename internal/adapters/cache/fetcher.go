package cache

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/okian/consolidator/internal/adapters/source"
	"github.com/okian/consolidator/internal/domain/table"
	"github.com/okian/consolidator/pkg/metrics"
)

const bulkKey = "\x00bulk"

// Fetcher serves tables from a Cache and falls through to the wrapped
// strategy on a miss. Concurrent misses for one key share a single fetch.
type Fetcher struct {
	inner source.Fetcher
	cache *Cache
	group singleflight.Group
}

// BulkFetcher is a Fetcher over a strategy that fetches all tables at once.
type BulkFetcher struct {
	*Fetcher
	bulk source.BulkFetcher
}

// Wrap decorates inner with c. Bulk strategies stay bulk.
func Wrap(inner source.Fetcher, c *Cache) source.Fetcher {
	f := &Fetcher{inner: inner, cache: c}
	if bf, ok := inner.(source.BulkFetcher); ok {
		return &BulkFetcher{Fetcher: f, bulk: bf}
	}
	return f
}

// Cache returns the backing cache.
func (f *Fetcher) Cache() *Cache { return f.cache }

// Fetch returns the cached table for name or fetches it.
func (f *Fetcher) Fetch(ctx context.Context, name string) (*table.Table, error) {
	if t, ok := f.cache.Fresh(name); ok {
		metrics.RecordCacheLookup(name, metrics.CacheHit)
		return t, nil
	}
	metrics.RecordCacheLookup(name, metrics.CacheMiss)

	v, err, _ := f.group.Do(name, func() (any, error) {
		started := f.cache.Now()
		t, err := f.inner.Fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		f.cache.PutAt(name, t, started)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*table.Table), nil
}

// FetchAll serves every table from the cache when all are fresh, otherwise
// refetches them together.
func (b *BulkFetcher) FetchAll(ctx context.Context) (map[string]*table.Table, error) {
	names := table.Names()
	out := make(map[string]*table.Table, len(names))
	for _, name := range names {
		t, ok := b.cache.Fresh(name)
		if !ok {
			break
		}
		out[name] = t
	}
	if len(out) == len(names) {
		for _, name := range names {
			metrics.RecordCacheLookup(name, metrics.CacheHit)
		}
		return out, nil
	}
	for _, name := range names {
		metrics.RecordCacheLookup(name, metrics.CacheMiss)
	}

	v, err, _ := b.group.Do(bulkKey, func() (any, error) {
		started := b.cache.Now()
		tables, err := b.bulk.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		for name, t := range tables {
			b.cache.PutAt(name, t, started)
		}
		return tables, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]*table.Table), nil
}
