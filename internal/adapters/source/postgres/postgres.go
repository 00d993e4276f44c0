// Package postgres fetches each logical table from a relation in a
// PostgreSQL database through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/consolidator/internal/domain/table"
)

// ErrNoRelation is returned for a logical table without a mapped relation.
var ErrNoRelation = errors.New("no relation configured")

// Querier is the subset of pgxpool.Pool used by the Fetcher.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Fetcher selects whole relations and converts them to tables.
type Fetcher struct {
	q         Querier
	relations map[string]string
	orderBy   string
	closer    func()
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithOrderBy sets the column that fixes row order. Row order decides which
// parcel wins under the first/last join policies, so it should be stable.
func WithOrderBy(column string) Option {
	return func(f *Fetcher) {
		f.orderBy = strings.TrimSpace(column)
	}
}

// New creates a Fetcher over q. relations maps logical table names to
// relation names, optionally schema-qualified ("ops.parcel").
func New(q Querier, relations map[string]string, opts ...Option) *Fetcher {
	f := &Fetcher{
		q:         q,
		relations: make(map[string]string, len(relations)),
	}
	for name, rel := range relations {
		f.relations[name] = rel
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connect opens a pool for dsn, verifies it and returns a Fetcher that owns it.
func Connect(ctx context.Context, dsn string, relations map[string]string, opts ...Option) (*Fetcher, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = int32(len(relations)) + 1
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	f := New(pool, relations, opts...)
	f.closer = pool.Close
	return f, nil
}

// Close releases the pool when the Fetcher owns one.
func (f *Fetcher) Close() error {
	if f.closer != nil {
		f.closer()
	}
	return nil
}

// Fetch selects every row of the relation mapped to name.
func (f *Fetcher) Fetch(ctx context.Context, name string) (*table.Table, error) {
	rel, ok := f.relations[name]
	if !ok || rel == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoRelation, name)
	}

	rows, err := f.q.Query(ctx, f.selectSQL(rel))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", rel, err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	header := make([]string, len(fds))
	for i, fd := range fds {
		header[i] = fd.Name
	}

	var records [][]table.Value
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", rel, err)
		}
		rec := make([]table.Value, len(vals))
		for i, v := range vals {
			rec[i] = cell(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return table.New(name, header, records), nil
}

func (f *Fetcher) selectSQL(rel string) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(pgx.Identifier(strings.Split(rel, ".")).Sanitize())
	if f.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(pgx.Identifier{f.orderBy}.Sanitize())
	}
	return b.String()
}

// cell converts a decoded column value.
func cell(v any) table.Value {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return table.Null()
		}
		return table.Number(f.Float64)
	case [16]byte:
		return table.String(uuid.UUID(x).String())
	case nil, string, []byte, float64, float32, int, int16, int32, int64, time.Time, bool:
		return table.FromAny(x)
	default:
		return table.String(fmt.Sprint(x))
	}
}
