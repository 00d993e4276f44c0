// Package csvexport fetches each logical table from its own delimited export,
// typically a spreadsheet tab published as CSV.
package csvexport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/consolidator/internal/adapters/source/remote"
	"github.com/okian/consolidator/internal/domain/table"
)

const utf8BOM = "\ufeff"

// ErrNoLocation is returned for a logical table without a configured export.
var ErrNoLocation = errors.New("no export location configured")

// Fetcher reads one CSV document per logical table.
type Fetcher struct {
	locations map[string]string
	client    *remote.Client
	comma     rune
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the client used to open exports.
func WithClient(c *remote.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithComma sets the field delimiter (',' by default).
func WithComma(r rune) Option {
	return func(f *Fetcher) {
		if r != 0 {
			f.comma = r
		}
	}
}

// New creates a Fetcher. locations maps logical table names to URLs or paths.
func New(locations map[string]string, opts ...Option) *Fetcher {
	f := &Fetcher{
		locations: make(map[string]string, len(locations)),
		client:    remote.New(),
		comma:     ',',
	}
	for name, loc := range locations {
		f.locations[name] = loc
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads and parses the export for name. An export holding only a
// header row yields an empty table, not an error.
func (f *Fetcher) Fetch(ctx context.Context, name string) (*table.Table, error) {
	loc, ok := f.locations[name]
	if !ok || loc == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoLocation, name)
	}
	rc, err := f.client.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	grid, err := Parse(rc, f.comma)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return table.FromStrings(name, grid), nil
}

// Parse reads a delimited document into a grid. Ragged rows are accepted and
// a leading byte order mark is dropped.
func Parse(r io.Reader, comma rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	grid, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(grid) > 0 && len(grid[0]) > 0 {
		grid[0][0] = strings.TrimPrefix(grid[0][0], utf8BOM)
	}
	return grid, nil
}
