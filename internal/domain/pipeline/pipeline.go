// Package pipeline assembles one refresh cycle's enriched view from the
// three source tables: consolidate, join, normalize aging, classify and
// resolve status.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/consolidator/internal/domain/aging"
	"github.com/okian/consolidator/internal/domain/classify"
	"github.com/okian/consolidator/internal/domain/consolidate"
	"github.com/okian/consolidator/internal/domain/join"
	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/report"
	"github.com/okian/consolidator/internal/domain/status"
	"github.com/okian/consolidator/internal/domain/table"
)

// Inputs carries the three fetched tables of a cycle.
type Inputs struct {
	Parcel  *table.Table
	Forward *table.Table
	Return  *table.Table
}

// FromMap picks the tables out of a fetch result keyed by logical name.
func FromMap(m map[string]*table.Table) Inputs {
	return Inputs{
		Parcel:  m[table.Parcel],
		Forward: m[table.ForwardOrder],
		Return:  m[table.ReturnOrder],
	}
}

// Drift is an expected column missing from a fetched table.
type Drift struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// View is the immutable result of one cycle. A new View replaces the old
// one wholesale; records are never mutated after Build returns.
type View struct {
	ID        string
	BuiltAt   time.Time
	Scheme    classify.Scheme
	AgingMode aging.Mode
	// Columns lists every projectable column: order columns, imported parcel
	// columns, then derived columns.
	Columns []string
	Records []model.EnrichedRecord
	Summary report.Summary
	Drift   []Drift
}

// Builder turns Inputs into a View.
type Builder struct {
	join       *join.Engine
	normalizer *aging.Normalizer
	scheme     classify.Scheme
	newID      func() string
	now        func() time.Time
}

// NewBuilder creates a Builder with default join, numeric aging and the
// 3-tier risk scheme.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		join:       join.New(),
		normalizer: aging.New(),
		scheme:     classify.Risk(),
		newID:      func() string { return uuid.NewString() },
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Scheme returns the configured tier scheme.
func (b *Builder) Scheme() classify.Scheme { return b.scheme }

// Build runs the cycle. It fails only when a table is missing; schema drift,
// malformed cells and unmatched keys degrade into the data.
func (b *Builder) Build(ctx context.Context, in Inputs) (*View, error) {
	for i, t := range []*table.Table{in.Parcel, in.Forward, in.Return} {
		if t == nil {
			return nil, NewSourceError(table.Names()[i], ErrMissingTable)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build view: %w", err)
	}

	drift := detectDrift(in)

	orders := consolidate.Orders(in.Forward, in.Return)
	joined := b.join.Join(orders, in.Parcel)
	for _, col := range joined.Dropped {
		drift = append(drift, Drift{Table: table.Parcel, Column: col})
	}

	records := joined.Records
	for i := range records {
		r := &records[i]
		r.AgingDays = b.normalizer.Days(*r)
		tier := b.scheme.Classify(r.AgingDays)
		r.RiskTier = tier.Label
		r.TierRank = tier.Rank
		r.Critical = tier.Critical
		status.Apply(r)
	}

	columns := make([]string, 0, len(orders.Columns)+len(joined.Imported)+len(model.DerivedColumns()))
	seen := make(map[string]struct{})
	for _, group := range [][]string{orders.Columns, joined.Imported, model.DerivedColumns()} {
		for _, c := range group {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			columns = append(columns, c)
		}
	}

	return &View{
		ID:        b.newID(),
		BuiltAt:   b.now(),
		Scheme:    b.scheme,
		AgingMode: b.normalizer.Mode(),
		Columns:   columns,
		Records:   records,
		Summary:   report.Summarize(records, b.scheme),
		Drift:     drift,
	}, nil
}

// detectDrift checks the expected columns once, at the ingestion boundary.
func detectDrift(in Inputs) []Drift {
	var out []Drift
	for _, t := range []*table.Table{in.Forward, in.Return} {
		for _, col := range t.Missing(model.OrderColumns()...) {
			out = append(out, Drift{Table: t.Name, Column: col})
		}
	}
	for _, col := range in.Parcel.Missing(model.ParcelKeyColumns()...) {
		out = append(out, Drift{Table: in.Parcel.Name, Column: col})
	}
	return out
}

// Project is a convenience for report.Project over the view.
func (v *View) Project(q report.Query) report.Frame {
	return report.Project(v.Records, v.Columns, q)
}

// Pivot is a convenience for report.BuildPivot over the view.
func (v *View) Pivot(by report.Dimension) report.Pivot {
	return report.BuildPivot(v.Records, v.Scheme, by)
}
