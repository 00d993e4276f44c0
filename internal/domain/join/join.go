// Package join left-joins the consolidated order stream against the parcel
// scan table on the tracking number.
package join

import (
	"fmt"
	"strings"

	"github.com/okian/consolidator/internal/domain/consolidate"
	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/table"
)

// Policy decides which parcel row is used when several share a key.
type Policy string

const (
	// PolicyFirst keeps the first parcel row in table order.
	PolicyFirst Policy = "first"
	// PolicyLast keeps the last parcel row, i.e. the most recent scan on
	// append-only sheets.
	PolicyLast Policy = "last"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFirst:
		return PolicyFirst, nil
	case PolicyLast:
		return PolicyLast, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Engine performs the tracking join.
type Engine struct {
	imports []string
	policy  Policy
}

// New creates an Engine importing model.DefaultImportColumns with first-match policy.
func New(opts ...Option) *Engine {
	e := &Engine{
		imports: model.DefaultImportColumns(),
		policy:  PolicyFirst,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one join.
type Result struct {
	Records []model.EnrichedRecord
	// Imported lists the requested columns present in the parcel table.
	Imported []string
	// Dropped lists requested columns the parcel table does not carry.
	Dropped []string
	// Matched counts orders that found a parcel row.
	Matched int
}

// Join enriches every order with the imported parcel columns. The result
// always has exactly one record per order. Keys compare by exact value after
// trimming; an empty key never matches. Requested columns missing from the
// parcel table are left out of every record rather than failing the join.
func (e *Engine) Join(orders consolidate.Stream, parcels *table.Table) Result {
	res := Result{Records: make([]model.EnrichedRecord, 0, orders.Len())}
	for _, col := range e.imports {
		if parcels.HasColumn(col) {
			res.Imported = append(res.Imported, col)
		} else {
			res.Dropped = append(res.Dropped, col)
		}
	}

	index := e.index(parcels, res.Imported)

	for _, o := range orders.Orders {
		rec := model.EnrichedRecord{
			Order:  o,
			Parcel: make(map[string]table.Value, len(res.Imported)),
		}
		if p, ok := index[o.TrackingNumber]; ok && o.TrackingNumber != "" {
			rec.Matched = true
			for _, col := range res.Imported {
				rec.Parcel[col] = p.Fields[col]
			}
			res.Matched++
		} else {
			for _, col := range res.Imported {
				rec.Parcel[col] = table.Null()
			}
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

func (e *Engine) index(parcels *table.Table, present []string) map[string]model.ParcelRecord {
	idx := make(map[string]model.ParcelRecord, parcels.Len())
	if parcels == nil {
		return idx
	}
	for _, row := range parcels.Rows {
		p := model.NewParcelRecord(row, present)
		if p.TrackingNumber == "" {
			continue
		}
		if _, seen := idx[p.TrackingNumber]; seen && e.policy == PolicyFirst {
			continue
		}
		idx[p.TrackingNumber] = p
	}
	return idx
}

func normalize(columns []string) []string {
	out := make([]string, 0, len(columns))
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		c = table.NormalizeColumn(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
