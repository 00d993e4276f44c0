package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/consolidator/internal/domain/classify"
	"github.com/okian/consolidator/internal/domain/model"
)

// TotalLabel names the trailing total column and row of a pivot.
const TotalLabel = "Total"

// Dimension is the row key of a pivot.
type Dimension string

// Supported pivot dimensions.
const (
	ByStatus Dimension = "status"
	ByReason Dimension = "reason"
)

// ParseDimension validates a pivot dimension name.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(strings.ToLower(strings.TrimSpace(s))) {
	case "", ByStatus:
		return ByStatus, nil
	case ByReason:
		return ByReason, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
	}
}

// PivotRow is one bucket of the pivot. Counts align with Pivot.Columns.
type PivotRow struct {
	Key    string `json:"key"`
	Counts []int  `json:"counts"`
}

// Pivot cross-tabulates a dimension against the tier scheme.
type Pivot struct {
	By      Dimension  `json:"by"`
	Columns []string   `json:"columns"`
	Rows    []PivotRow `json:"rows"`
	Totals  []int      `json:"totals"`
}

// BuildPivot counts records per (dimension value, tier). Columns are the
// scheme's tiers in severity order followed by TotalLabel; rows are sorted
// by key and Totals is the trailing total row.
func BuildPivot(records []model.EnrichedRecord, scheme classify.Scheme, by Dimension) Pivot {
	labels := scheme.Labels()
	col := make(map[string]int, len(labels))
	for i, l := range labels {
		col[l] = i
	}
	width := len(labels) + 1

	p := Pivot{
		By:      by,
		Columns: append(labels, TotalLabel),
		Totals:  make([]int, width),
	}

	buckets := make(map[string][]int)
	for i := range records {
		key := dimensionValue(&records[i], by)
		counts, ok := buckets[key]
		if !ok {
			counts = make([]int, width)
			buckets[key] = counts
		}
		c, ok := col[records[i].RiskTier]
		if !ok {
			continue
		}
		counts[c]++
		counts[width-1]++
		p.Totals[c]++
		p.Totals[width-1]++
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	p.Rows = make([]PivotRow, 0, len(keys))
	for _, k := range keys {
		p.Rows = append(p.Rows, PivotRow{Key: k, Counts: buckets[k]})
	}
	return p
}

func dimensionValue(r *model.EnrichedRecord, by Dimension) string {
	if by == ByReason {
		return r.Reason
	}
	return r.ConsolidatedStatus
}
