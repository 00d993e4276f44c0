package report

import (
	"sort"
	"strings"

	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/table"
)

// Query selects, filters and orders records for display.
type Query struct {
	// Columns to project, in output order. Empty means every column of the view.
	Columns []string
	// Filters keeps a record only if, for every column listed, its value is
	// one of the given values. Values compare on trimmed text.
	Filters map[string][]string
	// SortByAging orders the most-aged records first. Ties keep input order.
	SortByAging bool
	// Limit caps the number of rows; 0 means no cap.
	Limit int
}

// Frame is a projected, display-ready table.
type Frame struct {
	Columns []string        `json:"columns"`
	Rows    [][]table.Value `json:"rows"`
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.Rows) }

// Project applies q to records. available is the view's full column list;
// requested columns outside it are omitted rather than failing, so a stale
// client column list keeps working after upstream schema changes. Records
// are never modified.
func Project(records []model.EnrichedRecord, available []string, q Query) Frame {
	cols := resolveColumns(available, q.Columns)

	kept := make([]int, 0, len(records))
	for i := range records {
		if matches(&records[i], q.Filters) {
			kept = append(kept, i)
		}
	}

	if q.SortByAging {
		sort.SliceStable(kept, func(a, b int) bool {
			return records[kept[a]].AgingDays > records[kept[b]].AgingDays
		})
	}

	if q.Limit > 0 && len(kept) > q.Limit {
		kept = kept[:q.Limit]
	}

	f := Frame{Columns: cols, Rows: make([][]table.Value, 0, len(kept))}
	for _, i := range kept {
		row := make([]table.Value, len(cols))
		for c, name := range cols {
			row[c], _ = records[i].Field(name)
		}
		f.Rows = append(f.Rows, row)
	}
	return f
}

func resolveColumns(available, requested []string) []string {
	if len(requested) == 0 {
		out := make([]string, len(available))
		copy(out, available)
		return out
	}
	have := make(map[string]struct{}, len(available))
	for _, c := range available {
		have[c] = struct{}{}
	}
	out := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, c := range requested {
		c = table.NormalizeColumn(c)
		if _, ok := have[c]; !ok {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func matches(r *model.EnrichedRecord, filters map[string][]string) bool {
	for col, allowed := range filters {
		if len(allowed) == 0 {
			continue
		}
		v, _ := r.Field(col)
		got := v.Trimmed()
		ok := false
		for _, want := range allowed {
			if strings.TrimSpace(want) == got {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
