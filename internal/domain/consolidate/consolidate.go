// Package consolidate merges the forward and return order tables into one
// ordered order stream.
package consolidate

import (
	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/table"
)

// Stream is the consolidated order stream.
type Stream struct {
	// Columns is the union of both sources' columns: forward columns first,
	// then return-only columns in their source order.
	Columns []string
	Orders  []model.OrderRecord
}

// Len returns the number of orders in the stream.
func (s Stream) Len() int { return len(s.Orders) }

// Orders concatenates forward rows followed by return rows. Row order inside
// each source is preserved; nothing is dropped or deduplicated. A nil table
// contributes no rows.
func Orders(forward, ret *table.Table) Stream {
	s := Stream{
		Columns: unionColumns(forward, ret),
		Orders:  make([]model.OrderRecord, 0, forward.Len()+ret.Len()),
	}
	s.Orders = appendRows(s.Orders, forward, model.OriginForward)
	s.Orders = appendRows(s.Orders, ret, model.OriginReturn)
	return s
}

func appendRows(dst []model.OrderRecord, t *table.Table, origin model.Origin) []model.OrderRecord {
	if t == nil {
		return dst
	}
	for _, row := range t.Rows {
		dst = append(dst, model.NewOrderRecord(row, origin))
	}
	return dst
}

func unionColumns(tables ...*table.Table) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}
	return cols
}
