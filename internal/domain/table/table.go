package table

import (
	"strings"
)

// Logical source names. Every acquisition strategy addresses the three
// upstream datasets by these names.
const (
	Parcel       = "Parcel"
	ForwardOrder = "Forward Order"
	ReturnOrder  = "Return Order"
)

// Names lists the logical sources in fetch order.
func Names() []string {
	return []string{Parcel, ForwardOrder, ReturnOrder}
}

// Row maps a normalized column name to its cell.
type Row map[string]Value

// Get returns the cell under column, trimming the lookup key first.
// Missing columns yield null.
func (r Row) Get(column string) Value {
	return r[NormalizeColumn(column)]
}

// Has reports whether the row carries column at all.
func (r Row) Has(column string) bool {
	_, ok := r[NormalizeColumn(column)]
	return ok
}

// Table is one fetched dataset. It is immutable once built: callers must not
// modify Columns or Rows after New returns.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row

	index map[string]struct{}
}

// NormalizeColumn trims the incidental whitespace upstream sheets carry
// around header names.
func NormalizeColumn(name string) string {
	return strings.TrimSpace(name)
}

// New builds a Table from a raw header and positional records. Header names
// are trimmed; blank headers are dropped together with their cells, and a
// repeated header keeps its first occurrence. Short records are padded with
// null and extra trailing cells are ignored.
func New(name string, header []string, records [][]Value) *Table {
	t := &Table{
		Name:  name,
		index: make(map[string]struct{}, len(header)),
	}

	positions := make([]int, 0, len(header))
	for i, h := range header {
		col := NormalizeColumn(h)
		if col == "" {
			continue
		}
		if _, dup := t.index[col]; dup {
			continue
		}
		t.index[col] = struct{}{}
		t.Columns = append(t.Columns, col)
		positions = append(positions, i)
	}

	t.Rows = make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(t.Columns))
		for ci, pos := range positions {
			if pos < len(rec) {
				row[t.Columns[ci]] = rec[pos]
			} else {
				row[t.Columns[ci]] = Null()
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FromStrings is a convenience for text exports (CSV, spreadsheet grids):
// the first record is the header.
func FromStrings(name string, grid [][]string) *Table {
	if len(grid) == 0 {
		return New(name, nil, nil)
	}
	records := make([][]Value, 0, len(grid)-1)
	for _, line := range grid[1:] {
		rec := make([]Value, len(line))
		for i, cell := range line {
			rec[i] = String(cell)
		}
		records = append(records, rec)
	}
	return New(name, grid[0], records)
}

// HasColumn reports whether the table carries column after normalization.
func (t *Table) HasColumn(column string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[NormalizeColumn(column)]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Missing returns the expected columns the table does not carry.
func (t *Table) Missing(expected ...string) []string {
	var out []string
	for _, col := range expected {
		if !t.HasColumn(col) {
			out = append(out, NormalizeColumn(col))
		}
	}
	return out
}
