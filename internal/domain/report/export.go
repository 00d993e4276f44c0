package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes f as UTF-8 comma-separated text with a header row carrying
// the column names. Null cells are written empty.
func WriteCSV(w io.Writer, f Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return fmt.Errorf("%w: header: %w", ErrExport, err)
	}
	line := make([]string, len(f.Columns))
	for i, row := range f.Rows {
		for c := range line {
			line[c] = ""
			if c < len(row) {
				line[c] = row[c].Text()
			}
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("%w: row %d: %w", ErrExport, i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	return nil
}
