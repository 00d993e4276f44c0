// Package xlsx fetches all logical tables from one workbook export: a single
// download yields the three sheets.
package xlsx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/consolidator/internal/adapters/source/remote"
	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/pipeline"
	"github.com/okian/consolidator/internal/domain/table"
)

// SourceName identifies the workbook when the download itself fails.
const SourceName = "workbook"

// ErrSheetNotFound is returned when the workbook lacks a logical table.
var ErrSheetNotFound = errors.New("sheet not found")

// Fetcher downloads a workbook and splits it into tables.
type Fetcher struct {
	location string
	client   *remote.Client
	names    []string
	typed    map[string]struct{}
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the client used to download the workbook.
func WithClient(c *remote.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTypedColumns lists columns read from the raw cell value so that
// spreadsheet dates and day counts keep their numeric form instead of the
// locale formatting of the sheet.
func WithTypedColumns(cols ...string) Option {
	return func(f *Fetcher) {
		f.typed = make(map[string]struct{}, len(cols))
		for _, c := range cols {
			f.typed[table.NormalizeColumn(c)] = struct{}{}
		}
	}
}

// New creates a Fetcher for the workbook at location (URL or path).
func New(location string, opts ...Option) *Fetcher {
	f := &Fetcher{
		location: location,
		client:   remote.New(),
		names:    table.Names(),
	}
	WithTypedColumns(model.ColHubReceiveTime, model.ColAgingTime)(f)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns a single table. It downloads the whole workbook.
func (f *Fetcher) Fetch(ctx context.Context, name string) (*table.Table, error) {
	wb, err := f.open(ctx)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return f.read(wb, name)
}

// FetchAll downloads the workbook once and returns every logical table.
func (f *Fetcher) FetchAll(ctx context.Context) (map[string]*table.Table, error) {
	wb, err := f.open(ctx)
	if err != nil {
		return nil, pipeline.NewSourceError(SourceName, err)
	}
	defer wb.Close()

	out := make(map[string]*table.Table, len(f.names))
	for _, name := range f.names {
		t, err := f.read(wb, name)
		if err != nil {
			return nil, pipeline.NewSourceError(name, err)
		}
		out[name] = t
	}
	return out, nil
}

func (f *Fetcher) open(ctx context.Context) (*excelize.File, error) {
	data, err := f.client.ReadAll(ctx, f.location)
	if err != nil {
		return nil, fmt.Errorf("download workbook: %w", err)
	}
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return wb, nil
}

func (f *Fetcher) read(wb *excelize.File, name string) (*table.Table, error) {
	sheet, ok := findSheet(wb.GetSheetList(), name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	formatted, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(formatted) == 0 {
		return table.New(name, nil, nil), nil
	}

	header := formatted[0]
	var typedPos []int
	for i, h := range header {
		if _, ok := f.typed[table.NormalizeColumn(h)]; ok {
			typedPos = append(typedPos, i)
		}
	}
	var raw [][]string
	if len(typedPos) > 0 {
		if raw, err = wb.GetRows(sheet, excelize.Options{RawCellValue: true}); err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
	}

	records := make([][]table.Value, 0, len(formatted)-1)
	for r := 1; r < len(formatted); r++ {
		line := formatted[r]
		rec := make([]table.Value, len(line))
		for i, cell := range line {
			rec[i] = table.String(cell)
		}
		for _, pos := range typedPos {
			if pos >= len(rec) || r >= len(raw) || pos >= len(raw[r]) {
				continue
			}
			if n, err := strconv.ParseFloat(strings.TrimSpace(raw[r][pos]), 64); err == nil {
				rec[pos] = table.Number(n)
			}
		}
		records = append(records, rec)
	}
	return table.New(name, header, records), nil
}

// findSheet matches a logical name exactly, then ignoring case and padding.
func findSheet(sheets []string, name string) (string, bool) {
	for _, s := range sheets {
		if s == name {
			return s, true
		}
	}
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return s, true
		}
	}
	return "", false
}
