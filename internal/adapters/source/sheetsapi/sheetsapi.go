// Package sheetsapi fetches the logical tables through the Google Sheets API
// v4. Each table is a sheet of one spreadsheet, named like the table.
package sheetsapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/okian/consolidator/internal/domain/pipeline"
	"github.com/okian/consolidator/internal/domain/table"
)

// SourceName identifies the spreadsheet when the batch request fails.
const SourceName = "spreadsheet"

// Values are requested unformatted so that dates arrive as serial numbers.
const (
	valueRender    = "UNFORMATTED_VALUE"
	dateTimeRender = "SERIAL_NUMBER"
)

// ErrIncompleteResponse is returned when the API omits a requested range.
var ErrIncompleteResponse = errors.New("incomplete batch response")

// Fetcher reads sheets through the Values API.
type Fetcher struct {
	svc           *sheets.Service
	spreadsheetID string
	names         []string
}

// New creates a Fetcher. opts carry credentials, e.g.
// option.WithCredentialsFile or option.WithAPIKey.
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Fetcher, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &Fetcher{svc: svc, spreadsheetID: spreadsheetID, names: table.Names()}, nil
}

// Fetch returns the sheet holding name.
func (f *Fetcher) Fetch(ctx context.Context, name string) (*table.Table, error) {
	vr, err := f.svc.Spreadsheets.Values.Get(f.spreadsheetID, sheetRange(name)).
		ValueRenderOption(valueRender).
		DateTimeRenderOption(dateTimeRender).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return toTable(name, vr.Values), nil
}

// FetchAll reads every logical table with one BatchGet call.
func (f *Fetcher) FetchAll(ctx context.Context) (map[string]*table.Table, error) {
	ranges := make([]string, len(f.names))
	for i, name := range f.names {
		ranges[i] = sheetRange(name)
	}
	resp, err := f.svc.Spreadsheets.Values.BatchGet(f.spreadsheetID).
		Ranges(ranges...).
		ValueRenderOption(valueRender).
		DateTimeRenderOption(dateTimeRender).
		Context(ctx).
		Do()
	if err != nil {
		return nil, pipeline.NewSourceError(SourceName, err)
	}

	out := make(map[string]*table.Table, len(f.names))
	for i, name := range f.names {
		if i >= len(resp.ValueRanges) || resp.ValueRanges[i] == nil {
			return nil, pipeline.NewSourceError(name, ErrIncompleteResponse)
		}
		out[name] = toTable(name, resp.ValueRanges[i].Values)
	}
	return out, nil
}

// sheetRange quotes a sheet title for A1 notation.
func sheetRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toTable(name string, values [][]any) *table.Table {
	if len(values) == 0 {
		return table.New(name, nil, nil)
	}
	header := make([]string, len(values[0]))
	for i, cell := range values[0] {
		header[i] = table.FromAny(cell).Text()
	}
	records := make([][]table.Value, 0, len(values)-1)
	for _, line := range values[1:] {
		rec := make([]table.Value, len(line))
		for i, cell := range line {
			rec[i] = table.FromAny(cell)
		}
		records = append(records, rec)
	}
	return table.New(name, header, records)
}
