package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/okian/consolidator/internal/adapters/source/csvexport"
	"github.com/okian/consolidator/internal/adapters/source/postgres"
	"github.com/okian/consolidator/internal/adapters/source/remote"
	"github.com/okian/consolidator/internal/adapters/source/sheetsapi"
	"github.com/okian/consolidator/internal/adapters/source/xlsx"
	"github.com/okian/consolidator/internal/config"
	"github.com/okian/consolidator/internal/domain/table"
)

// New builds the Fetcher selected by cfg.Source.Strategy.
func New(ctx context.Context, cfg *config.Config) (Fetcher, error) {
	src := cfg.Source
	client := remote.New(remote.WithTimeout(cfg.FetchTimeout))

	switch strings.ToLower(strings.TrimSpace(src.Strategy)) {
	case config.StrategyXLSX:
		return xlsx.New(src.XLSXURL, xlsx.WithClient(client)), nil

	case config.StrategyCSV:
		return csvexport.New(refsMap(src.CSVURLs), csvexport.WithClient(client)), nil

	case config.StrategySheets:
		opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
		if src.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(src.CredentialsFile))
		} else {
			opts = append(opts, option.WithAPIKey(src.APIKey))
		}
		return sheetsapi.New(ctx, src.SpreadsheetID, opts...)

	case config.StrategyPostgres:
		return postgres.Connect(ctx, src.PostgresDSN, refsMap(src.PostgresTables),
			postgres.WithOrderBy(src.PostgresOrderBy))

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, src.Strategy)
	}
}

// Close releases resources held by f, if any.
func Close(f Fetcher) error {
	if c, ok := f.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func refsMap(refs config.TableRefs) map[string]string {
	out := make(map[string]string, len(table.Names()))
	for _, name := range table.Names() {
		if loc := refs.ByName(name); loc != "" {
			out[name] = loc
		}
	}
	return out
}
