// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load layers a YAML file and environment variables over the defaults.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"time"

	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/table"
)

// Acquisition strategies selectable through source.strategy.
const (
	StrategyXLSX     = "xlsx"
	StrategyCSV      = "csv"
	StrategySheets   = "sheets"
	StrategyPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json records.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RefreshInterval is the scheduled refresh period.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// CacheTTL bounds how long a fetched source table is reused.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// FetchTimeout bounds one acquisition of all source tables.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// RefreshQueueSize bounds pending refresh triggers.
	RefreshQueueSize int `koanf:"refresh_queue_size"`

	Source   SourceConfig   `koanf:"source"`
	Aging    AgingConfig    `koanf:"aging"`
	Classify ClassifyConfig `koanf:"classify"`
	Join     JoinConfig     `koanf:"join"`
	View     ViewConfig     `koanf:"view"`
	Notify   NotifyConfig   `koanf:"notify"`
}

// TableRefs holds one locator per logical table.
type TableRefs struct {
	Parcel       string `koanf:"parcel"`
	ForwardOrder string `koanf:"forward_order"`
	ReturnOrder  string `koanf:"return_order"`
}

// ByName returns the locator for a logical table name.
func (r TableRefs) ByName(name string) string {
	switch name {
	case table.Parcel:
		return r.Parcel
	case table.ForwardOrder:
		return r.ForwardOrder
	case table.ReturnOrder:
		return r.ReturnOrder
	default:
		return ""
	}
}

// Missing lists the logical tables without a locator.
func (r TableRefs) Missing() []string {
	var out []string
	for _, name := range table.Names() {
		if r.ByName(name) == "" {
			out = append(out, name)
		}
	}
	return out
}

// SourceConfig selects and parameterizes the acquisition strategy.
type SourceConfig struct {
	Strategy string `koanf:"strategy"`

	// XLSXURL is the bulk workbook export URL (or local path).
	XLSXURL string `koanf:"xlsx_url"`

	// CSVURLs maps each logical table to a per-tab CSV export URL or path.
	CSVURLs TableRefs `koanf:"csv_urls"`

	// SpreadsheetID, CredentialsFile and APIKey drive the Sheets API strategy.
	SpreadsheetID   string `koanf:"spreadsheet_id"`
	CredentialsFile string `koanf:"credentials_file"`
	APIKey          string `koanf:"api_key"`

	// PostgresDSN and PostgresTables drive the database strategy.
	PostgresDSN     string    `koanf:"postgres_dsn"`
	PostgresTables  TableRefs `koanf:"postgres_tables"`
	PostgresOrderBy string    `koanf:"postgres_order_by"`
}

// AgingConfig selects the aging signal.
type AgingConfig struct {
	Mode           string `koanf:"mode"`
	UTCOffsetHours int    `koanf:"utc_offset_hours"`
}

// ClassifyConfig selects the tier scheme.
type ClassifyConfig struct {
	Scheme string `koanf:"scheme"`
}

// JoinConfig controls the tracking join.
type JoinConfig struct {
	ImportColumns []string `koanf:"import_columns"`
	Policy        string   `koanf:"policy"`
}

// ViewConfig controls the default projection.
type ViewConfig struct {
	Columns []string `koanf:"columns"`
}

// NotifyConfig enables cycle notifications when AMQPURL is set.
type NotifyConfig struct {
	AMQPURL  string `koanf:"amqp_url"`
	Exchange string `koanf:"exchange"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		RefreshInterval:  300 * time.Second,
		CacheTTL:         300 * time.Second,
		FetchTimeout:     30 * time.Second,
		RefreshQueueSize: 4,
		Source: SourceConfig{
			Strategy:        StrategyXLSX,
			PostgresOrderBy: "ctid",
			PostgresTables: TableRefs{
				Parcel:       "parcel",
				ForwardOrder: "forward_order",
				ReturnOrder:  "return_order",
			},
		},
		Aging: AgingConfig{
			Mode:           "numeric",
			UTCOffsetHours: -3,
		},
		Classify: ClassifyConfig{Scheme: "risk"},
		Join: JoinConfig{
			ImportColumns: model.DefaultImportColumns(),
			Policy:        "first",
		},
		View: ViewConfig{
			Columns: []string{
				model.ColOrderID,
				model.ColStatus,
				model.ColCurrentStation,
				model.ColAgingTime,
				model.ColOperator,
			},
		},
		Notify: NotifyConfig{Exchange: "consolidator.cycles"},
	}
}
