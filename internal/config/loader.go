package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/consolidator/internal/domain/aging"
	"github.com/okian/consolidator/internal/domain/classify"
	"github.com/okian/consolidator/internal/domain/join"
)

const (
	envPrefix  = "CONSOLIDATOR_"
	envFileKey = "CONSOLIDATOR_CONFIG"
)

// List-valued keys. They replace the default list wholesale instead of being
// merged element by element.
var listKeys = []string{"join.import_columns", "view.columns"} //nolint:gochecknoglobals // fixed key set

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CONSOLIDATOR_CONFIG is set
//  3. env (prefix CONSOLIDATOR_, "__" separates nested keys)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envFileKey); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CONSOLIDATOR_SOURCE__STRATEGY -> source.strategy
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envFileKey {
			return ""
		}
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, key := range listKeys {
		if !k.Exists(key) {
			continue
		}
		list := listValue(k.Get(key))
		switch key {
		case "join.import_columns":
			cfg.Join.ImportColumns = list
		case "view.columns":
			cfg.View.Columns = list
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listValue accepts a YAML sequence or a comma separated env string.
func listValue(v any) []string {
	var raw []string
	switch t := v.(type) {
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			raw = append(raw, fmt.Sprint(item))
		}
	case string:
		raw = strings.Split(t, ",")
	default:
		raw = []string{fmt.Sprint(t)}
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports the first configuration problem, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.RefreshInterval <= 0:
		return invalid("refresh_interval must be positive")
	case c.CacheTTL < 0:
		return invalid("cache_ttl must not be negative")
	case c.FetchTimeout <= 0:
		return invalid("fetch_timeout must be positive")
	case c.RefreshQueueSize <= 0:
		return invalid("refresh_queue_size must be positive")
	case c.Aging.UTCOffsetHours < -12 || c.Aging.UTCOffsetHours > 14:
		return invalid("aging.utc_offset_hours out of range: %d", c.Aging.UTCOffsetHours)
	}

	if _, err := aging.ParseMode(c.Aging.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := classify.ParseScheme(c.Classify.Scheme); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := join.ParsePolicy(c.Join.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c.validateSource()
}

func (c *Config) validateSource() error {
	s := c.Source
	switch strings.ToLower(strings.TrimSpace(s.Strategy)) {
	case StrategyXLSX:
		if s.XLSXURL == "" {
			return invalid("source.xlsx_url is required for the %s strategy", StrategyXLSX)
		}
	case StrategyCSV:
		if missing := s.CSVURLs.Missing(); len(missing) > 0 {
			return invalid("source.csv_urls missing %s", strings.Join(missing, ", "))
		}
	case StrategySheets:
		if s.SpreadsheetID == "" {
			return invalid("source.spreadsheet_id is required for the %s strategy", StrategySheets)
		}
		if s.CredentialsFile == "" && s.APIKey == "" {
			return invalid("source.credentials_file or source.api_key is required for the %s strategy", StrategySheets)
		}
	case StrategyPostgres:
		if s.PostgresDSN == "" {
			return invalid("source.postgres_dsn is required for the %s strategy", StrategyPostgres)
		}
		if missing := s.PostgresTables.Missing(); len(missing) > 0 {
			return invalid("source.postgres_tables missing %s", strings.Join(missing, ", "))
		}
	default:
		return invalid("unknown source.strategy %q", s.Strategy)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
