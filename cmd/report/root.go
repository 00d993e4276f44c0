package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/consolidator/internal/adapters/source"
	app "github.com/okian/consolidator/internal/app"
	"github.com/okian/consolidator/internal/config"
	"github.com/okian/consolidator/internal/domain/pipeline"
	"github.com/okian/consolidator/pkg/logger"
)

// fetcherFactory opens the acquisition strategy for a config.
type fetcherFactory func(ctx context.Context, cfg *config.Config) (source.Fetcher, error)

func defaultFetcher(ctx context.Context, cfg *config.Config) (source.Fetcher, error) {
	return source.New(ctx, cfg)
}

// runner carries what every subcommand shares.
type runner struct {
	newFetcher fetcherFactory

	configPath string
	scheme     string
	agingMode  string
	verbose    bool

	cfg *config.Config
}

func newRootCmd(newFetcher fetcherFactory) *cobra.Command {
	r := &runner{newFetcher: newFetcher}

	root := &cobra.Command{
		Use:   "report",
		Short: "Run one consolidation cycle and report on it",
		Long: `report fetches the parcel, forward order and return order tables from the
configured source, builds the consolidated view once, and prints or exports it.
Configuration follows the server: defaults, $CONSOLIDATOR_CONFIG, then
CONSOLIDATOR_* environment variables.`,
		SilenceUsage:      true,
		PersistentPreRunE: r.load,
	}
	root.PersistentFlags().StringVarP(&r.configPath, "config", "c", "", "YAML config file (overrides $CONSOLIDATOR_CONFIG)")
	root.PersistentFlags().StringVar(&r.scheme, "scheme", "", "tier scheme: risk or macro")
	root.PersistentFlags().StringVar(&r.agingMode, "aging-mode", "", "aging signal: numeric or timestamp")
	root.PersistentFlags().BoolVarP(&r.verbose, "verbose", "v", false, "log cycle progress to stderr")

	root.AddCommand(
		newSummaryCmd(r),
		newPivotCmd(r),
		newExportCmd(r),
	)
	return root
}

func (r *runner) load(cmd *cobra.Command, _ []string) error {
	if r.configPath != "" {
		if err := os.Setenv("CONSOLIDATOR_CONFIG", r.configPath); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}

	level := "error"
	if r.verbose {
		level = "info"
	}
	if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	_ = logger.SetLevelString(level)

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if r.scheme != "" {
		cfg.Classify.Scheme = r.scheme
	}
	if r.agingMode != "" {
		cfg.Aging.Mode = r.agingMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.cfg = cfg
	return nil
}

// view runs one cycle: fetch, build, no publication.
func (r *runner) view(ctx context.Context) (*pipeline.View, error) {
	log := logger.Get().Named("report")

	f, err := r.newFetcher(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = source.Close(f) }()

	b, err := app.NewBuilder(r.cfg)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()
	in, err := source.FetchAll(fetchCtx, f)
	if err != nil {
		log.Error(ctx, "source unavailable",
			logger.String("source", pipeline.FailedSource(err)),
			logger.Error(err))
		return nil, err
	}

	v, err := b.Build(ctx, in)
	if err != nil {
		return nil, err
	}
	for _, d := range v.Drift {
		log.Warn(ctx, "schema drift", logger.String("table", d.Table), logger.String("column", d.Column))
	}
	log.Info(ctx, "cycle built", logger.String("view_id", v.ID), logger.Int("records", len(v.Records)))
	return v, nil
}
