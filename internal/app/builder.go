package service

import (
	"fmt"
	"slices"

	"github.com/okian/consolidator/internal/config"
	"github.com/okian/consolidator/internal/domain/aging"
	"github.com/okian/consolidator/internal/domain/classify"
	"github.com/okian/consolidator/internal/domain/join"
	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/pipeline"
)

// NewBuilder assembles a pipeline builder from cfg. In numeric aging mode
// the parcel "Aging Time" column is always imported, since aging is read
// from it.
func NewBuilder(cfg *config.Config, opts ...pipeline.Option) (*pipeline.Builder, error) {
	mode, err := aging.ParseMode(cfg.Aging.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	scheme, err := classify.ParseScheme(cfg.Classify.Scheme)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	policy, err := join.ParsePolicy(cfg.Join.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	imports := slices.Clone(cfg.Join.ImportColumns)
	if len(imports) == 0 {
		imports = model.DefaultImportColumns()
	}
	if mode == aging.ModeNumeric && !slices.Contains(imports, model.ColAgingTime) {
		imports = append(imports, model.ColAgingTime)
	}

	base := []pipeline.Option{
		pipeline.WithScheme(scheme),
		pipeline.WithJoinEngine(join.New(
			join.WithImportColumns(imports),
			join.WithPolicy(policy),
		)),
		pipeline.WithNormalizer(aging.New(
			aging.WithMode(mode),
			aging.WithUTCOffsetHours(cfg.Aging.UTCOffsetHours),
		)),
	}
	return pipeline.NewBuilder(append(base, opts...)...), nil
}
