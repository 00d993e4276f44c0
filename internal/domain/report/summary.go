// Package report computes aggregates, cross-tabulations and column
// projections over an enriched record set.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/okian/consolidator/internal/domain/classify"
	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/status"
)

const meanAgingPlaces = 2

// TierCount is the number of records in one tier.
type TierCount struct {
	Tier  string `json:"tier"`
	Count int    `json:"count"`
}

// Summary holds the scalar aggregates of a view.
type Summary struct {
	Total     int         `json:"total"`
	Critical  int         `json:"critical"`
	MeanAging float64     `json:"mean_aging_days"`
	Matched   int         `json:"matched"`
	Flagged   int         `json:"needs_justification"`
	ByTier    []TierCount `json:"by_tier"`
}

// Summarize computes totals over records. ByTier follows the scheme's order
// and lists every tier, including empty ones.
func Summarize(records []model.EnrichedRecord, scheme classify.Scheme) Summary {
	labels := scheme.Labels()
	counts := make(map[string]int, len(labels))
	sum := decimal.Zero

	s := Summary{Total: len(records)}
	for i := range records {
		r := &records[i]
		counts[r.RiskTier]++
		if r.Critical {
			s.Critical++
		}
		if r.Matched {
			s.Matched++
		}
		if status.IsFlagged(r.Reason) {
			s.Flagged++
		}
		sum = sum.Add(decimal.NewFromFloat(r.AgingDays))
	}

	if s.Total > 0 {
		s.MeanAging = sum.Div(decimal.NewFromInt(int64(s.Total))).Round(meanAgingPlaces).InexactFloat64()
	}

	s.ByTier = make([]TierCount, 0, len(labels))
	for _, l := range labels {
		s.ByTier = append(s.ByTier, TierCount{Tier: l, Count: counts[l]})
	}
	return s
}
