// Package classify buckets a normalized aging day count into an ordered set
// of risk tiers.
package classify

import (
	"fmt"
	"math"
	"strings"
)

// Risk tier labels (3-tier operational scheme).
const (
	TierNormal    = "Normal"
	TierAttention = "Attention"
	TierCritical  = "Critical"
)

// Macro aging labels (5-tier scheme).
const (
	TierZeroDays     = "0 Days"
	TierOneToTwo     = "1 a 2 Dias"
	TierThreeToSeven = "3 a 7 Dias"
	TierEightTo14    = "8 a 14 Dias"
	TierOver15       = "Mais de 15 Dias"
)

// Scheme names.
const (
	SchemeRisk  = "risk"
	SchemeMacro = "macro"
)

// Tier is one bucket of a scheme. A value belongs to the first tier whose
// Max it does not exceed; the last tier is unbounded.
type Tier struct {
	Label string
	// Rank orders tiers by severity, starting at 0.
	Rank int
	// Max is the inclusive upper bound in days.
	Max float64
	// Critical marks tiers counted as stuck (aging over 48h).
	Critical bool
}

// Scheme is a total, order-preserving step function over aging days.
type Scheme struct {
	name  string
	tiers []Tier
}

// Risk returns the 3-tier operational scheme:
// <=1 Normal, <=2 Attention, >2 Critical.
func Risk() Scheme {
	return Scheme{
		name: SchemeRisk,
		tiers: []Tier{
			{Label: TierNormal, Rank: 0, Max: 1},
			{Label: TierAttention, Rank: 1, Max: 2},
			{Label: TierCritical, Rank: 2, Max: math.Inf(1), Critical: true},
		},
	}
}

// Macro returns the 5-tier aging scheme:
// 0, (0,2], (2,7], (7,14], >14.
func Macro() Scheme {
	return Scheme{
		name: SchemeMacro,
		tiers: []Tier{
			{Label: TierZeroDays, Rank: 0, Max: 0},
			{Label: TierOneToTwo, Rank: 1, Max: 2},
			{Label: TierThreeToSeven, Rank: 2, Max: 7, Critical: true},
			{Label: TierEightTo14, Rank: 3, Max: 14, Critical: true},
			{Label: TierOver15, Rank: 4, Max: math.Inf(1), Critical: true},
		},
	}
}

// ParseScheme returns the scheme registered under name.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SchemeRisk:
		return Risk(), nil
	case SchemeMacro:
		return Macro(), nil
	default:
		return Scheme{}, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}

// Name returns the scheme name.
func (s Scheme) Name() string { return s.name }

// Tiers returns the tiers in severity order.
func (s Scheme) Tiers() []Tier {
	out := make([]Tier, len(s.tiers))
	copy(out, s.tiers)
	return out
}

// Labels returns tier labels in severity order, the column order for pivots.
func (s Scheme) Labels() []string {
	out := make([]string, len(s.tiers))
	for i, t := range s.tiers {
		out[i] = t.Label
	}
	return out
}

// Classify maps a day count to its tier. Negative and NaN inputs are treated
// as 0 so the function stays total.
func (s Scheme) Classify(days float64) Tier {
	if math.IsNaN(days) || days < 0 {
		days = 0
	}
	for _, t := range s.tiers {
		if days <= t.Max {
			return t
		}
	}
	return s.tiers[len(s.tiers)-1]
}

// Rank returns the severity rank of label, or -1 when the scheme lacks it.
func (s Scheme) Rank(label string) int {
	for _, t := range s.tiers {
		if t.Label == label {
			return t.Rank
		}
	}
	return -1
}
