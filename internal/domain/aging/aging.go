// Package aging turns the raw aging signal of an enriched record into a
// canonical non-negative day count.
package aging

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/table"
)

const (
	hoursPerDay = 24
	// defaultUTCOffsetHours matches the operation's local time (UTC-3).
	defaultUTCOffsetHours = -3
)

// Mode names the raw signal a deployment uses.
type Mode string

const (
	// ModeNumeric reads the parcel's precomputed "Aging Time" in days.
	ModeNumeric Mode = "numeric"
	// ModeTimestamp derives days elapsed since the order's "LM Hub Receive time".
	ModeTimestamp Mode = "timestamp"
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeNumeric:
		return ModeNumeric, nil
	case ModeTimestamp:
		return ModeTimestamp, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Day-first layouts seen in the receive-time column, then ISO fallbacks.
// Single-digit day/month/hour fields parse under these layouts as well.
var timestampLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02",
}

// spreadsheetEpoch is day zero of spreadsheet serial dates.
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// FixedZone returns a fixed-offset location named like "UTC-3".
func FixedZone(hours int) *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", hours), hours*int(time.Hour/time.Second))
}

// Normalizer computes AgingDays in one configured mode.
type Normalizer struct {
	mode Mode
	now  func() time.Time
	loc  *time.Location
}

// New creates a Normalizer in numeric mode using wall-clock time at UTC-3.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		mode: ModeNumeric,
		now:  time.Now,
		loc:  FixedZone(defaultUTCOffsetHours),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Mode returns the active mode.
func (n *Normalizer) Mode() Mode { return n.mode }

// Now returns the processing time in the configured location.
func (n *Normalizer) Now() time.Time { return n.now().In(n.loc) }

// Days returns the normalized aging of rec. It is never negative.
func (n *Normalizer) Days(rec model.EnrichedRecord) float64 {
	if n.mode == ModeTimestamp {
		return ElapsedDays(rec.Order.HubReceiveTime, n.Now(), n.loc)
	}
	v, _ := rec.ParcelField(model.ColAgingTime)
	return ParseDays(v)
}

// ParseDays reads a precomputed day count. Empty, malformed, NaN and
// negative values normalize to 0. Counts beyond float range saturate at
// math.MaxFloat64 so they still classify as the oldest tier.
func ParseDays(v table.Value) float64 {
	switch v.Kind() {
	case table.KindNumber:
		f, _ := v.Float()
		return nonNegative(f)
	case table.KindString:
		d, err := decimal.NewFromString(v.Trimmed())
		if err != nil || d.IsNegative() {
			return 0
		}
		f, _ := d.Float64()
		return nonNegative(f)
	default:
		return 0
	}
}

// ElapsedDays returns whole days between the receive timestamp and now,
// floored. Unparseable timestamps yield 0, and so do future timestamps:
// clock skew is clamped rather than reported as negative aging.
func ElapsedDays(v table.Value, now time.Time, loc *time.Location) float64 {
	ts, ok := ParseTimestamp(v, loc)
	if !ok {
		return 0
	}
	days := math.Floor(now.Sub(ts).Hours() / hoursPerDay)
	return nonNegative(days)
}

// ParseTimestamp interprets a receive-time cell. Text is parsed day-first in
// loc; numbers are treated as spreadsheet serial dates.
func ParseTimestamp(v table.Value, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch v.Kind() {
	case table.KindTime:
		return v.Timestamp()
	case table.KindNumber:
		f, _ := v.Float()
		if f <= 0 || math.IsInf(f, 0) {
			return time.Time{}, false
		}
		wall := spreadsheetEpoch.Add(time.Duration(f * hoursPerDay * float64(time.Hour)))
		return time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), 0, loc), true
	case table.KindString:
		s := v.Trimmed()
		for _, layout := range timestampLayouts {
			if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

func nonNegative(f float64) float64 {
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsNaN(f) || f < 0:
		return 0
	}
	return f
}
