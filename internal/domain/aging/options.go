package aging

import "time"

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithMode selects the raw aging signal.
func WithMode(m Mode) Option {
	return func(n *Normalizer) {
		if m != "" {
			n.mode = m
		}
	}
}

// WithClock sets the "now" source used in timestamp mode.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// WithLocation sets the zone in which zone-less timestamps are interpreted.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithUTCOffsetHours is WithLocation for a fixed offset, e.g. -3.
func WithUTCOffsetHours(hours int) Option {
	return WithLocation(FixedZone(hours))
}
