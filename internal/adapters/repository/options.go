package repository

import "time"

// Option applies a configuration option to the ViewStore.
type Option func(*ViewStore)

// WithStaleAfter sets the age after which the served view is reported stale.
func WithStaleAfter(d time.Duration) Option {
	return func(s *ViewStore) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ViewStore) {
		if now != nil {
			s.now = now
		}
	}
}
