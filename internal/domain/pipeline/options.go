package pipeline

import (
	"time"

	"github.com/okian/consolidator/internal/domain/aging"
	"github.com/okian/consolidator/internal/domain/classify"
	"github.com/okian/consolidator/internal/domain/join"
)

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithJoinEngine sets the tracking join engine.
func WithJoinEngine(e *join.Engine) Option {
	return func(b *Builder) {
		if e != nil {
			b.join = e
		}
	}
}

// WithNormalizer sets the aging normalizer.
func WithNormalizer(n *aging.Normalizer) Option {
	return func(b *Builder) {
		if n != nil {
			b.normalizer = n
		}
	}
}

// WithScheme sets the tier scheme.
func WithScheme(s classify.Scheme) Option {
	return func(b *Builder) {
		if len(s.Labels()) > 0 {
			b.scheme = s
		}
	}
}

// WithIDGenerator overrides how view IDs are produced.
func WithIDGenerator(gen func() string) Option {
	return func(b *Builder) {
		if gen != nil {
			b.newID = gen
		}
	}
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}
