package join

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithImportColumns sets the parcel-side columns copied onto each order.
// An empty list keeps the default.
func WithImportColumns(columns []string) Option {
	return func(e *Engine) {
		if len(columns) > 0 {
			e.imports = normalize(columns)
		}
	}
}

// WithPolicy selects which parcel row wins when a tracking number repeats.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		if p != "" {
			e.policy = p
		}
	}
}
