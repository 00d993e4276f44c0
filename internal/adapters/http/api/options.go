package api

import "strings"

// Option configures a Server.
type Option func(*Server)

// WithDefaultColumns sets the projection used when /records gets no columns.
func WithDefaultColumns(cols []string) Option {
	return func(s *Server) {
		if len(cols) > 0 {
			s.defaultColumns = append([]string(nil), cols...)
		}
	}
}

// WithMaxLimit caps the number of rows a single /records call may return.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithExportName sets the file name prefix of /export.csv downloads.
func WithExportName(name string) Option {
	return func(s *Server) {
		if name = strings.TrimSpace(name); name != "" {
			s.exportName = name
		}
	}
}
