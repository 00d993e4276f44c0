package repository

import "errors"

// Sentinel kinds for view store errors.
var (
	// ErrNoView means no cycle has succeeded yet.
	ErrNoView = errors.New("data unavailable: no view published yet")
	// ErrNilView rejects publishing nothing.
	ErrNilView = errors.New("nil view")
)
