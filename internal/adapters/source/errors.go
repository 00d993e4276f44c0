package source

import (
	"errors"
)

// Sentinel kinds for source errors.
var (
	ErrUnknownTable    = errors.New("unknown table")
	ErrUnknownStrategy = errors.New("unknown acquisition strategy")
	ErrEmptyTable      = errors.New("strategy returned no table")
)
