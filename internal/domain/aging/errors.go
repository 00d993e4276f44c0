package aging

import "errors"

// Sentinel kinds for aging errors.
var (
	ErrUnknownMode = errors.New("unknown aging mode")
)
