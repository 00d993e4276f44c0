package classify

import "errors"

// Sentinel kinds for classifier errors.
var (
	ErrUnknownScheme = errors.New("unknown tier scheme")
)
