package report

import "errors"

// Sentinel kinds for report errors.
var (
	ErrUnknownDimension = errors.New("unknown pivot dimension")
	ErrExport           = errors.New("export failed")
)
