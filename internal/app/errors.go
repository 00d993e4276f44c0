package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrAlreadyStarted = errors.New("service already started")
	ErrStopped        = errors.New("service stopped; create a new one")
)
