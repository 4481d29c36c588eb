package service

import "errors"

var (
	// ErrNotStarted is returned by reads issued before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrStopped is returned when starting a service that was already stopped.
	ErrStopped = errors.New("service stopped")
)
