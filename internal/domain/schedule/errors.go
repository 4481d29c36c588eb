package schedule

import "errors"

// Sentinel kinds for scheduler errors.
var (
	ErrStopped    = errors.New("scheduler stopped")
	ErrInvalidJob = errors.New("invalid job")
)
