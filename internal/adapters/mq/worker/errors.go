package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrStopped  = errors.New("worker pool stopped")
	ErrEmptyJob = errors.New("job has no run function")
	ErrPanic    = errors.New("job panicked")
)
