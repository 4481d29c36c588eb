package lifecycle

import "errors"

// ErrInvalidEvent reports an event that cannot be armed.
var ErrInvalidEvent = errors.New("invalid event for arming")
