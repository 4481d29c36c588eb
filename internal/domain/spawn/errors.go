package spawn

import "errors"

// ErrInvalidInterval reports a non-positive spawn interval or negative jitter.
var ErrInvalidInterval = errors.New("invalid spawn interval")
