package factory

import "errors"

// ErrConfiguration reports a roster that cannot produce two distinct
// competitors.
var ErrConfiguration = errors.New("invalid factory configuration")
