package model

import "errors"

// ErrInvalidTransition marks an update that breaks the event lifecycle.
var ErrInvalidTransition = errors.New("invalid event transition")
