package repository

import (
	"errors"

	"github.com/okian/livescore/internal/domain/model"
)

// Sentinel kinds for store errors.
var (
	ErrNotFound          = errors.New("event not found")
	ErrInvalidTransition = model.ErrInvalidTransition
	ErrInvalidEvent      = errors.New("invalid event")
)
