package pubsub

import "errors"

// Sentinel kinds for notifier errors.
var (
	ErrClosed     = errors.New("notifier closed")
	ErrEmptyTopic = errors.New("topic must not be empty")
	ErrPublish    = errors.New("publish failed")
)
