package watch

import "time"

// HTTP status code constants.
const (
	StatusOK = 200
)

// livenessBody is what GET / answers on a healthy service.
const livenessBody = "1337"

// Runner configuration constants.
const (
	DefaultTimeout  = 10 * time.Second
	streamRetryWait = time.Second
)
