package spawn

import (
	"time"

	"github.com/okian/livescore/pkg/logger"
)

// Option applies a configuration option to the Loop.
type Option func(*Loop)

// WithInterval sets the nominal time between firings.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) { l.interval = d }
}

// WithJitter sets the upper bound of the random delay added to each firing.
func WithJitter(d time.Duration) Option {
	return func(l *Loop) { l.jitter = d }
}

// WithLogger sets the loop logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loop) {
		if lg != nil {
			l.logger = lg
		}
	}
}
