package service

import (
	"time"

	"github.com/okian/livescore/internal/adapters/mq/pubsub"
	"github.com/okian/livescore/internal/domain/lifecycle"
	"github.com/okian/livescore/pkg/clock"
	"github.com/okian/livescore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) {
		if clk != nil {
			s.clock = clk
		}
	}
}

// WithSeed seeds the random source. Zero picks a time based seed.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithRoster sets the competitor names events are drawn from.
func WithRoster(names []string) Option {
	return func(s *Service) {
		if len(names) > 0 {
			s.roster = names
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the per-worker job queue size.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSubscriberBuffer sets how many messages a subscriber may lag behind.
func WithSubscriberBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.subscriberBuffer = size
		}
	}
}

// WithSpawnInterval sets the nominal spacing of new events.
func WithSpawnInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.spawnInterval = d
		}
	}
}

// WithSpawnJitter sets the upper bound of the per-firing spawn delay.
func WithSpawnJitter(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.spawnJitter = d
		}
	}
}

// WithTimings overrides the match phase durations.
func WithTimings(t lifecycle.Timings) Option {
	return func(s *Service) {
		s.timings = &t
	}
}

// WithNotifier mirrors every notification to n as well as the in-process hub.
func WithNotifier(n pubsub.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.mirrors = append(s.mirrors, n)
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
