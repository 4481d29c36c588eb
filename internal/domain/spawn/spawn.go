// Package spawn periodically creates and arms new events.
package spawn

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/okian/livescore/internal/domain/factory"
	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/pkg/clock"
	"github.com/okian/livescore/pkg/logger"
	"github.com/okian/livescore/pkg/metrics"
)

const (
	defaultInterval = 5 * time.Second
	defaultJitter   = 30 * time.Second
	stopTimeout     = 5 * time.Second
)

// Factory creates events.
type Factory interface {
	Create(now time.Time) (model.Event, factory.Lead, error)
}

// Armer arms the transition cascade of an event.
type Armer interface {
	Arm(ctx context.Context, ev model.Event, announceAt time.Time) (int, error)
}

// Loop fires once on start and then after every gap of interval plus a
// delay drawn uniformly from [0, jitter), measured from the previous firing.
type Loop struct {
	clock    clock.Clock
	factory  Factory
	armer    Armer
	interval time.Duration
	jitter   time.Duration
	logger   logger.Logger

	fired   atomic.Int64
	spawned atomic.Int64
}

// New constructs a spawn loop.
func New(clk clock.Clock, f Factory, a Armer, opts ...Option) *Loop {
	l := &Loop{
		clock:    clk,
		factory:  f,
		armer:    a,
		interval: defaultInterval,
		jitter:   defaultJitter,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Get().Named("spawn")
	}
	return l
}

// Fired returns how many times the loop has fired.
func (l *Loop) Fired() int64 { return l.fired.Load() }

// Spawned returns how many events were created and armed.
func (l *Loop) Spawned() int64 { return l.spawned.Load() }

// Run fires until ctx is cancelled. Failures of a single firing are logged
// and the loop carries on.
func (l *Loop) Run(ctx context.Context) error {
	if l.interval <= 0 || l.jitter < 0 {
		return fmt.Errorf("%w: interval %s, jitter %s", ErrInvalidInterval, l.interval, l.jitter)
	}

	s, err := gocron.NewScheduler(
		gocron.WithClock(l.clock),
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(cronLogger{l.logger}),
		gocron.WithStopTimeout(stopTimeout),
	)
	if err != nil {
		return fmt.Errorf("create spawn scheduler: %w", err)
	}

	_, err = s.NewJob(l.definition(),
		gocron.NewTask(l.fire),
		gocron.WithName("spawn"),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("create spawn job: %w", err)
	}

	s.Start()
	l.logger.Info(ctx, "spawn loop started",
		logger.Duration("interval", l.interval),
		logger.Duration("jitter", l.jitter))

	<-ctx.Done()
	if err := s.Shutdown(); err != nil {
		l.logger.Warn(ctx, "spawn scheduler shutdown", logger.Error(err))
	}
	l.logger.Info(ctx, "spawn loop stopped", logger.Int("fired", int(l.fired.Load())))
	return nil
}

func (l *Loop) definition() gocron.JobDefinition {
	if l.jitter == 0 {
		return gocron.DurationJob(l.interval)
	}
	return gocron.DurationRandomJob(l.interval, l.interval+l.jitter)
}

func (l *Loop) fire(ctx context.Context) {
	l.fired.Add(1)
	now := l.clock.Now()

	ev, lead, err := l.factory.Create(now)
	if err != nil {
		metrics.RecordErrorByComponent("spawn", "create")
		l.logger.Error(ctx, "event creation failed", logger.Error(err))
		return
	}

	n, err := l.armer.Arm(ctx, ev, lead.AnnounceAt(now))
	if err != nil {
		metrics.RecordErrorByComponent("spawn", "arm")
		l.logger.Error(ctx, "arming event failed",
			logger.String("event_id", ev.ID),
			logger.Int("armed", n),
			logger.Error(err))
		return
	}

	l.spawned.Add(1)
	metrics.RecordEventSpawned()
	l.logger.Info(ctx, "event spawned",
		logger.String("event_id", ev.ID),
		logger.String("home", ev.Competitors.Home),
		logger.String("away", ev.Competitors.Away),
		logger.Time("kickoff", ev.Scheduled),
		logger.Int("jobs", n))
}

// cronLogger routes gocron's key/value logs into the service logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Debug(msg string, args ...any) {
	c.l.Debug(context.Background(), msg, kvFields(args)...)
}

func (c cronLogger) Info(msg string, args ...any) {
	c.l.Info(context.Background(), msg, kvFields(args)...)
}

func (c cronLogger) Warn(msg string, args ...any) {
	c.l.Warn(context.Background(), msg, kvFields(args)...)
}

func (c cronLogger) Error(msg string, args ...any) {
	c.l.Error(context.Background(), msg, kvFields(args)...)
}

func kvFields(args []any) []logger.Field {
	fields := make([]logger.Field, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 < len(args) {
			fields = append(fields, logger.Any(key, args[i+1]))
		} else {
			fields = append(fields, logger.Any("extra", key))
		}
	}
	return fields
}
