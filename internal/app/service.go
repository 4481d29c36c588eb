// Package service wires the simulator components together and exposes the
// read and subscribe operations the HTTP API needs.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/livescore/internal/adapters/mq/pubsub"
	workerpool "github.com/okian/livescore/internal/adapters/mq/worker"
	"github.com/okian/livescore/internal/adapters/repository"
	"github.com/okian/livescore/internal/domain/factory"
	"github.com/okian/livescore/internal/domain/lifecycle"
	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/internal/domain/schedule"
	"github.com/okian/livescore/internal/domain/spawn"
	"github.com/okian/livescore/internal/domain/types"
	"github.com/okian/livescore/pkg/clock"
	"github.com/okian/livescore/pkg/logger"
	"github.com/okian/livescore/pkg/metrics"
	"github.com/okian/livescore/pkg/rng"
)

// Service owns every simulator component.
type Service struct {
	mu sync.RWMutex

	// Configuration
	clock            clock.Clock
	seed             uint64
	roster           []string
	workerCount      int
	queueSize        int
	subscriberBuffer int
	spawnInterval    time.Duration
	spawnJitter      time.Duration
	timings          *lifecycle.Timings
	mirrors          []pubsub.Notifier
	logger           logger.Logger

	// Components, built in New and started in Start
	src       rng.Source
	factory   *factory.Factory
	store     *repository.TreapStore
	hub       *pubsub.Hub
	pool      *workerpool.Pool
	scheduler *schedule.Scheduler
	lifecycle *lifecycle.TransitionScheduler
	spawner   *spawn.Loop

	// State
	started   bool
	stopped   bool
	startedAt time.Time
	cancel    context.CancelFunc
	spawnDone chan struct{}
}

// New validates the configuration and builds the components. A roster with
// fewer than two distinct names fails with factory.ErrConfiguration.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		clock:            clock.New(),
		roster:           factory.DefaultRoster,
		workerCount:      runtime.NumCPU(),
		queueSize:        1024,
		subscriberBuffer: 64,
		spawnInterval:    5 * time.Second,
		spawnJitter:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.src = rng.New(s.seed)
	f, err := factory.New(s.roster, s.src)
	if err != nil {
		return nil, fmt.Errorf("build factory: %w", err)
	}
	s.factory = f
	s.hub = pubsub.NewHub(
		pubsub.WithBuffer(s.subscriberBuffer),
		pubsub.WithClock(s.clock.Now),
		pubsub.WithLogger(s.logger.Named("hub")),
	)
	return s, nil
}

// Start launches the worker pool, the job dispatcher and the spawn loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return ErrStopped
	}

	s.logger.Info(ctx, "starting simulator...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.store = repository.NewTreapStore(runCtx)
	s.pool = workerpool.NewPool(s.workerCount,
		workerpool.WithQueueSize(s.queueSize),
		workerpool.WithPoolLogger(s.logger.Named("worker-pool")))
	s.pool.Start(runCtx)
	s.scheduler = schedule.New(s.clock, s.pool, schedule.WithLogger(s.logger.Named("scheduler")))
	s.scheduler.Start(runCtx)

	var notifier pubsub.Notifier = s.hub
	if len(s.mirrors) > 0 {
		notifier = append(pubsub.Multi{s.hub}, s.mirrors...)
	}
	lcOpts := []lifecycle.Option{lifecycle.WithLogger(s.logger.Named("lifecycle"))}
	if s.timings != nil {
		lcOpts = append(lcOpts, lifecycle.WithTimings(*s.timings))
	}
	s.lifecycle = lifecycle.New(s.store, notifier, s.scheduler, s.src, lcOpts...)

	s.spawner = spawn.New(s.clock, s.factory, s.lifecycle,
		spawn.WithInterval(s.spawnInterval),
		spawn.WithJitter(s.spawnJitter),
		spawn.WithLogger(s.logger.Named("spawn")))
	s.spawnDone = make(chan struct{})
	go func() {
		defer close(s.spawnDone)
		if err := s.spawner.Run(runCtx); err != nil {
			s.logger.Error(runCtx, "spawn loop exited", logger.Error(err))
		}
	}()

	s.started = true
	s.startedAt = s.clock.Now()
	s.logger.Info(ctx, "simulator started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("spawnInterval", s.spawnInterval),
		logger.Duration("spawnJitter", s.spawnJitter),
		logger.Int("roster", len(s.factory.Roster())),
	)
	return nil
}

// Stop halts spawning, drops pending transitions and releases resources.
// Events keep the state their last transition left them in.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping simulator...")

	s.cancel()
	<-s.spawnDone

	dropped := s.scheduler.Stop(ctx)
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	_ = s.hub.Close()
	_ = s.store.Close()

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "simulator stopped", logger.Int("droppedJobs", dropped))
}

// Snapshot returns every current event, latest kickoff first.
func (s *Service) Snapshot(ctx context.Context) (types.EventList, error) {
	store, err := s.readyStore()
	if err != nil {
		return types.EventList{}, err
	}
	snap, err := store.List(ctx)
	if err != nil {
		return types.EventList{}, err
	}
	return types.EventList{Total: snap.Total, Events: snap.Events}, nil
}

// Event returns one event by id.
func (s *Service) Event(ctx context.Context, id string) (model.Event, error) {
	store, err := s.readyStore()
	if err != nil {
		return model.Event{}, err
	}
	return store.Get(ctx, id)
}

// Subscribe attaches a subscriber to topic: an event id or model.TopicNewEvent.
func (s *Service) Subscribe(topic string) (*pubsub.Subscription, error) {
	return s.hub.Subscribe(topic)
}

// Unsubscribe detaches sub. Safe to call more than once.
func (s *Service) Unsubscribe(sub *pubsub.Subscription) {
	s.hub.Unsubscribe(sub)
}

func (s *Service) readyStore() (*repository.TreapStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"subscriberBuffer": s.subscriberBuffer,
		"spawnIntervalMs":  s.spawnInterval.Milliseconds(),
		"spawnJitterMs":    s.spawnJitter.Milliseconds(),
		"rosterSize":       len(s.factory.Roster()),
		"subscribers":      s.hub.Subscribers(),
	}

	if s.started {
		events := s.store.Count(ctx)
		pending := s.scheduler.Pending()
		queued := s.pool.Pending()

		stats["uptimeSeconds"] = int64(s.clock.Now().Sub(s.startedAt).Seconds())
		stats["events"] = events
		stats["pendingJobs"] = pending
		stats["queuedJobs"] = queued
		stats["spawned"] = s.spawner.Spawned()

		metrics.UpdateEventsInStore(events)
		metrics.UpdateJobsPending(pending)
	}

	return stats
}
