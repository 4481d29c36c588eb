// Package schedule runs one-shot jobs at absolute times.
//
// Jobs live in a min-heap ordered by (due, scheduling order). A single
// dispatcher goroutine sleeps until the head is due, then hands every due job
// to an executor keyed by event id. Executors that keep per-key FIFO order
// (worker.Pool) therefore run the jobs of one event in due order. A busy
// executor holds the dispatcher back; due jobs are never discarded while the
// scheduler runs.
package schedule

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/livescore/internal/adapters/mq/worker"
	"github.com/okian/livescore/pkg/clock"
	"github.com/okian/livescore/pkg/logger"
	"github.com/okian/livescore/pkg/metrics"
)

// Job is a callback due at an absolute time.
type Job struct {
	Due     time.Time
	EventID string
	Kind    string
	Run     func(ctx context.Context) error

	seq   uint64
	index int
}

// Executor runs dispatched jobs.
type Executor interface {
	Submit(ctx context.Context, job worker.Job) error
}

// Scheduler is the job heap plus its dispatcher.
type Scheduler struct {
	mu      sync.Mutex
	jobs    jobHeap
	seq     uint64
	started bool
	stopped bool
	// popped but not handed over when the dispatcher stopped
	undelivered int

	clock clock.Clock
	exec  Executor

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	logger logger.Logger
}

// New constructs a scheduler. Call Start to begin dispatching.
func New(clk clock.Clock, exec Executor, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock: clk,
		exec:  exec,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("scheduler")
	}
	return s
}

// Schedule arms job. Jobs scheduled for the same instant run in the order
// they were scheduled.
func (s *Scheduler) Schedule(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("%w: %s has no run function", ErrInvalidJob, job.Kind)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.seq++
	j := job
	j.seq = s.seq
	heap.Push(&s.jobs, &j)
	isHead := s.jobs[0] == &j
	pending := len(s.jobs)
	s.mu.Unlock()

	metrics.RecordJobScheduled()
	metrics.UpdateJobsPending(pending)
	if isHead {
		s.signal()
	}
	return nil
}

// Pending returns the number of armed jobs not yet dispatched.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Start launches the dispatcher. It stops when ctx is cancelled or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	go s.loop(ctx)
}

// Stop halts dispatching and discards every pending job. Jobs are not
// cancellable, so discarded events keep whatever state they last reached.
// It returns the number of jobs dropped.
func (s *Scheduler) Stop(ctx context.Context) int {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0
	}
	s.stopped = true
	dropped := len(s.jobs)
	s.jobs = nil
	started := s.started
	s.mu.Unlock()

	close(s.stop)
	if started {
		<-s.done
	}

	s.mu.Lock()
	dropped += s.undelivered
	s.undelivered = 0
	s.mu.Unlock()

	metrics.UpdateJobsPending(0)
	if dropped > 0 {
		metrics.RecordJobsDropped(dropped)
		s.logger.Warn(ctx, "scheduler stopped with pending jobs", logger.Int("dropped", dropped))
	}
	return dropped
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	// Stop must release a dispatch waiting on a full executor.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		due, next, ok := s.popDue()
		if !ok {
			return
		}
		for i, j := range due {
			if err := s.dispatch(ctx, j); err != nil && ctx.Err() != nil {
				s.mu.Lock()
				s.undelivered += len(due) - i
				s.mu.Unlock()
				return
			}
		}
		if len(due) > 0 {
			continue
		}

		var (
			timer  clock.Timer
			timerC <-chan time.Time
		)
		if !next.IsZero() {
			timer = clock.TimerAt(s.clock, next)
			timerC = timer.Chan()
		}

		select {
		case <-ctx.Done():
		case <-s.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// popDue removes every job due at the current time. next is the due time of
// the remaining head, zero if the heap is empty. ok is false once stopped.
func (s *Scheduler) popDue() (due []*Job, next time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, time.Time{}, false
	}

	now := s.clock.Now()
	for len(s.jobs) > 0 && !s.jobs[0].Due.After(now) {
		due = append(due, heap.Pop(&s.jobs).(*Job))
	}
	if len(s.jobs) > 0 {
		next = s.jobs[0].Due
	}
	metrics.UpdateJobsPending(len(s.jobs))
	return due, next, true
}

// dispatch hands j to the executor, waiting while its queue is full.
func (s *Scheduler) dispatch(ctx context.Context, j *Job) error {
	lateness := s.clock.Now().Sub(j.Due)
	metrics.RecordJobLateness(float64(lateness.Microseconds()) / 1000)

	run := j.Run
	err := s.exec.Submit(ctx, worker.Job{
		Key:  j.EventID,
		Name: j.Kind,
		Run: func(ctx context.Context) error {
			defer metrics.RecordJobExecuted()
			return run(ctx)
		},
	})
	if err != nil && ctx.Err() == nil {
		metrics.RecordJobsDropped(1)
		s.logger.Error(ctx, "job dispatch failed",
			logger.String("event_id", j.EventID),
			logger.String("kind", j.Kind),
			logger.Time("due", j.Due),
			logger.Error(err))
	}
	return err
}
