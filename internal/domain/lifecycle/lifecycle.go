// Package lifecycle turns a freshly created event into the timed cascade of
// transitions that plays out a match, from announcement to removal.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/livescore/internal/adapters/mq/pubsub"
	"github.com/okian/livescore/internal/adapters/repository"
	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/internal/domain/schedule"
	"github.com/okian/livescore/pkg/logger"
	"github.com/okian/livescore/pkg/metrics"
	"github.com/okian/livescore/pkg/rng"
)

// Scheduler arms one-shot jobs.
type Scheduler interface {
	Schedule(job schedule.Job) error
}

// TransitionScheduler arms the jobs of one match at a time.
type TransitionScheduler struct {
	store    repository.Store
	notifier pubsub.Notifier
	sched    Scheduler
	src      rng.Source
	timings  Timings
	logger   logger.Logger
}

// New constructs a TransitionScheduler.
func New(store repository.Store, notifier pubsub.Notifier, sched Scheduler, src rng.Source, opts ...Option) *TransitionScheduler {
	t := &TransitionScheduler{
		store:    store,
		notifier: notifier,
		sched:    sched,
		src:      src,
		timings:  DefaultTimings(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logger.Get().Named("lifecycle")
	}
	return t
}

// Arm schedules every transition of ev and returns how many jobs were armed.
//
// At announceAt the event is stored and announced on the NEW_EVENT topic.
// From kickoff (ev.Scheduled) the first half runs, a break follows, then the
// second half, the final whistle and finally removal. Up to
// Timings.ScoreCandidates score jobs are armed per half, each kept on a coin
// flip drawn now; which side scores is decided when the job fires.
func (t *TransitionScheduler) Arm(ctx context.Context, ev model.Event, announceAt time.Time) (int, error) {
	switch {
	case ev.ID == "":
		return 0, fmt.Errorf("%w: empty id", ErrInvalidEvent)
	case ev.Status != model.StatusNotStarted || ev.Period != model.PeriodNotStarted:
		return 0, fmt.Errorf("%w: %s is %s/%s", ErrInvalidEvent, ev.ID, ev.Status, ev.Period)
	case announceAt.After(ev.Scheduled):
		return 0, fmt.Errorf("%w: %s announced after kickoff", ErrInvalidEvent, ev.ID)
	}

	tm := t.timings
	kickoff := ev.Scheduled
	halfTime := kickoff.Add(tm.FirstHalf)
	secondHalf := halfTime.Add(tm.HalfTime)
	fullTime := secondHalf.Add(tm.SecondHalf)
	removal := fullTime.Add(tm.Removal)

	jobs := make([]schedule.Job, 0, 8+2*tm.ScoreCandidates)
	jobs = append(jobs,
		t.announceJob(ev, announceAt),
		t.periodJob(ev.ID, kickoff, model.PeriodFirstHalf),
		t.statusJob(ev.ID, kickoff, model.StatusLive),
	)
	jobs = append(jobs, t.scoreJobs(ev.ID, kickoff)...)
	jobs = append(jobs,
		t.statusJob(ev.ID, halfTime, model.StatusStopped),
		t.periodJob(ev.ID, secondHalf, model.PeriodSecondHalf),
		t.statusJob(ev.ID, secondHalf, model.StatusLive),
	)
	jobs = append(jobs, t.scoreJobs(ev.ID, secondHalf)...)
	jobs = append(jobs,
		t.statusJob(ev.ID, fullTime, model.StatusFinished),
		t.removeJob(ev.ID, removal),
	)

	for i, j := range jobs {
		if err := t.sched.Schedule(j); err != nil {
			return i, fmt.Errorf("arm %s for %s: %w", j.Kind, ev.ID, err)
		}
	}

	t.logger.Debug(ctx, "event armed",
		logger.String("event_id", ev.ID),
		logger.Time("announce", announceAt),
		logger.Time("kickoff", kickoff),
		logger.Int("jobs", len(jobs)))
	return len(jobs), nil
}

func (t *TransitionScheduler) scoreJobs(id string, halfStart time.Time) []schedule.Job {
	tm := t.timings
	lo, hi := int(tm.ScoreMin/time.Second), int(tm.ScoreMax/time.Second)
	var jobs []schedule.Job
	for i := 0; i < tm.ScoreCandidates; i++ {
		if !t.src.Coin() {
			continue
		}
		offset := time.Duration(rng.Between(t.src, lo, hi)) * time.Second
		jobs = append(jobs, t.scoreJob(id, halfStart.Add(offset)))
	}
	return jobs
}

func (t *TransitionScheduler) announceJob(ev model.Event, at time.Time) schedule.Job {
	kind := model.KindNewEvent
	return schedule.Job{
		Due:     at,
		EventID: ev.ID,
		Kind:    string(kind),
		Run: func(ctx context.Context) error {
			if err := t.store.Upsert(ctx, ev); err != nil {
				metrics.RecordTransitionError(string(kind), "store")
				return fmt.Errorf("store %s: %w", ev.ID, err)
			}
			metrics.RecordTransition(string(kind))
			t.publish(ctx, model.TopicNewEvent, kind, ev)
			return nil
		},
	}
}

func (t *TransitionScheduler) statusJob(id string, at time.Time, status model.Status) schedule.Job {
	kind := model.KindStatusUpdate
	return schedule.Job{
		Due:     at,
		EventID: id,
		Kind:    string(kind) + ":" + string(status),
		Run: func(ctx context.Context) error {
			return t.apply(ctx, id, kind, func(ev *model.Event) any {
				ev.Status = status
				return model.StatusPayload{ID: id, Status: status}
			})
		},
	}
}

func (t *TransitionScheduler) periodJob(id string, at time.Time, period model.Period) schedule.Job {
	kind := model.KindPeriodUpdate
	return schedule.Job{
		Due:     at,
		EventID: id,
		Kind:    string(kind) + ":" + period.String(),
		Run: func(ctx context.Context) error {
			return t.apply(ctx, id, kind, func(ev *model.Event) any {
				ev.Period = period
				return model.PeriodPayload{ID: id, Period: period}
			})
		},
	}
}

func (t *TransitionScheduler) scoreJob(id string, at time.Time) schedule.Job {
	kind := model.KindScoreUpdate
	return schedule.Job{
		Due:     at,
		EventID: id,
		Kind:    string(kind),
		Run: func(ctx context.Context) error {
			return t.apply(ctx, id, kind, func(ev *model.Event) any {
				if t.src.Coin() {
					ev.Score.Home++
				}
				if t.src.Coin() {
					ev.Score.Away++
				}
				return model.ScorePayload{ID: id, Score: ev.Score}
			})
		},
	}
}

func (t *TransitionScheduler) removeJob(id string, at time.Time) schedule.Job {
	kind := model.KindRemoveEvent
	return schedule.Job{
		Due:     at,
		EventID: id,
		Kind:    string(kind),
		Run: func(ctx context.Context) error {
			if _, err := t.store.Remove(ctx, id); err != nil {
				return t.storeError(ctx, id, kind, err)
			}
			metrics.RecordTransition(string(kind))
			metrics.RecordEventRemoved()
			t.publish(ctx, id, kind, model.RemovePayload{ID: id})
			return nil
		},
	}
}

// apply commits mutate through the store and publishes the payload it
// returns. The notification is only sent once the update has committed.
func (t *TransitionScheduler) apply(ctx context.Context, id string, kind model.MessageKind, mutate func(*model.Event) any) error {
	var payload any
	_, err := t.store.Update(ctx, id, func(ev *model.Event) error {
		payload = mutate(ev)
		return nil
	})
	if err != nil {
		return t.storeError(ctx, id, kind, err)
	}
	metrics.RecordTransition(string(kind))
	t.publish(ctx, id, kind, payload)
	return nil
}

// storeError treats a vanished event as a no-op and reports anything else.
func (t *TransitionScheduler) storeError(ctx context.Context, id string, kind model.MessageKind, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		metrics.RecordTransitionError(string(kind), "not_found")
		t.logger.Warn(ctx, "transition for unknown event skipped",
			logger.String("event_id", id),
			logger.String("kind", string(kind)))
		return nil
	}
	reason := "store"
	if errors.Is(err, repository.ErrInvalidTransition) {
		reason = "invalid_transition"
	}
	metrics.RecordTransitionError(string(kind), reason)
	return fmt.Errorf("%s %s: %w", kind, id, err)
}

// publish never fails a transition; delivery problems are only logged.
func (t *TransitionScheduler) publish(ctx context.Context, topic string, kind model.MessageKind, payload any) {
	if err := t.notifier.Publish(ctx, topic, kind, payload); err != nil {
		metrics.RecordTransitionError(string(kind), "publish")
		t.logger.Warn(ctx, "notification not delivered",
			logger.String("topic", topic),
			logger.String("kind", string(kind)),
			logger.Error(err))
	}
}
