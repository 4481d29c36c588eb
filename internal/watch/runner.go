package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/pkg/logger"
)

// ErrViolations is returned when at least one followed event broke a
// lifecycle invariant.
var ErrViolations = errors.New("lifecycle violations observed")

type watcher struct {
	cfg      *Config
	client   *HTTPClient
	verifier *Verifier
	logger   logger.Logger
	wg       sync.WaitGroup
}

// Run follows the service's streams until the configured duration elapses,
// ctx is cancelled, or MaxEvents matches have been followed to removal.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	stats := &Stats{StartTime: time.Now()}
	w := &watcher{
		cfg:      cfg,
		client:   newHTTPClient(cfg.BaseURL, cfg.Timeout),
		verifier: NewVerifier(),
		logger:   logger.Get().Named("watch"),
	}

	w.logger.Info(ctx, "starting livescore watch",
		logger.String("baseURL", cfg.BaseURL),
		logger.Duration("duration", cfg.Duration),
		logger.Int("maxEvents", cfg.MaxEvents),
		logger.Bool("verbose", cfg.Verbose))

	// Step 1: Check service liveness
	if err := w.client.Liveness(ctx); err != nil {
		return fmt.Errorf("service liveness check failed: %w", err)
	}

	// Step 2: Show what is already running; those events are not followed
	if list, err := w.client.Events(ctx); err != nil {
		w.logger.Warn(ctx, "failed to fetch snapshot", logger.Error(err))
	} else {
		w.logger.Info(ctx, "current snapshot", logger.Int("events", list.Total))
	}

	// Step 3: Follow announcements and every announced event
	w.followAnnouncements(ctx)

	// Step 4: Wait for followed events to be removed; their streams end with ctx
	w.wg.Wait()

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	w.verifier.Summary(stats)
	displayFinalStats(stats)

	if len(stats.Violations) > 0 {
		return fmt.Errorf("%w: %d", ErrViolations, len(stats.Violations))
	}
	w.logger.Info(context.Background(), "watch completed without violations")
	return nil
}

// followAnnouncements blocks until ctx is done or MaxEvents announcements
// have been seen. Dropped streams are rejoined.
func (w *watcher) followAnnouncements(ctx context.Context) {
	announced := 0
	for {
		err := w.client.Stream(ctx, model.TopicNewEvent, func(msg wireMessage) bool {
			var ev model.Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				w.logger.Warn(ctx, "undecodable announcement", logger.Error(err))
				return true
			}
			w.verifier.Announce(ev)
			announced++
			w.logger.Info(ctx, "event announced",
				logger.String("event_id", ev.ID),
				logger.String("home", ev.Competitors.Home),
				logger.String("away", ev.Competitors.Away),
				logger.Time("kickoff", ev.Scheduled))

			w.wg.Add(1)
			go w.follow(ctx, ev.ID)
			return w.cfg.MaxEvents <= 0 || announced < w.cfg.MaxEvents
		})
		if err == nil || ctx.Err() != nil {
			return
		}
		w.logger.Warn(ctx, "announcement stream lost, rejoining", logger.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(streamRetryWait):
		}
	}
}

// follow checks every message of one event until it is removed.
func (w *watcher) follow(ctx context.Context, id string) {
	defer w.wg.Done()
	err := w.client.Stream(ctx, id, func(msg wireMessage) bool {
		if w.cfg.Verbose {
			w.logger.Info(ctx, "update",
				logger.String("event_id", id),
				logger.String("kind", string(msg.Kind)),
				logger.String("payload", string(msg.Payload)))
		}
		return !w.verifier.Observe(msg)
	})
	if err != nil && ctx.Err() == nil {
		w.logger.Warn(ctx, "event stream ended early", logger.String("event_id", id), logger.Error(err))
	}
}

// displayFinalStats prints the final watch statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("announced", stats.Announced),
		logger.Int("completed", stats.Completed),
		logger.Int("inFlight", stats.InFlight),
		logger.Int("messages", stats.Messages),
		logger.Int("violations", len(stats.Violations)),
		logger.String("duration", stats.Duration.String()))

	for _, v := range stats.Violations {
		log.Printf("violation: %s", v)
	}
}
