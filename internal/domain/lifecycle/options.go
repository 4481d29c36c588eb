package lifecycle

import (
	"time"

	"github.com/okian/livescore/pkg/logger"
)

// Timings are the offsets of the match cascade.
type Timings struct {
	FirstHalf       time.Duration // kickoff to STOPPED
	HalfTime        time.Duration // STOPPED to second half
	SecondHalf      time.Duration // second half to FINISHED
	Removal         time.Duration // FINISHED to removal
	ScoreCandidates int           // candidate score jobs per half
	ScoreMin        time.Duration // earliest score offset into a half
	ScoreMax        time.Duration // exclusive upper bound of the score offset
}

// DefaultTimings returns the standard match timings.
func DefaultTimings() Timings {
	return Timings{
		FirstHalf:       120 * time.Second,
		HalfTime:        30 * time.Second,
		SecondHalf:      120 * time.Second,
		Removal:         60 * time.Second,
		ScoreCandidates: 5,
		ScoreMin:        5 * time.Second,
		ScoreMax:        105 * time.Second,
	}
}

// Option applies a configuration option to the TransitionScheduler.
type Option func(*TransitionScheduler)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *TransitionScheduler) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTimings replaces the match timings. Invalid timings are ignored.
func WithTimings(tm Timings) Option {
	return func(t *TransitionScheduler) {
		if tm.FirstHalf > 0 && tm.HalfTime >= 0 && tm.SecondHalf > 0 && tm.Removal >= 0 &&
			tm.ScoreCandidates >= 0 && tm.ScoreMax > tm.ScoreMin && tm.ScoreMin >= 0 {
			t.timings = tm
		}
	}
}
