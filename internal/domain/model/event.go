// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// Status is the coarse lifecycle phase of an event.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusLive       Status = "LIVE"
	StatusStopped    Status = "STOPPED"
	StatusFinished   Status = "FINISHED"
)

// Period is the half-of-match indicator. It is encoded as 0, 1 or 2.
type Period int

const (
	PeriodNotStarted Period = iota
	PeriodFirstHalf
	PeriodSecondHalf
)

func (p Period) String() string {
	switch p {
	case PeriodNotStarted:
		return "NOT_STARTED"
	case PeriodFirstHalf:
		return "FIRST_HALF"
	case PeriodSecondHalf:
		return "SECOND_HALF"
	default:
		return fmt.Sprintf("Period(%d)", int(p))
	}
}

// Competitors holds the two sides of a match.
type Competitors struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// Score holds goals per side.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Event is one simulated match.
type Event struct {
	ID          string      `json:"id"`
	Competitors Competitors `json:"competitors"`
	Scheduled   time.Time   `json:"scheduled"` // kickoff
	Score       Score       `json:"score"`
	Status      Status      `json:"status"`
	Period      Period      `json:"period"`
}

// ValidateTransition reports whether next is a legal successor of cur.
//
// Identity, competitors and kickoff are immutable. Status follows
// NOT_STARTED -> LIVE -> STOPPED -> LIVE -> FINISHED and period follows
// NOT_STARTED -> FIRST_HALF -> SECOND_HALF, with the period always ahead of
// (or level with) the status. Scores never decrease.
func ValidateTransition(cur, next Event) error {
	switch {
	case next.ID != cur.ID:
		return fmt.Errorf("%w: id changed", ErrInvalidTransition)
	case next.Competitors != cur.Competitors:
		return fmt.Errorf("%w: competitors changed", ErrInvalidTransition)
	case !next.Scheduled.Equal(cur.Scheduled):
		return fmt.Errorf("%w: kickoff changed", ErrInvalidTransition)
	case next.Score.Home < cur.Score.Home || next.Score.Away < cur.Score.Away:
		return fmt.Errorf("%w: score decreased", ErrInvalidTransition)
	}

	if next.Period != cur.Period {
		ok := (cur.Period == PeriodNotStarted && next.Period == PeriodFirstHalf && cur.Status == StatusNotStarted) ||
			(cur.Period == PeriodFirstHalf && next.Period == PeriodSecondHalf && cur.Status == StatusStopped)
		if !ok {
			return fmt.Errorf("%w: period %s -> %s while %s", ErrInvalidTransition, cur.Period, next.Period, cur.Status)
		}
	}

	if next.Status != cur.Status {
		var ok bool
		switch {
		case cur.Status == StatusNotStarted && next.Status == StatusLive:
			ok = next.Period == PeriodFirstHalf
		case cur.Status == StatusLive && next.Status == StatusStopped:
			ok = next.Period == PeriodFirstHalf
		case cur.Status == StatusStopped && next.Status == StatusLive:
			ok = next.Period == PeriodSecondHalf
		case cur.Status == StatusLive && next.Status == StatusFinished:
			ok = next.Period == PeriodSecondHalf
		}
		if !ok {
			return fmt.Errorf("%w: status %s -> %s in period %s", ErrInvalidTransition, cur.Status, next.Status, next.Period)
		}
	}
	return nil
}
