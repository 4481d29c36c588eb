package watch

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/okian/livescore/internal/domain/model"
)

// statusOrder is the only status sequence a match may go through.
var statusOrder = []model.Status{
	model.StatusNotStarted,
	model.StatusLive,
	model.StatusStopped,
	model.StatusLive,
	model.StatusFinished,
}

// match is what the subscriber has learned about one event so far.
type match struct {
	id      string
	step    int // index into statusOrder
	period  model.Period
	score   model.Score
	removed bool
}

// Verifier checks the lifecycle invariants of every followed event from the
// messages a subscriber receives. It is safe for concurrent use.
type Verifier struct {
	mu         sync.Mutex
	matches    map[string]*match
	messages   int
	completed  int
	violations []string
}

// NewVerifier creates an empty verifier.
func NewVerifier() *Verifier {
	return &Verifier{matches: make(map[string]*match)}
}

// Announce registers an event received on the NEW_EVENT topic.
func (v *Verifier) Announce(ev model.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages++

	if _, seen := v.matches[ev.ID]; seen {
		v.violatef(ev.ID, "announced twice")
		return
	}
	if ev.Competitors.Home == ev.Competitors.Away {
		v.violatef(ev.ID, "plays against itself (%s)", ev.Competitors.Home)
	}
	if ev.Status != model.StatusNotStarted || ev.Period != model.PeriodNotStarted {
		v.violatef(ev.ID, "announced as %s/%s", ev.Status, ev.Period)
	}
	if ev.Score != (model.Score{}) {
		v.violatef(ev.ID, "announced with score %d:%d", ev.Score.Home, ev.Score.Away)
	}
	v.matches[ev.ID] = &match{id: ev.ID}
}

// Observe checks one message received on an event topic. It reports whether
// the event has been removed and needs no further following.
func (v *Verifier) Observe(msg wireMessage) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages++

	m, ok := v.matches[msg.Topic]
	if !ok {
		v.violatef(msg.Topic, "%s for an event never announced", msg.Kind)
		return false
	}
	if m.removed {
		v.violatef(m.id, "%s after removal", msg.Kind)
		return true
	}

	switch msg.Kind {
	case model.KindStatusUpdate:
		var p model.StatusPayload
		if v.decode(m.id, msg, &p) {
			v.status(m, p.Status)
		}
	case model.KindPeriodUpdate:
		var p model.PeriodPayload
		if v.decode(m.id, msg, &p) {
			v.periodChange(m, p.Period)
		}
	case model.KindScoreUpdate:
		var p model.ScorePayload
		if v.decode(m.id, msg, &p) {
			v.scoreChange(m, p.Score)
		}
	case model.KindRemoveEvent:
		if statusOrder[m.step] != model.StatusFinished {
			v.violatef(m.id, "removed while %s", statusOrder[m.step])
		}
		m.removed = true
		v.completed++
	default:
		v.violatef(m.id, "unexpected kind %q", msg.Kind)
	}
	return m.removed
}

func (v *Verifier) status(m *match, next model.Status) {
	if m.step+1 >= len(statusOrder) || statusOrder[m.step+1] != next {
		v.violatef(m.id, "status %s after %s", next, statusOrder[m.step])
		return
	}
	switch {
	case next == model.StatusLive && m.step == 0 && m.period != model.PeriodFirstHalf,
		next == model.StatusLive && m.step == 2 && m.period != model.PeriodSecondHalf:
		v.violatef(m.id, "LIVE during %s", m.period)
	}
	m.step++
}

func (v *Verifier) periodChange(m *match, next model.Period) {
	if next != m.period+1 {
		v.violatef(m.id, "period %s after %s", next, m.period)
		return
	}
	m.period = next
}

func (v *Verifier) scoreChange(m *match, next model.Score) {
	if statusOrder[m.step] != model.StatusLive {
		v.violatef(m.id, "score change while %s", statusOrder[m.step])
	}
	if next.Home < m.score.Home || next.Away < m.score.Away {
		v.violatef(m.id, "score went from %d:%d to %d:%d", m.score.Home, m.score.Away, next.Home, next.Away)
	}
	m.score = next
}

func (v *Verifier) decode(id string, msg wireMessage, dst any) bool {
	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		v.violatef(id, "undecodable %s payload: %v", msg.Kind, err)
		return false
	}
	return true
}

func (v *Verifier) violatef(id, format string, args ...any) {
	v.violations = append(v.violations, id+": "+fmt.Sprintf(format, args...))
}

// Summary fills the verification counters of stats.
func (v *Verifier) Summary(stats *Stats) {
	v.mu.Lock()
	defer v.mu.Unlock()
	stats.Announced = len(v.matches)
	stats.Completed = v.completed
	stats.InFlight = len(v.matches) - v.completed
	stats.Messages = v.messages
	stats.Violations = append([]string(nil), v.violations...)
}
