// Package factory builds new, not-yet-started events.
package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/pkg/rng"
)

var (
	defaultAnnounceLeads = []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second, 8 * time.Second, 10 * time.Second}
	defaultKickoffLeads  = []time.Duration{15 * time.Second, 30 * time.Second, 45 * time.Second, 60 * time.Second}
)

// Lead holds the two lead times drawn for an event.
type Lead struct {
	Announce time.Duration // creation to announcement
	Kickoff  time.Duration // announcement to kickoff
}

// AnnounceAt returns the announcement instant for an event created at now.
func (l Lead) AnnounceAt(now time.Time) time.Time { return now.Add(l.Announce) }

// Factory creates events. It has no side effects beyond drawing randomness.
type Factory struct {
	roster        []string
	src           rng.Source
	announceLeads []time.Duration
	kickoffLeads  []time.Duration
	newID         func() (string, error)
}

// New validates roster and returns a factory drawing from src.
// Blank and duplicate names are ignored.
func New(roster []string, src rng.Source, opts ...Option) (*Factory, error) {
	seen := make(map[string]struct{}, len(roster))
	names := make([]string, 0, len(roster))
	for _, name := range roster {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: roster needs at least 2 distinct names, got %d", ErrConfiguration, len(names))
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrConfiguration)
	}

	f := &Factory{
		roster:        names,
		src:           src,
		announceLeads: defaultAnnounceLeads,
		kickoffLeads:  defaultKickoffLeads,
		newID: func() (string, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Roster returns the validated roster.
func (f *Factory) Roster() []string {
	return append([]string(nil), f.roster...)
}

// Create returns a new event kicking off at now + announce + kickoff lead.
func (f *Factory) Create(now time.Time) (model.Event, Lead, error) {
	id, err := f.newID()
	if err != nil {
		return model.Event{}, Lead{}, fmt.Errorf("generate event id: %w", err)
	}

	h, a := rng.SamplePair(f.src, len(f.roster))
	lead := Lead{
		Announce: rng.Choice(f.src, f.announceLeads),
		Kickoff:  rng.Choice(f.src, f.kickoffLeads),
	}

	ev := model.Event{
		ID:          id,
		Competitors: model.Competitors{Home: f.roster[h], Away: f.roster[a]},
		Scheduled:   now.UTC().Add(lead.Announce + lead.Kickoff),
		Status:      model.StatusNotStarted,
		Period:      model.PeriodNotStarted,
	}
	return ev, lead, nil
}
