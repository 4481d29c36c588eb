// Package repository holds the authoritative set of live events.
package repository

import (
	"context"

	"github.com/okian/livescore/internal/domain/model"
)

// Snapshot is a consistent view of the store at one instant.
type Snapshot struct {
	Total  int
	Events []model.Event
}

// Store provides read/write access to the current events.
type Store interface {
	// Upsert inserts ev or replaces the stored event with the same id.
	Upsert(ctx context.Context, ev model.Event) error

	// Get returns a copy of the event. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (model.Event, error)

	// Update applies fn to a copy of the stored event and commits the
	// result atomically. The result must be a legal lifecycle successor;
	// otherwise ErrInvalidTransition is returned and nothing changes.
	// Returns ErrNotFound if the event is absent.
	Update(ctx context.Context, id string, fn func(*model.Event) error) (model.Event, error)

	// Remove deletes the event and returns its last state.
	// Returns ErrNotFound if absent.
	Remove(ctx context.Context, id string) (model.Event, error)

	// List returns every event ordered by kickoff, latest first.
	List(ctx context.Context) (Snapshot, error)

	// Count returns the number of stored events.
	Count(ctx context.Context) int
}
