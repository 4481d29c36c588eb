package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: kickoff DESC, then insertion order ASC. "less" means listed
// earlier, so in-order traversal yields the listing order directly.

// record is one stored event. mu guards ev; the tree position is derived
// from immutable fields and is guarded by TreapStore.mu.
type record struct {
	mu  sync.Mutex
	ev  model.Event
	key key
}

type key struct {
	kickoff int64 // unix nanos
	seq     uint64
}

// less reports whether a is listed before b.
func less(a, b key) bool {
	if a.kickoff != b.kickoff {
		return a.kickoff > b.kickoff
	}
	return a.seq < b.seq
}

// treap node
type node struct {
	key   key
	id    string
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// seqPriority scrambles the insertion sequence (splitmix64) so the heap
// property is independent of the key order.
func seqPriority(seq uint64) uint64 {
	z := seq + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func insert(n *node, id string, k key) *node {
	if n == nil {
		return &node{key: k, id: id, prio: seqPriority(k.seq), size: 1}
	}
	if less(k, n.key) {
		n.left = insert(n.left, id, k)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, k)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, k key) *node {
	if n == nil {
		return nil
	}
	if k == n.key {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, k)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, k)
		}
	} else if less(k, n.key) {
		n.left = deleteNode(n.left, k)
	} else {
		n.right = deleteNode(n.right, k)
	}
	fix(n)
	return n
}

// collectAll appends every event in listing order. Callers hold s.mu.
func collectAll(n *node, byID map[string]*record, out *[]model.Event) {
	if n == nil {
		return
	}
	collectAll(n.left, byID, out)
	if rec, ok := byID[n.id]; ok {
		rec.mu.Lock()
		*out = append(*out, rec.ev)
		rec.mu.Unlock()
	}
	collectAll(n.right, byID, out)
}

// TreapStore keeps events in a map for lookups and a treap for ordered
// listing. Lock order is s.mu before record.mu.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]*record
	seq  uint64

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]*record),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics goroutine.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Upsert implements Store.Upsert in O(log n) expected time.
func (s *TreapStore) Upsert(ctx context.Context, ev model.Event) error {
	if ev.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidEvent)
	}
	start := time.Now()
	defer recordUpdateLatency(start)

	s.mu.Lock()
	if old, ok := s.byID[ev.ID]; ok {
		s.root = deleteNode(s.root, old.key)
	}
	s.seq++
	k := key{kickoff: ev.Scheduled.UnixNano(), seq: s.seq}
	s.byID[ev.ID] = &record{ev: ev, key: k}
	s.root = insert(s.root, ev.ID, k)
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateRepositoryRecordsTotal(n)
	return nil
}

// Get returns a copy of the stored event.
func (s *TreapStore) Get(ctx context.Context, id string) (model.Event, error) {
	start := time.Now()
	defer recordQueryLatency(start)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Event{}, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.ev, nil
}

// Update applies fn under the record lock. Updates to different events
// proceed in parallel; updates to the same event are serialized.
func (s *TreapStore) Update(ctx context.Context, id string, fn func(*model.Event) error) (model.Event, error) {
	start := time.Now()
	defer recordUpdateLatency(start)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Event{}, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	next := rec.ev
	if err := fn(&next); err != nil {
		return rec.ev, err
	}
	// kickoff is part of the tree key, so it must not move here
	if err := model.ValidateTransition(rec.ev, next); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_transition")
		return rec.ev, err
	}
	rec.ev = next
	return next, nil
}

// Remove deletes the event and returns its final state.
func (s *TreapStore) Remove(ctx context.Context, id string) (model.Event, error) {
	start := time.Now()
	defer recordUpdateLatency(start)

	s.mu.Lock()
	rec, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Event{}, ErrNotFound
	}
	delete(s.byID, id)
	s.root = deleteNode(s.root, rec.key)
	n := len(s.byID)
	rec.mu.Lock()
	ev := rec.ev
	rec.mu.Unlock()
	s.mu.Unlock()

	metrics.UpdateRepositoryRecordsTotal(n)
	return ev, nil
}

// List returns every event, latest kickoff first. Total always equals
// len(Events) because inserts and removals are excluded for the duration.
func (s *TreapStore) List(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	defer recordQueryLatency(start)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0, len(s.byID))
	collectAll(s.root, s.byID, &out)
	return Snapshot{Total: len(out), Events: out}, nil
}

// Count returns the number of stored events.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// depth returns the tree height; used by tests to check balance.
func (s *TreapStore) depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var walk func(*node) int
	walk = func(n *node) int {
		if n == nil {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(s.root)
}

// startMetricsUpdater starts a background goroutine that updates repository metrics.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *TreapStore) updateMetrics() {
	s.mu.RLock()
	n := len(s.byID)
	s.mu.RUnlock()

	metrics.UpdateRepositoryRecordsTotal(n)
	metrics.UpdateEventsInStore(n)
}

func recordUpdateLatency(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func recordQueryLatency(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}
