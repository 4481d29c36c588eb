// Package queue provides a bounded FIFO used to hand work to consumers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/livescore/pkg/metrics"
)

const defaultCapacity = 1024

// Queue provides bounded enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item. It returns ErrFull or ErrClosed instead of blocking.
	Enqueue(ctx context.Context, item T) error

	// EnqueueWait adds an item, waiting for room until ctx is done or the
	// queue is closed.
	EnqueueWait(ctx context.Context, item T) error

	// Dequeue returns the receive side. It is closed after Close once drained.
	Dequeue() <-chan T

	// Len returns the current number of queued items.
	Len() int

	// Close stops accepting items. Safe to call more than once.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	items   chan T
	closing chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	cfg := config{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &InMemoryQueue[T]{
		items:   make(chan T, cfg.capacity),
		closing: make(chan struct{}),
	}
}

// Enqueue adds an item to the queue.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.items <- item:
		metrics.RecordQueueEnqueue()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// EnqueueWait adds an item, blocking while the queue is full.
func (q *InMemoryQueue[T]) EnqueueWait(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.items <- item:
		metrics.RecordQueueEnqueue()
		return nil
	case <-q.closing:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	}
}

// Dequeue returns the channel items are delivered on.
func (q *InMemoryQueue[T]) Dequeue() <-chan T { return q.items }

// Len returns the current number of queued items.
func (q *InMemoryQueue[T]) Len() int { return len(q.items) }

// Close gracefully shuts down the queue. Buffered items remain readable.
func (q *InMemoryQueue[T]) Close() error {
	// release waiting producers before taking the write lock
	q.once.Do(func() { close(q.closing) })

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
