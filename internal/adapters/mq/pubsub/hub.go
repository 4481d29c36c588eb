package pubsub

import (
	"context"
	"sync"
	"time"

	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/pkg/logger"
	"github.com/okian/livescore/pkg/metrics"
)

const defaultBuffer = 64

// Subscription is one consumer of a topic. Messages arrive on C in publish
// order. C is closed when the subscription ends.
type Subscription struct {
	C <-chan model.Message

	id    uint64
	topic string
	ch    chan model.Message
	hub   *Hub
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string { return s.topic }

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() { s.hub.Unsubscribe(s) }

// Hub is the in-process Notifier. Publishing never blocks: a subscriber
// whose buffer is full misses the message.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[uint64]*Subscription
	nextID uint64
	count  int
	closed bool

	buffer int
	now    func() time.Time
	logger logger.Logger
}

// NewHub constructs an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		topics: make(map[string]map[uint64]*Subscription),
		buffer: defaultBuffer,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("hub")
	}
	return h
}

// Subscribe registers a new subscriber for topic.
func (h *Hub) Subscribe(topic string) (*Subscription, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}

	h.nextID++
	ch := make(chan model.Message, h.buffer)
	sub := &Subscription{C: ch, id: h.nextID, topic: topic, ch: ch, hub: h}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[uint64]*Subscription)
		h.topics[topic] = subs
	}
	subs[sub.id] = sub
	h.count++
	metrics.UpdateSubscribers(h.count)
	return sub, nil
}

// Unsubscribe removes sub and closes its channel. Unknown or already
// removed subscriptions are ignored.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub.id]; !ok {
		return
	}
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
	close(sub.ch)
	h.count--
	metrics.UpdateSubscribers(h.count)
}

// Publish implements Notifier. Delivery is best-effort per subscriber.
func (h *Hub) Publish(ctx context.Context, topic string, kind model.MessageKind, payload any) error {
	if topic == "" {
		return ErrEmptyTopic
	}
	msg := model.Message{Topic: topic, Kind: kind, Payload: payload, At: h.now()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}

	for _, sub := range h.topics[topic] {
		select {
		case sub.ch <- msg:
		default:
			metrics.RecordNotificationDropped(string(kind))
			h.logger.Warn(ctx, "subscriber buffer full, message dropped",
				logger.String("topic", topic),
				logger.String("kind", string(kind)))
		}
	}
	metrics.RecordNotificationPublished(string(kind))
	return nil
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Close ends every subscription. Further publishes fail with ErrClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for topic, subs := range h.topics {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(h.topics, topic)
	}
	h.count = 0
	metrics.UpdateSubscribers(0)
	return nil
}
