package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/pkg/metrics"
)

const defaultRedisPublishTimeout = 250 * time.Millisecond

// publisher is the part of *redis.Client the notifier needs.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier mirrors notifications onto Redis channels named
// prefix+topic, encoded as JSON messages. Each publish is bounded by a
// timeout so a slow server cannot hold up the transition that triggered it.
type RedisNotifier struct {
	client  publisher
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

// RedisOption applies a configuration option to the RedisNotifier.
type RedisOption func(*RedisNotifier)

// WithPublishTimeout bounds every Redis publish.
func WithPublishTimeout(d time.Duration) RedisOption {
	return func(r *RedisNotifier) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRedisNotifier wraps a Redis client.
func NewRedisNotifier(client publisher, prefix string, opts ...RedisOption) *RedisNotifier {
	r := &RedisNotifier{
		client:  client,
		prefix:  prefix,
		timeout: defaultRedisPublishTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Channel returns the Redis channel used for topic.
func (r *RedisNotifier) Channel(topic string) string { return r.prefix + topic }

// Publish implements Notifier.
func (r *RedisNotifier) Publish(ctx context.Context, topic string, kind model.MessageKind, payload any) error {
	if topic == "" {
		return ErrEmptyTopic
	}
	data, err := json.Marshal(model.Message{Topic: topic, Kind: kind, Payload: payload, At: r.now()})
	if err != nil {
		metrics.RecordNotificationFailed("redis")
		return fmt.Errorf("%w: encode %s: %w", ErrPublish, kind, err)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.Channel(topic), data).Err(); err != nil {
		metrics.RecordNotificationFailed("redis")
		return fmt.Errorf("%w: redis %s: %w", ErrPublish, r.Channel(topic), err)
	}
	return nil
}
