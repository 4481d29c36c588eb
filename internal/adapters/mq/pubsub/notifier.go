// Package pubsub routes event notifications to topic subscribers.
package pubsub

import (
	"context"
	"errors"

	"github.com/okian/livescore/internal/domain/model"
)

// Notifier delivers a notification to every current subscriber of topic.
type Notifier interface {
	Publish(ctx context.Context, topic string, kind model.MessageKind, payload any) error
}

// Multi fans a notification out to several notifiers. All of them are
// attempted; their errors are joined.
type Multi []Notifier

// Publish implements Notifier.
func (m Multi) Publish(ctx context.Context, topic string, kind model.MessageKind, payload any) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, topic, kind, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
