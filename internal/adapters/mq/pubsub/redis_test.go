package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/livescore/internal/domain/model"
)

type fakeRedis struct {
	channel string
	message []byte
	err     error
	// stall blocks Publish until the caller's context ends
	stall bool
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	if f.stall {
		<-ctx.Done()
		return redis.NewIntResult(0, ctx.Err())
	}
	return redis.NewIntResult(1, f.err)
}

func TestRedisNotifier(t *testing.T) {
	Convey("Given a redis notifier", t, func() {
		fake := &fakeRedis{}
		n := NewRedisNotifier(fake, "livescore:")

		Convey("A notification is published as JSON on the prefixed channel", func() {
			payload := model.StatusPayload{ID: "e1", Status: model.StatusLive}
			So(n.Publish(context.Background(), "e1", model.KindStatusUpdate, payload), ShouldBeNil)
			So(fake.channel, ShouldEqual, "livescore:e1")

			var decoded struct {
				Topic   string              `json:"topic"`
				Kind    string              `json:"kind"`
				Payload model.StatusPayload `json:"payload"`
			}
			So(json.Unmarshal(fake.message, &decoded), ShouldBeNil)
			So(decoded.Topic, ShouldEqual, "e1")
			So(decoded.Kind, ShouldEqual, "STATUS_UPDATE")
			So(decoded.Payload, ShouldResemble, payload)
		})

		Convey("A redis failure is wrapped", func() {
			fake.err = errors.New("connection refused")
			err := n.Publish(context.Background(), model.TopicNewEvent, model.KindNewEvent, nil)
			So(errors.Is(err, ErrPublish), ShouldBeTrue)
			So(errors.Is(err, fake.err), ShouldBeTrue)
		})

		Convey("A stalled server is abandoned after the publish timeout", func() {
			fake.stall = true
			n := NewRedisNotifier(fake, "livescore:", WithPublishTimeout(20*time.Millisecond))

			start := time.Now()
			err := n.Publish(context.Background(), "e1", model.KindScoreUpdate, model.ScorePayload{ID: "e1"})
			So(time.Since(start), ShouldBeLessThan, time.Second)
			So(errors.Is(err, ErrPublish), ShouldBeTrue)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})

		Convey("An empty topic is rejected", func() {
			So(errors.Is(n.Publish(context.Background(), "", model.KindNewEvent, nil), ErrEmptyTopic), ShouldBeTrue)
		})

		Convey("An unencodable payload is reported", func() {
			err := n.Publish(context.Background(), "e1", model.KindNewEvent, func() {})
			So(errors.Is(err, ErrPublish), ShouldBeTrue)
		})
	})
}
