package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/livescore/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestValidateTransition(t *testing.T) {
	convey.Convey("Given a freshly announced event", t, func() {
		ev := model.Event{
			ID:          "e1",
			Competitors: model.Competitors{Home: "Hamburger SV", Away: "Werder Bremen"},
			Scheduled:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			Status:      model.StatusNotStarted,
			Period:      model.PeriodNotStarted,
		}

		step := func(cur model.Event, fn func(*model.Event)) (model.Event, error) {
			next := cur
			fn(&next)
			return next, model.ValidateTransition(cur, next)
		}

		convey.Convey("The full match lifecycle is accepted", func() {
			cur, err := step(ev, func(e *model.Event) { e.Period = model.PeriodFirstHalf })
			convey.So(err, convey.ShouldBeNil)
			cur, err = step(cur, func(e *model.Event) { e.Status = model.StatusLive })
			convey.So(err, convey.ShouldBeNil)
			cur, err = step(cur, func(e *model.Event) { e.Score.Home++ })
			convey.So(err, convey.ShouldBeNil)
			cur, err = step(cur, func(e *model.Event) { e.Status = model.StatusStopped })
			convey.So(err, convey.ShouldBeNil)
			cur, err = step(cur, func(e *model.Event) { e.Period = model.PeriodSecondHalf })
			convey.So(err, convey.ShouldBeNil)
			cur, err = step(cur, func(e *model.Event) { e.Status = model.StatusLive })
			convey.So(err, convey.ShouldBeNil)
			cur, err = step(cur, func(e *model.Event) { e.Score.Away++ })
			convey.So(err, convey.ShouldBeNil)
			cur, err = step(cur, func(e *model.Event) { e.Status = model.StatusFinished })
			convey.So(err, convey.ShouldBeNil)
			convey.So(cur.Score, convey.ShouldResemble, model.Score{Home: 1, Away: 1})
		})

		convey.Convey("Going live before the first half starts is rejected", func() {
			_, err := step(ev, func(e *model.Event) { e.Status = model.StatusLive })
			convey.So(errors.Is(err, model.ErrInvalidTransition), convey.ShouldBeTrue)
		})

		convey.Convey("Status and period in one step are accepted at kickoff", func() {
			_, err := step(ev, func(e *model.Event) {
				e.Status = model.StatusLive
				e.Period = model.PeriodFirstHalf
			})
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("Skipping the first half is rejected", func() {
			_, err := step(ev, func(e *model.Event) { e.Period = model.PeriodSecondHalf })
			convey.So(errors.Is(err, model.ErrInvalidTransition), convey.ShouldBeTrue)
		})

		convey.Convey("Changing immutable fields is rejected", func() {
			_, err := step(ev, func(e *model.Event) { e.ID = "e2" })
			convey.So(errors.Is(err, model.ErrInvalidTransition), convey.ShouldBeTrue)
			_, err = step(ev, func(e *model.Event) { e.Competitors.Away = "St. Pauli" })
			convey.So(errors.Is(err, model.ErrInvalidTransition), convey.ShouldBeTrue)
			_, err = step(ev, func(e *model.Event) { e.Scheduled = e.Scheduled.Add(time.Second) })
			convey.So(errors.Is(err, model.ErrInvalidTransition), convey.ShouldBeTrue)
		})

		convey.Convey("When the event is live in the first half", func() {
			live := ev
			live.Status = model.StatusLive
			live.Period = model.PeriodFirstHalf
			live.Score = model.Score{Home: 2, Away: 1}

			convey.Convey("Lowering a score is rejected", func() {
				_, err := step(live, func(e *model.Event) { e.Score.Away = 0 })
				convey.So(errors.Is(err, model.ErrInvalidTransition), convey.ShouldBeTrue)
			})

			convey.Convey("Finishing before the second half is rejected", func() {
				_, err := step(live, func(e *model.Event) { e.Status = model.StatusFinished })
				convey.So(errors.Is(err, model.ErrInvalidTransition), convey.ShouldBeTrue)
			})

			convey.Convey("Entering the second half without stopping is rejected", func() {
				_, err := step(live, func(e *model.Event) { e.Period = model.PeriodSecondHalf })
				convey.So(errors.Is(err, model.ErrInvalidTransition), convey.ShouldBeTrue)
			})

			convey.Convey("An unchanged event is accepted", func() {
				convey.So(model.ValidateTransition(live, live), convey.ShouldBeNil)
			})
		})

		convey.Convey("A finished event cannot resume", func() {
			done := ev
			done.Status = model.StatusFinished
			done.Period = model.PeriodSecondHalf
			_, err := step(done, func(e *model.Event) { e.Status = model.StatusLive })
			convey.So(errors.Is(err, model.ErrInvalidTransition), convey.ShouldBeTrue)
		})
	})
}

func TestEventEncoding(t *testing.T) {
	convey.Convey("Given an event in the second half", t, func() {
		ev := model.Event{
			ID:          "abc",
			Competitors: model.Competitors{Home: "FC Köln", Away: "Mainz 05"},
			Scheduled:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			Score:       model.Score{Home: 3, Away: 2},
			Status:      model.StatusLive,
			Period:      model.PeriodSecondHalf,
		}

		convey.Convey("It encodes period as a number and status as a string", func() {
			raw, err := json.Marshal(ev)
			convey.So(err, convey.ShouldBeNil)

			var decoded map[string]any
			convey.So(json.Unmarshal(raw, &decoded), convey.ShouldBeNil)
			convey.So(decoded["period"], convey.ShouldEqual, float64(2))
			convey.So(decoded["status"], convey.ShouldEqual, "LIVE")
			convey.So(decoded["scheduled"], convey.ShouldEqual, "2024-05-01T12:00:00Z")
			convey.So(decoded["competitors"], convey.ShouldResemble, map[string]any{"home": "FC Köln", "away": "Mainz 05"})
		})
	})

	convey.Convey("Period names are readable", t, func() {
		convey.So(model.PeriodNotStarted.String(), convey.ShouldEqual, "NOT_STARTED")
		convey.So(model.PeriodFirstHalf.String(), convey.ShouldEqual, "FIRST_HALF")
		convey.So(model.PeriodSecondHalf.String(), convey.ShouldEqual, "SECOND_HALF")
		convey.So(model.Period(7).String(), convey.ShouldEqual, "Period(7)")
	})
}
