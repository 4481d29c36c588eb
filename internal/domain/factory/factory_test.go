package factory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/pkg/rng"
)

func TestNew(t *testing.T) {
	Convey("Given rosters of different sizes", t, func() {
		src := rng.New(1)

		Convey("An empty roster is rejected", func() {
			_, err := New(nil, src)
			So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
		})

		Convey("A single name is rejected", func() {
			_, err := New([]string{"Hertha BSC"}, src)
			So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
		})

		Convey("Duplicates and blanks do not count as distinct", func() {
			_, err := New([]string{"Hertha BSC", " Hertha BSC ", "", "  "}, src)
			So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
		})

		Convey("A missing random source is rejected", func() {
			_, err := New([]string{"A", "B"}, nil)
			So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
		})

		Convey("Two distinct names are enough", func() {
			f, err := New([]string{"A", "B", "A"}, src)
			So(err, ShouldBeNil)
			So(f.Roster(), ShouldResemble, []string{"A", "B"})
		})

		Convey("The default roster is valid", func() {
			f, err := New(DefaultRoster, src)
			So(err, ShouldBeNil)
			So(len(f.Roster()), ShouldEqual, 56)
		})
	})
}

func TestCreate(t *testing.T) {
	Convey("Given a factory over the default roster", t, func() {
		f, err := New(DefaultRoster, rng.New(42))
		So(err, ShouldBeNil)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		Convey("Created events satisfy the creation contract", func() {
			announce := map[time.Duration]bool{2 * time.Second: true, 4 * time.Second: true, 6 * time.Second: true, 8 * time.Second: true, 10 * time.Second: true}
			kickoff := map[time.Duration]bool{15 * time.Second: true, 30 * time.Second: true, 45 * time.Second: true, 60 * time.Second: true}
			ids := map[string]bool{}

			for i := 0; i < 500; i++ {
				ev, lead, err := f.Create(now)
				So(err, ShouldBeNil)

				So(ev.Competitors.Home, ShouldNotEqual, ev.Competitors.Away)
				So(DefaultRoster, ShouldContain, ev.Competitors.Home)
				So(DefaultRoster, ShouldContain, ev.Competitors.Away)
				So(ev.Status, ShouldEqual, model.StatusNotStarted)
				So(ev.Period, ShouldEqual, model.PeriodNotStarted)
				So(ev.Score, ShouldResemble, model.Score{})

				So(announce[lead.Announce], ShouldBeTrue)
				So(kickoff[lead.Kickoff], ShouldBeTrue)
				So(ev.Scheduled.Equal(now.Add(lead.Announce+lead.Kickoff)), ShouldBeTrue)
				So(lead.AnnounceAt(now).Equal(now.Add(lead.Announce)), ShouldBeTrue)

				_, err = uuid.Parse(ev.ID)
				So(err, ShouldBeNil)
				So(ids[ev.ID], ShouldBeFalse)
				ids[ev.ID] = true
			}
		})

		Convey("Every lead candidate is eventually drawn", func() {
			seenAnnounce := map[time.Duration]bool{}
			seenKickoff := map[time.Duration]bool{}
			for i := 0; i < 500; i++ {
				_, lead, _ := f.Create(now)
				seenAnnounce[lead.Announce] = true
				seenKickoff[lead.Kickoff] = true
			}
			So(len(seenAnnounce), ShouldEqual, 5)
			So(len(seenKickoff), ShouldEqual, 4)
		})

		Convey("A two-name roster always uses both names", func() {
			small, err := New([]string{"Home", "Away"}, rng.New(7))
			So(err, ShouldBeNil)
			for i := 0; i < 50; i++ {
				ev, _, _ := small.Create(now)
				pair := ev.Competitors
				So(pair == model.Competitors{Home: "Home", Away: "Away"} ||
					pair == model.Competitors{Home: "Away", Away: "Home"}, ShouldBeTrue)
			}
		})
	})

	Convey("Given a failing id generator", t, func() {
		boom := errors.New("entropy exhausted")
		f, err := New([]string{"A", "B"}, rng.New(1), WithIDGenerator(func() (string, error) { return "", boom }))
		So(err, ShouldBeNil)

		Convey("Create reports the failure", func() {
			_, _, err := f.Create(time.Now())
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})

	Convey("Given custom lead candidates", t, func() {
		f, err := New([]string{"A", "B"}, rng.New(1),
			WithAnnounceLeads(time.Second),
			WithKickoffLeads(3*time.Second))
		So(err, ShouldBeNil)

		Convey("They are used", func() {
			now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			ev, lead, err := f.Create(now)
			So(err, ShouldBeNil)
			So(lead, ShouldResemble, Lead{Announce: time.Second, Kickoff: 3 * time.Second})
			So(ev.Scheduled.Equal(now.Add(4*time.Second)), ShouldBeTrue)
		})
	})
}
