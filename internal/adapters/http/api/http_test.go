package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/livescore/internal/adapters/http/api"
	"github.com/okian/livescore/internal/adapters/mq/pubsub"
	"github.com/okian/livescore/internal/adapters/repository"
	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/internal/domain/types"
	"github.com/okian/livescore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWith(io.Discard, "text")
}

var kickoff = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// mockDependencies serves canned reads and a real hub for streams.
type mockDependencies struct {
	list    types.EventList
	listErr error
	byID    map[string]model.Event
	hub     *pubsub.Hub
}

func (m *mockDependencies) Snapshot(context.Context) (types.EventList, error) {
	return m.list, m.listErr
}

func (m *mockDependencies) Event(_ context.Context, id string) (model.Event, error) {
	ev, ok := m.byID[id]
	if !ok {
		return model.Event{}, repository.ErrNotFound
	}
	return ev, nil
}

func (m *mockDependencies) Subscribe(topic string) (*pubsub.Subscription, error) {
	return m.hub.Subscribe(topic)
}

func (m *mockDependencies) Unsubscribe(sub *pubsub.Subscription) {
	m.hub.Unsubscribe(sub)
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newDeps() *mockDependencies {
	ev := model.Event{
		ID:          "ev-1",
		Competitors: model.Competitors{Home: "Ajax", Away: "PSV"},
		Scheduled:   kickoff,
		Status:      model.StatusLive,
		Period:      model.PeriodFirstHalf,
		Score:       model.Score{Home: 1},
	}
	older := model.Event{
		ID:          "ev-0",
		Competitors: model.Competitors{Home: "Feyenoord", Away: "Twente"},
		Scheduled:   kickoff.Add(-time.Minute),
		Status:      model.StatusNotStarted,
	}
	return &mockDependencies{
		list: types.EventList{Total: 2, Events: []model.Event{ev, older}},
		byID: map[string]model.Event{ev.ID: ev, older.ID: older},
		hub:  pubsub.NewHub(pubsub.WithBuffer(8)),
	}
}

func newMux(deps *mockDependencies, opts ...api.StreamOption) *http.ServeMux {
	stats := &mockStatsProvider{stats: map[string]interface{}{"started": true, "events": 2}}
	server := api.NewServer(deps, stats, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newDeps())

		Convey("The root answers the liveness text", func() {
			w := serve(mux, http.MethodGet, "/")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, "1337")
		})

		Convey("Unknown paths are not found", func() {
			So(serve(mux, http.MethodGet, "/unknown").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("The health endpoint exposes metrics", func() {
			w := serve(mux, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "livescore_")
		})

		Convey("The stats endpoint returns the provider's stats", func() {
			w := serve(mux, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.NewDecoder(w.Body).Decode(&stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
			So(stats["events"], ShouldEqual, 2)
		})

		Convey("Writes are rejected", func() {
			So(serve(mux, http.MethodPost, "/events").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodDelete, "/events/ev-1").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodPost, "/stats").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestEventsHandler(t *testing.T) {
	Convey("Given an events handler", t, func() {
		deps := newDeps()
		handler := api.NewEventsHandler(deps)

		Convey("When listing events", func() {
			w := httptest.NewRecorder()
			handler.HandleListEvents(w, httptest.NewRequest(http.MethodGet, "/events", http.NoBody))

			Convey("Then it should return the snapshot", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

				var body types.EventList
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body.Total, ShouldEqual, 2)
				So(body.Events[0].ID, ShouldEqual, "ev-1")
				So(body.Events[0].Period, ShouldEqual, model.PeriodFirstHalf)
				So(body.Events[1].ID, ShouldEqual, "ev-0")
			})
		})

		Convey("When the store is empty", func() {
			deps.list = types.EventList{}
			w := httptest.NewRecorder()
			handler.HandleListEvents(w, httptest.NewRequest(http.MethodGet, "/events", http.NoBody))

			Convey("Then it should return an empty array, not null", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"events":[]`)
			})
		})

		Convey("When the snapshot fails", func() {
			deps.listErr = errors.New("store unavailable")
			w := httptest.NewRecorder()
			handler.HandleListEvents(w, httptest.NewRequest(http.MethodGet, "/events", http.NoBody))

			Convey("Then it should return internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "internal_error")
			})
		})

		Convey("When fetching an existing event", func() {
			w := httptest.NewRecorder()
			handler.HandleGetEvent(w, httptest.NewRequest(http.MethodGet, "/events/ev-0", http.NoBody))

			Convey("Then it should return the event", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var ev model.Event
				So(json.NewDecoder(w.Body).Decode(&ev), ShouldBeNil)
				So(ev.Competitors.Home, ShouldEqual, "Feyenoord")
				So(ev.Scheduled.Equal(kickoff.Add(-time.Minute)), ShouldBeTrue)
			})
		})

		Convey("When fetching an unknown event", func() {
			w := httptest.NewRecorder()
			handler.HandleGetEvent(w, httptest.NewRequest(http.MethodGet, "/events/nope", http.NoBody))

			Convey("Then it should return not found status", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "not_found")
			})
		})

		Convey("When the id is malformed", func() {
			for _, target := range []string{"/events/", "/events/a/b"} {
				w := httptest.NewRecorder()
				handler.HandleGetEvent(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	name string
	data string
}

func readEvents(r *bufio.Reader, out chan<- sseEvent) {
	defer close(out)
	var cur sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if cur.name != "" {
				out <- cur
			}
			cur = sseEvent{}
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func next(events <-chan sseEvent) (sseEvent, bool) {
	select {
	case ev, ok := <-events:
		return ev, ok
	case <-time.After(2 * time.Second):
		return sseEvent{}, false
	}
}

func TestStreamHandler(t *testing.T) {
	Convey("Given a running server with a stream endpoint", t, func() {
		deps := newDeps()
		srv := httptest.NewServer(newMux(deps, api.WithPingInterval(50*time.Millisecond)))
		defer srv.Close()

		Convey("When a request has no topic", func() {
			resp, err := http.Get(srv.URL + "/stream")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should return bad request status", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a client joins an event topic", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream?topic=ev-1", http.NoBody)
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldEqual, "text/event-stream")

			events := make(chan sseEvent, 16)
			go readEvents(bufio.NewReader(resp.Body), events)

			Convey("Then published messages arrive as named events", func() {
				So(deps.hub.Subscribers(), ShouldEqual, 1)
				payload := model.ScorePayload{ID: "ev-1", Score: model.Score{Home: 2, Away: 1}}
				So(deps.hub.Publish(ctx, "ev-1", model.KindScoreUpdate, payload), ShouldBeNil)
				So(deps.hub.Publish(ctx, "ev-2", model.KindScoreUpdate, payload), ShouldBeNil)

				var got sseEvent
				for {
					ev, ok := next(events)
					So(ok, ShouldBeTrue)
					if ev.name != "ping" {
						got = ev
						break
					}
				}
				So(got.name, ShouldEqual, string(model.KindScoreUpdate))

				var msg struct {
					Topic   string             `json:"topic"`
					Kind    model.MessageKind  `json:"kind"`
					Payload model.ScorePayload `json:"payload"`
				}
				So(json.Unmarshal([]byte(got.data), &msg), ShouldBeNil)
				So(msg.Topic, ShouldEqual, "ev-1")
				So(msg.Payload.Score, ShouldResemble, model.Score{Home: 2, Away: 1})
			})

			Convey("Then idle streams receive pings", func() {
				ev, ok := next(events)
				So(ok, ShouldBeTrue)
				So(ev.name, ShouldEqual, "ping")
			})

			Convey("Then disconnecting leaves the topic", func() {
				cancel()
				deadline := time.Now().Add(2 * time.Second)
				for deps.hub.Subscribers() > 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(deps.hub.Subscribers(), ShouldEqual, 0)
			})
		})

		Convey("When the hub is closed", func() {
			_ = deps.hub.Close()
			resp, err := http.Get(srv.URL + "/stream?topic=NEW_EVENT")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then joining is unavailable", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}
