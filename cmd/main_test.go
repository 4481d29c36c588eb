package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	app "github.com/okian/livescore/internal/app"
	"github.com/okian/livescore/internal/config"
	"github.com/okian/livescore/pkg/logger"
	"github.com/okian/livescore/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWith(io.Discard, "text")
}

func TestServiceOptions(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 3
		cfg.SpawnJitterMS = 0

		convey.Convey("When building the simulator from it", func() {
			svc, err := app.New(serviceOptions(cfg, logger.Get())...)

			convey.Convey("Then the options are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				stats := svc.GetStats()
				convey.So(stats["workerCount"], convey.ShouldEqual, 3)
				convey.So(stats["queueSize"], convey.ShouldEqual, cfg.QueueSize)
				convey.So(stats["spawnIntervalMs"], convey.ShouldEqual, int64(cfg.SpawnIntervalMS))
				convey.So(stats["spawnJitterMs"], convey.ShouldEqual, int64(0))
				convey.So(stats["rosterSize"], convey.ShouldEqual, len(cfg.Roster))
			})
		})

		convey.Convey("When the roster is too small", func() {
			cfg.Roster = []string{"Solo"}
			_, err := app.New(serviceOptions(cfg, logger.Get())...)

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a started simulator behind the HTTP handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		svc, err := app.New(serviceOptions(cfg, logger.Get())...)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop(ctx)

		handler := newHandler(ctx, cfg, svc)

		get := func(path, origin string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
			if origin != "" {
				req.Header.Set("Origin", origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w
		}

		convey.Convey("Then the API routes are served", func() {
			convey.So(get("/", "").Body.String(), convey.ShouldEqual, "1337")
			convey.So(get("/events", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/events/unknown", "").Code, convey.ShouldEqual, http.StatusNotFound)
			convey.So(get("/stats", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz", "").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then the docs routes are served", func() {
			convey.So(get("/api-docs", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml", "").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then allowed origins get CORS headers", func() {
			w := get("/events", "http://localhost:3000")
			convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "http://localhost:3000")
		})

		convey.Convey("Then other origins do not", func() {
			w := get("/events", "http://evil.example.com")
			convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldBeEmpty)
		})
	})
}

func TestNewRedisClient(t *testing.T) {
	convey.Convey("Given redis settings", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		convey.Convey("When the URL is malformed", func() {
			_, err := newRedisClient(ctx, "not-a-redis-url")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When nothing listens at the address", func() {
			_, err := newRedisClient(ctx, "redis://127.0.0.1:1/0")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		svc, err := app.New()
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the background loops stop with their context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{}, 2)
			refresh := metrics.Default().RefreshInterval()
			go func() { startSystemMetricsUpdater(ctx, refresh); done <- struct{}{} }()
			go func() { startServiceMetricsUpdater(ctx, svc, refresh); done <- struct{}{} }()
			cancel()
			for i := 0; i < 2; i++ {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("metrics updater did not stop")
				}
			}
		})
	})
}
