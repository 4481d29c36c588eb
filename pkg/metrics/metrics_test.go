package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors are registered under the default namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.eventsSpawned.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "livescore_simulator_events_spawned_total")
			})
		})

		Convey("When using the default manager", func() {
			Convey("Then the refresh interval is the documented default", func() {
				So(Default().RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(Default().histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording transitions", func() {
			before := testutil.ToFloat64(Default().transitions.WithLabelValues("STATUS_UPDATE"))
			RecordTransition("STATUS_UPDATE")
			RecordTransition("STATUS_UPDATE")

			Convey("Then the counter for that kind increases", func() {
				after := testutil.ToFloat64(Default().transitions.WithLabelValues("STATUS_UPDATE"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When updating gauges", func() {
			UpdateJobsPending(12)
			UpdateEventsInStore(3)
			UpdateSubscribers(5)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(Default().jobsPending), ShouldEqual, 12)
				So(testutil.ToFloat64(Default().eventsLive), ShouldEqual, 3)
				So(testutil.ToFloat64(Default().subscribers), ShouldEqual, 5)
			})
		})

		Convey("When recording every helper", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordEventSpawned()
					RecordEventRemoved()
					RecordTransitionError("SCORE_UPDATE", "not_found")
					RecordJobScheduled()
					RecordJobExecuted()
					RecordJobsDropped(3)
					RecordJobLateness(4.2)
					RecordNotificationPublished("NEW_EVENT")
					RecordNotificationDropped("NEW_EVENT")
					RecordNotificationFailed("redis")
					UpdateRepositoryRecordsTotal(10)
					RecordRepositoryUpdateLatency(0.1)
					RecordRepositoryQueryLatency(0.1)
					RecordQueueEnqueue()
					RecordQueueEnqueueError()
					UpdateWorkerCount(4)
					RecordWorkerProcessingLatency(1)
					RecordWorkerError()
					RecordHTTPRequest("/events", "GET", "200")
					RecordHTTPRequestDuration("/events", "GET", "200", 2)
					RecordErrorByEndpoint("/events", "GET", "not_found")
					RecordErrorByComponent("repository", "not_found")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(10)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
			})
		})

		Convey("The global registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	before := testutil.ToFloat64(Default().jobsExecuted)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordJobExecuted()
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(Default().jobsExecuted) - before; got != 1000 {
		t.Errorf("expected 1000 executed jobs, got %v", got)
	}
}
