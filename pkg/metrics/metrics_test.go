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
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewMetricsManager(WithPrometheusRegistry(registry))

			Convey("Then every metric is registered on the given registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "consolidator")
				manager.viewRecords.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewMetricsManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.customLabels["env"], ShouldEqual, "test")
			})
		})

		Convey("When options receive empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewMetricsManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(map[string]string{}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "consolidator")
				So(manager.subsystem, ShouldEqual, "engine")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When a refresh cycle is recorded", func() {
			before := testutil.ToFloat64(globalManager.refreshCycles.WithLabelValues("manual", OutcomeSuccess))
			RecordRefreshCycle("manual", OutcomeSuccess)
			RecordRefreshDuration(120)
			UpdateRefreshLastSuccess(1700000000)

			Convey("Then the counters and gauges move", func() {
				after := testutil.ToFloat64(globalManager.refreshCycles.WithLabelValues("manual", OutcomeSuccess))
				So(after-before, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.refreshLastSuccessUnix), ShouldEqual, 1700000000)
			})
		})

		Convey("When view availability toggles", func() {
			UpdateViewAvailable(true)
			So(testutil.ToFloat64(globalManager.viewAvailable), ShouldEqual, 1)
			UpdateViewAvailable(false)
			So(testutil.ToFloat64(globalManager.viewAvailable), ShouldEqual, 0)
		})

		Convey("When a view is published", func() {
			UpdateView(ViewStats{
				Records:      10,
				Critical:     2,
				Matched:      7,
				Flagged:      1,
				DriftColumns: 0,
				Tiers:        map[string]int{"Normal": 5, "Attention": 3, "Critical": 2},
			})

			Convey("Then the tier gauges reflect only the latest view", func() {
				So(testutil.ToFloat64(globalManager.viewRecords), ShouldEqual, 10)
				So(testutil.CollectAndCount(globalManager.viewRowsByTier), ShouldEqual, 3)

				UpdateView(ViewStats{Records: 1, Tiers: map[string]int{"0 Days": 1}})
				So(testutil.CollectAndCount(globalManager.viewRowsByTier), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.viewRowsByTier.WithLabelValues("0 Days")), ShouldEqual, 1)
			})
		})

		Convey("When sources and cache are observed", func() {
			before := testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("Parcel", CacheHit))
			RecordCacheLookup("Parcel", CacheHit)
			RecordSourceFetchLatency("Parcel", 42)
			RecordSourceFetchError("Parcel")
			UpdateSourceRows("Parcel", 1200)

			So(testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("Parcel", CacheHit))-before, ShouldEqual, 1)
			So(testutil.ToFloat64(globalManager.sourceRows.WithLabelValues("Parcel")), ShouldEqual, 1200)
		})

		Convey("When operational metrics are recorded", func() {
			So(func() {
				UpdateQueueSize(1)
				UpdateQueueCapacity(4)
				UpdateQueueUtilization(0.25)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueWaitLatency(3)
				UpdateWorkerBusy(true)
				UpdateWorkerBusy(false)
				RecordWorkerError()
				RecordNotification(OutcomeSkipped)
				UpdateDriftColumns(2)
				UpdateRefreshLastAttempt(1700000000)
				RecordHTTPRequest("/records", "GET", "200")
				RecordHTTPRequestDuration("/records", "GET", "200", 12.5)
				RecordErrorByComponent("source", "timeout")
				RecordErrorByEndpoint("/refresh", "POST", "backpressure")
				RecordErrorLatency("source", "timeout", 30000)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.workerBusy), ShouldEqual, 0)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.httpRequests.WithLabelValues("/concurrency", "GET", "200"))

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordHTTPRequest("/concurrency", "GET", "200")
					UpdateQueueSize(j)
				}
			}()
		}
		wg.Wait()

		Convey("Then no increment is lost", func() {
			after := testutil.ToFloat64(globalManager.httpRequests.WithLabelValues("/concurrency", "GET", "200"))
			So(after-before, ShouldEqual, 1000)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordRefreshCycle("startup", OutcomeFailure)
		families, err := GetRegistry().Gather()
		So(err, ShouldBeNil)

		names := make(map[string]bool, len(families))
		for _, f := range families {
			names[f.GetName()] = true
		}
		So(names["consolidator_engine_refresh_cycles_total"], ShouldBeTrue)
	})
}
