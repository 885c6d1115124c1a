package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom naming", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("pipeline"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)
			m.runsStarted.Inc()

			Convey("Then collectors are registered under the custom names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_pipeline_runs_started_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When registering twice on the same registry", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestPipelineMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Run counters increase", func() {
			before := testutil.ToFloat64(globalManager.runsStarted)
			RecordRunStarted()
			RecordRunStarted()
			So(testutil.ToFloat64(globalManager.runsStarted), ShouldEqual, before+2)
		})

		Convey("Failures are labelled by reason", func() {
			before := testutil.ToFloat64(globalManager.runsFailed.WithLabelValues("invalid report"))
			RecordRunFailed("invalid report")
			So(testutil.ToFloat64(globalManager.runsFailed.WithLabelValues("invalid report")), ShouldEqual, before+1)
		})

		Convey("Late reports are counted", func() {
			before := testutil.ToFloat64(globalManager.lateReports)
			RecordLateReport()
			So(testutil.ToFloat64(globalManager.lateReports), ShouldEqual, before+1)
		})

		Convey("Gauges hold the last value", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(10)
			UpdateQueueUtilization(0.7)
			UpdateActiveSessions(3)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
			So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.7)
			So(testutil.ToFloat64(globalManager.activeSessions), ShouldEqual, 3)
		})

		Convey("Observers and counters never panic", func() {
			So(func() {
				RecordRunCompleted()
				RecordRunReset()
				RecordUploadLatency(3000)
				RecordAnalysisLatency("video", 3000)
				RecordReportScore("image", 85)
				RecordIntakeRejected("video")
				RecordTimelineSeek()
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError("full")
				UpdateWorkerCount(4)
				AddWorkerBusy(1)
				AddWorkerBusy(-1)
				RecordWorkerProcessingLatency(12)
				RecordWorkerError()
				RecordCatalogQuery("coaches", "rating", 3)
				RecordHTTPRequest("/catalog/coaches", "GET", "200")
				RecordHTTPRequestDuration("/catalog/coaches", "GET", "200", 1.5)
				RecordErrorByEndpoint("analysis", "POST", "client_error")
				UpdateBreakerState("scorer", 2)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})
	})
}

func TestRegistryExposition(t *testing.T) {
	Convey("The custom registry exposes wudao metrics only", t, func() {
		RecordCatalogQuery("courses", "price_asc", 2)
		families, err := GetRegistry().Gather()
		So(err, ShouldBeNil)
		So(len(families), ShouldBeGreaterThan, 0)
		for _, f := range families {
			So(strings.HasPrefix(f.GetName(), "wudao_"), ShouldBeTrue)
		}
	})
}
