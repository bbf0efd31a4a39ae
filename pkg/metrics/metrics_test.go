package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerOptions(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithHistogramBuckets([]float64{1, 10, 100}),
			WithSegmentBuckets([]float64{1, 2}),
			WithPrometheusRegistry(registry),
		)

		Convey("Then metric names use the configured namespace and subsystem", func() {
			m.scriptsAnalyzed.Inc()
			m.scriptsAnalyzed.Inc()

			v, err := Value(registry, "test_unit_scripts_analyzed_total")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 2)
		})

		Convey("Then histograms report their sample count", func() {
			m.segmentsPerStrip.Observe(3)

			v, err := Value(registry, "test_unit_segments_per_strip")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 1)
		})

		Convey("Then empty options keep the defaults", func() {
			d := NewManager(WithNamespace(""), WithSubsystem(""), WithPrometheusRegistry(prometheus.NewRegistry()))
			So(d.namespace, ShouldEqual, "strokeheat")
			So(d.subsystem, ShouldEqual, "service")
		})
	})
}

func TestValue_UnknownMetric(t *testing.T) {
	Convey("Given a registry without the requested family", t, func() {
		_, err := Value(prometheus.NewRegistry(), "nope")
		So(errors.Is(err, ErrMetricNotFound), ShouldBeTrue)
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		before, err := Value(GetRegistry(), "strokeheat_service_gaps_detected_total")
		So(err, ShouldBeNil)

		Convey("When gaps are recorded", func() {
			RecordGaps(3)
			RecordGaps(0)
			RecordGaps(-1)

			Convey("Then only positive counts are added", func() {
				after, err := Value(GetRegistry(), "strokeheat_service_gaps_detected_total")
				So(err, ShouldBeNil)
				So(after-before, ShouldEqual, 3)
			})
		})

		Convey("When rendered previews are recorded by kind", func() {
			base, _ := Value(GetRegistry(), "strokeheat_service_previews_rendered_total")
			RecordPreviewRendered("strip")
			RecordPreviewRendered("card")

			Convey("Then every kind contributes to the family", func() {
				v, err := Value(GetRegistry(), "strokeheat_service_previews_rendered_total")
				So(err, ShouldBeNil)
				So(v-base, ShouldEqual, 2)
			})
		})

		Convey("When the recorders run", func() {
			So(func() {
				RecordScriptAnalyzed()
				RecordScriptDuplicate()
				RecordDecodeError()
				RecordAnalysisLatency(1.5)
				RecordRenderLatency(2.5)
				RecordSegments(10)
				UpdateLibrarySize(4)
				RecordLibraryWriteLatency(0.2)
				RecordLibraryQueryLatency(0.1)
				RecordHTTPRequest("/preview", "POST", "200")
				RecordHTTPRequestDuration("/preview", "POST", "200", 12)
				UpdateQueueSize(1)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.01)
				UpdateWorkerCount(2)
				AddWorkerActive(1)
				AddWorkerActive(-1)
				UpdateWorkerMessagesPerSecond(5)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordErrorByComponent("queue", "queue_full")
				RecordErrorByEndpoint("/preview", "POST", "bad_request")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then gauges hold the last value", func() {
				v, err := Value(GetRegistry(), "strokeheat_service_library_size")
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 4)
			})
		})
	})
}
