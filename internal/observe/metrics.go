// Package observe provides observability primitives for the redub
// pipeline: OpenTelemetry metrics with a Prometheus exporter bridge so the
// standard /metrics endpoint keeps working.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all redub metrics.
const meterName = "github.com/redubtool/redub"

// Metrics holds all OpenTelemetry metric instruments for the pipeline.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// SegmentationDuration tracks silence segmentation latency per video.
	SegmentationDuration metric.Float64Histogram

	// ClassificationDuration tracks VAD scoring latency per segment.
	ClassificationDuration metric.Float64Histogram

	// SynthesisDuration tracks the external recognise/translate/synthesise
	// chain latency per segment.
	SynthesisDuration metric.Float64Histogram

	// ReconcileDuration tracks final track assembly and muxing latency per
	// video.
	ReconcileDuration metric.Float64Histogram

	// --- Counters ---

	// SegmentsEmitted counts segments produced by the segmenter. Use with
	// attribute: attribute.String("source", "silence"|"fixed_window").
	SegmentsEmitted metric.Int64Counter

	// VADVerdicts counts classification outcomes. Use with attribute:
	//   attribute.Bool("is_speech", ...)
	VADVerdicts metric.Int64Counter

	// SpeakerSwitches counts speaker alternations decided by the
	// attributor. Use with attribute: attribute.String("trigger", "pause"|"duration").
	SpeakerSwitches metric.Int64Counter

	// MergeStrategies counts final duration-merge decisions. Use with
	// attribute: attribute.String("strategy", "copy"|"pad"|"no_audio").
	MergeStrategies metric.Int64Counter

	// SegmentErrors counts per-segment failures absorbed as silence. Use
	// with attribute: attribute.String("stage", ...).
	SegmentErrors metric.Int64Counter

	// ProviderErrors counts external engine errors by kind. Use with
	// attributes: attribute.String("provider", ...), attribute.String("kind", ...).
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveJobs tracks the number of videos currently being processed.
	ActiveJobs metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// media-processing latencies, which run from sub-second DSP passes to
// multi-minute ffmpeg encodes.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.SegmentationDuration, err = m.Float64Histogram("redub.segmentation.duration",
		metric.WithDescription("Latency of silence segmentation per video."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ClassificationDuration, err = m.Float64Histogram("redub.classification.duration",
		metric.WithDescription("Latency of voice activity classification per segment."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisDuration, err = m.Float64Histogram("redub.synthesis.duration",
		metric.WithDescription("Latency of the external engine chain per segment."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ReconcileDuration, err = m.Float64Histogram("redub.reconcile.duration",
		metric.WithDescription("Latency of track assembly and muxing per video."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.SegmentsEmitted, err = m.Int64Counter("redub.segments.emitted",
		metric.WithDescription("Total segments emitted by the segmenter, by source."),
	); err != nil {
		return nil, err
	}
	if met.VADVerdicts, err = m.Int64Counter("redub.vad.verdicts",
		metric.WithDescription("Total voice activity verdicts by outcome."),
	); err != nil {
		return nil, err
	}
	if met.SpeakerSwitches, err = m.Int64Counter("redub.diarize.switches",
		metric.WithDescription("Total speaker alternations by trigger rule."),
	); err != nil {
		return nil, err
	}
	if met.MergeStrategies, err = m.Int64Counter("redub.reconcile.strategies",
		metric.WithDescription("Total duration-merge strategy decisions."),
	); err != nil {
		return nil, err
	}
	if met.SegmentErrors, err = m.Int64Counter("redub.segment.errors",
		metric.WithDescription("Per-segment failures absorbed as silence, by stage."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("redub.provider.errors",
		metric.WithDescription("External engine errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveJobs, err = m.Int64UpDownCounter("redub.active_jobs",
		metric.WithDescription("Number of videos currently being processed."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: creating default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}
