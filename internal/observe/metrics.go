// Package observe provides OpenTelemetry metrics for the recognition
// pipeline. A Prometheus exporter bridge is available via InitProvider so
// metrics can be scraped from the standard /metrics endpoint. A
// package-level default Metrics instance (DefaultMetrics) is provided for
// convenience; tests should use NewMetrics with a custom
// metric.MeterProvider to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all mudra metrics.
const meterName = "github.com/ayusman/mudra"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// FrameDuration tracks how long one frame takes through scoring,
	// stabilization and phrase matching.
	FrameDuration metric.Float64Histogram

	// FramesProcessed counts frames that ran through the engine.
	FramesProcessed metric.Int64Counter

	// FramesDropped counts frames discarded because another frame was
	// still being processed.
	FramesDropped metric.Int64Counter

	// Recognitions counts emitted gesture events. Use with attribute:
	//   attribute.String("gesture", ...)
	Recognitions metric.Int64Counter

	// PhraseMatches counts completed phrases. Use with attribute:
	//   attribute.String("phrase", ...)
	PhraseMatches metric.Int64Counter

	// TemplateReloads counts gesture/phrase reloads from the store.
	TemplateReloads metric.Int64Counter

	// HandlerInvocations counts matched-phrase handler runs. Use with
	// attributes:
	//   attribute.String("handler", ...), attribute.String("status", ...)
	HandlerInvocations metric.Int64Counter

	// StreamClients tracks connected websocket clients. Use with attribute:
	//   attribute.String("channel", ...)
	StreamClients metric.Int64UpDownCounter
}

// frameBuckets defines histogram bucket boundaries (in seconds) sized for
// per-frame processing latencies.
var frameBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised Metrics struct using the given
// metric.MeterProvider. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FrameDuration, err = m.Float64Histogram("mudra.frame.duration",
		metric.WithDescription("Latency of one frame through the recognition pipeline."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(frameBuckets...),
	); err != nil {
		return nil, err
	}

	if met.FramesProcessed, err = m.Int64Counter("mudra.frames.processed",
		metric.WithDescription("Total frames processed by the recognition engine."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("mudra.frames.dropped",
		metric.WithDescription("Total frames dropped because processing was busy."),
	); err != nil {
		return nil, err
	}
	if met.Recognitions, err = m.Int64Counter("mudra.gesture.recognitions",
		metric.WithDescription("Total stabilized gesture recognitions by gesture name."),
	); err != nil {
		return nil, err
	}
	if met.PhraseMatches, err = m.Int64Counter("mudra.phrase.matches",
		metric.WithDescription("Total completed phrases by phrase name."),
	); err != nil {
		return nil, err
	}
	if met.TemplateReloads, err = m.Int64Counter("mudra.templates.reloads",
		metric.WithDescription("Total template and phrase reloads from the store."),
	); err != nil {
		return nil, err
	}
	if met.HandlerInvocations, err = m.Int64Counter("mudra.handler.invocations",
		metric.WithDescription("Total matched-phrase handler runs by handler and status."),
	); err != nil {
		return nil, err
	}

	if met.StreamClients, err = m.Int64UpDownCounter("mudra.stream.clients",
		metric.WithDescription("Number of connected websocket clients by channel."),
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

// DefaultMetrics returns the package-level Metrics instance, creating it on
// first call using otel.GetMeterProvider. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordFrame records one processed frame and its latency in seconds.
func (m *Metrics) RecordFrame(ctx context.Context, seconds float64) {
	m.FramesProcessed.Add(ctx, 1)
	m.FrameDuration.Record(ctx, seconds)
}

// RecordRecognition records one emitted gesture event.
func (m *Metrics) RecordRecognition(ctx context.Context, gesture string) {
	m.Recognitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("gesture", gesture)),
	)
}

// RecordPhraseMatch records one completed phrase.
func (m *Metrics) RecordPhraseMatch(ctx context.Context, phrase string) {
	m.PhraseMatches.Add(ctx, 1,
		metric.WithAttributes(attribute.String("phrase", phrase)),
	)
}

// RecordHandler records one matched-phrase handler invocation.
func (m *Metrics) RecordHandler(ctx context.Context, handler, status string) {
	m.HandlerInvocations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("handler", handler),
			attribute.String("status", status),
		),
	)
}
