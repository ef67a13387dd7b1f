// Package observe records pipeline metrics through the OpenTelemetry
// Metrics API. InitProvider bridges them to a Prometheus exporter that
// Serve exposes on /metrics.
//
// Tests should use NewMetrics with their own meter provider to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dgnsrekt/notereader"

// Paragraph outcomes used as the status attribute.
const (
	StatusPlayed = "played"
	StatusFailed = "failed"
)

// Metrics holds the metric instruments of a playback run.
type Metrics struct {
	// SynthesisDuration tracks the latency of one synthesis call.
	SynthesisDuration metric.Float64Histogram

	// PlaybackDuration tracks how long one paragraph played.
	PlaybackDuration metric.Float64Histogram

	// Paragraphs counts processed paragraphs by status.
	Paragraphs metric.Int64Counter

	// ActiveRuns is the number of runs in flight.
	ActiveRuns metric.Int64UpDownCounter
}

// latencyBuckets in seconds, sized for remote TTS calls and spoken paragraphs.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SynthesisDuration, err = m.Float64Histogram("notereader.synthesis.duration",
		metric.WithDescription("Latency of text-to-speech synthesis per paragraph."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PlaybackDuration, err = m.Float64Histogram("notereader.playback.duration",
		metric.WithDescription("Playback time per paragraph."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Paragraphs, err = m.Int64Counter("notereader.paragraphs",
		metric.WithDescription("Paragraphs processed by status."),
	); err != nil {
		return nil, err
	}
	if met.ActiveRuns, err = m.Int64UpDownCounter("notereader.active_runs",
		metric.WithDescription("Playback runs in flight."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level Metrics created from the global
// meter provider. Call it after InitProvider so the exporter sees them.
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

// RecordSynthesis records one synthesis call.
func (m *Metrics) RecordSynthesis(ctx context.Context, engine string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SynthesisDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(
			attribute.String("engine", engine),
			attribute.String("status", status),
		),
	)
}

// RecordParagraph counts one processed paragraph.
func (m *Metrics) RecordParagraph(ctx context.Context, status string) {
	m.Paragraphs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordPlayback records how long one paragraph played.
func (m *Metrics) RecordPlayback(ctx context.Context, d time.Duration) {
	m.PlaybackDuration.Record(ctx, d.Seconds())
}
