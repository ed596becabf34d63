package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/hhuzhang0517/genrtl-saas/internal/model"
)

const meterName = "genrtl/pipeline"

type metrics struct {
	runs          metric.Int64Counter
	stageDuration metric.Float64Histogram
	tokens        metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(meterName)
	fallback := noop.NewMeterProvider().Meter(meterName)

	runs, err := meter.Int64Counter("genrtl.pipeline.runs",
		metric.WithDescription("Pipeline runs by outcome"))
	if err != nil {
		slog.Warn("creating runs counter", "error", err)
		runs, _ = fallback.Int64Counter("genrtl.pipeline.runs")
	}

	stageDuration, err := meter.Float64Histogram("genrtl.pipeline.stage.duration",
		metric.WithDescription("Wall time of a generation stage"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("creating stage duration histogram", "error", err)
		stageDuration, _ = fallback.Float64Histogram("genrtl.pipeline.stage.duration")
	}

	tokens, err := meter.Int64Counter("genrtl.usage.tokens",
		metric.WithDescription("Tokens consumed by generation calls"))
	if err != nil {
		slog.Warn("creating tokens counter", "error", err)
		tokens, _ = fallback.Int64Counter("genrtl.usage.tokens")
	}

	return &metrics{runs: runs, stageDuration: stageDuration, tokens: tokens}
}

func (m *metrics) runFinished(ctx context.Context, outcome string) {
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *metrics) stageFinished(ctx context.Context, stage model.Stage, start time.Time, err error) {
	m.stageDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("stage", string(stage)),
		attribute.Bool("error", err != nil),
	))
}

func (m *metrics) usageRecorded(ctx context.Context, stage model.Stage, usage model.Usage) {
	m.tokens.Add(ctx, usage.TotalTokens, metric.WithAttributes(
		attribute.String("stage", string(stage)),
		attribute.String("model", usage.Model),
	))
}
