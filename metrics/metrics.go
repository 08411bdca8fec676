/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Review provides OpenTelemetry counters for review runs: token usage per
// provider and model, loop iterations, and applied file operations.
type Review struct {
	meter            metric.Meter
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	iterations       metric.Int64Counter
	operations       metric.Int64Counter
}

// NewReview creates a Review metrics instance with the given meter name.
// If a counter fails to initialize it degrades to a no-op counter rather
// than failing the run.
func NewReview(meterName string) *Review {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("genai.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("genai.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		completionTokens = noop.Int64Counter{}
	}

	iterations, err := meter.Int64Counter("review.iterations",
		metric.WithDescription("The number of review loop iterations executed"),
		metric.WithUnit("{iterations}"))
	if err != nil {
		slog.Warn("Failed to create iterations counter, metrics will be disabled", "error", err, "meter", meterName)
		iterations = noop.Int64Counter{}
	}

	operations, err := meter.Int64Counter("review.operations",
		metric.WithDescription("The number of file operations requested by the sub-agent"),
		metric.WithUnit("{operations}"))
	if err != nil {
		slog.Warn("Failed to create operations counter, metrics will be disabled", "error", err, "meter", meterName)
		operations = noop.Int64Counter{}
	}

	return &Review{
		meter:            meter,
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		iterations:       iterations,
		operations:       operations,
	}
}

// RecordTokens records prompt and completion token usage for one call.
func (m *Review) RecordTokens(ctx context.Context, provider, model string, promptTokens, completionTokens int64) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
	)
	m.promptTokens.Add(ctx, promptTokens, attrs)
	m.completionTokens.Add(ctx, completionTokens, attrs)
}

// RecordIteration records one completed review loop iteration.
func (m *Review) RecordIteration(ctx context.Context, repo string) {
	m.iterations.Add(ctx, 1, metric.WithAttributes(attribute.String("repository", repo)))
}

// RecordOperation records one requested file operation and whether it
// applied cleanly.
func (m *Review) RecordOperation(ctx context.Context, kind string, applied bool) {
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("applied", applied),
	))
}
