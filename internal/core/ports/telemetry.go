package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals which workers a convergence round is about to touch.
	EmitPlan(ctx context.Context, workers []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Worker is set for spans describing work on a single worker.
	Worker string
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithWorker tags a span with the worker it runs against.
func WithWorker(id string) SpanOption {
	return func(c *SpanConfig) {
		c.Worker = id
	}
}
