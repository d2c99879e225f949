package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/lockship/internal/core/ports"
)

// WorkerAttribute is the span attribute naming the worker a span runs against.
const WorkerAttribute = "lockship.worker"

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
type OTelTracer struct {
	name     string
	mu       sync.RWMutex
	tracer   trace.Tracer
	renderer ports.Renderer
	output   *WorkerOutput
}

var _ ports.Tracer = (*OTelTracer)(nil)

// NewOTelTracer creates a new OTelTracer with the given instrumentation name.
func NewOTelTracer(name string) *OTelTracer {
	return &OTelTracer{
		name:   name,
		tracer: otel.Tracer(name),
	}
}

// WithTracerProvider binds the tracer to tp instead of the global provider.
func (t *OTelTracer) WithTracerProvider(tp trace.TracerProvider) *OTelTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracer = tp.Tracer(t.name)
	return t
}

// WithRenderer sets the renderer that receives plans.
func (t *OTelTracer) WithRenderer(r ports.Renderer) *OTelTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderer = r
	return t
}

// WithOutput routes span output to o, usually the output of the Bridge
// installed on the tracer provider.
func (t *OTelTracer) WithOutput(o *WorkerOutput) *OTelTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output = o
	return t
}

func (t *OTelTracer) currentRenderer() ports.Renderer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.renderer
}

func (t *OTelTracer) currentOutput() *WorkerOutput {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.output
}

func (t *OTelTracer) currentTracer() trace.Tracer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracer
}

// Shutdown flushes pending output and detaches the tracer from its renderer.
// Spans still open keep working.
func (t *OTelTracer) Shutdown(_ context.Context) error {
	if o := t.currentOutput(); o != nil {
		o.Flush()
	}
	t.WithRenderer(nil).WithOutput(nil)
	return nil
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var startOpts []trace.SpanStartOption
	if cfg.Worker != "" {
		startOpts = append(startOpts, trace.WithAttributes(attribute.String(WorkerAttribute, cfg.Worker)))
	}
	ctx, span := t.currentTracer().Start(ctx, name, startOpts...)

	return ctx, &OTelSpan{span: span, worker: cfg.Worker, output: t.currentOutput()}
}

// EmitPlan records the workers a convergence round is about to touch on the
// current span and hands them to the renderer.
func (t *OTelTracer) EmitPlan(ctx context.Context, workers []string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(
			attribute.StringSlice("workers", workers),
		))
	}

	if r := t.currentRenderer(); r != nil {
		r.OnPlanEmit(workers)
	}
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span   trace.Span
	worker string
	output *WorkerOutput
}

// End completes the span.
func (s *OTelSpan) End() {
	s.span.End()
}

// RecordError records an error for the span.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Write hands p to the worker output, or records it as a span event when
// the tracer has none.
func (s *OTelSpan) Write(p []byte) (n int, err error) {
	if s.output != nil {
		s.output.Write(s.worker, s.span.SpanContext().SpanID().String(), p)
		return len(p), nil
	}
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	return len(p), nil
}
