package telemetry

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/lockship/internal/core/ports"
)

// Bridge is the span processor that turns convergence spans into renderer
// steps. The output a worker's setup or restart step wrote is handed over
// right before the step completes.
type Bridge struct {
	renderer ports.Renderer
	output   *WorkerOutput

	mu      sync.Mutex
	workers map[trace.SpanID]string
}

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// NewBridge creates a Bridge for renderer. A nil renderer drops every span.
func NewBridge(renderer ports.Renderer) *Bridge {
	b := &Bridge{
		renderer: renderer,
		workers:  make(map[trace.SpanID]string),
	}
	if renderer != nil {
		b.output = NewWorkerOutput(renderer, 0)
	}
	return b
}

// Output returns the per-worker output the bridge flushes, nil without a renderer.
func (b *Bridge) Output() *WorkerOutput {
	return b.output
}

// OnStart announces the step and remembers which worker it runs against.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if b.renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	if worker := workerOf(s.Attributes()); worker != "" {
		b.mu.Lock()
		b.workers[sc.SpanID()] = worker
		b.mu.Unlock()
	}

	var parentID string
	if p := trace.SpanContextFromContext(parent); p.IsValid() {
		parentID = p.SpanID().String()
	}
	b.renderer.OnStepStart(sc.SpanID().String(), parentID, s.Name(), s.StartTime())
}

// OnEnd flushes the step's worker output and completes the step.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}
	spanID := sc.SpanID().String()

	b.mu.Lock()
	worker, ok := b.workers[sc.SpanID()]
	delete(b.workers, sc.SpanID())
	b.mu.Unlock()
	if ok {
		b.output.EndStep(worker, spanID)
	}

	var err error
	if s.Status().Code == codes.Error {
		err = errors.New(stepError(s.Status().Description, worker))
	}
	b.renderer.OnStepComplete(spanID, s.EndTime(), err)
}

// ForceFlush hands over all buffered worker output.
func (b *Bridge) ForceFlush(_ context.Context) error {
	if b.output != nil {
		b.output.Flush()
	}
	return nil
}

// Shutdown flushes like ForceFlush.
func (b *Bridge) Shutdown(ctx context.Context) error {
	return b.ForceFlush(ctx)
}

func workerOf(attrs []attribute.KeyValue) string {
	for _, kv := range attrs {
		if kv.Key == WorkerAttribute {
			return kv.Value.AsString()
		}
	}
	return ""
}

func stepError(desc, worker string) string {
	switch {
	case desc != "":
		return desc
	case worker != "":
		return "worker " + worker + " failed"
	default:
		return "step failed"
	}
}
