// Package telemetry turns convergence spans into OpenTelemetry traces and
// renderer progress.
package telemetry

import (
	"bytes"
	"sync"

	"go.trai.ch/lockship/internal/core/ports"
)

// DefaultFlushSize is how much output a worker buffers before complete lines
// are handed to the renderer early.
const DefaultFlushSize = 4096

// WorkerOutput batches the output that steps write for a worker. A worker's
// buffer belongs to one step at a time and reaches the renderer when that
// step ends, when another step of the same worker writes, or once it holds
// DefaultFlushSize bytes. Output of steps without a worker is passed through.
type WorkerOutput struct {
	renderer  ports.Renderer
	flushSize int

	mu      sync.Mutex
	pending map[string]*stepOutput
}

type stepOutput struct {
	spanID string
	buf    bytes.Buffer
}

// NewWorkerOutput creates a WorkerOutput delivering to renderer. A flushSize
// of zero uses DefaultFlushSize.
func NewWorkerOutput(renderer ports.Renderer, flushSize int) *WorkerOutput {
	if flushSize <= 0 {
		flushSize = DefaultFlushSize
	}
	return &WorkerOutput{
		renderer:  renderer,
		flushSize: flushSize,
		pending:   make(map[string]*stepOutput),
	}
}

// Write buffers p for the step spanID running against worker.
func (o *WorkerOutput) Write(worker, spanID string, p []byte) {
	if worker == "" {
		o.renderer.OnStepLog(spanID, bytes.Clone(p))
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	step, ok := o.pending[worker]
	if !ok {
		step = &stepOutput{spanID: spanID}
		o.pending[worker] = step
	}
	if step.spanID != spanID {
		o.flushLocked(step)
		step.spanID = spanID
	}
	step.buf.Write(p)

	if step.buf.Len() < o.flushSize {
		return
	}
	if i := bytes.LastIndexByte(step.buf.Bytes(), '\n'); i >= 0 {
		o.renderer.OnStepLog(spanID, bytes.Clone(step.buf.Next(i+1)))
	}
}

// EndStep delivers what spanID buffered for worker. Output another step
// wrote since then is left alone.
func (o *WorkerOutput) EndStep(worker, spanID string) {
	if worker == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	step, ok := o.pending[worker]
	if !ok || step.spanID != spanID {
		return
	}
	o.flushLocked(step)
	delete(o.pending, worker)
}

// Flush delivers everything buffered.
func (o *WorkerOutput) Flush() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for worker, step := range o.pending {
		o.flushLocked(step)
		delete(o.pending, worker)
	}
}

func (o *WorkerOutput) flushLocked(step *stepOutput) {
	if step.buf.Len() == 0 {
		return
	}
	o.renderer.OnStepLog(step.spanID, bytes.Clone(step.buf.Bytes()))
	step.buf.Reset()
}
