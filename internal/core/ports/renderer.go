package ports

import (
	"context"
	"time"
)

// Renderer is the abstraction for progress output.
// It decouples telemetry collection from presentation, so the same span
// stream drives coloured terminal output or plain CI logs.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Stop flushes buffered output and stops accepting events.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnPlanEmit is called when a convergence round is about to touch workers.
	OnPlanEmit(workers []string)

	// OnStepStart is called when a step begins.
	// spanID: unique identifier for this step
	// parentID: spanID of the parent step (empty if root)
	OnStepStart(spanID, parentID, name string, startTime time.Time)

	// OnStepLog is called when a step emits output.
	// data may contain partial lines.
	OnStepLog(spanID string, data []byte)

	// OnStepComplete is called when a step finishes; err is nil on success.
	OnStepComplete(spanID string, endTime time.Time, err error)
}
