package ports

import "context"

// Supervisor owns the worker process an agent keeps alive.
//
//go:generate mockgen -source=supervisor.go -destination=mocks/mock_supervisor.go -package=mocks
type Supervisor interface {
	// Start launches the process.
	Start(ctx context.Context) error
	// Restart stops the process and launches it again.
	Restart(ctx context.Context) error
	// Stop terminates the process.
	Stop(ctx context.Context) error
	// Running reports whether the process is alive.
	Running() bool
}
