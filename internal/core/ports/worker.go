package ports

import (
	"context"

	"go.trai.ch/lockship/internal/core/domain"
)

// Worker is the coordinator-side handle of a single worker.
//
//go:generate mockgen -source=worker.go -destination=mocks/mock_worker.go -package=mocks
type Worker interface {
	// ID returns the worker's identity.
	ID() domain.WorkerID
	// Setup runs the installer on the worker.
	Setup(ctx context.Context, inst *domain.Installer) (domain.SetupResult, error)
	// Restart restarts the worker process.
	Restart(ctx context.Context) error
	// Applied reports whether the worker has applied the given fingerprint.
	Applied(ctx context.Context, fp domain.Fingerprint) (bool, error)
	// State returns the worker's current lifecycle state.
	State(ctx context.Context) (domain.WorkerState, error)
}
