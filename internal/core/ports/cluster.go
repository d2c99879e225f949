package ports

import (
	"context"

	"go.trai.ch/lockship/internal/core/domain"
)

// Cluster is the client's view of a running cluster, reached through its coordinator.
//
//go:generate mockgen -source=cluster.go -destination=mocks/mock_cluster.go -package=mocks
type Cluster interface {
	// Workers lists the workers currently known to the coordinator.
	Workers(ctx context.Context) ([]domain.WorkerInfo, error)
	// RegisterInstaller stores inst in the coordinator's slot for inst.Role,
	// superseding any installer already registered for that role.
	RegisterInstaller(ctx context.Context, inst *domain.Installer) error
	// Installers returns the coordinator's authoritative installer list.
	Installers(ctx context.Context) ([]*domain.Installer, error)
	// Setup runs inst on one worker.
	Setup(ctx context.Context, id domain.WorkerID, inst *domain.Installer) (domain.SetupResult, error)
	// Restart restarts one worker.
	Restart(ctx context.Context, id domain.WorkerID) error
	// Applied asks one worker whether it has applied fp.
	Applied(ctx context.Context, id domain.WorkerID, fp domain.Fingerprint) (bool, error)
}
