package ports

import (
	"context"

	"go.trai.ch/lockship/internal/core/domain"
)

// Membership is the agent's view of the coordinator.
//
//go:generate mockgen -source=membership.go -destination=mocks/mock_membership.go -package=mocks
type Membership interface {
	// Join announces the worker and returns the installers registered so far.
	Join(ctx context.Context, id domain.WorkerID, address string) ([]*domain.Installer, error)
	// Heartbeat reports the worker's state.
	Heartbeat(ctx context.Context, id domain.WorkerID, state domain.WorkerState) error
	// Leave removes the worker from the cluster.
	Leave(ctx context.Context, id domain.WorkerID) error
}
