package ports

import (
	"context"

	"go.trai.ch/lockship/internal/core/domain"
)

// InstallRunner applies an installer inside a worker's context.
//
//go:generate mockgen -source=installer.go -destination=mocks/mock_installer.go -package=mocks
type InstallRunner interface {
	// Setup materializes the installer's files, syncs the environment and
	// reports whether the worker process must restart.
	Setup(ctx context.Context, inst *domain.Installer) (domain.SetupResult, error)
}
