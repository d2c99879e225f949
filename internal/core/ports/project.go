package ports

import "go.trai.ch/lockship/internal/core/domain"

// ProjectLoader reads a Python project from disk.
//
//go:generate mockgen -source=project.go -destination=mocks/mock_project.go -package=mocks
type ProjectLoader interface {
	// Load reads pyproject.toml and the backend lockfile from dir.
	// The backend is classified from the build-backend declaration.
	Load(dir string) (*domain.Project, error)
}
