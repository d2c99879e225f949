package ports

import "go.trai.ch/lockship/internal/core/domain"

// LockfileParser turns lockfile bytes into locked packages.
//
//go:generate mockgen -source=lockfile.go -destination=mocks/mock_lockfile.go -package=mocks
type LockfileParser interface {
	// Parse decodes data in the dialect of backend.
	// It returns domain.ErrMalformedLockfile when data is not a lockfile.
	Parse(backend domain.Backend, data []byte) ([]domain.LockedPackage, error)
}
