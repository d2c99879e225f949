package ports

import "go.trai.ch/lockship/internal/core/domain"

// ConfigLoader defines the interface for loading the lockship configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds lockship.yaml by walking up from cwd and returns the resolved configuration.
	// When no file exists the defaults are returned.
	Load(cwd string) (domain.Config, error)
}
