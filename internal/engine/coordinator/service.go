package coordinator

import (
	"context"

	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/zerr"
)

// Dialer opens a client to the agent serving a worker.
type Dialer interface {
	Dial(ctx context.Context, id domain.WorkerID, address string) (ports.Worker, error)
}

// Service implements ports.Cluster on top of a Registry, forwarding worker
// operations to the owning agent.
type Service struct {
	registry *Registry
	dialer   Dialer
	metrics  ports.Metrics
}

var _ ports.Cluster = (*Service)(nil)

// NewService creates a new Service.
func NewService(registry *Registry, dialer Dialer, metrics ports.Metrics) *Service {
	return &Service{
		registry: registry,
		dialer:   dialer,
		metrics:  metrics,
	}
}

// Registry returns the membership registry behind the service.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Workers returns the visible workers.
func (s *Service) Workers(_ context.Context) ([]domain.WorkerInfo, error) {
	return s.registry.Workers(), nil
}

// RegisterInstaller stores inst in the cluster's installer slot.
func (s *Service) RegisterInstaller(_ context.Context, inst *domain.Installer) error {
	if inst == nil || inst.Role == "" {
		return zerr.Wrap(domain.ErrNoInstaller, "installer has no role")
	}
	s.registry.RegisterInstaller(inst)
	return nil
}

// Installers returns the registered installers.
func (s *Service) Installers(_ context.Context) ([]*domain.Installer, error) {
	return s.registry.Installers(), nil
}

// Setup runs inst on a worker.
func (s *Service) Setup(ctx context.Context, id domain.WorkerID, inst *domain.Installer) (domain.SetupResult, error) {
	w, err := s.worker(ctx, id)
	if err != nil {
		return domain.SetupResult{}, err
	}

	result, err := w.Setup(ctx, inst)
	s.metrics.WorkerOperation("setup", err)
	if err != nil {
		return result, zerr.With(zerr.Wrap(err, "setup failed"), "worker", string(id))
	}
	return result, nil
}

// Restart restarts a worker's process. The worker is marked restarting until
// its next heartbeat says otherwise.
func (s *Service) Restart(ctx context.Context, id domain.WorkerID) error {
	w, err := s.worker(ctx, id)
	if err != nil {
		return err
	}

	s.registry.SetState(id, domain.WorkerRestarting)
	err = w.Restart(ctx)
	s.metrics.WorkerOperation("restart", err)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "restart failed"), "worker", string(id))
	}
	return nil
}

// Applied reports whether a worker has applied the installer with fingerprint fp.
func (s *Service) Applied(ctx context.Context, id domain.WorkerID, fp domain.Fingerprint) (bool, error) {
	w, err := s.worker(ctx, id)
	if err != nil {
		return false, err
	}

	ok, err := w.Applied(ctx, fp)
	s.metrics.WorkerOperation("applied", err)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "probe failed"), "worker", string(id))
	}
	return ok, nil
}

func (s *Service) worker(ctx context.Context, id domain.WorkerID) (ports.Worker, error) {
	info, err := s.registry.Lookup(id)
	if err != nil {
		return nil, err
	}
	w, err := s.dialer.Dial(ctx, id, info.Address)
	if err != nil {
		err = zerr.With(zerr.Wrap(domain.ErrWorkerUnavailable, err.Error()), "worker", string(id))
		return nil, zerr.With(err, "address", info.Address)
	}
	return w, nil
}
