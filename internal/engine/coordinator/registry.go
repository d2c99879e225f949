// Package coordinator tracks cluster membership and the installer slot, and
// proxies worker operations to the agents that own the workers.
package coordinator

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/zerr"
)

// Registry holds worker membership and the registered installers.
type Registry struct {
	logger  ports.Logger
	metrics ports.Metrics
	timeout time.Duration

	mu         sync.RWMutex
	workers    map[domain.WorkerID]*domain.WorkerInfo
	installers map[string]*domain.Installer
	generation uint64
}

// NewRegistry creates a Registry that drops workers silent for longer than timeout.
func NewRegistry(logger ports.Logger, metrics ports.Metrics, timeout time.Duration) *Registry {
	return &Registry{
		logger:     logger,
		metrics:    metrics,
		timeout:    timeout,
		workers:    make(map[domain.WorkerID]*domain.WorkerInfo),
		installers: make(map[string]*domain.Installer),
	}
}

// Join adds or re-admits a worker and returns the installers it must apply.
func (r *Registry) Join(id domain.WorkerID, address string) ([]*domain.Installer, error) {
	if id == "" || address == "" {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidWorker, string(id)), "worker", string(id))
		return nil, zerr.With(err, "address", address)
	}

	now := time.Now()

	r.mu.Lock()
	r.workers[id] = &domain.WorkerInfo{
		ID:       id,
		Address:  address,
		State:    domain.WorkerJoining,
		JoinedAt: now,
		LastSeen: now,
	}
	installers := r.sortedInstallers()
	count := len(r.workers)
	r.mu.Unlock()

	r.metrics.WorkersConnected(count)
	r.logger.Info("worker " + string(id) + " joined from " + address)
	return installers, nil
}

// Heartbeat records that a worker is alive and reports its state.
func (r *Registry) Heartbeat(id domain.WorkerID, state domain.WorkerState) error {
	if state == domain.WorkerGone {
		return r.Leave(id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[id]
	if !ok {
		return workerNotFound(id)
	}
	w.State = state
	w.LastSeen = time.Now()
	return nil
}

// Leave removes a worker.
func (r *Registry) Leave(id domain.WorkerID) error {
	r.mu.Lock()
	_, ok := r.workers[id]
	delete(r.workers, id)
	count := len(r.workers)
	r.mu.Unlock()

	if !ok {
		return workerNotFound(id)
	}
	r.metrics.WorkersConnected(count)
	r.logger.Info("worker " + string(id) + " left")
	return nil
}

// SetState changes a worker's state without counting as a heartbeat.
func (r *Registry) SetState(id domain.WorkerID, state domain.WorkerState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.workers[id]; ok {
		w.State = state
	}
}

// Lookup returns a worker by id.
func (r *Registry) Lookup(id domain.WorkerID) (domain.WorkerInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workers[id]
	if !ok {
		return domain.WorkerInfo{}, workerNotFound(id)
	}
	return *w, nil
}

// Workers returns the visible workers ordered by join time.
func (r *Registry) Workers() []domain.WorkerInfo {
	r.mu.RLock()
	out := make([]domain.WorkerInfo, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, *w)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.WorkerInfo) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

// Expire drops workers whose last heartbeat is older than the timeout.
func (r *Registry) Expire(now time.Time) []domain.WorkerID {
	r.mu.Lock()
	var expired []domain.WorkerID
	for id, w := range r.workers {
		if now.Sub(w.LastSeen) > r.timeout {
			expired = append(expired, id)
			delete(r.workers, id)
		}
	}
	count := len(r.workers)
	r.mu.Unlock()

	if len(expired) > 0 {
		slices.Sort(expired)
		r.metrics.WorkersConnected(count)
		for _, id := range expired {
			r.logger.Warn("worker " + string(id) + " missed its heartbeats, dropping it")
		}
	}
	return expired
}

// Run expires silent workers until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.timeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Expire(now)
		}
	}
}

// RegisterInstaller stores inst in its role's slot and reports whether it
// replaced a previous installer.
func (r *Registry) RegisterInstaller(inst *domain.Installer) bool {
	r.mu.Lock()
	_, superseded := r.installers[inst.Role]
	r.installers[inst.Role] = inst
	r.generation++
	generation := r.generation
	r.mu.Unlock()

	r.metrics.InstallerRegistered(superseded)
	if superseded {
		r.logger.Info("installer " + inst.Fingerprint.String() + " superseded the previous one (generation " + strconv.FormatUint(generation, 10) + ")")
	} else {
		r.logger.Info("installer " + inst.Fingerprint.String() + " registered")
	}
	return superseded
}

// Installers returns the registered installers ordered by role.
func (r *Registry) Installers() []*domain.Installer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedInstallers()
}

// Generation counts installer registrations.
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

func (r *Registry) sortedInstallers() []*domain.Installer {
	out := make([]*domain.Installer, 0, len(r.installers))
	for _, inst := range r.installers {
		out = append(out, inst)
	}
	slices.SortFunc(out, func(a, b *domain.Installer) int {
		return strings.Compare(a.Role, b.Role)
	})
	return out
}

func workerNotFound(id domain.WorkerID) error {
	return zerr.With(zerr.Wrap(domain.ErrWorkerNotFound, string(id)), "worker", string(id))
}
