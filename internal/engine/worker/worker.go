// Package worker runs installers on one worker and restarts its process when
// an installation changed the environment.
package worker

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// DefaultHistorySize is how many applied fingerprints a worker remembers.
const DefaultHistorySize = 32

// Worker implements ports.Worker.
type Worker struct {
	id         domain.WorkerID
	runner     ports.InstallRunner
	supervisor ports.Supervisor
	logger     ports.Logger

	// setupSem serialises setups and restarts.
	setupSem *semaphore.Weighted
	applied  *lru.Cache[domain.Fingerprint, struct{}]

	stateMu sync.RWMutex
	state   domain.WorkerState
}

var _ ports.Worker = (*Worker)(nil)

// New creates a Worker that remembers the last historySize applied installers.
func New(
	id domain.WorkerID,
	runner ports.InstallRunner,
	supervisor ports.Supervisor,
	logger ports.Logger,
	historySize int,
) (*Worker, error) {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	applied, err := lru.New[domain.Fingerprint, struct{}](historySize)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create applied history")
	}
	return &Worker{
		id:         id,
		runner:     runner,
		supervisor: supervisor,
		logger:     logger,
		setupSem:   semaphore.NewWeighted(1),
		applied:    applied,
		state:      domain.WorkerJoining,
	}, nil
}

// ID returns the worker id.
func (w *Worker) ID() domain.WorkerID {
	return w.id
}

// Setup applies inst unless its fingerprint was already applied. It waits for
// a running setup or restart until ctx is done; once started, the
// installation keeps running when ctx is cancelled.
func (w *Worker) Setup(ctx context.Context, inst *domain.Installer) (domain.SetupResult, error) {
	if err := w.setupSem.Acquire(ctx, 1); err != nil {
		return domain.SetupResult{}, w.busy(err)
	}
	defer w.setupSem.Release(1)

	return w.setup(context.WithoutCancel(ctx), inst)
}

func (w *Worker) setup(ctx context.Context, inst *domain.Installer) (domain.SetupResult, error) {
	if w.applied.Contains(inst.Fingerprint) {
		w.logger.Info("installer " + inst.Fingerprint.String() + " already applied")
		return domain.SetupResult{Worker: w.id, Fingerprint: inst.Fingerprint, Skipped: true}, nil
	}

	previous := w.setState(domain.WorkerInstalling)
	result, err := w.runner.Setup(ctx, inst)
	w.setState(previous)

	result.Worker = w.id
	result.Fingerprint = inst.Fingerprint
	if err != nil {
		return result, err
	}
	w.applied.Add(inst.Fingerprint, struct{}{})
	return result, nil
}

// Restart restarts the supervised process once any running setup has
// finished. It fails with ErrWorkerBusy when ctx ends first.
func (w *Worker) Restart(ctx context.Context) error {
	if err := w.setupSem.Acquire(ctx, 1); err != nil {
		return w.busy(err)
	}
	defer w.setupSem.Release(1)

	return w.restart(context.WithoutCancel(ctx))
}

func (w *Worker) busy(cause error) error {
	err := zerr.With(zerr.Wrap(domain.ErrWorkerBusy, "setup in progress"), "worker", string(w.id))
	return zerr.With(err, "cause", cause.Error())
}

func (w *Worker) restart(ctx context.Context) error {
	w.setState(domain.WorkerRestarting)
	err := w.supervisor.Restart(ctx)
	w.setState(domain.WorkerReady)
	return err
}

// Applied reports whether the installer with fingerprint fp has been applied.
func (w *Worker) Applied(_ context.Context, fp domain.Fingerprint) (bool, error) {
	return w.applied.Contains(fp), nil
}

// State returns the worker's lifecycle state.
func (w *Worker) State(_ context.Context) (domain.WorkerState, error) {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.state, nil
}

// Bootstrap applies the installers registered when the worker joined, restarts
// once if any of them asked for it, and marks the worker ready.
func (w *Worker) Bootstrap(ctx context.Context, installers []*domain.Installer) error {
	ctx = context.WithoutCancel(ctx)
	if err := w.setupSem.Acquire(ctx, 1); err != nil {
		return w.busy(err)
	}
	defer w.setupSem.Release(1)

	var restart bool
	for _, inst := range installers {
		result, err := w.setup(ctx, inst)
		if err != nil {
			w.setState(domain.WorkerReady)
			return zerr.With(zerr.Wrap(err, "failed to apply installer"), "fingerprint", inst.Fingerprint.String())
		}
		restart = restart || result.Restart
	}

	if restart {
		return w.restart(ctx)
	}
	w.setState(domain.WorkerReady)
	return nil
}

func (w *Worker) setState(state domain.WorkerState) domain.WorkerState {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	previous := w.state
	w.state = state
	return previous
}
