// Package agent keeps one worker registered with the coordinator: it joins,
// applies the installers the cluster already has, and heartbeats until stopped.
package agent

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/zerr"
)

// leaveTimeout bounds the farewell call made after the agent is stopped.
const leaveTimeout = 5 * time.Second

// Bootstrapper applies the installers handed out at join time.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, installers []*domain.Installer) error
	State(ctx context.Context) (domain.WorkerState, error)
}

// Agent registers a worker with the coordinator.
type Agent struct {
	id          domain.WorkerID
	address     string
	coordinator ports.Membership
	worker      Bootstrapper
	logger      ports.Logger
	heartbeat   time.Duration

	bootstraps sync.WaitGroup
}

// New creates an Agent for the worker id served at address.
func New(
	id domain.WorkerID,
	address string,
	coordinator ports.Membership,
	worker Bootstrapper,
	logger ports.Logger,
	heartbeat time.Duration,
) *Agent {
	if heartbeat <= 0 {
		heartbeat = domain.DefaultHeartbeat
	}
	return &Agent{
		id:          id,
		address:     address,
		coordinator: coordinator,
		worker:      worker,
		logger:      logger,
		heartbeat:   heartbeat,
	}
}

// Run joins the cluster and heartbeats until ctx is done. Installers handed
// out at join time are applied in the background so the worker keeps
// reporting its state while it installs. On the way out the agent waits for
// a running bootstrap and leaves the cluster.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.join(ctx); err != nil {
		return err
	}
	defer a.leave(ctx)
	defer a.bootstraps.Wait()

	ticker := time.NewTicker(a.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.beat(ctx)
		}
	}
}

// join retries until the coordinator accepts the worker, then starts applying
// the installers it returned.
func (a *Agent) join(ctx context.Context) error {
	installers, err := backoff.Retry(ctx, func() ([]*domain.Installer, error) {
		installers, err := a.coordinator.Join(ctx, a.id, a.address)
		if errors.Is(err, domain.ErrInvalidWorker) {
			return nil, backoff.Permanent(err)
		}
		return installers, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.logger.Warn("coordinator not reachable, retrying in " + next.Round(time.Millisecond).String() + ": " + err.Error())
		}),
	)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to join coordinator"), "worker", string(a.id))
	}

	a.logger.Info("joined as " + string(a.id) + ", applying " + plural(len(installers), "installer"))
	a.bootstraps.Go(func() {
		if err := a.worker.Bootstrap(ctx, installers); err != nil {
			// The client's repair round retries the installer.
			a.logger.Error(err)
		}
	})
	return nil
}

func (a *Agent) beat(ctx context.Context) {
	state, err := a.worker.State(ctx)
	if err != nil {
		a.logger.Error(err)
		return
	}

	err = a.coordinator.Heartbeat(ctx, a.id, state)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrWorkerNotFound):
		a.logger.Warn("coordinator forgot worker " + string(a.id) + ", joining again")
		if err := a.join(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error(err)
		}
	case ctx.Err() == nil:
		a.logger.Warn("heartbeat failed: " + err.Error())
	}
}

func (a *Agent) leave(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaveTimeout)
	defer cancel()

	if err := a.coordinator.Leave(ctx, a.id); err != nil {
		a.logger.Warn("failed to leave cluster: " + err.Error())
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
