package agent_test

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports/mocks"
	"go.trai.ch/lockship/internal/engine/agent"
	"go.trai.ch/lockship/internal/engine/coordinator"
	"go.trai.ch/lockship/internal/engine/worker"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fakeWorker struct {
	mu         sync.Mutex
	bootstraps [][]*domain.Installer
}

func (w *fakeWorker) Bootstrap(_ context.Context, installers []*domain.Installer) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bootstraps = append(w.bootstraps, installers)
	return nil
}

func (w *fakeWorker) State(_ context.Context) (domain.WorkerState, error) {
	return domain.WorkerReady, nil
}

func (w *fakeWorker) calls() [][]*domain.Installer {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([][]*domain.Installer(nil), w.bootstraps...)
}

// registryMembership lets an agent talk to an in-process registry.
type registryMembership struct {
	registry *coordinator.Registry
}

func (m registryMembership) Join(_ context.Context, id domain.WorkerID, address string) ([]*domain.Installer, error) {
	return m.registry.Join(id, address)
}

func (m registryMembership) Heartbeat(_ context.Context, id domain.WorkerID, state domain.WorkerState) error {
	return m.registry.Heartbeat(id, state)
}

func (m registryMembership) Leave(_ context.Context, id domain.WorkerID) error {
	return m.registry.Leave(id)
}

func newLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func TestAgent_JoinsWithRetriesAndHeartbeats(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		coord := mocks.NewMockMembership(ctrl)
		worker := &fakeWorker{}
		inst := &domain.Installer{Role: domain.InstallerRole, Fingerprint: 7}

		unavailable := zerr.Wrap(domain.ErrWorkerUnavailable, "connection refused")
		gomock.InOrder(
			coord.EXPECT().Join(gomock.Any(), domain.WorkerID("w1"), "10.0.0.1:9000").Return(nil, unavailable).Times(2),
			coord.EXPECT().Join(gomock.Any(), domain.WorkerID("w1"), "10.0.0.1:9000").
				Return([]*domain.Installer{inst}, nil),
		)
		coord.EXPECT().Heartbeat(gomock.Any(), domain.WorkerID("w1"), domain.WorkerReady).Return(nil).MinTimes(1)
		coord.EXPECT().Leave(gomock.Any(), domain.WorkerID("w1")).Return(nil)

		a := agent.New("w1", "10.0.0.1:9000", coord, worker, newLogger(ctrl), time.Second)

		ctx, cancel := context.WithCancel(t.Context())
		errCh := make(chan error, 1)
		go func() { errCh <- a.Run(ctx) }()

		time.Sleep(time.Minute)
		cancel()
		require.NoError(t, <-errCh)

		calls := worker.calls()
		require.Len(t, calls, 1)
		assert.Equal(t, []*domain.Installer{inst}, calls[0])
	})
}

func TestAgent_RejoinsWhenForgotten(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		coord := mocks.NewMockMembership(ctrl)
		worker := &fakeWorker{}
		inst := &domain.Installer{Role: domain.InstallerRole, Fingerprint: 9}

		gomock.InOrder(
			coord.EXPECT().Join(gomock.Any(), domain.WorkerID("w1"), "a:1").Return(nil, nil),
			coord.EXPECT().Heartbeat(gomock.Any(), domain.WorkerID("w1"), domain.WorkerReady).
				Return(zerr.Wrap(domain.ErrWorkerNotFound, "w1")),
			coord.EXPECT().Join(gomock.Any(), domain.WorkerID("w1"), "a:1").Return([]*domain.Installer{inst}, nil),
		)
		coord.EXPECT().Heartbeat(gomock.Any(), domain.WorkerID("w1"), domain.WorkerReady).Return(nil).AnyTimes()
		coord.EXPECT().Leave(gomock.Any(), domain.WorkerID("w1")).Return(nil)

		a := agent.New("w1", "a:1", coord, worker, newLogger(ctrl), time.Second)

		ctx, cancel := context.WithCancel(t.Context())
		errCh := make(chan error, 1)
		go func() { errCh <- a.Run(ctx) }()

		time.Sleep(10 * time.Second)
		cancel()
		require.NoError(t, <-errCh)

		calls := worker.calls()
		require.Len(t, calls, 2)
		assert.Empty(t, calls[0])
		assert.Equal(t, []*domain.Installer{inst}, calls[1])
	})
}

func TestAgent_InvalidWorkerIsNotRetried(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		coord := mocks.NewMockMembership(ctrl)
		coord.EXPECT().Join(gomock.Any(), domain.WorkerID(""), "").
			Return(nil, zerr.Wrap(domain.ErrInvalidWorker, "empty id"))

		a := agent.New("", "", coord, &fakeWorker{}, newLogger(ctrl), time.Second)

		err := a.Run(t.Context())
		require.ErrorIs(t, err, domain.ErrInvalidWorker)
	})
}

func TestAgent_HeartbeatsWhileBootstrapping(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		log := newLogger(ctrl)
		metrics := mocks.NewMockMetrics(ctrl)
		metrics.EXPECT().WorkersConnected(gomock.Any()).AnyTimes()
		metrics.EXPECT().InstallerRegistered(gomock.Any()).AnyTimes()

		registry := coordinator.NewRegistry(log, metrics, domain.DefaultWorkerTimeout)
		inst := &domain.Installer{Role: domain.InstallerRole, Backend: domain.BackendPoetry, Fingerprint: 11}
		registry.RegisterInstaller(inst)

		runner := mocks.NewMockInstallRunner(ctrl)
		runner.EXPECT().Setup(gomock.Any(), inst).
			DoAndReturn(func(context.Context, *domain.Installer) (domain.SetupResult, error) {
				time.Sleep(30 * time.Second)
				return domain.SetupResult{}, nil
			})
		w, err := worker.New("late", runner, mocks.NewMockSupervisor(ctrl), log, 0)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		registryDone := make(chan struct{})
		go func() {
			registry.Run(ctx)
			close(registryDone)
		}()
		errCh := make(chan error, 1)
		a := agent.New("late", "late:9000", registryMembership{registry: registry}, w, log, 0)
		go func() { errCh <- a.Run(ctx) }()

		time.Sleep(16 * time.Second)
		info, err := registry.Lookup("late")
		require.NoError(t, err, "the install outlasts the worker timeout")
		assert.Equal(t, domain.WorkerInstalling, info.State)

		time.Sleep(20 * time.Second)
		info, err = registry.Lookup("late")
		require.NoError(t, err)
		assert.Equal(t, domain.WorkerReady, info.State)
		applied, err := w.Applied(ctx, inst.Fingerprint)
		require.NoError(t, err)
		assert.True(t, applied)

		cancel()
		require.NoError(t, <-errCh)
		<-registryDone

		_, err = registry.Lookup("late")
		require.ErrorIs(t, err, domain.ErrWorkerNotFound, "the worker leaves on shutdown")
	})
}
