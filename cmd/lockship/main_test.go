package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/lockship/internal/adapters/compress"
	"go.trai.ch/lockship/internal/adapters/linear"
	"go.trai.ch/lockship/internal/adapters/metrics"
	"go.trai.ch/lockship/internal/adapters/telemetry"
	"go.trai.ch/lockship/internal/app"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type testApp struct {
	app    *app.App
	loader *mocks.MockConfigLoader
	logger *mocks.MockLogger
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctrl := gomock.NewController(t)

	loader := mocks.NewMockConfigLoader(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	application := app.New(
		loader,
		mocks.NewMockProjectLoader(ctrl),
		mocks.NewMockLockfileParser(ctrl),
		compress.New(),
		mocks.NewMockExecutor(ctrl),
		mocks.NewMockWatcher(ctrl),
		logger,
		telemetry.NewOTelTracer("test"),
		linear.NewRenderer(io.Discard, io.Discard),
		metrics.New(),
	)
	return &testApp{app: application, loader: loader, logger: logger}
}

func (a *testApp) provider(_ context.Context) (*app.Components, func(), error) {
	return &app.Components{App: a.app, Logger: a.logger}, func() {}, nil
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	a := newTestApp(t)

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, a.provider)
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run logs the error and returns 1 when the command fails.
func TestRun_ExecutionError(t *testing.T) {
	a := newTestApp(t)
	a.loader.EXPECT().Load("project").Return(domain.Config{}, domain.ErrConfigInvalid)
	a.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrConfigInvalid)
	})

	exitCode := run(context.Background(), []string{"env", "--dir", "project"}, io.Discard, a.provider)
	assert.Equal(t, 1, exitCode)
}

// TestRun_AppliesOptions verifies that options see the App before the command runs.
func TestRun_AppliesOptions(t *testing.T) {
	a := newTestApp(t)

	var applied *app.App
	exitCode := run(context.Background(), []string{"version"}, io.Discard, a.provider, func(got *app.App) {
		applied = got
	})

	assert.Equal(t, 0, exitCode)
	assert.Same(t, a.app, applied)
}
