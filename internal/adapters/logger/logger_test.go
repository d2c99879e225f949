package logger_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockship/internal/adapters/logger"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to a buffer with NO_COLOR set for deterministic output.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Info(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		goldenName string
	}{
		{name: "simple message", msg: "registered installer 9f86d081884c7d65", goldenName: "info_basic"},
		{name: "empty message", msg: "", goldenName: "info_empty"},
		{name: "multiline message", msg: "Installing dependencies from lock file\nNo dependencies to install or update", goldenName: "info_multiline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Info(tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Warn("worker 7b1e left during setup")

	g := goldie.New(t)
	g.Assert(t, "warn_basic", buf.Bytes())
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		goldenName string
	}{
		{
			name:       "simple error",
			err:        os.ErrPermission,
			goldenName: "error_simple",
		},
		{
			name:       "multiline error",
			err:        errors.New("toml: expected character =\n  line 3: [[package]"),
			goldenName: "error_multiline",
		},
		{
			name: "sentinel with metadata",
			err: zerr.With(
				zerr.With(zerr.Wrap(domain.ErrDevDependency, "flake8"), "package", "flake8"),
				"hint", "upgrade it to a full dependency with `poetry add flake8`",
			),
			goldenName: "error_sentinel_metadata",
		},
		{
			name: "metadata on foreign error",
			err: zerr.With(
				zerr.Wrap(zerr.With(errors.New("exit status 1"), "exit_code", 1), "command failed"),
				"command", "poetry install --sync",
			),
			goldenName: "error_foreign_metadata",
		},
		{
			name: "joined worker errors",
			err: zerr.Wrap(errors.Join(
				zerr.With(zerr.Wrap(domain.ErrToolNotFound, "pdm"), "worker", "w1"),
				zerr.With(zerr.Wrap(domain.ErrInstallationFailed, "exit status 1"), "worker", "w2"),
			), domain.ErrConvergenceFailed.Error()),
			goldenName: "error_joined",
		},
		{
			name: "stdlib chain",
			err: fmt.Errorf("failed to reach coordinator: %w",
				fmt.Errorf("dial tcp 127.0.0.1:8786: %w", errors.New("connection refused"))),
			goldenName: "error_chain_stdlib",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)

	assert.Empty(t, buf.String())
}

func TestLogger_SetJSON_WithErrorChain(t *testing.T) {
	err := zerr.With(zerr.Wrap(errors.New("connection refused"), "worker unavailable"), "worker", "9c2f")

	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.Error(err)

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"error"`)
	assert.Contains(t, out, "worker unavailable")
	assert.Contains(t, out, "9c2f")
	assert.NotContains(t, out, "✗")
}

func TestLogger_FormatSwitching(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Error(errors.New("pretty"))
	pretty := buf.String()
	buf.Reset()

	lg.SetJSON(true)
	lg.Error(errors.New("json"))
	jsonOut := buf.String()
	buf.Reset()

	lg.SetJSON(false)
	lg.Error(errors.New("pretty again"))
	prettyAgain := buf.String()

	assert.Contains(t, pretty, "✗")
	assert.Contains(t, jsonOut, `"error"`)
	assert.NotContains(t, jsonOut, "✗")
	assert.Contains(t, prettyAgain, "✗")
}

func TestLogger_SetOutput_Nil(t *testing.T) {
	require.NotPanics(t, func() {
		lg := logger.New().(*logger.Logger)
		lg.SetOutput(nil)
	})
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, _ := newTestLogger(t)

	var wg sync.WaitGroup
	wg.Go(func() { lg.Info("concurrent info") })
	wg.Go(func() { lg.Warn("concurrent warn") })
	wg.Go(func() { lg.Error(errors.New("concurrent error")) })
	wg.Go(func() { lg.SetJSON(true) })
	wg.Go(func() { lg.SetOutput(&bytes.Buffer{}) })
	wg.Wait()
}
