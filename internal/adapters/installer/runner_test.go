package installer_test

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockship/internal/adapters/compress"
	"go.trai.ch/lockship/internal/adapters/installer"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const (
	pyproject = "[build-system]\nbuild-backend = \"poetry.core.masonry.api\"\n"
	lockfile  = "[[package]]\nname = \"dask\"\nversion = \"2022.5.2\"\n"
)

type fixture struct {
	executor *mocks.MockExecutor
	runner   *installer.Runner
	workDir  string
	home     string
}

func newFixture(t *testing.T, opts ...installer.Option) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	f := &fixture{
		executor: mocks.NewMockExecutor(ctrl),
		workDir:  filepath.Join(t.TempDir(), "work"),
		home:     t.TempDir(),
	}
	noPath := func(string) (string, error) { return "", exec.ErrNotFound }
	opts = append([]installer.Option{installer.WithHome(f.home), installer.WithLookPath(noPath)}, opts...)
	f.runner = installer.NewRunner(f.executor, compress.New(), log, f.workDir, opts...)
	return f
}

func (f *fixture) installTool(t *testing.T, name string) string {
	t.Helper()
	path := domain.UserToolPath(f.home, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	//nolint:gosec // test requires an executable file
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o700))
	return path
}

func newInstaller(t *testing.T, backend domain.Backend, codec domain.Codec) *domain.Installer {
	t.Helper()
	c := compress.New()
	project, err := c.Compress(codec, []byte(pyproject))
	require.NoError(t, err)
	lock, err := c.Compress(codec, []byte(lockfile))
	require.NoError(t, err)
	return &domain.Installer{
		Role:        domain.InstallerRole,
		Backend:     backend,
		Codec:       codec,
		Project:     project,
		Lockfile:    lock,
		Fingerprint: domain.ComputeFingerprint(backend, []byte(pyproject), []byte(lockfile)),
	}
}

func writeOutput(s string) func(context.Context, *domain.Command, io.Writer, io.Writer) error {
	return func(_ context.Context, _ *domain.Command, stdout, _ io.Writer) error {
		_, err := io.WriteString(stdout, s)
		return err
	}
}

func TestRunner_Setup_Poetry(t *testing.T) {
	f := newFixture(t)
	tool := f.installTool(t, "poetry")
	inst := newInstaller(t, domain.BackendPoetry, domain.CodecZstd)

	var got []*domain.Command
	record := func(out string) func(context.Context, *domain.Command, io.Writer, io.Writer) error {
		return func(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) error {
			got = append(got, cmd)
			return writeOutput(out)(ctx, cmd, stdout, stderr)
		}
	}
	gomock.InOrder(
		f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(record("")),
		f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(record("Package operations: 1 install, 0 updates, 0 removals\n")),
	)

	result, err := f.runner.Setup(context.Background(), inst)
	require.NoError(t, err)

	assert.True(t, result.Restart)
	assert.Equal(t, domain.Changes{Added: 1}, result.Changes)
	assert.Equal(t, inst.Fingerprint, result.Fingerprint)
	assert.Contains(t, result.Output, "Package operations")

	require.Len(t, got, 2)
	assert.Equal(t, tool, got[0].Path)
	assert.Equal(t, []string{"config", "virtualenvs.create", "false"}, got[0].Args)
	assert.Equal(t, []string{"install", "--sync", "--only", "main", "--no-root", "-n"}, got[1].Args)
	assert.Equal(t, f.workDir, got[1].Dir)

	project, err := os.ReadFile(filepath.Join(f.workDir, "pyproject.toml"))
	require.NoError(t, err)
	assert.Equal(t, pyproject, string(project))
	lock, err := os.ReadFile(filepath.Join(f.workDir, "poetry.lock"))
	require.NoError(t, err)
	assert.Equal(t, lockfile, string(lock))
}

func TestRunner_Setup_PDM(t *testing.T) {
	f := newFixture(t, installer.WithPythonPrefix("/opt/conda"))
	f.installTool(t, "pdm")
	inst := newInstaller(t, domain.BackendPDM, domain.CodecLZ4)

	var got []*domain.Command
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *domain.Command, stdout, _ io.Writer) error {
			got = append(got, cmd)
			_, err := io.WriteString(stdout, "All packages are synced to date, nothing to do.\n")
			return err
		}).Times(2)

	result, err := f.runner.Setup(context.Background(), inst)
	require.NoError(t, err)
	assert.False(t, result.Restart)

	require.Len(t, got, 2)
	assert.Equal(t, []string{"info"}, got[0].Args)
	assert.Equal(t, []string{"sync", "--clean", "--no-self", "--no-isolation"}, got[1].Args)
	for _, cmd := range got {
		assert.Equal(t, []string{"VIRTUAL_ENV=/opt/conda"}, cmd.Env)
	}
	assert.FileExists(t, filepath.Join(f.workDir, "pdm.lock"))
}

func TestRunner_Setup_PDMPrefixFromPath(t *testing.T) {
	binDir := filepath.Join(t.TempDir(), "env", "bin")
	lookPath := func(name string) (string, error) {
		if name == "python3" {
			return filepath.Join(binDir, "python3"), nil
		}
		return "", exec.ErrNotFound
	}
	f := newFixture(t, installer.WithLookPath(lookPath))
	f.installTool(t, "pdm")

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *domain.Command, _, _ io.Writer) error {
			assert.Equal(t, []string{"VIRTUAL_ENV=" + filepath.Dir(binDir)}, cmd.Env)
			return nil
		}).Times(2)

	_, err := f.runner.Setup(context.Background(), newInstaller(t, domain.BackendPDM, domain.CodecNone))
	require.NoError(t, err)
}

func TestRunner_Setup_ToolFromPath(t *testing.T) {
	lookPath := func(name string) (string, error) {
		if name == "poetry" {
			return "/usr/bin/poetry", nil
		}
		return "", exec.ErrNotFound
	}
	f := newFixture(t, installer.WithLookPath(lookPath))

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *domain.Command, _, _ io.Writer) error {
			assert.Equal(t, "/usr/bin/poetry", cmd.Path)
			return nil
		}).Times(2)

	_, err := f.runner.Setup(context.Background(), newInstaller(t, domain.BackendPoetry, domain.CodecZstd))
	require.NoError(t, err)
}

func TestRunner_Setup_ToolNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.runner.Setup(context.Background(), newInstaller(t, domain.BackendPoetry, domain.CodecZstd))
	require.ErrorIs(t, err, domain.ErrToolNotFound)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "poetry", zErr.Metadata()["tool"])

	assert.FileExists(t, filepath.Join(f.workDir, "pyproject.toml"), "payload is written before the tool lookup")
}

func TestRunner_Setup_CorruptPayload(t *testing.T) {
	f := newFixture(t)
	inst := newInstaller(t, domain.BackendPoetry, domain.CodecZstd)
	inst.Lockfile = []byte{0xff}

	_, err := f.runner.Setup(context.Background(), inst)
	require.ErrorIs(t, err, domain.ErrPayloadCorrupt)
}

func TestRunner_Setup_InstallationFailed(t *testing.T) {
	f := newFixture(t)
	f.installTool(t, "poetry")

	exitErr := exec.Command("sh", "-c", "exit 2").Run()
	require.Error(t, exitErr)

	gomock.InOrder(
		f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *domain.Command, _, stderr io.Writer) error {
				_, _ = io.WriteString(stderr, "Because analysis depends on numpy (9.9) which doesn't match any versions\n")
				return zerr.With(zerr.Wrap(exitErr, "command failed"), "exit_code", 2)
			}),
	)

	_, err := f.runner.Setup(context.Background(), newInstaller(t, domain.BackendPoetry, domain.CodecZstd))
	require.ErrorIs(t, err, domain.ErrInstallationFailed)

	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	assert.Equal(t, 2, zErr.Metadata()["exit_code"])
	assert.Contains(t, zErr.Metadata()["output"], "doesn't match any versions")
}
