// Package installer reproduces a client's project on a worker and syncs the
// worker's interpreter with the backend tool.
package installer

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"go.trai.ch/lockship/internal/adapters/shell"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Option configures a Runner.
type Option func(*Runner)

// WithHome sets the home directory searched for user-local tools.
func WithHome(home string) Option {
	return func(r *Runner) {
		r.home = home
	}
}

// WithPythonPrefix sets the interpreter prefix PDM installs into.
func WithPythonPrefix(prefix string) Option {
	return func(r *Runner) {
		r.pythonPrefix = prefix
	}
}

// WithLookPath replaces the PATH lookup used to find tools.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(r *Runner) {
		r.lookPath = fn
	}
}

// Runner implements ports.InstallRunner.
type Runner struct {
	executor     ports.Executor
	compressor   ports.Compressor
	logger       ports.Logger
	workDir      string
	home         string
	pythonPrefix string
	lookPath     func(string) (string, error)
}

// NewRunner creates a Runner that writes payloads into workDir.
func NewRunner(
	executor ports.Executor,
	compressor ports.Compressor,
	logger ports.Logger,
	workDir string,
	opts ...Option,
) *Runner {
	home, _ := os.UserHomeDir()
	r := &Runner{
		executor:   executor,
		compressor: compressor,
		logger:     logger,
		workDir:    workDir,
		home:       home,
		lookPath:   exec.LookPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Setup writes the installer's project into the working directory, syncs the
// environment with the backend tool and decides whether the worker must restart.
func (r *Runner) Setup(ctx context.Context, inst *domain.Installer) (domain.SetupResult, error) {
	result := domain.SetupResult{Fingerprint: inst.Fingerprint}

	if err := r.writePayload(inst); err != nil {
		return result, err
	}

	tool, err := r.resolveTool(inst.Backend)
	if err != nil {
		return result, err
	}
	r.logger.Info(inst.Backend.ToolName() + " available at " + tool)

	cmds, err := r.commands(inst.Backend, tool)
	if err != nil {
		return result, err
	}

	var out syncBuffer
	for _, cmd := range cmds {
		r.logger.Info("executing " + cmd.String())
		if err := r.executor.Execute(ctx, cmd, &out, &out); err != nil {
			failed := zerr.With(zerr.Wrap(domain.ErrInstallationFailed, cmd.String()), "exit_code", shell.ExitCode(err))
			return result, zerr.With(failed, "output", out.String())
		}
	}

	result.Output = out.String()
	result.Restart, result.Changes = DecideRestart(result.Output)
	if result.Restart {
		r.logger.Info("installation complete, restart required")
	} else {
		r.logger.Info("no dependencies to install or update")
	}
	return result, nil
}

func (r *Runner) writePayload(inst *domain.Installer) error {
	if err := os.MkdirAll(r.workDir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrPayloadWriteFailed, err.Error()), "path", r.workDir)
	}

	var g errgroup.Group
	g.Go(func() error {
		return r.writeFile(domain.ProjectFileName, inst.Project)
	})
	g.Go(func() error {
		return r.writeFile(inst.Backend.LockfileName(), inst.Lockfile)
	})
	return g.Wait()
}

func (r *Runner) writeFile(name string, frame []byte) error {
	data, err := r.compressor.Decompress(frame)
	if err != nil {
		return zerr.With(err, "file", name)
	}

	path := filepath.Join(r.workDir, name)
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrPayloadWriteFailed, err.Error()), "path", path)
	}
	r.logger.Info("wrote " + path)
	return nil
}

// resolveTool prefers the user-local install over PATH.
func (r *Runner) resolveTool(backend domain.Backend) (string, error) {
	exe := backend.Executable()
	if r.home != "" {
		if p := domain.UserToolPath(r.home, exe); shell.IsExecutable(p) {
			return p, nil
		}
	}
	if p, err := r.lookPath(exe); err == nil {
		return filepath.Abs(p)
	}
	err := zerr.With(zerr.Wrap(domain.ErrToolNotFound, backend.ToolName()), "tool", exe)
	return "", zerr.With(err, "searched", []string{filepath.Join("~", domain.UserBinDir), "PATH"})
}

func (r *Runner) commands(backend domain.Backend, tool string) ([]*domain.Command, error) {
	switch backend {
	case domain.BackendPoetry:
		return []*domain.Command{
			r.command("poetry-config", tool, nil, "config", "virtualenvs.create", "false"),
			r.command("poetry-install", tool, nil, "install", "--sync", "--only", "main", "--no-root", "-n"),
		}, nil
	case domain.BackendPDM:
		prefix, err := r.interpreterPrefix()
		if err != nil {
			return nil, err
		}
		// PDM installs into whatever VIRTUAL_ENV names, which is how it reaches the worker interpreter.
		env := []string{"VIRTUAL_ENV=" + prefix}
		return []*domain.Command{
			r.command("pdm-info", tool, env, "info"),
			r.command("pdm-sync", tool, env, "sync", "--clean", "--no-self", "--no-isolation"),
		}, nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedBackend, backend.String()), "backend", backend.String())
	}
}

func (r *Runner) command(name, tool string, env []string, args ...string) *domain.Command {
	return &domain.Command{
		Name: name,
		Path: tool,
		Args: args,
		Dir:  r.workDir,
		Env:  env,
	}
}

// interpreterPrefix is the prefix of the python3 on PATH unless configured.
func (r *Runner) interpreterPrefix() (string, error) {
	if r.pythonPrefix != "" {
		return r.pythonPrefix, nil
	}
	python, err := r.lookPath("python3")
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrToolNotFound, "python3"), "tool", "python3")
	}
	python, err = filepath.Abs(python)
	if err != nil {
		return "", zerr.Wrap(err, "failed to resolve interpreter path")
	}
	return filepath.Dir(filepath.Dir(python)), nil
}

// syncBuffer collects stdout and stderr of one command into a single stream.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
