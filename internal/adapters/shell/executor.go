// Package shell runs external commands for the installer and the process supervisor.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/zerr"
)

// Process represents a running command.
type Process interface {
	Pid() int
	Wait() error
}

type process struct {
	cmd    *exec.Cmd
	ioDone <-chan struct{}
	flush  func()
}

func (p *process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *process) Wait() error {
	err := p.cmd.Wait()

	// The pty copy loop ends once the child closes its side of the terminal.
	if p.ioDone != nil {
		<-p.ioDone
	}
	p.flush()

	return err
}

// Option configures an Executor.
type Option func(*Executor)

// WithPTY runs commands attached to a pseudo terminal. Stdout and stderr are merged.
func WithPTY(enabled bool) Option {
	return func(e *Executor) {
		e.pty = enabled
	}
}

// WithStopGrace sets how long a cancelled command may run after SIGTERM before it is killed.
func WithStopGrace(d time.Duration) Option {
	return func(e *Executor) {
		e.stopGrace = d
	}
}

// Executor implements ports.Executor using os/exec and pty.
type Executor struct {
	logger    ports.Logger
	pty       bool
	stopGrace time.Duration
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger, opts ...Option) *Executor {
	e := &Executor{
		logger:    logger,
		stopGrace: domain.DefaultStopGrace,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the command and returns a handle to wait for it.
// Cancelling ctx sends SIGTERM and kills the process after the stop grace period.
func (e *Executor) Start(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) (Process, error) {
	if cmd.Path == "" {
		return nil, nil
	}

	stdoutLog := &logWriter{logger: e.logger, level: "info"}
	stderrLog := &logWriter{logger: e.logger, level: "warn"}
	flush := func() {
		_ = stdoutLog.Close()
		_ = stderrLog.Close()
	}

	env := resolveEnvironment(os.Environ(), cmd.Env)

	executable := cmd.Path
	if !filepath.IsAbs(executable) {
		if lp, err := lookPath(executable, env); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args...) //nolint:gosec // commands are built by lockship
	c.Args[0] = cmd.Path
	c.Dir = cmd.Dir
	c.Env = env
	c.Cancel = func() error {
		return c.Process.Signal(syscall.SIGTERM)
	}
	c.WaitDelay = e.stopGrace

	if !e.pty {
		c.Stdout = io.MultiWriter(stdoutLog, stdout)
		c.Stderr = io.MultiWriter(stderrLog, stderr)
		if err := c.Start(); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to start command"), "command", cmd.Name)
		}
		return &process{cmd: c, flush: flush}, nil
	}

	ptmx, err := pty.Start(c)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to start pty"), "command", cmd.Name)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		_, _ = io.Copy(io.MultiWriter(stdoutLog, stdout), ptmx)
	}()

	return &process{cmd: c, ioDone: ioDone, flush: flush}, nil
}

// Execute runs the command and waits for it to complete.
func (e *Executor) Execute(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) error {
	proc, err := e.Start(ctx, cmd, stdout, stderr)
	if err != nil {
		return err
	}
	if proc == nil {
		return nil
	}

	if err := proc.Wait(); err != nil {
		return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", ExitCode(err))
	}

	return nil
}

// ExitCode extracts the exit status from an error returned by Execute.
// It returns 0 for a nil error and -1 when the process did not exit normally.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

type logWriter struct {
	logger ports.Logger
	level  string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	// PTYs may introduce \r.
	msg := strings.TrimSuffix(string(line), "\r")
	if msg == "" {
		return
	}

	if w.level == "info" {
		w.logger.Info(msg)
	} else {
		w.logger.Warn(msg)
	}
}

// allowListedEnvVars are the system environment variables inherited by commands.
// Python tooling needs the locale and interpreter variables on top of the basics.
var allowListedEnvVars = map[string]struct{}{
	"HOME":        {},
	"TERM":        {},
	"USER":        {},
	"PATH":        {},
	"LANG":        {},
	"LC_ALL":      {},
	"TMPDIR":      {},
	"VIRTUAL_ENV": {},
	"PYTHONPATH":  {},
}

// resolveEnvironment layers the command environment over the allow-listed system one.
// A PATH in the command environment is prepended to the system PATH.
func resolveEnvironment(sysEnv, cmdEnv []string) []string {
	envMap := filterSystemEnv(sysEnv)

	for _, entry := range cmdEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if sysPath, exists := envMap["PATH"]; k == "PATH" && exists && sysPath != "" {
			v = v + string(os.PathListSeparator) + sysPath
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			if _, allowed := allowListedEnvVars[k]; allowed {
				envMap[k] = v
			}
		}
	}
	return envMap
}

// lookPath searches for an executable in the directories named by PATH in env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

// IsExecutable reports whether path is a regular file with an executable bit set.
func IsExecutable(path string) bool {
	return findExecutable(path) == nil
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
