// Package supervisor keeps the worker process of an agent running and restarts it on demand.
package supervisor

import (
	"context"
	"io"
	"strconv"
	"sync"

	"go.trai.ch/lockship/internal/adapters/shell"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/zerr"
)

// Starter launches a command without waiting for it.
type Starter interface {
	Start(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) (shell.Process, error)
}

// Supervisor implements ports.Supervisor for a single child process.
type Supervisor struct {
	starter Starter
	logger  ports.Logger
	cmd     *domain.Command

	mu     sync.Mutex
	base   context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

var _ ports.Supervisor = (*Supervisor)(nil)

// New creates a Supervisor for cmd. A nil or empty command supervises nothing.
func New(starter Starter, logger ports.Logger, cmd *domain.Command) *Supervisor {
	return &Supervisor{
		starter: starter,
		logger:  logger,
		cmd:     cmd,
	}
}

// Start launches the process. It keeps running until Stop is called or ctx is done.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.base = ctx
	return s.spawn()
}

// Restart stops the process gracefully and launches it again.
func (s *Supervisor) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.base == nil {
		return zerr.Wrap(domain.ErrProcessStartFailed, "supervisor not started")
	}
	if s.cmd == nil || s.cmd.Path == "" {
		s.logger.Info("no worker command configured, nothing to restart")
		return nil
	}
	if err := s.stop(ctx); err != nil {
		return err
	}
	s.logger.Info("restarting " + s.cmd.Name)
	return s.spawn()
}

// Stop terminates the process and waits for it to exit or for ctx to end.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stop(ctx)
}

// Running reports whether the process is alive.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (s *Supervisor) spawn() error {
	if s.cmd == nil || s.cmd.Path == "" {
		return nil
	}

	ctx, cancel := context.WithCancel(s.base)
	// The executor logs every output line, stderr as warnings.
	proc, err := s.starter.Start(ctx, s.cmd, io.Discard, io.Discard)
	if err != nil {
		cancel()
		return zerr.With(zerr.Wrap(domain.ErrProcessStartFailed, err.Error()), "command", s.cmd.String())
	}
	if proc == nil {
		cancel()
		return nil
	}

	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	s.logger.Info("started " + s.cmd.Name + " (pid " + strconv.Itoa(proc.Pid()) + ")")

	go func() {
		defer close(done)
		err := proc.Wait()
		if ctx.Err() != nil {
			s.logger.Info(s.cmd.Name + " stopped")
			return
		}
		// The process exited on its own.
		s.logger.Warn(s.cmd.Name + " exited with code " + strconv.Itoa(shell.ExitCode(err)))
	}()
	return nil
}

func (s *Supervisor) stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	select {
	case <-s.done:
		s.cancel, s.done = nil, nil
		return nil
	case <-ctx.Done():
		return zerr.Wrap(ctx.Err(), "timed out waiting for worker process to stop")
	}
}
