package app

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"time"

	"go.trai.ch/lockship/internal/adapters/rpc"
	"go.trai.ch/lockship/internal/adapters/telemetry"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/lockship/internal/engine/convergence"
	"go.trai.ch/zerr"
)

// SyncOptions configuration for the Sync and Watch methods.
type SyncOptions struct {
	// Dir is where the project lookup starts.
	Dir string
	// Coordinator overrides the configured coordinator address.
	Coordinator string
	// Workers, when positive, waits for that many ready workers before registering.
	Workers int
	// Color is the --color flag: auto, always or never.
	Color string
	// Quiet drops convergence progress output.
	Quiet bool
}

// session is one client connection to a coordinator.
type session struct {
	dir     string
	cfg     domain.Config
	workers int
	driver  *convergence.Driver
}

// Sync converges every worker of the cluster to the project's lockfile.
func (a *App) Sync(ctx context.Context, opts SyncOptions) error {
	s, closeSession, err := a.openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer closeSession()

	_, err = a.sync(ctx, s)
	return err
}

// Watch syncs once, then again whenever the project descriptor or a lockfile
// changes. It returns when ctx is done.
func (a *App) Watch(ctx context.Context, opts SyncOptions) error {
	s, closeSession, err := a.openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer closeSession()

	project, err := a.projects.Load(s.dir)
	if err != nil {
		return err
	}

	files := []string{
		filepath.Join(project.Dir, domain.ProjectFileName),
		filepath.Join(project.Dir, domain.PoetryLockfileName),
		filepath.Join(project.Dir, domain.PDMLockfileName),
	}
	if err := a.watcher.Start(ctx, files...); err != nil {
		return zerr.Wrap(err, "failed to watch project")
	}
	defer func() { _ = a.watcher.Stop() }()

	last, err := a.sync(ctx, s)
	switch {
	case ctx.Err() != nil:
		return nil
	case err != nil:
		a.logger.Error(err)
	}
	a.logger.Info("watching " + project.Dir + " for changes")

	for event := range a.watcher.Events() {
		a.logger.Info(filepath.Base(event.Path) + " changed")

		fp, err := a.syncChanged(ctx, s, last)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			a.logger.Error(err)
		default:
			last = fp
		}
	}
	return nil
}

func (a *App) openSession(ctx context.Context, opts SyncOptions) (*session, func(), error) {
	dir := dirOrCwd(opts.Dir)
	cfg, err := a.loadConfig(dir)
	if err != nil {
		return nil, nil, err
	}
	if opts.Coordinator != "" {
		cfg.Coordinator = opts.Coordinator
	}

	client, err := rpc.NewClusterClient(cfg.Coordinator, a.dialOptions...)
	if err != nil {
		return nil, nil, err
	}

	var tracer ports.Tracer = telemetry.NewNoOpTracer()
	stopTelemetry := func() {}
	if !opts.Quiet {
		tracer, stopTelemetry = a.startTelemetry(ctx, opts.Color)
	}
	s := &session{
		dir:     dir,
		cfg:     cfg,
		workers: opts.Workers,
		driver:  convergence.NewDriver(client, tracer, a.logger, cfg.Convergence),
	}
	return s, func() {
		stopTelemetry()
		_ = client.Close()
	}, nil
}

// sync reconciles the project, fails fast on an uninstallable lockfile and
// registers the installer with the cluster.
func (a *App) sync(ctx context.Context, s *session) (domain.Fingerprint, error) {
	inst, err := a.installer(s)
	if err != nil {
		return 0, err
	}
	return inst.Fingerprint, a.register(ctx, s, inst)
}

// syncChanged is sync that skips the cluster when the installer is unchanged.
func (a *App) syncChanged(ctx context.Context, s *session, last domain.Fingerprint) (domain.Fingerprint, error) {
	inst, err := a.installer(s)
	if err != nil {
		return last, err
	}
	if inst.Fingerprint == last {
		a.logger.Info("installer " + last.String() + " unchanged, nothing to sync")
		return last, nil
	}
	return inst.Fingerprint, a.register(ctx, s, inst)
}

func (a *App) installer(s *session) (*domain.Installer, error) {
	project, plan, err := a.plan(s.dir, s.cfg)
	if err != nil {
		return nil, err
	}
	a.logger.Info(project.Backend.ToolName() + " project " + project.Name + ": " +
		strconv.Itoa(len(plan.InstallArgs)) + " packages, " +
		strconv.Itoa(len(plan.OverrideArgs)) + " overrides")

	return a.buildInstaller(project, s.cfg.Compression)
}

func (a *App) register(ctx context.Context, s *session, inst *domain.Installer) error {
	if s.workers > 0 {
		if err := s.driver.WaitForWorkers(ctx, s.workers); err != nil {
			return err
		}
	}
	if err := s.driver.Register(ctx, inst); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return zerr.With(zerr.Wrap(err, "sync failed"), "fingerprint", inst.Fingerprint.String())
	}
	a.logger.Info("cluster converged to " + inst.Fingerprint.String())
	return nil
}

// buildInstaller compresses the project's descriptor and lockfile into an installer.
func (a *App) buildInstaller(project *domain.Project, codec domain.Codec) (*domain.Installer, error) {
	descriptor, err := a.compressor.Compress(codec, project.Descriptor)
	if err != nil {
		return nil, zerr.With(err, "file", domain.ProjectFileName)
	}
	lockfile, err := a.compressor.Compress(codec, project.Lockfile)
	if err != nil {
		return nil, zerr.With(err, "file", project.Backend.LockfileName())
	}

	return &domain.Installer{
		Role:        domain.InstallerRole,
		Backend:     project.Backend,
		Codec:       codec,
		Project:     descriptor,
		Lockfile:    lockfile,
		Fingerprint: domain.ComputeFingerprint(project.Backend, project.Descriptor, project.Lockfile),
		CreatedAt:   time.Now().UTC(),
	}, nil
}
