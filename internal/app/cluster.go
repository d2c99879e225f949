package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.trai.ch/lockship/internal/adapters/installer"
	"go.trai.ch/lockship/internal/adapters/rpc"
	"go.trai.ch/lockship/internal/adapters/shell"
	"go.trai.ch/lockship/internal/adapters/supervisor"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/engine/agent"
	"go.trai.ch/lockship/internal/engine/coordinator"
	"go.trai.ch/lockship/internal/engine/worker"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// CoordinatorOptions configuration for the ServeCoordinator method.
type CoordinatorOptions struct {
	// Dir is where the configuration lookup starts.
	Dir string
	// Listen overrides the configured listen address.
	Listen string
	// MetricsAddr overrides the configured metrics address.
	MetricsAddr string
}

// ServeCoordinator runs the coordinator until ctx is done.
func (a *App) ServeCoordinator(ctx context.Context, opts CoordinatorOptions) error {
	cfg, err := a.loadConfig(dirOrCwd(opts.Dir))
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	if opts.MetricsAddr != "" {
		cfg.Server.MetricsAddr = opts.MetricsAddr
	}

	registry := coordinator.NewRegistry(a.logger, a.metrics, cfg.Server.WorkerTimeout)
	dialer := rpc.NewDialer(a.dialOptions...)
	defer func() { _ = dialer.Close() }()

	server := rpc.NewServer(a.logger)
	server.RegisterCoordinator(coordinator.NewService(registry, dialer, a.metrics))

	lis, err := a.listen(cfg.Server.Listen)
	if err != nil {
		return err
	}
	a.logger.Info("coordinator listening on " + lis.Addr().String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		registry.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return server.Serve(ctx, lis)
	})
	if cfg.Server.MetricsAddr != "" {
		a.logger.Info("metrics available at http://" + cfg.Server.MetricsAddr + "/metrics")
		g.Go(func() error {
			return a.metrics.Serve(ctx, cfg.Server.MetricsAddr)
		})
	}

	return ignoreCanceled(g.Wait())
}

// AgentOptions configuration for the RunAgent method.
type AgentOptions struct {
	// Dir is where the configuration lookup starts.
	Dir string
	// ID overrides the configured worker id. A random one is used when both are empty.
	ID string
	// Coordinator overrides the configured coordinator address.
	Coordinator string
	// Listen overrides the address the worker API is served on.
	Listen string
	// Advertise overrides the address the coordinator reaches the agent at.
	Advertise string
	// WorkDir overrides the directory installers are applied in.
	WorkDir string
	// Command overrides the supervised worker command.
	Command []string
}

// RunAgent serves one worker, keeps it registered with the coordinator and
// supervises its process until ctx is done.
func (a *App) RunAgent(ctx context.Context, opts AgentOptions) error {
	cfg, err := a.loadConfig(dirOrCwd(opts.Dir))
	if err != nil {
		return err
	}
	applyAgentOptions(&cfg, opts)

	id := domain.WorkerID(cfg.Agent.ID)
	if id == "" {
		id = domain.WorkerID(uuid.NewString())
	}

	runner := installer.NewRunner(
		a.executor,
		a.compressor,
		a.logger,
		cfg.Agent.WorkDir,
		installer.WithPythonPrefix(cfg.Agent.PythonPrefix),
	)
	proc := supervisor.New(
		shell.NewExecutor(a.logger, shell.WithPTY(cfg.Agent.PTY), shell.WithStopGrace(cfg.Agent.StopGrace)),
		a.logger,
		workerCommand(cfg.Agent.Command),
	)
	w, err := worker.New(id, runner, proc, a.logger, worker.DefaultHistorySize)
	if err != nil {
		return err
	}

	lis, err := a.listen(cfg.Agent.Listen)
	if err != nil {
		return err
	}
	address := cfg.Agent.Advertise
	if address == "" {
		address = lis.Addr().String()
	}

	client, err := rpc.NewClusterClient(cfg.Coordinator, a.dialOptions...)
	if err != nil {
		_ = lis.Close()
		return err
	}
	defer func() { _ = client.Close() }()

	if err := proc.Start(ctx); err != nil {
		_ = lis.Close()
		return err
	}
	defer func() {
		if err := proc.Stop(context.WithoutCancel(ctx)); err != nil {
			a.logger.Error(err)
		}
	}()

	server := rpc.NewServer(a.logger)
	server.RegisterWorker(w)
	a.logger.Info("worker " + string(id) + " serving on " + address)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(ctx, lis)
	})
	g.Go(func() error {
		err := agent.New(id, address, client, w, a.logger, cfg.Agent.Heartbeat).Run(ctx)
		if err != nil {
			return zerr.With(err, "coordinator", cfg.Coordinator)
		}
		// The agent only returns cleanly once ctx is done.
		return ctx.Err()
	})

	return ignoreCanceled(g.Wait())
}

func applyAgentOptions(cfg *domain.Config, opts AgentOptions) {
	if opts.ID != "" {
		cfg.Agent.ID = opts.ID
	}
	if opts.Coordinator != "" {
		cfg.Coordinator = opts.Coordinator
	}
	if opts.Listen != "" {
		cfg.Agent.Listen = opts.Listen
	}
	if opts.Advertise != "" {
		cfg.Agent.Advertise = opts.Advertise
	}
	if opts.WorkDir != "" {
		cfg.Agent.WorkDir = opts.WorkDir
	}
	if len(opts.Command) > 0 {
		cfg.Agent.Command = opts.Command
	}
}

// workerCommand builds the supervised command. An empty command line
// supervises nothing.
func workerCommand(argv []string) *domain.Command {
	if len(argv) == 0 {
		return nil
	}
	return &domain.Command{
		Name: "worker",
		Path: argv[0],
		Args: argv[1:],
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
