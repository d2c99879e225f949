// Package app implements the application layer for lockship.
package app

import (
	"context"
	"io"
	"net"
	"os"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/lockship/internal/adapters/detector"
	"go.trai.ch/lockship/internal/adapters/linear"
	"go.trai.ch/lockship/internal/adapters/metrics"
	"go.trai.ch/lockship/internal/adapters/rpc"
	"go.trai.ch/lockship/internal/adapters/telemetry"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/lockship/internal/engine/reconciler"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	projects     ports.ProjectLoader
	parser       ports.LockfileParser
	compressor   ports.Compressor
	executor     ports.Executor
	watcher      ports.Watcher
	logger       ports.Logger
	tracer       *telemetry.OTelTracer
	renderer     *linear.Renderer
	metrics      *metrics.Metrics

	stdout      io.Writer
	dialOptions []grpc.DialOption
	listen      func(address string) (net.Listener, error)
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	projects ports.ProjectLoader,
	parser ports.LockfileParser,
	compressor ports.Compressor,
	executor ports.Executor,
	watcher ports.Watcher,
	log ports.Logger,
	tracer *telemetry.OTelTracer,
	renderer *linear.Renderer,
	m *metrics.Metrics,
) *App {
	return &App{
		configLoader: loader,
		projects:     projects,
		parser:       parser,
		compressor:   compressor,
		executor:     executor,
		watcher:      watcher,
		logger:       log,
		tracer:       tracer,
		renderer:     renderer,
		metrics:      m,
		stdout:       os.Stdout,
		listen:       rpc.Listen,
	}
}

// WithStdout redirects command output, such as the env listing.
func (a *App) WithStdout(w io.Writer) *App {
	a.stdout = w
	return a
}

// WithDialOptions adds gRPC dial options to every connection the App opens.
// This is primarily used for testing with in-memory listeners.
func (a *App) WithDialOptions(opts ...grpc.DialOption) *App {
	a.dialOptions = append(a.dialOptions, opts...)
	return a
}

// WithListener replaces how servers open their listeners.
// This is primarily used for testing with in-memory listeners.
func (a *App) WithListener(listen func(address string) (net.Listener, error)) *App {
	a.listen = listen
	return a
}

func (a *App) loadConfig(dir string) (domain.Config, error) {
	cfg, err := a.configLoader.Load(dir)
	if err != nil {
		return domain.Config{}, zerr.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

// plan loads the project in dir and reconciles its lockfile with the
// configured package sets.
func (a *App) plan(dir string, cfg domain.Config) (*domain.Project, domain.InstallPlan, error) {
	project, err := a.projects.Load(dir)
	if err != nil {
		return nil, domain.InstallPlan{}, err
	}

	locked, err := a.parser.Parse(project.Backend, project.Lockfile)
	if err != nil {
		return nil, domain.InstallPlan{}, err
	}

	plan, err := reconciler.Reconcile(reconciler.Request{
		Backend:   project.Backend,
		Required:  domain.NewPackageSet(cfg.Required...),
		Optional:  domain.NewPackageSet(cfg.Optional...),
		Locked:    locked,
		Overrides: project.Overrides,
	})
	if err != nil {
		return nil, domain.InstallPlan{}, err
	}
	return project, plan, nil
}

// startTelemetry routes convergence spans to the renderer. The returned
// function flushes pending output.
func (a *App) startTelemetry(ctx context.Context, color string) (ports.Tracer, func()) {
	if detector.ResolveMode(detector.DetectEnvironment(), color) == detector.ModePlain {
		a.renderer.WithPlainOutput()
	}
	_ = a.renderer.Start(ctx)

	bridge := telemetry.NewBridge(a.renderer)
	tp := setupOTel(bridge)
	tracer := a.tracer.WithTracerProvider(tp).WithRenderer(a.renderer).WithOutput(bridge.Output())

	return tracer, func() {
		_ = tracer.Shutdown(ctx)
		_ = tp.Shutdown(context.WithoutCancel(ctx))
		_ = a.renderer.Stop()
	}
}

// setupOTel configures the OpenTelemetry SDK with the renderer bridge.
func setupOTel(bridge *telemetry.Bridge) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)
	otel.SetTracerProvider(tp)
	return tp
}
