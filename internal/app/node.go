package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockship/internal/adapters/compress"
	"go.trai.ch/lockship/internal/adapters/config"
	"go.trai.ch/lockship/internal/adapters/linear"
	"go.trai.ch/lockship/internal/adapters/lockfile"
	"go.trai.ch/lockship/internal/adapters/logger"
	"go.trai.ch/lockship/internal/adapters/metrics"
	"go.trai.ch/lockship/internal/adapters/project"
	"go.trai.ch/lockship/internal/adapters/shell"
	"go.trai.ch/lockship/internal/adapters/telemetry"
	"go.trai.ch/lockship/internal/adapters/watcher"
	"go.trai.ch/lockship/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			project.NodeID,
			lockfile.NodeID,
			compress.NodeID,
			shell.NodeID,
			watcher.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			linear.NodeID,
			metrics.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{
				App:    app,
				Logger: log,
			}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	projects, err := graft.Dep[ports.ProjectLoader](ctx)
	if err != nil {
		return nil, err
	}

	parser, err := graft.Dep[ports.LockfileParser](ctx)
	if err != nil {
		return nil, err
	}

	compressor, err := graft.Dep[ports.Compressor](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[*telemetry.OTelTracer](ctx)
	if err != nil {
		return nil, err
	}

	renderer, err := graft.Dep[*linear.Renderer](ctx)
	if err != nil {
		return nil, err
	}

	m, err := graft.Dep[*metrics.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, projects, parser, compressor, executor, w, log, tracer, renderer, m), nil
}
