// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/lockship/internal/adapters/compress"
	_ "go.trai.ch/lockship/internal/adapters/config"
	_ "go.trai.ch/lockship/internal/adapters/linear"
	_ "go.trai.ch/lockship/internal/adapters/lockfile"
	_ "go.trai.ch/lockship/internal/adapters/logger"
	_ "go.trai.ch/lockship/internal/adapters/metrics"
	_ "go.trai.ch/lockship/internal/adapters/project"
	_ "go.trai.ch/lockship/internal/adapters/shell"
	_ "go.trai.ch/lockship/internal/adapters/telemetry"
	_ "go.trai.ch/lockship/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/lockship/internal/app"
)
