package ports

//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks

// Metrics records coordinator activity.
type Metrics interface {
	// InstallerRegistered counts a registration; superseded is set when it replaced another.
	InstallerRegistered(superseded bool)
	// WorkersConnected reports the number of live workers.
	WorkersConnected(n int)
	// WorkerOperation counts a proxied worker operation and its outcome.
	WorkerOperation(op string, err error)
}
