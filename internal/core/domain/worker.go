package domain

import "time"

// WorkerID identifies a worker process in the cluster.
type WorkerID string

// WorkerState is the lifecycle state a worker reports to the coordinator.
type WorkerState string

const (
	// WorkerJoining is a worker that has connected but not finished startup.
	WorkerJoining WorkerState = "joining"
	// WorkerReady is a worker that accepts work.
	WorkerReady WorkerState = "ready"
	// WorkerInstalling is a worker running an installer.
	WorkerInstalling WorkerState = "installing"
	// WorkerRestarting is a worker whose process is being restarted.
	WorkerRestarting WorkerState = "restarting"
	// WorkerGone is a worker that left or stopped heartbeating.
	WorkerGone WorkerState = "gone"
)

// Settled reports whether a worker in this state can answer probes accurately.
func (s WorkerState) Settled() bool {
	return s == WorkerReady
}

// WorkerInfo is the coordinator's view of a worker.
type WorkerInfo struct {
	ID       WorkerID
	Address  string
	State    WorkerState
	JoinedAt time.Time
	LastSeen time.Time
}

// Changes are the package operations an install step reported.
type Changes struct {
	Added   int
	Updated int
	Removed int
}

// Total returns the number of reported operations.
func (c Changes) Total() int {
	return c.Added + c.Updated + c.Removed
}

// SetupResult is the outcome of running an installer on a worker.
type SetupResult struct {
	Worker      WorkerID
	Fingerprint Fingerprint
	// Restart is set when the worker process must restart to pick up changes.
	Restart bool
	// Skipped is set when the worker had already applied this fingerprint.
	Skipped bool
	Changes Changes
	Output  string
}
