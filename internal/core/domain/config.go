package domain

import "time"

const (
	// DefaultCoordinatorAddress is where clients and agents reach the coordinator.
	DefaultCoordinatorAddress = "127.0.0.1:8786"
	// DefaultAgentListen is the address an agent serves its worker API on.
	DefaultAgentListen = "127.0.0.1:0"
	// DefaultSettleTimeout bounds how long convergence waits for workers to settle.
	DefaultSettleTimeout = 5 * time.Minute
	// DefaultPollInterval is how often worker states are polled while settling.
	DefaultPollInterval = 250 * time.Millisecond
	// DefaultMaxRounds bounds the number of probe and repair rounds.
	DefaultMaxRounds = 10
	// DefaultHeartbeat is how often agents heartbeat the coordinator.
	DefaultHeartbeat = 2 * time.Second
	// DefaultWorkerTimeout is how long the coordinator waits for a heartbeat before dropping a worker.
	DefaultWorkerTimeout = 10 * time.Second
	// DefaultStopGrace is how long a supervised process gets between SIGTERM and SIGKILL.
	DefaultStopGrace = 5 * time.Second
)

// Config is the resolved lockship configuration.
type Config struct {
	Coordinator string
	Required    []string
	Optional    []string
	Compression Codec
	Convergence ConvergenceConfig
	Agent       AgentConfig
	Server      ServerConfig
}

// ConvergenceConfig bounds the convergence loop.
type ConvergenceConfig struct {
	// SettleTimeout of zero waits forever.
	SettleTimeout time.Duration
	PollInterval  time.Duration
	MaxRounds     int
}

// AgentConfig configures a worker agent.
type AgentConfig struct {
	ID           string
	Listen       string
	Advertise    string
	WorkDir      string
	Command      []string
	PTY          bool
	Heartbeat    time.Duration
	StopGrace    time.Duration
	PythonPrefix string
}

// ServerConfig configures the coordinator server.
type ServerConfig struct {
	Listen        string
	MetricsAddr   string
	WorkerTimeout time.Duration
}

// DefaultConfig returns the configuration used when no lockship.yaml exists.
func DefaultConfig() Config {
	return Config{
		Coordinator: DefaultCoordinatorAddress,
		Required:    append([]string(nil), DefaultRequiredPackages...),
		Optional:    append([]string(nil), DefaultOptionalPackages...),
		Compression: CodecZstd,
		Convergence: ConvergenceConfig{
			SettleTimeout: DefaultSettleTimeout,
			PollInterval:  DefaultPollInterval,
			MaxRounds:     DefaultMaxRounds,
		},
		Agent: AgentConfig{
			Listen:    DefaultAgentListen,
			WorkDir:   DefaultWorkDir(),
			Heartbeat: DefaultHeartbeat,
			StopGrace: DefaultStopGrace,
		},
		Server: ServerConfig{
			Listen:        DefaultCoordinatorAddress,
			WorkerTimeout: DefaultWorkerTimeout,
		},
	}
}
