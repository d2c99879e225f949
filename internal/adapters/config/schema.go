package config

import "time"

// File represents the structure of lockship.yaml.
// Pointer fields distinguish "unset" from an explicit zero value.
type File struct {
	Coordinator string         `yaml:"coordinator" validate:"omitempty,hostname_port"`
	Required    []string       `yaml:"required" validate:"omitempty,dive,required"`
	Optional    []string       `yaml:"optional" validate:"omitempty,dive,required"`
	Compression string         `yaml:"compression" validate:"omitempty,oneof=zstd lz4 none"`
	Settle      *time.Duration `yaml:"settle_timeout" validate:"omitempty,gte=0"`
	Poll        *time.Duration `yaml:"poll_interval" validate:"omitempty,gt=0"`
	MaxRounds   *int           `yaml:"max_rounds" validate:"omitempty,gte=1,lte=1000"`
	Agent       *AgentDTO      `yaml:"agent"`
	Server      *ServerDTO     `yaml:"coordinator_server"`
}

// AgentDTO is the agent section of lockship.yaml.
type AgentDTO struct {
	ID           string         `yaml:"id" validate:"omitempty,max=128"`
	Listen       string         `yaml:"listen" validate:"omitempty,listen_addr"`
	Advertise    string         `yaml:"advertise" validate:"omitempty,hostname_port"`
	WorkDir      string         `yaml:"workdir"`
	Command      []string       `yaml:"command" validate:"omitempty,dive,required"`
	PTY          *bool          `yaml:"pty"`
	Heartbeat    *time.Duration `yaml:"heartbeat" validate:"omitempty,gt=0"`
	StopGrace    *time.Duration `yaml:"stop_grace" validate:"omitempty,gte=0"`
	PythonPrefix string         `yaml:"python_prefix" validate:"omitempty,startswith=/"`
}

// ServerDTO is the coordinator_server section of lockship.yaml.
type ServerDTO struct {
	Listen        string         `yaml:"listen" validate:"omitempty,listen_addr"`
	MetricsAddr   string         `yaml:"metrics_addr" validate:"omitempty,listen_addr"`
	WorkerTimeout *time.Duration `yaml:"worker_timeout" validate:"omitempty,gt=0"`
}
