package rpc

import (
	"time"

	"go.trai.ch/lockship/internal/core/domain"
)

// MaxMessageSize bounds a single message. An installer carries two payloads
// of up to 64 MiB each.
const MaxMessageSize = 160 << 20

// Installer is the wire form of domain.Installer.
type Installer struct {
	Role        string    `cbor:"role"`
	Backend     string    `cbor:"backend"`
	Codec       string    `cbor:"codec"`
	Project     []byte    `cbor:"project"`
	Lockfile    []byte    `cbor:"lockfile"`
	Fingerprint uint64    `cbor:"fingerprint"`
	CreatedAt   time.Time `cbor:"created_at"`
}

// WorkerInfo is the wire form of domain.WorkerInfo.
type WorkerInfo struct {
	ID       string    `cbor:"id"`
	Address  string    `cbor:"address"`
	State    string    `cbor:"state"`
	JoinedAt time.Time `cbor:"joined_at"`
	LastSeen time.Time `cbor:"last_seen"`
}

// SetupResult is the wire form of domain.SetupResult.
type SetupResult struct {
	Worker      string `cbor:"worker"`
	Fingerprint uint64 `cbor:"fingerprint"`
	Restart     bool   `cbor:"restart"`
	Skipped     bool   `cbor:"skipped"`
	Added       int    `cbor:"added"`
	Updated     int    `cbor:"updated"`
	Removed     int    `cbor:"removed"`
	Output      string `cbor:"output"`
}

type (
	// JoinRequest announces a worker and the address its agent serves on.
	JoinRequest struct {
		Worker  string `cbor:"worker"`
		Address string `cbor:"address"`
	}
	// JoinResponse carries the installers registered at join time.
	JoinResponse struct {
		Installers []Installer `cbor:"installers"`
	}

	// HeartbeatRequest reports a worker's state.
	HeartbeatRequest struct {
		Worker string `cbor:"worker"`
		State  string `cbor:"state"`
	}

	// LeaveRequest removes a worker.
	LeaveRequest struct {
		Worker string `cbor:"worker"`
	}

	// WorkersRequest lists workers.
	WorkersRequest struct{}
	// WorkersResponse lists workers.
	WorkersResponse struct {
		Workers []WorkerInfo `cbor:"workers"`
	}

	// RegisterInstallerRequest fills the installer slot.
	RegisterInstallerRequest struct {
		Installer Installer `cbor:"installer"`
	}

	// InstallersRequest lists the registered installers.
	InstallersRequest struct{}
	// InstallersResponse lists the registered installers.
	InstallersResponse struct {
		Installers []Installer `cbor:"installers"`
	}

	// SetupRequest runs an installer. Worker is empty when sent to an agent.
	SetupRequest struct {
		Worker    string    `cbor:"worker,omitempty"`
		Installer Installer `cbor:"installer"`
	}
	// SetupResponse carries the setup outcome.
	SetupResponse struct {
		Result SetupResult `cbor:"result"`
	}

	// RestartRequest restarts a worker's process.
	RestartRequest struct {
		Worker string `cbor:"worker,omitempty"`
	}

	// AppliedRequest asks whether a fingerprint was applied.
	AppliedRequest struct {
		Worker      string `cbor:"worker,omitempty"`
		Fingerprint uint64 `cbor:"fingerprint"`
	}
	// AppliedResponse answers an AppliedRequest.
	AppliedResponse struct {
		Applied bool `cbor:"applied"`
	}

	// StatusRequest asks an agent for its worker's identity and state.
	StatusRequest struct{}
	// StatusResponse describes an agent's worker.
	StatusResponse struct {
		Worker string `cbor:"worker"`
		State  string `cbor:"state"`
	}

	// Empty is returned by calls without a result.
	Empty struct{}
)

func toInstaller(inst *domain.Installer) Installer {
	return Installer{
		Role:        inst.Role,
		Backend:     inst.Backend.String(),
		Codec:       string(inst.Codec),
		Project:     inst.Project,
		Lockfile:    inst.Lockfile,
		Fingerprint: uint64(inst.Fingerprint),
		CreatedAt:   inst.CreatedAt,
	}
}

func fromInstaller(m Installer) (*domain.Installer, error) {
	backend, err := domain.ParseBackend(m.Backend)
	if err != nil {
		return nil, err
	}
	return &domain.Installer{
		Role:        m.Role,
		Backend:     backend,
		Codec:       domain.Codec(m.Codec),
		Project:     m.Project,
		Lockfile:    m.Lockfile,
		Fingerprint: domain.Fingerprint(m.Fingerprint),
		CreatedAt:   m.CreatedAt,
	}, nil
}

func toInstallers(insts []*domain.Installer) []Installer {
	out := make([]Installer, len(insts))
	for i, inst := range insts {
		out[i] = toInstaller(inst)
	}
	return out
}

func fromInstallers(ms []Installer) ([]*domain.Installer, error) {
	out := make([]*domain.Installer, 0, len(ms))
	for _, m := range ms {
		inst, err := fromInstaller(m)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

func toWorkerInfo(w domain.WorkerInfo) WorkerInfo {
	return WorkerInfo{
		ID:       string(w.ID),
		Address:  w.Address,
		State:    string(w.State),
		JoinedAt: w.JoinedAt,
		LastSeen: w.LastSeen,
	}
}

func fromWorkerInfo(m WorkerInfo) domain.WorkerInfo {
	return domain.WorkerInfo{
		ID:       domain.WorkerID(m.ID),
		Address:  m.Address,
		State:    domain.WorkerState(m.State),
		JoinedAt: m.JoinedAt,
		LastSeen: m.LastSeen,
	}
}

func toSetupResult(r domain.SetupResult) SetupResult {
	return SetupResult{
		Worker:      string(r.Worker),
		Fingerprint: uint64(r.Fingerprint),
		Restart:     r.Restart,
		Skipped:     r.Skipped,
		Added:       r.Changes.Added,
		Updated:     r.Changes.Updated,
		Removed:     r.Changes.Removed,
		Output:      r.Output,
	}
}

func fromSetupResult(m SetupResult) domain.SetupResult {
	return domain.SetupResult{
		Worker:      domain.WorkerID(m.Worker),
		Fingerprint: domain.Fingerprint(m.Fingerprint),
		Restart:     m.Restart,
		Skipped:     m.Skipped,
		Changes: domain.Changes{
			Added:   m.Added,
			Updated: m.Updated,
			Removed: m.Removed,
		},
		Output: m.Output,
	}
}
