package rpc

import (
	"context"

	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/lockship/internal/engine/coordinator"
)

// coordinatorHandler serves lockship.v1.Coordinator from a coordinator.Service.
type coordinatorHandler struct {
	cluster *coordinator.Service
}

var _ CoordinatorHandler = (*coordinatorHandler)(nil)

func (h *coordinatorHandler) Join(_ context.Context, req *JoinRequest) (*JoinResponse, error) {
	installers, err := h.cluster.Registry().Join(domain.WorkerID(req.Worker), req.Address)
	if err != nil {
		return nil, err
	}
	return &JoinResponse{Installers: toInstallers(installers)}, nil
}

func (h *coordinatorHandler) Heartbeat(_ context.Context, req *HeartbeatRequest) (*Empty, error) {
	err := h.cluster.Registry().Heartbeat(domain.WorkerID(req.Worker), domain.WorkerState(req.State))
	return &Empty{}, err
}

func (h *coordinatorHandler) Leave(_ context.Context, req *LeaveRequest) (*Empty, error) {
	return &Empty{}, h.cluster.Registry().Leave(domain.WorkerID(req.Worker))
}

func (h *coordinatorHandler) Workers(ctx context.Context, _ *WorkersRequest) (*WorkersResponse, error) {
	workers, err := h.cluster.Workers(ctx)
	if err != nil {
		return nil, err
	}
	resp := &WorkersResponse{Workers: make([]WorkerInfo, len(workers))}
	for i, w := range workers {
		resp.Workers[i] = toWorkerInfo(w)
	}
	return resp, nil
}

func (h *coordinatorHandler) RegisterInstaller(ctx context.Context, req *RegisterInstallerRequest) (*Empty, error) {
	inst, err := fromInstaller(req.Installer)
	if err != nil {
		return nil, err
	}
	return &Empty{}, h.cluster.RegisterInstaller(ctx, inst)
}

func (h *coordinatorHandler) Installers(ctx context.Context, _ *InstallersRequest) (*InstallersResponse, error) {
	installers, err := h.cluster.Installers(ctx)
	if err != nil {
		return nil, err
	}
	return &InstallersResponse{Installers: toInstallers(installers)}, nil
}

func (h *coordinatorHandler) Setup(ctx context.Context, req *SetupRequest) (*SetupResponse, error) {
	inst, err := fromInstaller(req.Installer)
	if err != nil {
		return nil, err
	}
	result, err := h.cluster.Setup(ctx, domain.WorkerID(req.Worker), inst)
	if err != nil {
		return nil, err
	}
	return &SetupResponse{Result: toSetupResult(result)}, nil
}

func (h *coordinatorHandler) Restart(ctx context.Context, req *RestartRequest) (*Empty, error) {
	return &Empty{}, h.cluster.Restart(ctx, domain.WorkerID(req.Worker))
}

func (h *coordinatorHandler) Applied(ctx context.Context, req *AppliedRequest) (*AppliedResponse, error) {
	applied, err := h.cluster.Applied(ctx, domain.WorkerID(req.Worker), domain.Fingerprint(req.Fingerprint))
	if err != nil {
		return nil, err
	}
	return &AppliedResponse{Applied: applied}, nil
}

// workerHandler serves lockship.v1.Worker from the agent's worker.
type workerHandler struct {
	worker ports.Worker
}

var _ WorkerHandler = (*workerHandler)(nil)

func (h *workerHandler) Setup(ctx context.Context, req *SetupRequest) (*SetupResponse, error) {
	inst, err := fromInstaller(req.Installer)
	if err != nil {
		return nil, err
	}
	result, err := h.worker.Setup(ctx, inst)
	if err != nil {
		return nil, err
	}
	return &SetupResponse{Result: toSetupResult(result)}, nil
}

func (h *workerHandler) Restart(ctx context.Context, _ *RestartRequest) (*Empty, error) {
	return &Empty{}, h.worker.Restart(ctx)
}

func (h *workerHandler) Applied(ctx context.Context, req *AppliedRequest) (*AppliedResponse, error) {
	applied, err := h.worker.Applied(ctx, domain.Fingerprint(req.Fingerprint))
	if err != nil {
		return nil, err
	}
	return &AppliedResponse{Applied: applied}, nil
}

func (h *workerHandler) Status(ctx context.Context, _ *StatusRequest) (*StatusResponse, error) {
	state, err := h.worker.State(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{Worker: string(h.worker.ID()), State: string(state)}, nil
}
