package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	coordinatorService = "lockship.v1.Coordinator"
	workerService      = "lockship.v1.Worker"
)

// CoordinatorHandler is the server API of lockship.v1.Coordinator.
type CoordinatorHandler interface {
	Join(ctx context.Context, req *JoinRequest) (*JoinResponse, error)
	Heartbeat(ctx context.Context, req *HeartbeatRequest) (*Empty, error)
	Leave(ctx context.Context, req *LeaveRequest) (*Empty, error)
	Workers(ctx context.Context, req *WorkersRequest) (*WorkersResponse, error)
	RegisterInstaller(ctx context.Context, req *RegisterInstallerRequest) (*Empty, error)
	Installers(ctx context.Context, req *InstallersRequest) (*InstallersResponse, error)
	Setup(ctx context.Context, req *SetupRequest) (*SetupResponse, error)
	Restart(ctx context.Context, req *RestartRequest) (*Empty, error)
	Applied(ctx context.Context, req *AppliedRequest) (*AppliedResponse, error)
}

// WorkerHandler is the server API of lockship.v1.Worker, served by agents.
type WorkerHandler interface {
	Setup(ctx context.Context, req *SetupRequest) (*SetupResponse, error)
	Restart(ctx context.Context, req *RestartRequest) (*Empty, error)
	Applied(ctx context.Context, req *AppliedRequest) (*AppliedResponse, error)
	Status(ctx context.Context, req *StatusRequest) (*StatusResponse, error)
}

var coordinatorDesc = grpc.ServiceDesc{
	ServiceName: coordinatorService,
	HandlerType: (*CoordinatorHandler)(nil),
	Methods: []grpc.MethodDesc{
		method(coordinatorService, "Join", CoordinatorHandler.Join),
		method(coordinatorService, "Heartbeat", CoordinatorHandler.Heartbeat),
		method(coordinatorService, "Leave", CoordinatorHandler.Leave),
		method(coordinatorService, "Workers", CoordinatorHandler.Workers),
		method(coordinatorService, "RegisterInstaller", CoordinatorHandler.RegisterInstaller),
		method(coordinatorService, "Installers", CoordinatorHandler.Installers),
		method(coordinatorService, "Setup", CoordinatorHandler.Setup),
		method(coordinatorService, "Restart", CoordinatorHandler.Restart),
		method(coordinatorService, "Applied", CoordinatorHandler.Applied),
	},
}

var workerDesc = grpc.ServiceDesc{
	ServiceName: workerService,
	HandlerType: (*WorkerHandler)(nil),
	Methods: []grpc.MethodDesc{
		method(workerService, "Setup", WorkerHandler.Setup),
		method(workerService, "Restart", WorkerHandler.Restart),
		method(workerService, "Applied", WorkerHandler.Applied),
		method(workerService, "Status", WorkerHandler.Status),
	},
}

// method builds the descriptor of a unary method served by an H.
func method[H, Req, Resp any](
	service, name string,
	fn func(H, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	full := fullMethod(service, name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(
			srv any,
			ctx context.Context,
			dec func(any) error,
			interceptor grpc.UnaryServerInterceptor,
		) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, req any) (any, error) {
				out, err := fn(srv.(H), ctx, req.(*Req))
				if err != nil {
					return nil, toStatus(ctx, err)
				}
				return out, nil
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, call)
		},
	}
}

func fullMethod(service, name string) string {
	return "/" + service + "/" + name
}
