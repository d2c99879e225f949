package rpc

import (
	"context"
	"errors"
	"net"

	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/lockship/internal/engine/coordinator"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Server serves the lockship gRPC services.
type Server struct {
	grpcServer *grpc.Server
	logger     ports.Logger
}

// NewServer creates a new Server. Register services before calling Serve.
func NewServer(logger ports.Logger) *Server {
	s := &Server{logger: logger}
	s.grpcServer = grpc.NewServer(
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
		grpc.ChainUnaryInterceptor(s.logFailures),
	)
	return s
}

// RegisterCoordinator serves lockship.v1.Coordinator backed by cluster.
func (s *Server) RegisterCoordinator(cluster *coordinator.Service) {
	s.grpcServer.RegisterService(&coordinatorDesc, &coordinatorHandler{cluster: cluster})
}

// RegisterWorker serves lockship.v1.Worker backed by worker.
func (s *Server) RegisterWorker(worker ports.Worker) {
	s.grpcServer.RegisterService(&workerDesc, &workerHandler{worker: worker})
}

// Listen opens a TCP listener on address.
func Listen(address string) (net.Listener, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to listen"), "address", address)
	}
	return lis, nil
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.grpcServer.GracefulStop()
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return zerr.Wrap(err, "rpc server failed")
	}
}

// Stop stops the server immediately.
func (s *Server) Stop() {
	s.grpcServer.Stop()
}

func (s *Server) logFailures(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		st := status.Convert(err)
		s.logger.Warn(info.FullMethod + ": " + st.Code().String() + ": " + st.Message())
	}
	return resp, err
}
