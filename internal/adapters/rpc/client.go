package rpc

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/lockship/internal/engine/coordinator"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

func newConn(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(ContentSubtype),
			grpc.MaxCallRecvMsgSize(MaxMessageSize),
			grpc.MaxCallSendMsgSize(MaxMessageSize),
		),
	}, opts...)
	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create client"), "target", target)
	}
	return cc, nil
}

func invoke(ctx context.Context, cc *grpc.ClientConn, service, name string, in, out any) error {
	var trailer metadata.MD
	err := cc.Invoke(ctx, fullMethod(service, name), in, out, grpc.Trailer(&trailer))
	return fromStatus(err, trailer)
}

// ClusterClient talks to a coordinator. It implements ports.Cluster for the
// client and the membership calls agents make.
type ClusterClient struct {
	conn *grpc.ClientConn
}

var (
	_ ports.Cluster    = (*ClusterClient)(nil)
	_ ports.Membership = (*ClusterClient)(nil)
)

// NewClusterClient creates a client for the coordinator at target.
func NewClusterClient(target string, opts ...grpc.DialOption) (*ClusterClient, error) {
	cc, err := newConn(target, opts...)
	if err != nil {
		return nil, err
	}
	return &ClusterClient{conn: cc}, nil
}

// Close closes the client connection.
func (c *ClusterClient) Close() error {
	return c.conn.Close()
}

func (c *ClusterClient) call(ctx context.Context, name string, in, out any) error {
	return invoke(ctx, c.conn, coordinatorService, name, in, out)
}

// Join announces a worker and returns the installers registered so far.
func (c *ClusterClient) Join(ctx context.Context, id domain.WorkerID, address string) ([]*domain.Installer, error) {
	var resp JoinResponse
	if err := c.call(ctx, "Join", &JoinRequest{Worker: string(id), Address: address}, &resp); err != nil {
		return nil, err
	}
	return fromInstallers(resp.Installers)
}

// Heartbeat reports a worker's state.
func (c *ClusterClient) Heartbeat(ctx context.Context, id domain.WorkerID, state domain.WorkerState) error {
	return c.call(ctx, "Heartbeat", &HeartbeatRequest{Worker: string(id), State: string(state)}, &Empty{})
}

// Leave removes a worker from the cluster.
func (c *ClusterClient) Leave(ctx context.Context, id domain.WorkerID) error {
	return c.call(ctx, "Leave", &LeaveRequest{Worker: string(id)}, &Empty{})
}

// Workers lists the workers known to the coordinator.
func (c *ClusterClient) Workers(ctx context.Context) ([]domain.WorkerInfo, error) {
	var resp WorkersResponse
	if err := c.call(ctx, "Workers", &WorkersRequest{}, &resp); err != nil {
		return nil, err
	}
	workers := make([]domain.WorkerInfo, len(resp.Workers))
	for i, w := range resp.Workers {
		workers[i] = fromWorkerInfo(w)
	}
	return workers, nil
}

// RegisterInstaller fills the coordinator's installer slot.
func (c *ClusterClient) RegisterInstaller(ctx context.Context, inst *domain.Installer) error {
	if inst == nil {
		return zerr.Wrap(domain.ErrNoInstaller, "installer is nil")
	}
	return c.call(ctx, "RegisterInstaller", &RegisterInstallerRequest{Installer: toInstaller(inst)}, &Empty{})
}

// Installers returns the coordinator's registered installers.
func (c *ClusterClient) Installers(ctx context.Context) ([]*domain.Installer, error) {
	var resp InstallersResponse
	if err := c.call(ctx, "Installers", &InstallersRequest{}, &resp); err != nil {
		return nil, err
	}
	return fromInstallers(resp.Installers)
}

// Setup runs inst on one worker through the coordinator.
func (c *ClusterClient) Setup(
	ctx context.Context,
	id domain.WorkerID,
	inst *domain.Installer,
) (domain.SetupResult, error) {
	var resp SetupResponse
	req := &SetupRequest{Worker: string(id), Installer: toInstaller(inst)}
	if err := c.call(ctx, "Setup", req, &resp); err != nil {
		return domain.SetupResult{Worker: id, Fingerprint: inst.Fingerprint}, err
	}
	return fromSetupResult(resp.Result), nil
}

// Restart restarts one worker through the coordinator.
func (c *ClusterClient) Restart(ctx context.Context, id domain.WorkerID) error {
	return c.call(ctx, "Restart", &RestartRequest{Worker: string(id)}, &Empty{})
}

// Applied asks one worker through the coordinator whether fp was applied.
func (c *ClusterClient) Applied(ctx context.Context, id domain.WorkerID, fp domain.Fingerprint) (bool, error) {
	var resp AppliedResponse
	if err := c.call(ctx, "Applied", &AppliedRequest{Worker: string(id), Fingerprint: uint64(fp)}, &resp); err != nil {
		return false, err
	}
	return resp.Applied, nil
}

// WorkerClient is the coordinator's handle on one agent.
type WorkerClient struct {
	id   domain.WorkerID
	conn *grpc.ClientConn
}

var _ ports.Worker = (*WorkerClient)(nil)

// ID returns the worker's identity.
func (w *WorkerClient) ID() domain.WorkerID {
	return w.id
}

func (w *WorkerClient) call(ctx context.Context, name string, in, out any) error {
	return invoke(ctx, w.conn, workerService, name, in, out)
}

// Setup runs inst on the agent.
func (w *WorkerClient) Setup(ctx context.Context, inst *domain.Installer) (domain.SetupResult, error) {
	var resp SetupResponse
	if err := w.call(ctx, "Setup", &SetupRequest{Installer: toInstaller(inst)}, &resp); err != nil {
		return domain.SetupResult{Worker: w.id, Fingerprint: inst.Fingerprint}, err
	}
	return fromSetupResult(resp.Result), nil
}

// Restart restarts the agent's worker process.
func (w *WorkerClient) Restart(ctx context.Context) error {
	return w.call(ctx, "Restart", &RestartRequest{}, &Empty{})
}

// Applied reports whether the agent has applied fp.
func (w *WorkerClient) Applied(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	var resp AppliedResponse
	if err := w.call(ctx, "Applied", &AppliedRequest{Fingerprint: uint64(fp)}, &resp); err != nil {
		return false, err
	}
	return resp.Applied, nil
}

// State returns the agent's worker state.
func (w *WorkerClient) State(ctx context.Context) (domain.WorkerState, error) {
	var resp StatusResponse
	if err := w.call(ctx, "Status", &StatusRequest{}, &resp); err != nil {
		return "", err
	}
	return domain.WorkerState(resp.State), nil
}

// Dialer opens WorkerClients, reusing one connection per agent address.
type Dialer struct {
	opts []grpc.DialOption

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

var _ coordinator.Dialer = (*Dialer)(nil)

// NewDialer creates a new Dialer. opts are added to every connection.
func NewDialer(opts ...grpc.DialOption) *Dialer {
	return &Dialer{
		opts:  opts,
		conns: make(map[string]*grpc.ClientConn),
	}
}

// Dial returns a client for the agent serving id at address.
func (d *Dialer) Dial(_ context.Context, id domain.WorkerID, address string) (ports.Worker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cc, ok := d.conns[address]
	if !ok {
		var err error
		cc, err = newConn(address, d.opts...)
		if err != nil {
			return nil, err
		}
		d.conns[address] = cc
	}
	return &WorkerClient{id: id, conn: cc}, nil
}

// Close closes every connection.
func (d *Dialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for address, cc := range d.conns {
		errs = append(errs, cc.Close())
		delete(d.conns, address)
	}
	return errors.Join(errs...)
}
