package app_test

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockship/internal/adapters/compress"
	"go.trai.ch/lockship/internal/adapters/linear"
	"go.trai.ch/lockship/internal/adapters/lockfile"
	"go.trai.ch/lockship/internal/adapters/metrics"
	"go.trai.ch/lockship/internal/adapters/project"
	"go.trai.ch/lockship/internal/adapters/shell"
	"go.trai.ch/lockship/internal/adapters/telemetry"
	"go.trai.ch/lockship/internal/app"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/lockship/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1 << 20

// network routes passthrough targets to in-memory listeners.
type network struct {
	mu        sync.Mutex
	listeners map[string]*bufconn.Listener
}

func newNetwork(addresses ...string) *network {
	n := &network{listeners: make(map[string]*bufconn.Listener)}
	for _, address := range addresses {
		n.add(address)
	}
	return n
}

func (n *network) add(address string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners[address] = bufconn.Listen(bufSize)
}

func (n *network) lookup(address string) (*bufconn.Listener, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	lis, ok := n.listeners[address]
	return lis, ok
}

func (n *network) listen(address string) (net.Listener, error) {
	lis, ok := n.lookup(address)
	if !ok {
		return nil, errors.New("unknown address " + address)
	}
	return lis, nil
}

func (n *network) dial(ctx context.Context, addr string) (net.Conn, error) {
	lis, ok := n.lookup(addr)
	if !ok {
		return nil, errors.New("connection refused")
	}
	return lis.DialContext(ctx)
}

// recordingLogger keeps every message so tests can assert on progress.
type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) Info(msg string) { l.record(msg) }
func (l *recordingLogger) Warn(msg string) { l.record(msg) }
func (l *recordingLogger) Error(err error) { l.record(err.Error()) }

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *recordingLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.msgs {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

// fakeTool installs a poetry stand-in into ~/.local/bin that reports no
// changes after delay seconds.
func fakeTool(t *testing.T, delay string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	bin := filepath.Join(home, domain.UserBinDir)
	require.NoError(t, os.MkdirAll(bin, 0o750))
	script := "#!/bin/sh\nsleep " + delay + "\necho 'No dependencies to install or update'\n"
	// #nosec G306 -- the stand-in must be executable
	require.NoError(t, os.WriteFile(filepath.Join(bin, "poetry"), []byte(script), 0o700))
}

type cluster struct {
	app      *app.App
	logger   *recordingLogger
	watcher  *mocks.MockWatcher
	network  *network
	ctx      context.Context
	cancel   context.CancelFunc
	errs     chan error
	running  int
	workDirs map[string]string
}

// startCluster runs a coordinator and the agents ids in memory, all
// configured like the client.
func startCluster(t *testing.T, delay string, ids ...string) *cluster {
	t.Helper()
	fakeTool(t, delay)

	cfg := domain.DefaultConfig()
	cfg.Required = []string{"dask"}
	cfg.Optional = nil
	cfg.Coordinator = "passthrough:///coordinator"
	cfg.Convergence = domain.ConvergenceConfig{
		SettleTimeout: 10 * time.Second,
		PollInterval:  20 * time.Millisecond,
		MaxRounds:     2,
	}
	cfg.Server.Listen = "coordinator"
	cfg.Agent.Heartbeat = 50 * time.Millisecond

	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(gomock.Any()).Return(cfg, nil).AnyTimes()
	watcher := mocks.NewMockWatcher(ctrl)

	nw := newNetwork("coordinator")
	log := &recordingLogger{}
	var progress bytes.Buffer
	a := app.New(
		loader,
		project.NewLoader(),
		lockfile.NewParser(),
		compress.New(),
		shell.NewExecutor(log),
		watcher,
		log,
		telemetry.NewOTelTracer("test"),
		linear.NewRenderer(&progress, &progress),
		metrics.New(),
	).
		WithStdout(&progress).
		WithListener(nw.listen).
		WithDialOptions(grpc.WithContextDialer(nw.dial))

	ctx, cancel := context.WithCancel(context.Background())
	c := &cluster{
		app:      a,
		logger:   log,
		watcher:  watcher,
		network:  nw,
		ctx:      ctx,
		cancel:   cancel,
		errs:     make(chan error, 8),
		workDirs: make(map[string]string),
	}
	c.running++
	go func() { c.errs <- a.ServeCoordinator(ctx, app.CoordinatorOptions{}) }()
	for _, id := range ids {
		c.addAgent(t, id)()
	}
	return c
}

// addAgent gives an agent its own listener and work directory. The returned
// function starts it.
func (c *cluster) addAgent(t *testing.T, id string) func() {
	t.Helper()
	listen := "agent-" + id
	c.network.add(listen)
	c.workDirs[id] = filepath.Join(t.TempDir(), "env")
	c.running++

	opts := app.AgentOptions{
		ID:        id,
		Listen:    listen,
		Advertise: "passthrough:///" + listen,
		WorkDir:   c.workDirs[id],
	}
	return func() {
		go func() { c.errs <- c.app.RunAgent(c.ctx, opts) }()
	}
}

func (c *cluster) stop(t *testing.T) {
	t.Helper()
	c.cancel()
	for range c.running {
		select {
		case err := <-c.errs:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatal("cluster did not shut down")
		}
	}
}

func (c *cluster) workFile(t *testing.T, id, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(c.workDirs[id], name))
	require.NoError(t, err)
	return string(data)
}

func TestApp_SyncConvergesAgent(t *testing.T) {
	c := startCluster(t, "0", "w1")
	dir := t.TempDir()
	writeProject(t, dir, poetryLock)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := c.app.Sync(ctx, app.SyncOptions{Dir: dir, Workers: 1, Color: "never"})
	require.NoError(t, err)
	c.stop(t)

	assert.Equal(t, pyproject, c.workFile(t, "w1", domain.ProjectFileName))
	assert.Equal(t, poetryLock, c.workFile(t, "w1", domain.PoetryLockfileName))
	assert.True(t, c.logger.contains("cluster converged to"))
}

func TestApp_SyncWaitsForWorkerJoiningDuringFanOut(t *testing.T) {
	c := startCluster(t, "0.5", "w1", "w2")
	dir := t.TempDir()
	writeProject(t, dir, poetryLock)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startLate := c.addAgent(t, "w3")
	go func() {
		// The third worker connects shortly after the installer went out.
		for !c.logger.contains("registered") {
			if ctx.Err() != nil {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(200 * time.Millisecond)
		startLate()
	}()

	err := c.app.Sync(ctx, app.SyncOptions{Dir: dir, Workers: 2, Quiet: true})
	require.NoError(t, err)
	require.True(t, c.logger.contains("worker w3 joined"), "w3 joined before the sync returned")
	c.stop(t)

	for _, id := range []string{"w1", "w2", "w3"} {
		assert.Equal(t, poetryLock, c.workFile(t, id, domain.PoetryLockfileName), "worker %s", id)
	}
}

func TestApp_WatchResyncsChangedLockfile(t *testing.T) {
	c := startCluster(t, "0", "w1")
	dir := t.TempDir()
	writeProject(t, dir, poetryLock)

	changed := strings.Replace(poetryLock, `content-hash = "0f0c3e"`, `content-hash = "9a1b2c"`, 1)
	lockPath := filepath.Join(dir, domain.PoetryLockfileName)

	c.watcher.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, files ...string) error {
		assert.Len(t, files, 3)
		assert.Contains(t, files, lockPath)
		return nil
	})
	c.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(yield func(ports.WatchEvent) bool) {
		// The first event carries no change, the second a new lockfile.
		if !yield(ports.WatchEvent{Path: lockPath, Operation: ports.OpWrite}) {
			return
		}
		if err := os.WriteFile(lockPath, []byte(changed), 0o600); err != nil {
			t.Error(err)
			return
		}
		yield(ports.WatchEvent{Path: lockPath, Operation: ports.OpWrite})
	}))
	c.watcher.EXPECT().Stop().Return(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := c.app.Watch(ctx, app.SyncOptions{Dir: dir, Workers: 1, Quiet: true})
	require.NoError(t, err)
	c.stop(t)

	assert.True(t, c.logger.contains("unchanged, nothing to sync"))
	assert.Equal(t, changed, c.workFile(t, "w1", domain.PoetryLockfileName))
}
