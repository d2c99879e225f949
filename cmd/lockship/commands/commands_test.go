package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockship/cmd/lockship/commands"
	"go.trai.ch/lockship/internal/app"
	"go.trai.ch/lockship/internal/build"
)

type mockApp struct {
	env         *app.EnvOptions
	sync        *app.SyncOptions
	watch       *app.SyncOptions
	coordinator *app.CoordinatorOptions
	agent       *app.AgentOptions
	err         error
}

func (m *mockApp) Env(_ context.Context, opts app.EnvOptions) error {
	m.env = &opts
	return m.err
}

func (m *mockApp) Sync(_ context.Context, opts app.SyncOptions) error {
	m.sync = &opts
	return m.err
}

func (m *mockApp) Watch(_ context.Context, opts app.SyncOptions) error {
	m.watch = &opts
	return m.err
}

func (m *mockApp) ServeCoordinator(_ context.Context, opts app.CoordinatorOptions) error {
	m.coordinator = &opts
	return m.err
}

func (m *mockApp) RunAgent(_ context.Context, opts app.AgentOptions) error {
	m.agent = &opts
	return m.err
}

type jsonLogger struct {
	json bool
}

func (l *jsonLogger) Info(string) {}
func (l *jsonLogger) Warn(string) {}
func (l *jsonLogger) Error(error) {}
func (l *jsonLogger) SetJSON(enable bool) { l.json = enable }

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a, nil)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Env(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, mock, "env", "-C", "project", "--dotenv", ".env")
		require.NoError(t, err)

		require.NotNil(t, mock.env)
		assert.Equal(t, app.EnvOptions{Dir: "project", Dotenv: ".env"}, *mock.env)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		mock := &mockApp{err: errors.New("simulated error")}
		_, err := execute(t, mock, "env")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects arguments", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, mock, "env", "extra")
		require.Error(t, err)
		assert.Nil(t, mock.env)
	})
}

func TestCommands_Sync(t *testing.T) {
	mock := &mockApp{}
	_, err := execute(t, mock, "sync", "--coordinator", "10.0.0.1:8786", "-n", "3", "--color", "never")
	require.NoError(t, err)

	require.NotNil(t, mock.sync)
	assert.Equal(t, app.SyncOptions{
		Coordinator: "10.0.0.1:8786",
		Workers:     3,
		Color:       "never",
	}, *mock.sync)
}

func TestCommands_Watch(t *testing.T) {
	mock := &mockApp{}
	_, err := execute(t, mock, "watch", "--dir", "project", "-q")
	require.NoError(t, err)

	require.NotNil(t, mock.watch)
	assert.Equal(t, app.SyncOptions{Dir: "project", Color: "auto", Quiet: true}, *mock.watch)
	assert.Nil(t, mock.sync)
}

func TestCommands_Coordinator(t *testing.T) {
	mock := &mockApp{}
	_, err := execute(t, mock, "coordinator", "--listen", ":8786", "--metrics-addr", ":9090")
	require.NoError(t, err)

	require.NotNil(t, mock.coordinator)
	assert.Equal(t, app.CoordinatorOptions{Listen: ":8786", MetricsAddr: ":9090"}, *mock.coordinator)
}

func TestCommands_Agent(t *testing.T) {
	mock := &mockApp{}
	_, err := execute(t, mock,
		"agent", "--id", "w1", "--coordinator", "coord:8786", "--advertise", "10.0.0.2:8787",
		"--work-dir", "/srv/env", "--", "dask-worker", "--nthreads", "2",
	)
	require.NoError(t, err)

	require.NotNil(t, mock.agent)
	assert.Equal(t, app.AgentOptions{
		ID:          "w1",
		Coordinator: "coord:8786",
		Advertise:   "10.0.0.2:8787",
		WorkDir:     "/srv/env",
		Command:     []string{"dask-worker", "--nthreads", "2"},
	}, *mock.agent)
}

func TestCommands_LogJSON(t *testing.T) {
	log := &jsonLogger{}
	cli := commands.New(&mockApp{}, log)
	cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
	cli.SetArgs([]string{"env", "--log-json"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, log.json)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "lockship version "+build.Version)
}
