package watcher_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockship/internal/adapters/watcher"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/lockship/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func startWatcher(t *testing.T, files ...string) (*watcher.Watcher, <-chan ports.WatchEvent) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	w, err := watcher.NewWatcher(log, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context(), files...))
	t.Cleanup(func() { _ = w.Stop() })

	events := make(chan ports.WatchEvent, 16)
	go func() {
		defer close(events)
		for ev := range w.Events() {
			events <- ev
		}
	}()
	return w, events
}

func next(t *testing.T, events <-chan ports.WatchEvent) ports.WatchEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "watcher stopped")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for file event")
		return ports.WatchEvent{}
	}
}

func TestWatcher_ReportsWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "pyproject.toml")
	other := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(project, []byte("[project]\n"), 0o644))

	_, events := startWatcher(t, project)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(project, []byte("[project]\nname = \"x\"\n"), 0o644))

	ev := next(t, events)
	assert.Equal(t, project, ev.Path)
}

func TestWatcher_SeesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	lock := filepath.Join(dir, "pdm.lock")
	require.NoError(t, os.WriteFile(lock, []byte("old"), 0o644))

	_, events := startWatcher(t, lock)

	tmp := filepath.Join(dir, ".pdm.lock.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("new"), 0o644))
	require.NoError(t, os.Rename(tmp, lock))

	ev := next(t, events)
	assert.Equal(t, lock, ev.Path)
	assert.Equal(t, ports.OpCreate, ev.Operation)
}

func TestWatcher_StopEndsEvents(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "pyproject.toml")
	require.NoError(t, os.WriteFile(project, nil, 0o644))

	w, events := startWatcher(t, project)
	require.NoError(t, w.Stop())

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("events did not end after Stop")
	}
}

func TestWatcher_StartErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	w, err := watcher.NewWatcher(mocks.NewMockLogger(ctrl), time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	require.Error(t, w.Start(t.Context()))
	require.Error(t, w.Start(t.Context(), filepath.Join(t.TempDir(), "missing", "pyproject.toml")))
}
