package shell

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockship/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestResolveEnvironment(t *testing.T) {
	sep := string(os.PathListSeparator)

	tests := []struct {
		name     string
		sysEnv   []string
		cmdEnv   []string
		expected []string
	}{
		{
			name:     "system only",
			sysEnv:   []string{"USER=test", "PATH=/bin", "HOME=/home/test"},
			expected: []string{"HOME=/home/test", "PATH=/bin", "USER=test"},
		},
		{
			name:     "filters system variables",
			sysEnv:   []string{"USER=test", "SSH_AUTH_SOCK=/tmp/ssh", "SECRET=key", "LANG=C.UTF-8"},
			expected: []string{"LANG=C.UTF-8", "USER=test"},
		},
		{
			name:     "command variables are added",
			sysEnv:   []string{"PATH=/bin"},
			cmdEnv:   []string{"VIRTUAL_ENV=/opt/venv", "NOT_A_PAIR"},
			expected: []string{"PATH=/bin", "VIRTUAL_ENV=/opt/venv"},
		},
		{
			name:     "command PATH is prepended",
			sysEnv:   []string{"PATH=/bin"},
			cmdEnv:   []string{"PATH=/opt/venv/bin"},
			expected: []string{"PATH=/opt/venv/bin" + sep + "/bin"},
		},
		{
			name:     "command PATH without system PATH",
			cmdEnv:   []string{"PATH=/opt/venv/bin"},
			expected: []string{"PATH=/opt/venv/bin"},
		},
		{
			name:     "command overrides system",
			sysEnv:   []string{"VIRTUAL_ENV=/old"},
			cmdEnv:   []string{"VIRTUAL_ENV=/new"},
			expected: []string{"VIRTUAL_ENV=/new"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveEnvironment(tt.sysEnv, tt.cmdEnv))
		})
	}
}

func TestLookPath(t *testing.T) {
	t.Run("no PATH", func(t *testing.T) {
		_, err := lookPath("echo", []string{"USER=test"})
		assert.Error(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := lookPath("nonexistent-command", []string{"PATH=:" + t.TempDir()})
		assert.Error(t, err)
	})
}

func TestFindExecutable(t *testing.T) {
	dir := t.TempDir()

	assert.Error(t, findExecutable("/nonexistent/file"))
	assert.Error(t, findExecutable(dir), "directories are not executable")

	plain := dir + "/plain"
	require.NoError(t, os.WriteFile(plain, nil, 0o600))
	assert.False(t, IsExecutable(plain))
}

func TestLogWriter(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	gomock.InOrder(
		log.EXPECT().Warn("first"),
		log.EXPECT().Warn("second"),
		log.EXPECT().Warn("tail"),
	)

	w := &logWriter{logger: log, level: "warn"}
	_, _ = w.Write([]byte("fir"))
	_, _ = w.Write([]byte("st\r\n\nsecond\nta"))
	_, _ = w.Write([]byte("il"))
	require.NoError(t, w.Close())
}
