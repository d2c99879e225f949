package theme_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/lockship/internal/ui/theme"
)

func TestProfiles(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, theme.LogProfile())
	assert.Equal(t, termenv.Ascii, theme.ProgressProfile())

	t.Setenv("NO_COLOR", "")
	assert.Equal(t, termenv.ANSI, theme.ProgressProfile())
	p := theme.LogProfile()
	assert.True(t, p >= termenv.TrueColor && p <= termenv.Ascii)
}

func TestNewOutput(t *testing.T) {
	var buf bytes.Buffer
	out := theme.NewOutput(&buf, termenv.Ascii)

	_, _ = out.WriteString("worker w1 joined")
	assert.Equal(t, "worker w1 joined", buf.String())
	assert.NotNil(t, theme.NewOutput(nil, termenv.Ascii))
}

func TestLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		mark  string
	}{
		{slog.LevelDebug, ""},
		{slog.LevelInfo, ""},
		{slog.LevelWarn, theme.Warning},
		{slog.LevelError, theme.Failed},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			mark, color := theme.Level(tt.level)
			assert.Equal(t, tt.mark, mark)
			assert.NotNil(t, color)
		})
	}
}

func TestStepMark(t *testing.T) {
	plain := theme.NewOutput(&bytes.Buffer{}, termenv.Ascii)
	assert.Equal(t, theme.Done, theme.StepMark(plain, nil))
	assert.Equal(t, theme.Failed, theme.StepMark(plain, errors.New("restart failed")))

	colored := theme.NewOutput(&bytes.Buffer{}, termenv.ANSI)
	mark := theme.StepMark(colored, nil)
	assert.Contains(t, mark, "\x1b[")
	assert.Contains(t, mark, theme.Done)
}
