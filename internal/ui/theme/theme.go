// Package theme holds the colors and marks lockship prints with. Log lines and
// progress lines share it so a failed worker looks the same in both.
package theme

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	green  = lipgloss.Color("#22A06B")
	red    = lipgloss.Color("#D93025")
	yellow = lipgloss.Color("#F59E0B")
	slate  = lipgloss.Color("#667085")
)

// Marks.
const (
	Done    = "✓"
	Failed  = "✗"
	Warning = "!"
)

// LogProfile is the color profile for log lines: none under NO_COLOR,
// otherwise what the terminal advertises.
func LogProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// ProgressProfile is the color profile for progress lines: none under
// NO_COLOR, otherwise the basic ANSI palette that CI logs understand.
func ProgressProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.ANSI
}

// NewOutput returns an output writing to w, stderr when w is nil.
func NewOutput(w io.Writer, profile termenv.Profile) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return termenv.NewOutput(w, termenv.WithProfile(profile), termenv.WithTTY(true))
}

// Level returns the mark and color of a log line at level. Info lines have
// no mark.
func Level(level slog.Level) (mark string, color termenv.Color) {
	switch {
	case level >= slog.LevelError:
		return Failed, termenv.RGBColor(string(red))
	case level >= slog.LevelWarn:
		return Warning, termenv.RGBColor(string(yellow))
	default:
		return "", termenv.RGBColor(string(slate))
	}
}

// StepMark renders the mark of a step that finished with err.
func StepMark(out *termenv.Output, err error) string {
	if err != nil {
		return out.String(Failed).Foreground(out.Color(string(red))).String()
	}
	return out.String(Done).Foreground(out.Color(string(green))).String()
}
