package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Backend identifies the dependency manager that owns a project's lockfile.
type Backend uint8

const (
	// BackendPoetry is a project built with poetry-core.
	BackendPoetry Backend = iota + 1
	// BackendPDM is a project built with pdm-backend.
	BackendPDM
)

// ClassifyBackend selects the backend from a pyproject build-backend string
// such as "poetry.core.masonry.api" or "pdm.backend".
func ClassifyBackend(buildBackend string) (Backend, error) {
	tool, _, _ := strings.Cut(strings.TrimSpace(buildBackend), ".")
	switch tool {
	case "poetry":
		return BackendPoetry, nil
	case "pdm":
		return BackendPDM, nil
	default:
		return 0, zerr.With(zerr.Wrap(ErrUnsupportedBackend, tool), "build_backend", buildBackend)
	}
}

// ParseBackend parses the short backend name used on the wire and in config.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(name) {
	case "poetry":
		return BackendPoetry, nil
	case "pdm":
		return BackendPDM, nil
	default:
		return 0, zerr.With(zerr.Wrap(ErrUnsupportedBackend, name), "backend", name)
	}
}

// String returns the short backend name.
func (b Backend) String() string {
	switch b {
	case BackendPoetry:
		return "poetry"
	case BackendPDM:
		return "pdm"
	default:
		return "unknown"
	}
}

// ToolName returns the display name of the backend's tool.
func (b Backend) ToolName() string {
	switch b {
	case BackendPoetry:
		return "Poetry"
	case BackendPDM:
		return "PDM"
	default:
		return ""
	}
}

// Executable returns the name of the backend's command line tool.
func (b Backend) Executable() string {
	return strings.ToLower(b.ToolName())
}

// LockfileName returns the file name of the backend's lockfile.
func (b Backend) LockfileName() string {
	switch b {
	case BackendPoetry:
		return PoetryLockfileName
	case BackendPDM:
		return PDMLockfileName
	default:
		return ""
	}
}

// AddCommand returns the command that adds names as main dependencies.
func (b Backend) AddCommand(names ...string) string {
	return strings.Join(append([]string{b.Executable(), "add"}, names...), " ")
}

// PromoteHint explains how to turn a dev dependency into a main dependency.
func (b Backend) PromoteHint(name string) string {
	switch b {
	case BackendPoetry:
		return "upgrade it to a full dependency with `" + b.AddCommand(name) +
			"`, or move it from the dev dependency group to `tool.poetry.dependencies`"
	default:
		return "upgrade it to a full dependency with `" + b.AddCommand(name) + "`"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Backend) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Backend) UnmarshalText(text []byte) error {
	parsed, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
