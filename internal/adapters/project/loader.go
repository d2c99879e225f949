// Package project reads pyproject.toml and the lockfile next to it.
package project

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/zerr"
)

// pyproject is the subset of pyproject.toml the loader reads.
type pyproject struct {
	BuildSystem *struct {
		BuildBackend string `toml:"build-backend"`
	} `toml:"build-system"`
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
		PDM struct {
			Resolution struct {
				Overrides map[string]string `toml:"overrides"`
			} `toml:"resolution"`
		} `toml:"pdm"`
	} `toml:"tool"`
}

// Loader implements ports.ProjectLoader.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load finds pyproject.toml in dir or its parents and reads it with its lockfile.
func (l *Loader) Load(dir string) (*domain.Project, error) {
	root, err := findProject(dir)
	if err != nil {
		return nil, err
	}

	descriptorPath := filepath.Join(root, domain.ProjectFileName)
	// #nosec G304 -- path is built from the discovered project root
	descriptor, err := os.ReadFile(descriptorPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrProjectNotFound, err.Error()), "path", descriptorPath)
	}

	var doc pyproject
	if err := toml.Unmarshal(descriptor, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrProjectParseFailed, err.Error()), "path", descriptorPath)
	}
	if doc.BuildSystem == nil || doc.BuildSystem.BuildBackend == "" {
		err := zerr.Wrap(domain.ErrUnsupportedBackend, "no [build-system] build-backend declared")
		return nil, zerr.With(err, "path", descriptorPath)
	}

	backend, err := domain.ClassifyBackend(doc.BuildSystem.BuildBackend)
	if err != nil {
		return nil, zerr.With(err, "path", descriptorPath)
	}

	lockfilePath := filepath.Join(root, backend.LockfileName())
	// #nosec G304 -- path is built from the discovered project root
	lockfile, err := os.ReadFile(lockfilePath)
	if err != nil {
		err = zerr.With(zerr.Wrap(domain.ErrLockfileNotFound, backend.LockfileName()), "path", lockfilePath)
		return nil, zerr.With(err, "hint", "run `"+backend.Executable()+" lock` first")
	}

	proj := &domain.Project{
		Dir:          root,
		Name:         doc.Project.Name,
		BuildBackend: doc.BuildSystem.BuildBackend,
		Backend:      backend,
		Descriptor:   descriptor,
		Lockfile:     lockfile,
	}
	if proj.Name == "" {
		proj.Name = doc.Tool.Poetry.Name
	}
	if backend == domain.BackendPDM && len(doc.Tool.PDM.Resolution.Overrides) > 0 {
		proj.Overrides = domain.OverrideSet(doc.Tool.PDM.Resolution.Overrides)
	}
	return proj, nil
}

func findProject(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.Wrap(err, "failed to resolve project directory")
	}
	for current := abs; ; {
		_, err := os.Stat(filepath.Join(current, domain.ProjectFileName))
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", zerr.With(zerr.Wrap(domain.ErrProjectNotFound, err.Error()), "dir", current)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", zerr.With(zerr.Wrap(domain.ErrProjectNotFound, abs), "dir", abs)
		}
		current = parent
	}
}
