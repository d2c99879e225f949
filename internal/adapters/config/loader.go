// Package config provides the lockship.yaml loader.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.trai.ch/lockship/internal/adapters/compress"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("listen_addr", isListenAddr)
}

// isListenAddr accepts host:port with port 0 meaning "any free port".
func isListenAddr(fl validator.FieldLevel) bool {
	_, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	n, err := strconv.ParseUint(port, 10, 16)
	return err == nil && n <= 65535
}

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	root   string
	fsys   fs.FS
}

// NewLoader creates a new Loader reading from the host filesystem.
func NewLoader(logger ports.Logger) *Loader {
	root := string(filepath.Separator)
	return &Loader{Logger: logger, root: root, fsys: os.DirFS(root)}
}

// NewLoaderWithFS creates a Loader that sees fsys mounted at root. Paths
// outside root do not exist.
func NewLoaderWithFS(logger ports.Logger, root string, fsys fs.FS) *Loader {
	return &Loader{Logger: logger, root: root, fsys: fsys}
}

// Load finds lockship.yaml in cwd or its parents and merges it over the defaults.
func (l *Loader) Load(cwd string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	dir, err := filepath.Abs(cwd)
	if err != nil {
		return domain.Config{}, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "dir", cwd)
	}

	path, ok := l.findConfiguration(dir)
	if !ok {
		return cfg, nil
	}

	var file File
	if err := l.readAndUnmarshalYAML(path, &file); err != nil {
		return domain.Config{}, err
	}
	if err := validateFile(&file); err != nil {
		return domain.Config{}, zerr.With(err, "file", path)
	}

	if err := l.apply(&cfg, &file); err != nil {
		return domain.Config{}, zerr.With(err, "file", path)
	}
	return cfg, nil
}

func (l *Loader) findConfiguration(dir string) (string, bool) {
	currentDir := dir
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if name, ok := l.name(candidate); ok {
			if info, err := fs.Stat(l.fsys, name); err == nil && !info.IsDir() {
				return candidate, true
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

// name maps an absolute path to its name in the loader's filesystem.
func (l *Loader) name(path string) (string, bool) {
	rel, err := filepath.Rel(l.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (l *Loader) readAndUnmarshalYAML(path string, target *File) error {
	name, ok := l.name(path)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, "outside "+l.root), "file", path)
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "file", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "file", path)
	}
	return nil
}

func validateFile(file *File) error {
	if err := validate.Struct(file); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			wrapped := zerr.Wrap(domain.ErrConfigInvalid, first.Namespace()+" failed "+first.Tag())
			return zerr.With(wrapped, "field", first.Namespace())
		}
		return zerr.Wrap(domain.ErrConfigInvalid, err.Error())
	}

	required := domain.NewPackageSet(file.Required...)
	for _, name := range file.Optional {
		if required.Contains(name) {
			err := zerr.Wrap(domain.ErrConfigInvalid, "package listed as both required and optional")
			return zerr.With(err, "package", name)
		}
	}
	return nil
}

func (l *Loader) apply(cfg *domain.Config, file *File) error {
	if file.Coordinator != "" {
		cfg.Coordinator = file.Coordinator
	}
	if file.Required != nil {
		if len(file.Required) == 0 {
			l.Logger.Warn("'required' is empty in " + domain.ConfigFileName + ", workers may lack the cluster runtime")
		}
		cfg.Required = file.Required
	}
	if file.Optional != nil {
		cfg.Optional = file.Optional
	}
	if file.Compression != "" {
		codec, err := compress.ParseCodec(file.Compression)
		if err != nil {
			return err
		}
		cfg.Compression = codec
	}
	if file.Settle != nil {
		cfg.Convergence.SettleTimeout = *file.Settle
	}
	if file.Poll != nil {
		cfg.Convergence.PollInterval = *file.Poll
	}
	if file.MaxRounds != nil {
		cfg.Convergence.MaxRounds = *file.MaxRounds
	}
	if file.Agent != nil {
		applyAgent(&cfg.Agent, file.Agent)
	}
	if file.Server != nil {
		applyServer(&cfg.Server, file.Server)
	}
	return nil
}

func applyAgent(cfg *domain.AgentConfig, dto *AgentDTO) {
	if dto.ID != "" {
		cfg.ID = dto.ID
	}
	if dto.Listen != "" {
		cfg.Listen = dto.Listen
	}
	if dto.Advertise != "" {
		cfg.Advertise = dto.Advertise
	}
	if dto.WorkDir != "" {
		cfg.WorkDir = expandHome(dto.WorkDir)
	}
	if len(dto.Command) > 0 {
		cfg.Command = dto.Command
	}
	if dto.PTY != nil {
		cfg.PTY = *dto.PTY
	}
	if dto.Heartbeat != nil {
		cfg.Heartbeat = *dto.Heartbeat
	}
	if dto.StopGrace != nil {
		cfg.StopGrace = *dto.StopGrace
	}
	if dto.PythonPrefix != "" {
		cfg.PythonPrefix = dto.PythonPrefix
	}
}

func applyServer(cfg *domain.ServerConfig, dto *ServerDTO) {
	if dto.Listen != "" {
		cfg.Listen = dto.Listen
	}
	if dto.MetricsAddr != "" {
		cfg.MetricsAddr = dto.MetricsAddr
	}
	if dto.WorkerTimeout != nil {
		cfg.WorkerTimeout = *dto.WorkerTimeout
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
