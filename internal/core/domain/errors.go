package domain

import "go.trai.ch/zerr"

var (
	// ErrMalformedLockfile is returned when a lockfile is not valid TOML or has no package table.
	ErrMalformedLockfile = zerr.New("malformed lockfile")

	// ErrUnresolvedRequirement is returned when required packages are absent from the lockfile.
	ErrUnresolvedRequirement = zerr.New("required packages are not dependencies of the environment")

	// ErrDevDependency is returned when a required package is only a dev dependency.
	ErrDevDependency = zerr.New("required package is only a dev dependency")

	// ErrOptionalOnly is returned when a required package is only an optional dependency in the lockfile.
	ErrOptionalOnly = zerr.New("required package is only an optional dependency")

	// ErrPathDependency is returned when a package is installed from a local path.
	ErrPathDependency = zerr.New("package is installed as a path dependency, uploading local code is not supported")

	// ErrUnsupportedSource is returned when a package source kind or qualifier is not supported.
	ErrUnsupportedSource = zerr.New("unsupported package source")

	// ErrInvalidOverride is returned when an override name or version contains whitespace.
	ErrInvalidOverride = zerr.New("override names and versions cannot contain whitespace")

	// ErrToolNotFound is returned when the installation tool cannot be found on a worker.
	ErrToolNotFound = zerr.New("cannot find installation tool")

	// ErrInstallationFailed is returned when the installation command exits with a non-zero status.
	ErrInstallationFailed = zerr.New("installation failed")

	// ErrUnsupportedBackend is returned when the project build backend is neither Poetry nor PDM.
	ErrUnsupportedBackend = zerr.New("unsupported build backend")

	// ErrProjectNotFound is returned when no pyproject.toml can be found.
	ErrProjectNotFound = zerr.New("could not find pyproject.toml")

	// ErrProjectParseFailed is returned when pyproject.toml cannot be parsed.
	ErrProjectParseFailed = zerr.New("failed to parse pyproject.toml")

	// ErrLockfileNotFound is returned when the backend lockfile is missing next to pyproject.toml.
	ErrLockfileNotFound = zerr.New("could not find lockfile")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the config file fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrUnknownCodec is returned when a payload compression codec is not recognised.
	ErrUnknownCodec = zerr.New("unknown compression codec, expected 'zstd', 'lz4' or 'none'")

	// ErrPayloadCorrupt is returned when an installer payload cannot be decompressed.
	ErrPayloadCorrupt = zerr.New("installer payload is corrupt")

	// ErrPayloadWriteFailed is returned when an installer payload cannot be written to the workdir.
	ErrPayloadWriteFailed = zerr.New("failed to write installer payload")

	// ErrNoInstaller is returned when an operation needs an installer and none is registered.
	ErrNoInstaller = zerr.New("no installer registered")

	// ErrWorkerNotFound is returned when a worker id is not known to the coordinator.
	ErrWorkerNotFound = zerr.New("worker not found")

	// ErrWorkerUnavailable is returned when a worker cannot be reached.
	ErrWorkerUnavailable = zerr.New("worker unavailable")

	// ErrInvalidWorker is returned when a worker joins without an id or address.
	ErrInvalidWorker = zerr.New("worker id and address are required")

	// ErrWorkerBusy is returned when the caller stops waiting for a worker's running setup.
	ErrWorkerBusy = zerr.New("worker is busy")

	// ErrSettleTimeout is returned when workers do not become ready within the settle timeout.
	ErrSettleTimeout = zerr.New("timed out waiting for workers to settle")

	// ErrConvergenceFailed is returned when one or more workers did not converge.
	ErrConvergenceFailed = zerr.New("cluster did not converge")

	// ErrProcessStartFailed is returned when the supervised worker process cannot be started.
	ErrProcessStartFailed = zerr.New("failed to start worker process")
)
