package domain

import "path/filepath"

const (
	// ProjectFileName is the name of the project descriptor.
	ProjectFileName = "pyproject.toml"

	// PoetryLockfileName is the name of Poetry's lockfile.
	PoetryLockfileName = "poetry.lock"

	// PDMLockfileName is the name of PDM's lockfile.
	PDMLockfileName = "pdm.lock"

	// ConfigFileName is the name of the lockship configuration file.
	ConfigFileName = "lockship.yaml"

	// StateDirName is the name of the agent's state directory.
	StateDirName = ".lockship"

	// WorkDirName is the name of the directory installers write into.
	WorkDirName = "work"

	// UserBinDir is the user-local install location checked before PATH, relative to $HOME.
	UserBinDir = ".local/bin"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultWorkDir returns the default private working directory of an agent.
// It joins .lockship and work.
func DefaultWorkDir() string {
	return filepath.Join(StateDirName, WorkDirName)
}

// UserToolPath returns the user-local path of a tool under home.
func UserToolPath(home, executable string) string {
	return filepath.Join(home, UserBinDir, executable)
}
