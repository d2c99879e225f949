package domain

// Project is a Python project as found on the client: the raw descriptor and
// lockfile bytes plus what lockship needs to know from the descriptor.
type Project struct {
	// Dir is the directory containing pyproject.toml.
	Dir          string
	Name         string
	BuildBackend string
	Backend      Backend
	Overrides    OverrideSet
	Descriptor   []byte
	Lockfile     []byte
}
