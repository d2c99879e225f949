package domain

// Category is the dependency group a locked package belongs to.
type Category uint8

const (
	// CategoryMain is a runtime dependency.
	CategoryMain Category = iota
	// CategoryDev is a development-only dependency.
	CategoryDev
)

// SourceKind describes where a locked package is installed from.
// Kinds other than the constants below are kept verbatim so they can be reported.
type SourceKind string

const (
	// SourceRegistry is a package index such as PyPI.
	SourceRegistry SourceKind = "registry"
	// SourceGit is a git repository pinned to a revision.
	SourceGit SourceKind = "git"
	// SourcePath is a local file or directory referenced by path.
	SourcePath SourceKind = "path"
	// SourceDirectory is a local source tree (Poetry's name for path dependencies).
	SourceDirectory SourceKind = "directory"
)

// IsLocal reports whether the source lives on the client's filesystem.
func (k SourceKind) IsLocal() bool {
	return k == SourcePath || k == SourceDirectory
}

// Source is the origin of a locked package.
type Source struct {
	Kind SourceKind
	// URL is the repository or archive location for remote sources.
	URL string
	// Reference is the resolved revision for git sources.
	Reference string
	// Subdirectory qualifies a git source that is not at the repository root.
	Subdirectory string
}

// LockedPackage is one resolved entry of a lockfile.
type LockedPackage struct {
	Name     string
	Version  string
	Category Category
	// Optional marks a package the lockfile only installs as an extra.
	Optional bool
	Source   Source
}
