package lockfile

// poetryLock is the subset of poetry.lock read by the parser.
type poetryLock struct {
	Package *[]poetryPackage `toml:"package"`
}

type poetryPackage struct {
	Name     string        `toml:"name"`
	Version  string        `toml:"version"`
	Category string        `toml:"category"`
	Groups   []string      `toml:"groups"`
	Optional bool          `toml:"optional"`
	Source   *poetrySource `toml:"source"`
}

type poetrySource struct {
	Type              string `toml:"type"`
	URL               string `toml:"url"`
	Reference         string `toml:"reference"`
	ResolvedReference string `toml:"resolved_reference"`
	Subdirectory      string `toml:"subdirectory"`
}

// pdmLock is the subset of pdm.lock read by the parser.
type pdmLock struct {
	Package *[]pdmPackage `toml:"package"`
}

type pdmPackage struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Path         string   `toml:"path"`
	Editable     bool     `toml:"editable"`
	Git          string   `toml:"git"`
	Revision     string   `toml:"revision"`
	Ref          string   `toml:"ref"`
	Subdirectory string   `toml:"subdirectory"`
	URL          string   `toml:"url"`
	Groups       []string `toml:"groups"`
}
