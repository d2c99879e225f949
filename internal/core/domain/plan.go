package domain

import (
	"strings"
)

const (
	// EnvPipPackages is the environment variable holding the install arguments.
	EnvPipPackages = "PIP_PACKAGES"
	// EnvPipOverrides is the environment variable holding the override install arguments.
	EnvPipOverrides = "PIP_OVERRIDES"
)

// InstallArgument is a single argument for pip install, either
// "name==version" or "git+url@revision".
type InstallArgument string

// PinnedArgument returns "name==version".
func PinnedArgument(name, version string) InstallArgument {
	return InstallArgument(name + "==" + version)
}

// GitArgument returns "git+url@reference".
func GitArgument(url, reference string) InstallArgument {
	return InstallArgument("git+" + url + "@" + reference)
}

// OverrideSet maps a package name to the version it is forced to.
type OverrideSet map[string]string

// Has reports whether name is overridden, ignoring spelling differences.
func (o OverrideSet) Has(name string) bool {
	if _, ok := o[name]; ok {
		return true
	}
	want := NewPackageName(name)
	for key := range o {
		if NewPackageName(key) == want {
			return true
		}
	}
	return false
}

// InstallPlan is the result of reconciling a lockfile with the requested packages.
type InstallPlan struct {
	InstallArgs  []InstallArgument
	OverrideArgs []InstallArgument
}

// Environ returns the environment variables consumed by the worker image.
func (p InstallPlan) Environ() map[string]string {
	return map[string]string{
		EnvPipPackages:  joinArgs(p.InstallArgs),
		EnvPipOverrides: joinArgs(p.OverrideArgs),
	}
}

func joinArgs(args []InstallArgument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = string(a)
	}
	return strings.Join(parts, " ")
}
