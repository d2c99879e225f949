// Package reconciler turns a parsed lockfile and the requested packages into pip install arguments.
package reconciler

import (
	"strings"
	"unicode"

	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/zerr"
)

// Request is the input to Reconcile.
type Request struct {
	Backend   domain.Backend
	Required  domain.PackageSet
	Optional  domain.PackageSet
	Locked    []domain.LockedPackage
	Overrides domain.OverrideSet
}

// Reconcile computes the install arguments for every required package and
// every optional package present in the lockfile.
//
// Required packages must all be present as installable main dependencies.
// Every missing required package is reported in a single error.
// Packages from a local path are rejected whether required or optional.
func Reconcile(req Request) (domain.InstallPlan, error) {
	missing := req.Required.Clone()
	var plan domain.InstallPlan

	for _, pkg := range req.Locked {
		isRequired := missing.Remove(pkg.Name)
		isOptional := !isRequired && req.Optional.Contains(pkg.Name)
		if !isRequired && !isOptional {
			continue
		}

		if pkg.Category == domain.CategoryDev {
			if isRequired {
				return domain.InstallPlan{}, packageError(domain.ErrDevDependency, pkg.Name,
					req.Backend.PromoteHint(pkg.Name))
			}
			continue
		}

		if pkg.Optional && isRequired {
			return domain.InstallPlan{}, packageError(domain.ErrOptionalOnly, pkg.Name,
				"make it a non-optional dependency")
		}

		arg, err := installArgument(pkg)
		if err != nil {
			return domain.InstallPlan{}, err
		}

		if req.Overrides.Has(pkg.Name) {
			plan.OverrideArgs = append(plan.OverrideArgs, arg)
		} else {
			plan.InstallArgs = append(plan.InstallArgs, arg)
		}
	}

	if missing.Len() > 0 {
		names := missing.Sorted()
		err := zerr.Wrap(domain.ErrUnresolvedRequirement, strings.Join(names, ", "))
		err = zerr.With(err, "packages", names)
		return domain.InstallPlan{}, zerr.With(err, "hint", "run `"+req.Backend.AddCommand(names...)+"` to install them")
	}

	if err := validateOverrides(req.Overrides); err != nil {
		return domain.InstallPlan{}, err
	}

	return plan, nil
}

func installArgument(pkg domain.LockedPackage) (domain.InstallArgument, error) {
	src := pkg.Source
	switch {
	case src.Kind.IsLocal():
		err := packageError(domain.ErrPathDependency, pkg.Name, "install it from a Git URL or a published version")
		return "", zerr.With(err, "path", src.URL)
	case src.Kind == domain.SourceGit:
		if src.Subdirectory != "" {
			err := zerr.With(zerr.Wrap(domain.ErrUnsupportedSource, "git-subdirectory"), "package", pkg.Name)
			return "", zerr.With(err, "subdirectory", src.Subdirectory)
		}
		return domain.GitArgument(src.URL, src.Reference), nil
	case src.Kind == domain.SourceRegistry || src.Kind == "":
		return domain.PinnedArgument(pkg.Name, pkg.Version), nil
	default:
		err := zerr.With(zerr.Wrap(domain.ErrUnsupportedSource, string(src.Kind)), "package", pkg.Name)
		return "", zerr.With(err, "url", src.URL)
	}
}

func validateOverrides(overrides domain.OverrideSet) error {
	for name, version := range overrides {
		if hasSpace(name) || hasSpace(version) {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidOverride, name), "package", name)
			return zerr.With(err, "version", version)
		}
	}
	return nil
}

func hasSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}

func packageError(sentinel error, name, hint string) error {
	err := zerr.With(zerr.Wrap(sentinel, name), "package", name)
	return zerr.With(err, "hint", hint)
}
