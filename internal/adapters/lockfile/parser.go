// Package lockfile reads Poetry and PDM lockfiles into locked packages.
package lockfile

import (
	"slices"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/zerr"
)

// Parser implements ports.LockfileParser.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes data in the dialect of backend. Packages are returned in lockfile order.
func (p *Parser) Parse(backend domain.Backend, data []byte) ([]domain.LockedPackage, error) {
	switch backend {
	case domain.BackendPoetry:
		return parsePoetry(data)
	case domain.BackendPDM:
		return parsePDM(data)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedBackend, "no lockfile dialect"), "backend", backend.String())
	}
}

func parsePoetry(data []byte) ([]domain.LockedPackage, error) {
	var lock poetryLock
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, malformed(err, domain.PoetryLockfileName)
	}
	if lock.Package == nil {
		return nil, missingPackages(domain.PoetryLockfileName)
	}

	packages := make([]domain.LockedPackage, 0, len(*lock.Package))
	for _, pkg := range *lock.Package {
		locked := domain.LockedPackage{
			Name:     pkg.Name,
			Version:  pkg.Version,
			Category: poetryCategory(pkg),
			Optional: pkg.Optional,
			Source:   domain.Source{Kind: domain.SourceRegistry},
		}
		if src := pkg.Source; src != nil {
			locked.Source = poetrySourceOf(src)
		}
		packages = append(packages, locked)
	}
	return packages, nil
}

// poetryCategory reads "category" from 1.x lockfiles and "groups" from 2.x ones.
func poetryCategory(pkg poetryPackage) domain.Category {
	if pkg.Category == "dev" {
		return domain.CategoryDev
	}
	if pkg.Category == "" && len(pkg.Groups) > 0 && !slices.Contains(pkg.Groups, "main") {
		return domain.CategoryDev
	}
	return domain.CategoryMain
}

func poetrySourceOf(src *poetrySource) domain.Source {
	switch src.Type {
	case "git":
		ref := src.ResolvedReference
		if ref == "" {
			ref = src.Reference
		}
		return domain.Source{
			Kind:         domain.SourceGit,
			URL:          src.URL,
			Reference:    ref,
			Subdirectory: src.Subdirectory,
		}
	case "":
		return domain.Source{Kind: domain.SourceRegistry}
	default:
		return domain.Source{
			Kind: domain.SourceKind(src.Type),
			URL:  src.URL,
		}
	}
}

func parsePDM(data []byte) ([]domain.LockedPackage, error) {
	var lock pdmLock
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, malformed(err, domain.PDMLockfileName)
	}
	if lock.Package == nil {
		return nil, missingPackages(domain.PDMLockfileName)
	}

	packages := make([]domain.LockedPackage, 0, len(*lock.Package))
	for _, pkg := range *lock.Package {
		locked := domain.LockedPackage{
			Name:     pkg.Name,
			Version:  pkg.Version,
			Category: domain.CategoryMain,
			Source:   pdmSourceOf(pkg),
		}
		// PDM 2.x records groups; a package outside "default" is only pulled in by dev groups.
		if len(pkg.Groups) > 0 && !slices.Contains(pkg.Groups, "default") {
			locked.Category = domain.CategoryDev
		}
		packages = append(packages, locked)
	}
	return packages, nil
}

func pdmSourceOf(pkg pdmPackage) domain.Source {
	switch {
	case pkg.Path != "":
		return domain.Source{Kind: domain.SourcePath, URL: pkg.Path}
	case pkg.Git != "":
		ref := pkg.Revision
		if ref == "" {
			ref = pkg.Ref
		}
		return domain.Source{
			Kind:         domain.SourceGit,
			URL:          pkg.Git,
			Reference:    ref,
			Subdirectory: pkg.Subdirectory,
		}
	case pkg.URL != "":
		return domain.Source{Kind: "url", URL: pkg.URL}
	default:
		return domain.Source{Kind: domain.SourceRegistry}
	}
}

func malformed(err error, file string) error {
	return zerr.With(zerr.Wrap(domain.ErrMalformedLockfile, err.Error()), "file", file)
}

func missingPackages(file string) error {
	return zerr.With(zerr.Wrap(domain.ErrMalformedLockfile, "no package table"), "file", file)
}
