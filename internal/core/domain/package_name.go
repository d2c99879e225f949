package domain

import (
	"maps"
	"slices"
	"strings"
	"unique"
)

// PackageName is a normalized, interned distribution name.
// Two spellings that pip considers the same project ("PyYAML", "pyyaml",
// "zope_interface", "zope.interface") produce equal PackageNames.
type PackageName struct {
	h unique.Handle[string]
}

// NewPackageName normalizes s following PEP 503 and interns the result.
func NewPackageName(s string) PackageName {
	return PackageName{h: unique.Make(normalizeName(s))}
}

// String returns the normalized name.
func (n PackageName) String() string {
	return n.h.Value()
}

// MarshalText implements encoding.TextMarshaler.
func (n PackageName) MarshalText() ([]byte, error) {
	return []byte(n.h.Value()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *PackageName) UnmarshalText(text []byte) error {
	*n = NewPackageName(string(text))
	return nil
}

func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range strings.TrimSpace(s) {
		switch r {
		case '-', '_', '.':
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('-')
		}
		sep = false
		if 'A' <= r && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// PackageSet is a case-insensitive set of package names that remembers the
// spelling each name was added with.
type PackageSet struct {
	names map[PackageName]string
}

// NewPackageSet builds a set from names. Later duplicates keep the first spelling.
func NewPackageSet(names ...string) PackageSet {
	s := PackageSet{names: make(map[PackageName]string, len(names))}
	for _, name := range names {
		s.Add(name)
	}
	return s
}

// Add inserts name into the set.
func (s *PackageSet) Add(name string) {
	if s.names == nil {
		s.names = make(map[PackageName]string)
	}
	key := NewPackageName(name)
	if _, ok := s.names[key]; !ok {
		s.names[key] = name
	}
}

// Contains reports whether name is in the set.
func (s PackageSet) Contains(name string) bool {
	_, ok := s.names[NewPackageName(name)]
	return ok
}

// Remove deletes name and reports whether it was present.
func (s *PackageSet) Remove(name string) bool {
	key := NewPackageName(name)
	if _, ok := s.names[key]; !ok {
		return false
	}
	delete(s.names, key)
	return true
}

// Len returns the number of names in the set.
func (s PackageSet) Len() int {
	return len(s.names)
}

// Clone returns an independent copy of the set.
func (s PackageSet) Clone() PackageSet {
	return PackageSet{names: maps.Clone(s.names)}
}

// Sorted returns the names with their original spelling, sorted.
func (s PackageSet) Sorted() []string {
	return slices.Sorted(maps.Values(s.names))
}
