package types

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Package is identified by (Name, Version). Origin selects the version
// scheme used to order Version and evaluate constraints against it.
type Package struct {
	Name      string
	Version   string
	Origin    Origin
	Installed bool
	Depends   CNF
	Conflicts []Atom
	Depopts   CNF
	Extras    map[string]string
}

// Key is the (name, version) identity pair used to cross-reference a
// package between universes without relying on reference identity.
func (p Package) Key() PackageKey {
	return PackageKey{Name: p.Name, Version: p.Version}
}

// PackageKey is package identity independent of which Universe value it
// came from.
type PackageKey struct {
	Name    string
	Version string
}

// PackageSet is an unordered set of package keys, used for the
// currently-installed set and for subset arguments to the forward/backward
// dependency filters.
type PackageSet map[PackageKey]struct{}

func NewPackageSet(packages ...Package) PackageSet {
	set := make(PackageSet, len(packages))
	for _, p := range packages {
		set[p.Key()] = struct{}{}
	}
	return set
}

func (s PackageSet) Contains(p Package) bool {
	_, ok := s[p.Key()]
	return ok
}

// Universe is an unordered set of packages indexed by name. At most one
// entry per name may have Installed=true.
type Universe struct {
	byName map[string][]Package
}

func NewUniverse(packages ...Package) (Universe, error) {
	u := Universe{byName: map[string][]Package{}}
	for _, p := range packages {
		if err := u.Add(p); err != nil {
			return Universe{}, err
		}
	}
	return u, nil
}

// Add inserts a package, enforcing the at-most-one-installed-per-name
// invariant.
func (u *Universe) Add(p Package) error {
	if u.byName == nil {
		u.byName = map[string][]Package{}
	}
	if p.Installed {
		for _, existing := range u.byName[p.Name] {
			if existing.Installed && existing.Version != p.Version {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("universe already has an installed version of %s", p.Name))
			}
		}
	}
	u.byName[p.Name] = append(u.byName[p.Name], p)
	return nil
}

// Versions returns every package version known under name, in no
// particular order.
func (u Universe) Versions(name string) []Package {
	return u.byName[name]
}

// Names returns every package name known to the universe.
func (u Universe) Names() []string {
	names := make([]string, 0, len(u.byName))
	for name := range u.byName {
		names = append(names, name)
	}
	return names
}

// Lookup finds the exact (name, version) package, if present.
func (u Universe) Lookup(name, version string) (Package, bool) {
	for _, p := range u.byName[name] {
		if p.Version == version {
			return p, true
		}
	}
	return Package{}, false
}

// Installed returns every package with Installed=true.
func (u Universe) Installed() []Package {
	var out []Package
	for _, versions := range u.byName {
		for _, p := range versions {
			if p.Installed {
				out = append(out, p)
			}
		}
	}
	return out
}

// Len returns the number of distinct package names in the universe.
func (u Universe) Len() int {
	return len(u.byName)
}
