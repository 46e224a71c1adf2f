package adapters

import (
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"resolvent/internal/types"
)

// snapshotPackage is the YAML wire shape for one universe entry: a flat,
// hand-editable document rather than a database export.
type snapshotPackage struct {
	Name      string            `yaml:"name"`
	Version   string            `yaml:"version"`
	Origin    string            `yaml:"origin"`
	Installed bool              `yaml:"installed"`
	Depends   []string          `yaml:"depends,omitempty"`
	Depopts   []string          `yaml:"depopts,omitempty"`
	Conflicts []string          `yaml:"conflicts,omitempty"`
	Extras    map[string]string `yaml:"extras,omitempty"`
}

type snapshotFile struct {
	Packages []snapshotPackage `yaml:"packages"`
}

type requestFile struct {
	Install []string `yaml:"install,omitempty"`
	Remove  []string `yaml:"remove,omitempty"`
	Upgrade []string `yaml:"upgrade,omitempty"`
}

// SnapshotFileAdapter reads and writes Universe/Request snapshots as
// YAML, a file-backed shape for this domain's universe rather than an
// apt/pip repo index.
type SnapshotFileAdapter struct{}

func NewSnapshotFileAdapter() SnapshotFileAdapter {
	return SnapshotFileAdapter{}
}

// LoadUniverse parses path into a Universe. Each Depends/Depopts entry
// is one clause of pipe-separated alternatives and each Conflicts entry
// is one atom, every atom in the "name<op>version" grammar
// core.ParseAtom accepts; entries are not split on commas.
func (SnapshotFileAdapter) LoadUniverse(path string) (types.Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Universe{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("universe snapshot not found: %s", path)).
			WithCause(err)
	}
	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return types.Universe{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid universe snapshot format").
			WithCause(err)
	}

	packages := make([]types.Package, 0, len(file.Packages))
	for _, sp := range file.Packages {
		p, err := snapshotToPackage(sp)
		if err != nil {
			return types.Universe{}, err
		}
		packages = append(packages, p)
	}
	u, err := types.NewUniverse(packages...)
	if err != nil {
		return types.Universe{}, err
	}
	return u, nil
}

// SaveUniverse writes u to path, one entry per (name,version) pair.
func (SnapshotFileAdapter) SaveUniverse(path string, u types.Universe) error {
	file := snapshotFile{}
	names := u.Names()
	for _, name := range names {
		for _, p := range u.Versions(name) {
			file.Packages = append(file.Packages, packageToSnapshot(p))
		}
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal universe snapshot").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write universe snapshot").
			WithCause(err)
	}
	return nil
}

// LoadRequest parses path into a Request, each atom string in the same
// "name<op>version" grammar core.ParseAtom accepts.
func (SnapshotFileAdapter) LoadRequest(path string) (types.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Request{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("request snapshot not found: %s", path)).
			WithCause(err)
	}
	var file requestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return types.Request{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid request snapshot format").
			WithCause(err)
	}
	install, err := parseAtomStrings(file.Install)
	if err != nil {
		return types.Request{}, err
	}
	remove, err := parseAtomStrings(file.Remove)
	if err != nil {
		return types.Request{}, err
	}
	upgrade, err := parseAtomStrings(file.Upgrade)
	if err != nil {
		return types.Request{}, err
	}
	return types.Request{WishInstall: install, WishRemove: remove, WishUpgrade: upgrade}, nil
}

func snapshotToPackage(sp snapshotPackage) (types.Package, error) {
	origin := types.Origin(sp.Origin)
	if origin == "" {
		origin = types.OriginGeneric
	}
	depends, err := depClausesFromStrings(sp.Depends)
	if err != nil {
		return types.Package{}, err
	}
	depopts, err := depClausesFromStrings(sp.Depopts)
	if err != nil {
		return types.Package{}, err
	}
	conflicts, err := atomsFromStrings(sp.Conflicts)
	if err != nil {
		return types.Package{}, err
	}
	return types.Package{
		Name:      sp.Name,
		Version:   sp.Version,
		Origin:    origin,
		Installed: sp.Installed,
		Depends:   depends,
		Depopts:   depopts,
		Conflicts: conflicts,
		Extras:    sp.Extras,
	}, nil
}

func packageToSnapshot(p types.Package) snapshotPackage {
	var depends []string
	for _, clause := range p.Depends {
		depends = append(depends, clauseToString(clause))
	}
	var depopts []string
	for _, clause := range p.Depopts {
		depopts = append(depopts, clauseToString(clause))
	}
	var conflicts []string
	for _, atom := range p.Conflicts {
		conflicts = append(conflicts, atomToString(atom))
	}
	return snapshotPackage{
		Name:      p.Name,
		Version:   p.Version,
		Origin:    string(p.Origin),
		Installed: p.Installed,
		Depends:   depends,
		Depopts:   depopts,
		Conflicts: conflicts,
		Extras:    p.Extras,
	}
}

func atomToString(a types.Atom) string {
	if a.Constraint.Op == types.RelOpNone {
		return a.Name
	}
	return a.Name + string(a.Constraint.Op) + a.Constraint.Version
}

func clauseToString(clause types.Clause) string {
	parts := make([]string, 0, len(clause))
	for _, atom := range clause {
		parts = append(parts, atomToString(atom))
	}
	return strings.Join(parts, " | ")
}

func depClausesFromStrings(raw []string) (types.CNF, error) {
	cnf := make(types.CNF, 0, len(raw))
	for _, line := range raw {
		clause, err := clauseFromString(line)
		if err != nil {
			return nil, err
		}
		cnf = append(cnf, clause)
	}
	return cnf, nil
}

func clauseFromString(line string) (types.Clause, error) {
	parts := strings.Split(line, "|")
	clause := make(types.Clause, 0, len(parts))
	for _, part := range parts {
		atom, err := atomFromString(part)
		if err != nil {
			return nil, err
		}
		clause = append(clause, atom)
	}
	return clause, nil
}

func atomsFromStrings(raw []string) ([]types.Atom, error) {
	atoms := make([]types.Atom, 0, len(raw))
	for _, line := range raw {
		atom, err := atomFromString(line)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, atom)
	}
	return atoms, nil
}

func parseAtomStrings(raw []string) ([]types.Atom, error) {
	return atomsFromStrings(raw)
}

// relOpTokens mirrors core.ParseAtom's operator precedence (longest
// tokens first) so that this package does not import internal/core.
var relOpTokens = []types.RelOp{
	types.RelOpGe,
	types.RelOpLe,
	types.RelOpNe,
	types.RelOpEq,
	types.RelOpGt,
	types.RelOpLt,
}

func atomFromString(raw string) (types.Atom, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.Atom{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty atom in snapshot")
	}
	for _, op := range relOpTokens {
		if idx := strings.Index(raw, string(op)); idx >= 0 {
			name := strings.TrimSpace(raw[:idx])
			version := strings.TrimSpace(raw[idx+len(op):])
			if name == "" || version == "" {
				return types.Atom{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("invalid atom in snapshot: %s", raw))
			}
			return types.Atom{Name: name, Constraint: types.Constraint{Op: op, Version: version}}, nil
		}
	}
	return types.Atom{Name: raw, Constraint: types.Constraint{Op: types.RelOpNone}}, nil
}
