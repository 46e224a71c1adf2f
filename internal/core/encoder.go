package core

import (
	"fmt"
	"sort"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"context"

	"resolvent/internal/types"
)

// CPkg is the constraint-solver-level package the encoder produces:
// dependencies and conflicts are already resolved to the candidate ids
// that satisfy them, ready to feed a base solver.
type CPkg struct {
	ID        int     // dense id, unique across the whole table; doubles as the SAT variable
	Name      string  // escaped name
	Version   int     // dense per-name rank, monotonic in the external comparator
	Depends   [][]int // CNF: one candidate-id slice per clause
	Conflicts [][]int // one candidate-id slice per conflict atom
	Depopts   [][]int // parsed once, merged into Depends only when hardDepopts is requested
}

// Table owns the name<->id mapping for one resolution. It outlives
// every derived graph produced during that resolution and is the only
// place ids are minted.
type Table struct {
	nextID      int
	idOf        map[types.PackageKey]int
	keyOf       map[int]types.PackageKey
	rankOf      map[types.PackageKey]int
	originOf    map[string]types.Origin
	escaped     map[string]string
	unescaped   map[string]string
	cache       *versionCache
	depoptCache map[types.PackageKey]types.CNF
}

func NewTable() *Table {
	return &Table{
		idOf:        map[types.PackageKey]int{},
		keyOf:       map[int]types.PackageKey{},
		rankOf:      map[types.PackageKey]int{},
		originOf:    map[string]types.Origin{},
		escaped:     map[string]string{},
		unescaped:   map[string]string{},
		cache:       newVersionCache(),
		depoptCache: map[types.PackageKey]types.CNF{},
	}
}

// escapeChars are the characters gophersat's DIMACS-adjacent identifier
// space disallows: whitespace and clause punctuation. Escaping is
// reversible so UnescapeName always inverts EscapeName.
const escapeChars = " \t()|,="

func escapeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(escapeChars, r) || r == '~' {
			fmt.Fprintf(&b, "~%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unescapeName(escaped string) string {
	var b strings.Builder
	for i := 0; i < len(escaped); i++ {
		if escaped[i] == '~' && i+2 < len(escaped) {
			var code int
			if _, err := fmt.Sscanf(escaped[i+1:i+3], "%02x", &code); err == nil {
				b.WriteRune(rune(code))
				i += 2
				continue
			}
		}
		b.WriteByte(escaped[i])
	}
	return b.String()
}

// Init scans the universe, assigns a dense integer id per (name,version)
// pair in ascending external-comparator order, and records escapings.
func (t *Table) Init(ctx context.Context, u types.Universe) error {
	names := append([]string{}, u.Names()...)
	sort.Strings(names)

	for _, name := range names {
		assert.NotEmpty(ctx, name, "package name must not be empty")
		versions := u.Versions(name)
		if len(versions) == 0 {
			continue
		}
		origin := versions[0].Origin
		for _, p := range versions {
			if p.Origin != origin {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("package %s has versions under mixed origins", name))
			}
			if err := validateVersion(p.Origin, p.Version); err != nil {
				return err
			}
		}
		sorted := append([]types.Package{}, versions...)
		sort.Slice(sorted, func(i, j int) bool {
			return t.cache.compare(origin, sorted[i].Version, sorted[j].Version) < 0
		})
		for rank, p := range sorted {
			t.nextID++
			id := t.nextID
			key := p.Key()
			t.idOf[key] = id
			t.keyOf[id] = key
			t.rankOf[key] = rank
		}
		t.originOf[name] = origin
		esc := escapeName(name)
		t.escaped[name] = esc
		t.unescaped[esc] = name
	}
	return nil
}

// NumVars returns the number of SAT variables minted (one per
// (name,version) pair), i.e. the highest id assigned.
func (t *Table) NumVars() int { return t.nextID }

func (t *Table) IDOf(key types.PackageKey) (int, bool) {
	id, ok := t.idOf[key]
	return id, ok
}

func (t *Table) KeyOf(id int) (types.PackageKey, bool) {
	key, ok := t.keyOf[id]
	return key, ok
}

// RankOf returns key's position in its name's ascending version order, as
// assigned by Init.
func (t *Table) RankOf(key types.PackageKey) (int, bool) {
	rank, ok := t.rankOf[key]
	return rank, ok
}

func (t *Table) EscapeName(name string) string {
	if esc, ok := t.escaped[name]; ok {
		return esc
	}
	return escapeName(name)
}

func (t *Table) UnescapeName(escaped string) string {
	if name, ok := t.unescaped[escaped]; ok {
		return name
	}
	return unescapeName(escaped)
}

// IDsForName returns every id minted for name, in ascending version order.
func (t *Table) IDsForName(name string) []int {
	type ranked struct {
		id   int
		rank int
	}
	var out []ranked
	for key, id := range t.idOf {
		if key.Name == name {
			out = append(out, ranked{id: id, rank: t.rankOf[key]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rank < out[j].rank })
	ids := make([]int, len(out))
	for i, r := range out {
		ids[i] = r.id
	}
	return ids
}

// EncodeAtom resolves an atom to the ids of every known version that
// satisfies it. An unknown package name yields an empty (not erroring)
// result — callers interpret "no candidates" as a Missing fact.
func (t *Table) EncodeAtom(atom types.Atom) ([]int, error) {
	origin, ok := t.originOf[atom.Name]
	if !ok {
		return nil, nil
	}
	var out []int
	for _, id := range t.IDsForName(atom.Name) {
		key := t.keyOf[id]
		ok, err := t.cache.satisfies(origin, key.Version, atom.Constraint)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// DecodeAtom inverts EncodeAtom for the well-formed case: a single
// resolved id, which decodes to an exact-version equality atom. Any
// other shape means the original atom cannot be reconstructed and is an
// UnknownName/malformed error, not a silent best-effort guess.
func (t *Table) DecodeAtom(ids []int) (types.Atom, error) {
	if len(ids) != 1 {
		return types.Atom{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cannot decode a non-singleton CAtom back to one atom")
	}
	key, ok := t.keyOf[ids[0]]
	if !ok {
		return types.Atom{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("unknown id %d", ids[0]))
	}
	return types.Atom{Name: key.Name, Constraint: types.Constraint{Op: types.RelOpEq, Version: key.Version}}, nil
}

// depoptsFor parses a package's optional-dependency formula from its
// Extras map exactly once and caches the result on the table, fixing
// the known wart of re-parsing on every access.
func (t *Table) depoptsFor(p types.Package) (types.CNF, error) {
	key := p.Key()
	if cnf, ok := t.depoptCache[key]; ok {
		return cnf, nil
	}
	if len(p.Depopts) > 0 {
		t.depoptCache[key] = p.Depopts
		return p.Depopts, nil
	}
	formula, ok := p.Extras["depopts"]
	if !ok || strings.TrimSpace(formula) == "" {
		t.depoptCache[key] = nil
		return nil, nil
	}
	cnf, err := parseCNFFormula(formula)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("malformed depopt formula for %s: %v", p.Name, err))
	}
	t.depoptCache[key] = cnf
	return cnf, nil
}

// encodeCNF translates a CNF clause-wise into candidate-id clauses.
func (t *Table) encodeCNF(cnf types.CNF) ([][]int, error) {
	out := make([][]int, 0, len(cnf))
	for _, clause := range cnf {
		var ids []int
		for _, atom := range clause {
			candidates, err := t.EncodeAtom(atom)
			if err != nil {
				return nil, err
			}
			ids = append(ids, candidates...)
		}
		out = append(out, uniqueSortedInts(ids))
	}
	return out, nil
}

// ToConstraintPkg emits a CPkg for p. When hardDepopts is set, optional
// dependencies are merged into Depends so that removal propagates
// through them.
func (t *Table) ToConstraintPkg(p types.Package, hardDepopts bool) (CPkg, error) {
	id, ok := t.idOf[p.Key()]
	if !ok {
		return CPkg{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package %s %s not present in table", p.Name, p.Version))
	}
	depends, err := t.encodeCNF(p.Depends)
	if err != nil {
		return CPkg{}, err
	}
	depopts, err := t.depoptsFor(p)
	if err != nil {
		return CPkg{}, err
	}
	encodedDepopts, err := t.encodeCNF(depopts)
	if err != nil {
		return CPkg{}, err
	}
	if hardDepopts {
		depends = append(depends, encodedDepopts...)
	}
	conflicts := make([][]int, 0, len(p.Conflicts))
	for _, atom := range p.Conflicts {
		ids, err := t.EncodeAtom(atom)
		if err != nil {
			return CPkg{}, err
		}
		conflicts = append(conflicts, ids)
	}
	return CPkg{
		ID:        id,
		Name:      t.EscapeName(p.Name),
		Version:   t.rankOf[p.Key()],
		Depends:   depends,
		Conflicts: conflicts,
		Depopts:   encodedDepopts,
	}, nil
}

// decodeClause turns a candidate-id slice back into a clause of exact-
// version equality atoms — the closest faithful inverse once constraint
// ranges have been resolved to concrete ids.
func (t *Table) decodeClause(ids []int) (types.Clause, error) {
	clause := make(types.Clause, 0, len(ids))
	for _, id := range ids {
		key, ok := t.keyOf[id]
		if !ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("unknown id %d", id))
		}
		clause = append(clause, types.Atom{Name: key.Name, Constraint: types.Constraint{Op: types.RelOpEq, Version: key.Version}})
	}
	return clause, nil
}

// FromConstraintPkg inverts ToConstraintPkg.
func (t *Table) FromConstraintPkg(cp CPkg) (types.Package, error) {
	key, ok := t.keyOf[cp.ID]
	if !ok {
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("unknown id %d", cp.ID))
	}
	depends := make(types.CNF, 0, len(cp.Depends))
	for _, ids := range cp.Depends {
		clause, err := t.decodeClause(ids)
		if err != nil {
			return types.Package{}, err
		}
		depends = append(depends, clause)
	}
	conflicts := make([]types.Atom, 0, len(cp.Conflicts))
	for _, ids := range cp.Conflicts {
		clause, err := t.decodeClause(ids)
		if err != nil {
			return types.Package{}, err
		}
		conflicts = append(conflicts, clause...)
	}
	return types.Package{
		Name:      key.Name,
		Version:   key.Version,
		Origin:    t.originOf[key.Name],
		Installed: true,
		Depends:   depends,
		Conflicts: conflicts,
	}, nil
}

func uniqueSortedInts(values []int) []int {
	seen := map[int]struct{}{}
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
