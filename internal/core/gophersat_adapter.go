package core

import (
	"context"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/crillab/gophersat/solver"

	"resolvent/internal/ports"
	"resolvent/internal/types"
)

// GopherSatAdapter implements ports.BaseSolver on top of gophersat's CNF
// optimizing core: encode the universe and request into clauses via
// Table, minimize, then materialize the resulting universe.
type GopherSatAdapter struct{}

func NewGopherSatAdapter() *GopherSatAdapter { return &GopherSatAdapter{} }

// demand is one root-level wish atom together with the candidate ids the
// encoder resolved it to, kept around so an Unsat outcome can name the
// unmet atom in its explanation.
type demand struct {
	atom types.Atom
	ids  []int
}

// clauseBuilder accumulates the CNF fed to gophersat for one CheckRequest
// call. It is scratch state, discarded once solving is done.
type clauseBuilder struct {
	table   *Table
	clauses [][]int
}

func (b *clauseBuilder) addUniverseClauses(universe types.Universe, hardDepopts bool) error {
	names := append([]string{}, universe.Names()...)
	sort.Strings(names)
	for _, name := range names {
		ids := b.table.IDsForName(name)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				b.clauses = append(b.clauses, []int{-ids[i], -ids[j]})
			}
		}
		for _, p := range universe.Versions(name) {
			cpkg, err := b.table.ToConstraintPkg(p, hardDepopts)
			if err != nil {
				return err
			}
			for _, candidates := range cpkg.Depends {
				if len(candidates) == 0 {
					b.clauses = append(b.clauses, []int{-cpkg.ID})
					continue
				}
				clause := append([]int{-cpkg.ID}, candidates...)
				b.clauses = append(b.clauses, uniqueSortedInts(clause))
			}
			for _, partners := range cpkg.Conflicts {
				for _, other := range partners {
					if other == cpkg.ID {
						continue
					}
					b.clauses = append(b.clauses, []int{-cpkg.ID, -other})
				}
			}
		}
	}
	return nil
}

func (b *clauseBuilder) addRemovals(wishRemove []types.Atom) {
	for _, atom := range wishRemove {
		for _, id := range b.table.IDsForName(atom.Name) {
			b.clauses = append(b.clauses, []int{-id})
		}
	}
}

func (b *clauseBuilder) addDemands(universe types.Universe, wishInstall, wishUpgrade []types.Atom) ([]demand, error) {
	var demands []demand
	for _, atom := range wishInstall {
		ids, err := b.table.EncodeAtom(atom)
		if err != nil {
			return nil, err
		}
		demands = append(demands, demand{atom: atom, ids: ids})
		if len(ids) > 0 {
			b.clauses = append(b.clauses, uniqueSortedInts(ids))
		}
	}
	for _, atom := range wishUpgrade {
		ids, err := b.table.EncodeAtom(atom)
		if err != nil {
			return nil, err
		}
		ids = b.excludeNoNewerThanInstalled(universe, atom.Name, ids)
		demands = append(demands, demand{atom: atom, ids: ids})
		if len(ids) > 0 {
			b.clauses = append(b.clauses, uniqueSortedInts(ids))
		}
	}
	return demands, nil
}

// excludeNoNewerThanInstalled narrows a WishUpgrade atom's candidate ids
// to versions ranked strictly above the name's currently-installed
// version, so "upgrade x" actually forces a newer version rather than
// being satisfied by the one already installed (the cost function
// alone would otherwise just keep it).
func (b *clauseBuilder) excludeNoNewerThanInstalled(universe types.Universe, name string, ids []int) []int {
	var installedRank int
	found := false
	for _, p := range universe.Versions(name) {
		if !p.Installed {
			continue
		}
		if rank, ok := b.table.RankOf(p.Key()); ok {
			installedRank = rank
			found = true
		}
	}
	if !found {
		return ids
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		key, ok := b.table.KeyOf(id)
		if !ok {
			continue
		}
		rank, ok := b.table.RankOf(key)
		if ok && rank > installedRank {
			out = append(out, id)
		}
	}
	return out
}

// costFunc weights each version for the optimizer by its distance below
// its name's newest version, except the currently-installed version,
// which weighs zero. The installed and the newest version therefore cost
// the same, and selecting no version of a name costs nothing, so the
// optimizer alone does not prefer keeping an installed package over
// dropping it or over moving it to the newest version.
func (b *clauseBuilder) costFunc(universe types.Universe) ([]solver.Lit, []int) {
	var lits []solver.Lit
	var weights []int
	for _, name := range universe.Names() {
		ids := b.table.IDsForName(name)
		installedID := 0
		for _, p := range universe.Versions(name) {
			if p.Installed {
				if id, ok := b.table.IDOf(p.Key()); ok {
					installedID = id
				}
			}
		}
		for rank, id := range ids {
			weight := len(ids) - 1 - rank
			if id == installedID {
				weight = 0
			}
			lits = append(lits, solver.IntToLit(int32(id))) //nolint:gosec // ids are bounded by universe size
			weights = append(weights, weight)
		}
	}
	return lits, weights
}

func (a *GopherSatAdapter) CheckRequest(ctx context.Context, universe types.Universe, request types.Request) (ports.SolverResult, error) {
	if err := request.Validate(); err != nil {
		return ports.SolverResult{}, err
	}

	table := NewTable()
	if err := table.Init(ctx, universe); err != nil {
		return ports.SolverResult{}, err
	}
	if table.NumVars() == 0 {
		return ports.SolverResult{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("solver received an empty universe")
	}

	hardDepopts := len(request.WishRemove) > 0

	builder := &clauseBuilder{table: table}
	if err := builder.addUniverseClauses(universe, hardDepopts); err != nil {
		return ports.SolverResult{}, err
	}
	builder.addRemovals(request.WishRemove)
	demands, err := builder.addDemands(universe, request.WishInstall, request.WishUpgrade)
	if err != nil {
		return ports.SolverResult{}, err
	}
	for _, d := range demands {
		if len(d.ids) == 0 {
			return ports.SolverResult{
				Outcome: ports.OutcomeUnsat,
				Reasons: []types.Reason{{Kind: types.ReasonMissing, Package: d.atom.Name, Clause: types.Clause{d.atom}}},
			}, nil
		}
	}

	if ctx.Err() != nil {
		return ports.SolverResult{}, ctx.Err()
	}

	costLits, costWeights := builder.costFunc(universe)
	problem := solver.ParseSliceNb(builder.clauses, table.NumVars())
	problem.SetCostFunc(costLits, costWeights)
	sat := solver.New(problem)
	if cost := sat.Minimize(); cost < 0 {
		reasons, explainErr := deriveReasons(table, universe, request, demands)
		if explainErr != nil {
			return ports.SolverResult{}, explainErr
		}
		return ports.SolverResult{Outcome: ports.OutcomeUnsat, Reasons: reasons}, nil
	}

	solved, err := materializeUniverse(table, universe, sat.Model())
	if err != nil {
		return ports.SolverResult{}, err
	}
	return ports.SolverResult{Outcome: ports.OutcomeSat, Universe: solved}, nil
}

// materializeUniverse rebuilds a Universe from the SAT model, marking
// Installed on exactly the selected (name, version) pairs.
func materializeUniverse(table *Table, universe types.Universe, model []bool) (types.Universe, error) {
	selected := map[types.PackageKey]bool{}
	for id := 1; id <= table.NumVars(); id++ {
		if id-1 >= len(model) || !model[id-1] {
			continue
		}
		if key, ok := table.KeyOf(id); ok {
			selected[key] = true
		}
	}
	var packages []types.Package
	for _, name := range universe.Names() {
		for _, p := range universe.Versions(name) {
			p.Installed = selected[p.Key()]
			packages = append(packages, p)
		}
	}
	return types.NewUniverse(packages...)
}
