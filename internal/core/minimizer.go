package core

import (
	"context"
	"sort"
	"sync"

	"resolvent/internal/ports"
	"resolvent/internal/types"
)

// MinimizingResolver wraps a BaseSolver with a two-phase optimization
// pass to cut down on gratuitous upgrades: the base
// solver's cost function only ranks the versions within each name (the
// installed and the newest version both cost nothing) and has no way to
// know which of the resulting changes the request actually needed.
// This resolver re-probes the base solver, per changed package,
// to find out: first reprobeMaxVersions confirms how far each changed
// package can move toward its newest version, then minimizeFilter
// checks whether each remaining change was load-bearing at all.
//
// The per-name probes of each pass are independent of one another (each
// builds its own request from read-only inputs), so they run
// concurrently over a bounded worker pool.
// Known limitation: accepting multiple reverted probes without
// re-checking them together can in rare cases reintroduce a conflict
// between two reverted packages; the final solved universe is not
// re-validated against the base solver after reversion.
type MinimizingResolver struct {
	Base    ports.BaseSolver
	Workers int // bounded worker pool size for parallel probes; <=0 means sequential
}

func NewMinimizingResolver(base ports.BaseSolver, workers int) *MinimizingResolver {
	return &MinimizingResolver{Base: base, Workers: workers}
}

func (m *MinimizingResolver) semaphore() chan struct{} {
	n := m.Workers
	if n <= 0 {
		n = 1
	}
	return make(chan struct{}, n)
}

// Resolve runs the full minimizing pipeline: base solve, max-version
// reprobe, minimize-filter, in that order.
func (m *MinimizingResolver) Resolve(ctx context.Context, universe types.Universe, request types.Request) (types.Universe, []types.Reason, error) {
	result, err := m.Base.CheckRequest(ctx, universe, request)
	if err != nil {
		return types.Universe{}, nil, err
	}
	switch result.Outcome {
	case ports.OutcomeUnsat:
		return types.Universe{}, result.Reasons, nil
	case ports.OutcomeError:
		return types.Universe{}, nil, result.Err
	}

	_, changed := partitionChanges(universe, result.Universe)
	if len(changed) == 0 {
		return result.Universe, nil, nil
	}

	reprobed, err := m.reprobeMaxVersions(ctx, universe, result.Universe, changed)
	if err != nil {
		return types.Universe{}, nil, err
	}

	final, err := m.minimizeFilter(ctx, universe, request, reprobed, changed)
	if err != nil {
		return types.Universe{}, nil, err
	}
	return final, nil, nil
}

// partitionChanges splits installed-package names into those unchanged
// between before/after (keep_versions) and those that differ, appeared,
// or disappeared (change_versions).
func partitionChanges(before, after types.Universe) (map[string]struct{}, []string) {
	beforeByName := map[string]string{}
	for _, p := range before.Installed() {
		beforeByName[p.Name] = p.Version
	}
	afterByName := map[string]string{}
	for _, p := range after.Installed() {
		afterByName[p.Name] = p.Version
	}

	names := map[string]struct{}{}
	for n := range beforeByName {
		names[n] = struct{}{}
	}
	for n := range afterByName {
		names[n] = struct{}{}
	}

	keep := map[string]struct{}{}
	var changed []string
	for _, n := range sortedKeys(names) {
		bv, hadBefore := beforeByName[n]
		av, hasAfter := afterByName[n]
		if hadBefore && hasAfter && bv == av {
			keep[n] = struct{}{}
			continue
		}
		changed = append(changed, n)
	}
	return keep, changed
}

// reprobeMaxVersions implements spec.md §4.4 steps 4-6. For each changed
// package p it probes, independently, whether the base solver can still
// satisfy the system with p forced to the newest version its name offers
// across the whole universe, every other changed package held at least
// at the version the first solve already chose for it, and every
// untouched package pinned at equality to its installed version. Probes
// that succeed add their package to max_pkgs. A final combined probe
// then asks for all of max_pkgs at once, at max, under the same
// constraints; its result becomes the universe passed on to
// minimizeFilter. A per-package probe that does not come back Sat leaves
// that package out, and a final probe that does not come back Sat makes
// the original solved universe the result (step 7); an error returned by
// any CheckRequest call aborts the reprobe and is returned.
func (m *MinimizingResolver) reprobeMaxVersions(ctx context.Context, original, solved types.Universe, changedNames []string) (types.Universe, error) {
	keep, _ := partitionChanges(original, solved)

	chosenVersion := map[string]string{}
	for _, name := range changedNames {
		if v := oldInstalledVersion(solved, name); v != "" {
			chosenVersion[name] = v
		}
	}

	type probeResult struct {
		name       string
		maxVersion string
		ok         bool
	}
	results := make([]probeResult, len(changedNames))
	var wg sync.WaitGroup
	sem := m.semaphore()
	var firstErr error
	var mu sync.Mutex

	for i, name := range changedNames {
		i, name := i, name
		maxVersion, ok := maxKnownVersion(original, name)
		if !ok {
			continue
		}
		results[i].name = name
		results[i].maxVersion = maxVersion

		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			probeReq := types.Request{WishUpgrade: maxVersionProbeAtoms(original, keep, chosenVersion, changedNames, map[string]string{name: maxVersion})}
			res, err := m.Base.CheckRequest(ctx, original, probeReq)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			results[i].ok = res.Outcome == ports.OutcomeSat
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return types.Universe{}, firstErr
	}

	maxPkgs := map[string]string{}
	for _, r := range results {
		if r.ok {
			maxPkgs[r.name] = r.maxVersion
		}
	}
	if len(maxPkgs) == 0 {
		return solved, nil
	}

	finalReq := types.Request{WishUpgrade: maxVersionProbeAtoms(original, keep, chosenVersion, changedNames, maxPkgs)}
	finalRes, err := m.Base.CheckRequest(ctx, original, finalReq)
	if err != nil {
		return types.Universe{}, err
	}
	if finalRes.Outcome != ports.OutcomeSat {
		return solved, nil
	}
	return finalRes.Universe, nil
}

// maxVersionProbeAtoms builds the pinned upgrade list a reprobe request
// carries: keep_versions at equality to their installed version, any
// name in pinnedAtMax at equality to its forced version, and every other
// changed name at >= the version the first solve already chose for it.
func maxVersionProbeAtoms(original types.Universe, keep map[string]struct{}, chosenVersion map[string]string, changedNames []string, pinnedAtMax map[string]string) []types.Atom {
	var atoms []types.Atom
	for name := range keep {
		if v := oldInstalledVersion(original, name); v != "" {
			atoms = append(atoms, types.Atom{Name: name, Constraint: types.Constraint{Op: types.RelOpEq, Version: v}})
		}
	}
	for _, name := range changedNames {
		if maxVersion, pinned := pinnedAtMax[name]; pinned {
			atoms = append(atoms, types.Atom{Name: name, Constraint: types.Constraint{Op: types.RelOpEq, Version: maxVersion}})
			continue
		}
		if v, ok := chosenVersion[name]; ok {
			atoms = append(atoms, types.Atom{Name: name, Constraint: types.Constraint{Op: types.RelOpGe, Version: v}})
		}
	}
	sort.Slice(atoms, func(i, j int) bool { return atoms[i].Name < atoms[j].Name })
	return atoms
}

// minimizeFilter tries, per changed name, pinning that name back to its
// pre-resolution installed version while leaving everything else as the
// base solver chose. If the base solver still reports Sat, the change
// wasn't load-bearing and is reverted in the final universe. A name the
// request explicitly upgraded is never reverted here — pinning it back
// to the old version would always look "not load-bearing" from a pure
// satisfiability standpoint, which would silently defeat the request.
// Likewise a name the request explicitly removes is never reinstated.
func (m *MinimizingResolver) minimizeFilter(ctx context.Context, original types.Universe, request types.Request, solved types.Universe, changedNames []string) (types.Universe, error) {
	explicitUpgrades := make(map[string]struct{}, len(request.WishUpgrade))
	for _, a := range request.WishUpgrade {
		explicitUpgrades[a.Name] = struct{}{}
	}
	explicitRemovals := make(map[string]struct{}, len(request.WishRemove))
	for _, a := range request.WishRemove {
		explicitRemovals[a.Name] = struct{}{}
	}

	type probeOutcome struct {
		name     string
		revert   bool
	}
	outcomes := make([]probeOutcome, len(changedNames))
	var wg sync.WaitGroup
	sem := m.semaphore()
	var firstErr error
	var mu sync.Mutex

	for i, name := range changedNames {
		i, name := i, name
		if _, explicit := explicitUpgrades[name]; explicit {
			continue
		}
		if _, removed := explicitRemovals[name]; removed {
			continue
		}
		oldVersion := oldInstalledVersion(original, name)
		if oldVersion == "" {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			probeReq := pinToVersion(request, name, oldVersion)
			res, err := m.Base.CheckRequest(ctx, original, probeReq)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			outcomes[i] = probeOutcome{name: name, revert: res.Outcome == ports.OutcomeSat}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return types.Universe{}, firstErr
	}

	final := solved
	for _, o := range outcomes {
		if !o.revert {
			continue
		}
		reverted, err := applyRevert(original, final, o.name)
		if err != nil {
			return types.Universe{}, err
		}
		final = reverted
	}
	return final, nil
}

func maxKnownVersion(universe types.Universe, name string) (string, bool) {
	versions := universe.Versions(name)
	if len(versions) == 0 {
		return "", false
	}
	cache := newVersionCache()
	best := versions[0]
	for _, v := range versions[1:] {
		if cache.compare(v.Origin, v.Version, best.Version) > 0 {
			best = v
		}
	}
	return best.Version, true
}

func oldInstalledVersion(universe types.Universe, name string) string {
	for _, p := range universe.Versions(name) {
		if p.Installed {
			return p.Version
		}
	}
	return ""
}

// pinToVersion returns a copy of request with name forced to version,
// stripped of any prior mention of name in any wish list so Validate's
// install/remove disjointness still holds.
func pinToVersion(request types.Request, name, version string) types.Request {
	install := make([]types.Atom, 0, len(request.WishInstall)+1)
	for _, a := range request.WishInstall {
		if a.Name != name {
			install = append(install, a)
		}
	}
	install = append(install, types.Atom{Name: name, Constraint: types.Constraint{Op: types.RelOpEq, Version: version}})

	upgrade := make([]types.Atom, 0, len(request.WishUpgrade))
	for _, a := range request.WishUpgrade {
		if a.Name != name {
			upgrade = append(upgrade, a)
		}
	}
	remove := make([]types.Atom, 0, len(request.WishRemove))
	for _, a := range request.WishRemove {
		if a.Name != name {
			remove = append(remove, a)
		}
	}
	return types.Request{WishInstall: install, WishUpgrade: upgrade, WishRemove: remove}
}

// applyRevert rebuilds final with name's Installed flag moved back to
// whichever version original had installed.
func applyRevert(original, final types.Universe, name string) (types.Universe, error) {
	oldVersion := oldInstalledVersion(original, name)
	var packages []types.Package
	for _, n := range final.Names() {
		for _, p := range final.Versions(n) {
			if n == name {
				p.Installed = oldVersion != "" && p.Version == oldVersion
			}
			packages = append(packages, p)
		}
	}
	return types.NewUniverse(packages...)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
