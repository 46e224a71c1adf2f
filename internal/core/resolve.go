package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"

	"github.com/rs/zerolog/log"

	"resolvent/internal/policies"
	"resolvent/internal/ports"
	"resolvent/internal/types"
)

// Resolve is the top-level entry point: it applies override directives to
// the request, runs the minimizing resolver, and — on success — hands the
// diff to the Action Graph Builder. On Unsat it returns a populated
// ConflictExplainer instead of a Plan.
func Resolve(ctx context.Context, solver ports.BaseSolver, u types.Universe, req types.Request, installed types.PackageSet, overrides policies.OverridePolicy) (types.Plan, *ConflictExplainer, error) {
	logger := log.Ctx(ctx)

	resolvedReq, blocked, err := applyOverrides(overrides, req)
	if err != nil {
		return types.Plan{}, nil, err
	}
	if blocked != nil {
		logger.Debug().Str("package", blocked.Atom.Name).Msg("request atom blocked by override policy")
		return types.Plan{}, NewConflictExplainer([]types.Reason{{Kind: types.ReasonMissing, Package: blocked.Atom.Name}}), nil
	}
	if err := resolvedReq.Validate(); err != nil {
		return types.Plan{}, nil, err
	}

	minimizer := NewMinimizingResolver(solver, runtime.GOMAXPROCS(0))
	solved, reasons, err := minimizer.Resolve(ctx, u, resolvedReq)
	if err != nil {
		return types.Plan{}, nil, err
	}
	if len(reasons) > 0 {
		logger.Debug().Int("reasons", len(reasons)).Msg("request is unsatisfiable")
		return types.Plan{}, NewConflictExplainer(reasons), nil
	}

	actions := DiffUniverses(u, solved)
	logger.Debug().Int("actions", len(actions)).Msg("diff produced internal actions")
	plan := BuildActionGraph(u, solved, actions)
	return plan, nil, nil
}

// applyOverrides rewrites every wish-list atom through overrides,
// returning the first Block encountered (if any) instead of an error —
// a block is a normal Unsat outcome, not a fatal one.
func applyOverrides(overrides policies.OverridePolicy, req types.Request) (types.Request, *policies.BlockedError, error) {
	install, err := policies.ApplyAll(overrides, req.WishInstall)
	if blocked, ok := asBlocked(err); ok {
		return types.Request{}, blocked, nil
	}
	if err != nil {
		return types.Request{}, nil, err
	}

	upgrade, err := policies.ApplyAll(overrides, req.WishUpgrade)
	if blocked, ok := asBlocked(err); ok {
		return types.Request{}, blocked, nil
	}
	if err != nil {
		return types.Request{}, nil, err
	}

	remove, err := policies.ApplyAll(overrides, req.WishRemove)
	if blocked, ok := asBlocked(err); ok {
		return types.Request{}, blocked, nil
	}
	if err != nil {
		return types.Request{}, nil, err
	}

	return types.Request{WishInstall: install, WishUpgrade: upgrade, WishRemove: remove}, nil, nil
}

func asBlocked(err error) (*policies.BlockedError, bool) {
	var blocked *policies.BlockedError
	if errors.As(err, &blocked) {
		return blocked, true
	}
	return nil, false
}

// buildPackageDependencyGraph derives a (name,version)-keyed dependency
// graph over every package in u, not just the installed ones, so
// FilterBackwardDependencies/FilterForwardDependencies can reason about
// an arbitrary candidate subset.
func buildPackageDependencyGraph(u types.Universe) map[types.PackageKey][]types.PackageKey {
	cache := newVersionCache()
	out := map[types.PackageKey][]types.PackageKey{}
	for _, name := range u.Names() {
		for _, p := range u.Versions(name) {
			var deps []types.PackageKey
			for _, clause := range p.Depends {
				for _, atom := range clause {
					for _, candidate := range u.Versions(atom.Name) {
						ok, err := cache.satisfies(candidate.Origin, candidate.Version, atom.Constraint)
						if err != nil || !ok {
							continue
						}
						deps = append(deps, candidate.Key())
					}
				}
			}
			out[p.Key()] = deps
		}
	}
	return out
}

// FilterBackwardDependencies returns subset's transitive closure over
// the "depends on" direction: everything subset needs, including subset
// itself.
func FilterBackwardDependencies(u types.Universe, subset types.PackageSet) ([]types.Package, error) {
	graph := buildPackageDependencyGraph(u)
	return closure(u, subset, graph), nil
}

// FilterForwardDependencies returns subset's transitive closure over the
// "depended upon by" direction: everything that needs subset, including
// subset itself.
func FilterForwardDependencies(u types.Universe, subset types.PackageSet) ([]types.Package, error) {
	graph := buildPackageDependencyGraph(u)
	reverse := map[types.PackageKey][]types.PackageKey{}
	for from, tos := range graph {
		for _, to := range tos {
			reverse[to] = append(reverse[to], from)
		}
	}
	return closure(u, subset, reverse), nil
}

func closure(u types.Universe, subset types.PackageSet, graph map[types.PackageKey][]types.PackageKey) []types.Package {
	visited := map[types.PackageKey]bool{}
	queue := make([]types.PackageKey, 0, len(subset))
	for key := range subset {
		queue = append(queue, key)
	}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if visited[key] {
			continue
		}
		visited[key] = true
		for _, next := range graph[key] {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}

	out := make([]types.Package, 0, len(visited))
	for key := range visited {
		if p, ok := u.Lookup(key.Name, key.Version); ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out
}

// DeleteOrUpdate reports whether the plan touches anything already
// installed — a removal, upgrade, or downgrade — as opposed to only
// adding fresh installs.
func DeleteOrUpdate(p types.Plan) bool {
	if len(p.ToRemove) > 0 {
		return true
	}
	if p.ToAdd == nil {
		return false
	}
	for _, v := range p.ToAdd.Vertices() {
		switch v.Kind {
		case types.ActionUpgrade, types.ActionDowngrade, types.ActionDelete:
			return true
		}
	}
	return false
}

// PrintPlan writes a human-readable rendering of p to w, removals
// first, then the action graph's vertices in the order they were
// assembled.
func PrintPlan(w io.Writer, p types.Plan) {
	for _, pkg := range p.ToRemove {
		fmt.Fprintf(w, "remove %s %s\n", pkg.Name, pkg.Version)
	}
	if p.ToAdd == nil {
		return
	}
	for _, v := range p.ToAdd.Vertices() {
		switch v.Kind {
		case types.ActionInstall:
			if v.Old != nil {
				fmt.Fprintf(w, "reinstall %s %s (was %s)\n", v.New.Name, v.New.Version, v.Old.Version)
			} else {
				fmt.Fprintf(w, "install %s %s\n", v.New.Name, v.New.Version)
			}
		case types.ActionUpgrade:
			fmt.Fprintf(w, "upgrade %s %s -> %s\n", v.Old.Name, v.Old.Version, v.New.Version)
		case types.ActionDowngrade:
			fmt.Fprintf(w, "downgrade %s %s -> %s\n", v.Old.Name, v.Old.Version, v.New.Version)
		case types.ActionRecompile:
			fmt.Fprintf(w, "recompile %s %s\n", v.New.Name, v.New.Version)
		case types.ActionDelete:
			// deletions are reported from ToRemove above; a Delete vertex
			// never appears in ToAdd.
		}
	}
}
