package core

import (
	"resolvent/internal/types"
)

// BuildActionGraph runs the Action Graph Builder's four phases over the
// Diff Engine's InternalActions, producing the final Plan:
//
//	A. mirror the target universe's dependency graph
//	B. propagate a dirty set through it to find packages that need
//	   recompiling even though their own version didn't change
//	C. order deletions with a deterministic topological order over
//	   the induced subgraph of packages being removed; every deletion
//	   stays a deletion, none is turned into a recompile
//	D. assemble the DAG, tagging reinstall_fixup where a fresh install
//	   replaces an already-installed different version of the same name
func BuildActionGraph(before, after types.Universe, actions []types.InternalAction) types.Plan {
	beforeInstalled := map[string]types.Package{}
	for _, p := range before.Installed() {
		beforeInstalled[p.Name] = p
	}

	// Phase A
	targetGraph := buildDependencyGraph(after)

	// Phase B
	changed := changedNameSet(actions)
	dirty := propagateDirty(targetGraph, changed)

	graph := types.NewActionGraph()
	for _, action := range actions {
		switch action.Kind {
		case types.ActionDelete:
			continue
		case types.ActionInstall:
			v := types.PlanVertex{Kind: types.ActionInstall, New: action.To}
			if old, ok := beforeInstalled[action.To.Name]; ok && old.Version != action.To.Version {
				o := old
				v.Old = &o
			}
			graph.AddVertex(v)
		case types.ActionUpgrade, types.ActionDowngrade:
			graph.AddVertex(types.PlanVertex{Kind: action.Kind, Old: action.From, New: action.To})
		}
	}

	for name := range dirty {
		if _, alreadyChanged := changed[name]; alreadyChanged {
			continue
		}
		version := latestInstalledVersion(after, name)
		if version == "" {
			continue
		}
		p, ok := after.Lookup(name, version)
		if !ok {
			continue
		}
		v := types.PlanVertex{Kind: types.ActionRecompile, New: &p}
		if old, hadOld := beforeInstalled[name]; hadOld {
			o := old
			v.Old = &o
		}
		graph.AddVertex(v)
	}

	for from, tos := range targetGraph.edges {
		fromIdx, ok := vertexIndexForName(graph, after, from)
		if !ok {
			continue
		}
		for to := range tos {
			toIdx, ok := vertexIndexForName(graph, after, to)
			if !ok {
				continue
			}
			// to (the dependency) must complete before from (the dependent).
			graph.AddEdge(toIdx, fromIdx)
		}
	}
	graph.Freeze()

	// Phase C
	order := classifyDeletions(before, deletionNames(actions))
	toRemove := make([]types.Package, 0, len(order))
	for _, name := range order {
		if p, ok := beforeInstalled[name]; ok {
			toRemove = append(toRemove, p)
		}
	}

	return types.Plan{ToRemove: toRemove, ToAdd: graph}
}

func changedNameSet(actions []types.InternalAction) map[string]struct{} {
	out := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		out[a.Name()] = struct{}{}
	}
	return out
}

// propagateDirty walks the reversed target graph (dependents, not
// dependencies) from every changed name, marking everything that
// transitively depends on a change as needing recompilation.
func propagateDirty(targetGraph *depGraph, changed map[string]struct{}) map[string]struct{} {
	reverse := targetGraph.reversed()
	dirty := map[string]struct{}{}
	queue := make([]string, 0, len(changed))
	for n := range changed {
		queue = append(queue, n)
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, dependent := range reverse.successors(n) {
			if _, ok := dirty[dependent]; ok {
				continue
			}
			if _, ok := changed[dependent]; ok {
				continue
			}
			dirty[dependent] = struct{}{}
			queue = append(queue, dependent)
		}
	}
	return dirty
}

func deletionNames(actions []types.InternalAction) []string {
	var names []string
	for _, a := range actions {
		if a.Kind == types.ActionDelete {
			names = append(names, a.Name())
		}
	}
	return names
}

// classifyDeletions orders deletion names via a topological sort of the
// induced subgraph among themselves (under the before-universe's
// dependency graph), so a package is always removed before anything it
// itself depends on and also being removed. Ties — packages with no
// ordering constraint between them — fall back to a name sort for
// determinism.
func classifyDeletions(before types.Universe, names []string) []string {
	if len(names) == 0 {
		return nil
	}
	graph := buildDependencyGraph(before)
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}
	induced := graph.inducedSubgraph(keep)
	return topoSortNames(names, induced)
}

func latestInstalledVersion(universe types.Universe, name string) string {
	for _, p := range universe.Versions(name) {
		if p.Installed {
			return p.Version
		}
	}
	return ""
}

func vertexIndexForName(graph *types.ActionGraph, universe types.Universe, name string) (int, bool) {
	version := latestInstalledVersion(universe, name)
	if version == "" {
		return 0, false
	}
	return graph.IndexOf(types.PackageKey{Name: name, Version: version})
}
