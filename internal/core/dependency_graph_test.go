package core

import (
	"reflect"
	"testing"

	"resolvent/internal/types"
)

func withDepends(p types.Package, deps ...string) types.Package {
	var clause types.Clause
	for _, d := range deps {
		clause = append(clause, types.Atom{Name: d, Constraint: types.Constraint{Op: types.RelOpNone}})
	}
	p.Depends = types.CNF{clause}
	return p
}

func TestBuildDependencyGraphEdgesFromInstalledOnly(t *testing.T) {
	a := withDepends(pkg("a", "1.0", true), "b")
	b := pkg("b", "1.0", true)
	notInstalled := withDepends(pkg("c", "1.0", false), "b")
	u := mustUniverse(t, a, b, notInstalled)

	g := buildDependencyGraph(u)
	if got := g.successors("a"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("expected a->b, got %v", got)
	}
	if got := g.successors("c"); len(got) != 0 {
		t.Fatalf("expected no edges from uninstalled c, got %v", got)
	}
}

func TestTopoSortNamesOrdersDependentsBeforeDependencies(t *testing.T) {
	g := newDepGraph()
	g.addEdge("app", "lib")
	names := []string{"app", "lib"}

	order := topoSortNames(names, g)
	if !reflect.DeepEqual(order, []string{"app", "lib"}) {
		t.Fatalf("expected [app lib] (zero-indegree first), got %v", order)
	}
}

func TestTopoSortNamesTiebreakIsAlphabetical(t *testing.T) {
	g := newDepGraph()
	names := []string{"zeta", "alpha", "mid"}

	order := topoSortNames(names, g)
	if !reflect.DeepEqual(order, []string{"alpha", "mid", "zeta"}) {
		t.Fatalf("expected alphabetical order with no edges, got %v", order)
	}
}

func TestInducedSubgraphDropsExternalVertices(t *testing.T) {
	g := newDepGraph()
	g.addEdge("a", "b")
	g.addEdge("b", "c")

	sub := g.inducedSubgraph(map[string]struct{}{"a": {}, "b": {}})
	if got := sub.successors("a"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("expected a->b to survive, got %v", got)
	}
	if got := sub.successors("b"); len(got) != 0 {
		t.Fatalf("expected b->c to be dropped (c not kept), got %v", got)
	}
}

func TestReversedFlipsEdges(t *testing.T) {
	g := newDepGraph()
	g.addEdge("app", "lib")

	rev := g.reversed()
	if got := rev.successors("lib"); !reflect.DeepEqual(got, []string{"app"}) {
		t.Fatalf("expected lib->app after reversal, got %v", got)
	}
}
