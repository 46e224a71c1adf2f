package types

import "sort"

// ActionGraph is a DAG of plan vertices. It is built incrementally by an
// arena (a vertex slice plus an edge set keyed by vertex index pairs) and
// published read-only once Freeze is called.
type ActionGraph struct {
	vertices []PlanVertex
	index    map[PackageKey]int
	edges    map[[2]int]struct{}
	frozen   bool
}

func NewActionGraph() *ActionGraph {
	return &ActionGraph{
		index: map[PackageKey]int{},
		edges: map[[2]int]struct{}{},
	}
}

// AddVertex inserts a vertex keyed by its package hash, returning its
// index. Re-adding the same key is a no-op that returns the existing
// index. Panics if the graph has been frozen.
func (g *ActionGraph) AddVertex(v PlanVertex) int {
	if g.frozen {
		panic("types: AddVertex on a frozen ActionGraph")
	}
	key := v.Key()
	if idx, ok := g.index[key]; ok {
		return idx
	}
	idx := len(g.vertices)
	g.vertices = append(g.vertices, v)
	g.index[key] = idx
	return idx
}

// AddEdge records "predecessor must complete before successor" by vertex
// index. Panics if the graph has been frozen.
func (g *ActionGraph) AddEdge(from, to int) {
	if g.frozen {
		panic("types: AddEdge on a frozen ActionGraph")
	}
	g.edges[[2]int{from, to}] = struct{}{}
}

// IndexOf returns the vertex index for a package key, if present.
func (g *ActionGraph) IndexOf(key PackageKey) (int, bool) {
	idx, ok := g.index[key]
	return idx, ok
}

// Freeze marks the graph read-only. Subsequent mutation methods panic.
func (g *ActionGraph) Freeze() { g.frozen = true }

func (g *ActionGraph) Vertices() []PlanVertex {
	return g.vertices
}

// Edges returns every (from,to) vertex-index edge.
func (g *ActionGraph) Edges() [][2]int {
	out := make([][2]int, 0, len(g.edges))
	for e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// Successors returns the vertex indices with an edge from idx.
func (g *ActionGraph) Successors(idx int) []int {
	var out []int
	for e := range g.edges {
		if e[0] == idx {
			out = append(out, e[1])
		}
	}
	sort.Ints(out)
	return out
}

// Predecessors returns the vertex indices with an edge into idx.
func (g *ActionGraph) Predecessors(idx int) []int {
	var out []int
	for e := range g.edges {
		if e[1] == idx {
			out = append(out, e[0])
		}
	}
	sort.Ints(out)
	return out
}

// Plan is the final output of resolution: an ordered removal list and a
// DAG of install/upgrade/downgrade/recompile actions.
type Plan struct {
	ToRemove []Package
	ToAdd    *ActionGraph
}
