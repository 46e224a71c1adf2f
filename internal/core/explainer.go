package core

import (
	"fmt"
	"sort"
	"strings"

	"resolvent/internal/types"
)

// Chain is one Dependency-fact path from the synthetic request root down
// to wherever it stops. Rendering is lazy: the lines are only built when
// Render is called, not when the chain is assembled.
type Chain struct {
	facts []types.Reason
}

// Render turns the chain into human-readable lines, one per hop.
func (c Chain) Render() []string {
	lines := make([]string, 0, len(c.facts))
	for _, f := range c.facts {
		from := f.From
		if isSentinelName(from) {
			from = "the request"
		}
		lines = append(lines, fmt.Sprintf("%s requires one of: %s", from, strings.Join(f.Candidates, ", ")))
	}
	return lines
}

// ConflictExplainer is the rendered form of an Unsat outcome, returned
// alongside a Plan's zero value by Resolve.
type ConflictExplainer struct {
	Chains    []Chain
	Conflicts []types.Reason
	Missing   []types.Reason
}

// Render flattens the explainer into one human-readable block of text:
// every chain's hops, then the standalone conflicts and missing
// packages.
func (e *ConflictExplainer) Render() []string {
	var lines []string
	for _, chain := range e.Chains {
		lines = append(lines, chain.Render()...)
	}
	for _, c := range e.Conflicts {
		lines = append(lines, fmt.Sprintf("%s conflicts with %s", c.A, c.B))
	}
	for _, m := range e.Missing {
		lines = append(lines, fmt.Sprintf("%s: nothing satisfies the requirement", m.Package))
	}
	return lines
}

// NewConflictExplainer partitions raw base-solver Reason facts into
// chains rooted at the synthetic request vertex, kept separate from the
// standalone Conflict and Missing facts a reader doesn't need chained
// context for. Facts are organized here, not re-derived — deriveReasons
// in core/unsat_reasons.go already produced the raw material.
func NewConflictExplainer(reasons []types.Reason) *ConflictExplainer {
	exp := &ConflictExplainer{}
	byFrom := map[string][]types.Reason{}
	for _, r := range reasons {
		switch r.Kind {
		case types.ReasonConflict:
			exp.Conflicts = append(exp.Conflicts, r)
		case types.ReasonMissing:
			exp.Missing = append(exp.Missing, r)
		case types.ReasonDependency:
			byFrom[r.From] = append(byFrom[r.From], r)
		}
	}

	roots := append([]types.Reason{}, byFrom[sentinelRequestRoot]...)
	sort.Slice(roots, func(i, j int) bool {
		return strings.Join(roots[i].Candidates, ",") < strings.Join(roots[j].Candidates, ",")
	})

	for _, root := range roots {
		chain := []types.Reason{root}
		visited := map[string]bool{sentinelRequestRoot: true}
		frontier := append([]string{}, root.Candidates...)
		for len(frontier) > 0 {
			var next []string
			sort.Strings(frontier)
			for _, name := range frontier {
				if visited[name] {
					continue
				}
				visited[name] = true
				facts, ok := byFrom[name]
				if !ok {
					continue
				}
				for _, f := range facts {
					chain = append(chain, f)
					next = append(next, f.Candidates...)
				}
			}
			frontier = next
		}
		exp.Chains = append(exp.Chains, Chain{facts: chain})
	}
	return exp
}
