package core

import (
	"sort"
	"strings"

	"resolvent/internal/types"
)

// sentinelRequestRoot is the synthetic vertex every Dependency fact chain
// is rooted at when the unmet demand came from the request itself rather
// than from another package's Depends clause.
const sentinelRequestRoot = "dose-dummy-request"

// sentinelDummyPrefix marks synthetic filler vertices the explainer must
// never treat as real packages.
const sentinelDummyPrefix = "dummy"

func isSentinelName(name string) bool {
	return name == sentinelRequestRoot || name == sentinelDummyPrefix || strings.HasPrefix(name, sentinelDummyPrefix+"-")
}

// deriveReasons walks the dependency graph reachable from the request's
// demands (and from already-installed packages not being removed) to
// surface the Missing, Conflict, and Dependency facts behind an Unsat
// outcome. This is a reachability explanation rather than a minimal
// unsat core — gophersat's optimizing API offers no core extraction, so
// the walk instead surfaces everything broken that the request's own
// demands can reach, the same BFS-from-root shape as the reference
// installable-dependency-graph resolver this is grounded on. The raw
// facts are partitioned into readable chains later, by the Conflict
// Explainer (core/explainer.go).
func deriveReasons(table *Table, universe types.Universe, request types.Request, demands []demand) ([]types.Reason, error) {
	removed := map[string]struct{}{}
	for _, atom := range request.WishRemove {
		removed[atom.Name] = struct{}{}
	}

	type frontier struct {
		from string
		atom types.Atom
	}

	var queue []frontier
	for _, d := range demands {
		queue = append(queue, frontier{from: sentinelRequestRoot, atom: d.atom})
	}
	for _, p := range universe.Installed() {
		if _, gone := removed[p.Name]; gone {
			continue
		}
		queue = append(queue, frontier{
			from: p.Name,
			atom: types.Atom{Name: p.Name, Constraint: types.Constraint{Op: types.RelOpEq, Version: p.Version}},
		})
	}

	var reasons []types.Reason
	visited := map[string]bool{}
	reached := map[string]bool{}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		visitKey := item.from + "\x00" + item.atom.Name + string(item.atom.Constraint.Op) + item.atom.Constraint.Version
		if visited[visitKey] {
			continue
		}
		visited[visitKey] = true

		ids, err := table.EncodeAtom(item.atom)
		if err != nil {
			return nil, err
		}
		var live []int
		for _, id := range ids {
			key, ok := table.KeyOf(id)
			if !ok {
				continue
			}
			if _, gone := removed[key.Name]; gone {
				continue
			}
			live = append(live, id)
		}
		if len(live) == 0 {
			reasons = append(reasons, types.Reason{
				Kind:    types.ReasonMissing,
				Package: item.from,
				Clause:  types.Clause{item.atom},
			})
			continue
		}

		names := make([]string, 0, len(live))
		for _, id := range live {
			key, _ := table.KeyOf(id)
			names = append(names, key.Name)
		}
		sort.Strings(names)
		reasons = append(reasons, types.Reason{Kind: types.ReasonDependency, From: item.from, Candidates: names})

		for _, id := range live {
			key, _ := table.KeyOf(id)
			if reached[key.Name] {
				continue
			}
			reached[key.Name] = true
			p, ok := universe.Lookup(key.Name, key.Version)
			if !ok {
				continue
			}
			for _, clause := range p.Depends {
				for _, atom := range clause {
					queue = append(queue, frontier{from: key.Name, atom: atom})
				}
			}
		}
	}

	reachedNames := make([]string, 0, len(reached))
	for name := range reached {
		reachedNames = append(reachedNames, name)
	}
	sort.Strings(reachedNames)
	for _, a := range reachedNames {
		for _, pa := range universe.Versions(a) {
			for _, conflictAtom := range pa.Conflicts {
				ids, err := table.EncodeAtom(conflictAtom)
				if err != nil {
					return nil, err
				}
				for _, id := range ids {
					key, ok := table.KeyOf(id)
					if !ok || !reached[key.Name] || key.Name == a {
						continue
					}
					reasons = append(reasons, types.Reason{Kind: types.ReasonConflict, A: a, B: key.Name})
				}
			}
		}
	}

	if len(reasons) == 0 {
		reasons = append(reasons, types.Reason{Kind: types.ReasonMissing, Package: sentinelRequestRoot})
	}
	return reasons, nil
}
