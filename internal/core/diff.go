package core

import (
	"sort"

	"resolvent/internal/types"
)

// DiffUniverses computes the per-name set difference between the
// currently-installed universe and the solved universe, producing
// Install/Upgrade/Downgrade (Change) and Delete actions. It never emits
// Recompile — that obligation is inserted later, once the target
// dependency graph is known, by the Action Graph Builder.
func DiffUniverses(before, after types.Universe) []types.InternalAction {
	beforeByName := map[string]types.Package{}
	for _, p := range before.Installed() {
		beforeByName[p.Name] = p
	}
	afterByName := map[string]types.Package{}
	for _, p := range after.Installed() {
		afterByName[p.Name] = p
	}

	names := make(map[string]struct{}, len(beforeByName)+len(afterByName))
	for name := range beforeByName {
		names[name] = struct{}{}
	}
	for name := range afterByName {
		names[name] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	cache := newVersionCache()
	var actions []types.InternalAction
	for _, name := range sorted {
		from, hadBefore := beforeByName[name]
		to, hasAfter := afterByName[name]
		switch {
		case hadBefore && !hasAfter:
			f := from
			actions = append(actions, types.InternalAction{Kind: types.ActionDelete, From: &f})
		case !hadBefore && hasAfter:
			t := to
			actions = append(actions, types.InternalAction{Kind: types.ActionInstall, To: &t})
		case hadBefore && hasAfter:
			if from.Version == to.Version {
				continue
			}
			cmp := cache.compare(to.Origin, from.Version, to.Version)
			if cmp == 0 {
				continue
			}
			kind := types.ActionUpgrade
			if cmp > 0 {
				kind = types.ActionDowngrade
			}
			f, t := from, to
			actions = append(actions, types.InternalAction{Kind: kind, From: &f, To: &t})
		}
	}
	return actions
}
