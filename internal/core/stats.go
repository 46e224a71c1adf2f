package core

import "resolvent/internal/types"

// Stats tallies a plan's action counts. Per spec.md §4.7, reinstall =
// recompile + same-version change: an Install vertex that also carries
// Old (the reinstall_fixup case the Action Graph Builder tags in Phase
// D, for a Change(None,p) whose name was already installed at a
// different version) counts as Reinstall, and so does every Recompile
// vertex — the package stays installed at the same version but gets
// rebuilt, which is exactly the second half of §4.7's definition.
func Stats(plan types.Plan) types.Stats {
	var stats types.Stats
	stats.Remove = len(plan.ToRemove)
	if plan.ToAdd == nil {
		return stats
	}
	for _, v := range plan.ToAdd.Vertices() {
		switch v.Kind {
		case types.ActionInstall:
			if v.Old != nil {
				stats.Reinstall++
			} else {
				stats.Install++
			}
		case types.ActionUpgrade:
			stats.Upgrade++
		case types.ActionDowngrade:
			stats.Downgrade++
		case types.ActionRecompile:
			stats.Reinstall++
		case types.ActionDelete:
			stats.Remove++
		}
	}
	return stats
}
