package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"resolvent/internal/adapters"
	"resolvent/internal/core"
	"resolvent/internal/policies"
	"resolvent/internal/types"
)

// Resolve loads the universe and request snapshots named by req, runs
// the core resolver, and — when req.DebugDir is set — dumps the before
// universe and its dependency graph alongside the run. A dump failure
// never changes the resolution outcome: it's logged and otherwise
// ignored.
func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	logger := log.Ctx(ctx)

	if strings.TrimSpace(req.UniversePath) == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("universe snapshot path is required")
	}
	if strings.TrimSpace(req.RequestPath) == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("request snapshot path is required")
	}

	universe, err := s.Snapshot.LoadUniverse(req.UniversePath)
	if err != nil {
		return ResolveResult{}, err
	}
	request, err := s.Snapshot.LoadRequest(req.RequestPath)
	if err != nil {
		return ResolveResult{}, err
	}

	if dir := strings.TrimSpace(req.DebugDir); dir != "" {
		dumper := adapters.NewDebugDumpAdapter(dir)
		if err := dumper.DumpUniverse("before", universe); err != nil {
			logger.Debug().Err(err).Msg("failed to write debug universe dump")
		}
		if err := dumper.DumpDependencyGraph("before", universe); err != nil {
			logger.Debug().Err(err).Msg("failed to write debug dependency graph dump")
		}
	}

	overrides := policies.NewOverridePolicy(req.Overrides)
	plan, explainer, err := core.Resolve(ctx, s.Solver, universe, request, types.NewPackageSet(universe.Installed()...), overrides)
	if err != nil {
		return ResolveResult{}, err
	}
	if explainer != nil {
		return ResolveResult{Explained: true, Lines: explainer.Render()}, nil
	}

	stats := core.Stats(plan)
	return ResolveResult{
		Install:   stats.Install,
		Reinstall: stats.Reinstall,
		Upgrade:   stats.Upgrade,
		Downgrade: stats.Downgrade,
		Remove:    stats.Remove,
	}, nil
}
