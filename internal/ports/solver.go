package ports

import (
	"context"

	"resolvent/internal/types"
)

// SolverOutcome tags which arm of BaseSolver.CheckRequest fired.
type SolverOutcome string

const (
	OutcomeSat   SolverOutcome = "sat"
	OutcomeUnsat SolverOutcome = "unsat"
	OutcomeError SolverOutcome = "error"
)

// SolverResult is the narrow contract a base solver returns: exactly one of
// Universe (Sat) or Reasons (Unsat) is populated, or Err is set (Error).
type SolverResult struct {
	Outcome  SolverOutcome
	Universe types.Universe
	Reasons  []types.Reason
	Err      error
}

// BaseSolver is the external collaborator contract the core resolves
// against. Implementations do not retry, back off, or interpret reasons
// themselves — that is the Conflict Explainer's job.
type BaseSolver interface {
	CheckRequest(ctx context.Context, universe types.Universe, request types.Request) (SolverResult, error)
}
