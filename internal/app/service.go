package app

import (
	"resolvent/internal/adapters"
	"resolvent/internal/ports"
)

// Service wires the on-disk snapshot adapters and the SAT base solver
// into one entry point the CLI layer calls, the same shape as the
// teacher's app.Service/NewService.
type Service struct {
	Snapshot adapters.SnapshotFileAdapter
	Solver   ports.BaseSolver
}

func NewService(solver ports.BaseSolver) Service {
	return Service{
		Snapshot: adapters.NewSnapshotFileAdapter(),
		Solver:   solver,
	}
}
