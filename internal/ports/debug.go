package ports

import "resolvent/internal/types"

// DebugSink receives a resolution run's observability dumps.
// Their absence must never affect Resolve's return value — nothing in
// internal/core calls a DebugSink; app.Service.Resolve writes dumps only
// when a debug directory is set and logs a failed write without changing
// its result.
type DebugSink interface {
	DumpUniverse(name string, u types.Universe) error
	DumpDependencyGraph(name string, u types.Universe) error
}
