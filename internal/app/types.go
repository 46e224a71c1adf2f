package app

import "resolvent/internal/policies"

// ResolveRequest is the CLI-facing request for one resolve run: paths to
// the universe/request snapshots plus optional override directives and
// a debug dump directory.
type ResolveRequest struct {
	UniversePath string
	RequestPath  string
	Overrides    []policies.OverrideDirective
	DebugDir     string
}

// ResolveResult summarizes a completed run for the CLI to print.
type ResolveResult struct {
	Install   int
	Reinstall int
	Upgrade   int
	Downgrade int
	Remove    int
	Explained bool
	Lines     []string
}
