package core

import (
	"testing"

	"resolvent/internal/types"
)

func TestNewConflictExplainerPartitionsFacts(t *testing.T) {
	reasons := []types.Reason{
		{Kind: types.ReasonDependency, From: sentinelRequestRoot, Candidates: []string{"foo"}},
		{Kind: types.ReasonDependency, From: "foo", Candidates: []string{"bar"}},
		{Kind: types.ReasonMissing, Package: "bar"},
		{Kind: types.ReasonConflict, A: "baz", B: "qux"},
	}

	exp := NewConflictExplainer(reasons)
	if len(exp.Chains) != 1 {
		t.Fatalf("expected one chain rooted at the request, got %d", len(exp.Chains))
	}
	if len(exp.Chains[0].facts) != 2 {
		t.Fatalf("expected the chain to follow request->foo->bar, got %+v", exp.Chains[0].facts)
	}
	if len(exp.Conflicts) != 1 {
		t.Fatalf("expected one standalone conflict, got %d", len(exp.Conflicts))
	}
	if len(exp.Missing) != 1 {
		t.Fatalf("expected one standalone missing fact, got %d", len(exp.Missing))
	}
}

func TestConflictExplainerRenderProducesReadableLines(t *testing.T) {
	exp := NewConflictExplainer([]types.Reason{
		{Kind: types.ReasonDependency, From: sentinelRequestRoot, Candidates: []string{"foo"}},
		{Kind: types.ReasonMissing, Package: "foo"},
	})
	lines := exp.Render()
	if len(lines) == 0 {
		t.Fatalf("expected at least one rendered line")
	}
}

func TestChainRenderReplacesSentinelWithRequest(t *testing.T) {
	chain := Chain{facts: []types.Reason{
		{Kind: types.ReasonDependency, From: sentinelRequestRoot, Candidates: []string{"foo"}},
	}}
	lines := chain.Render()
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %v", lines)
	}
	if lines[0] != "the request requires one of: foo" {
		t.Fatalf("expected sentinel to render as 'the request', got %q", lines[0])
	}
}
