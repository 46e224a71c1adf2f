package policies

import (
	"errors"
	"testing"

	"resolvent/internal/types"
)

func TestApplyOverrideForce(t *testing.T) {
	atom := types.Atom{Name: "foo", Constraint: types.Constraint{Op: types.RelOpNone}}
	out, err := ApplyOverride(atom, OverrideDirective{Action: types.OverrideForce, Value: "1.2.3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Constraint.Op != types.RelOpEq || out.Constraint.Version != "1.2.3" {
		t.Fatalf("expected pinned =1.2.3, got %+v", out.Constraint)
	}
}

func TestApplyOverrideForceRequiresValue(t *testing.T) {
	atom := types.Atom{Name: "foo"}
	_, err := ApplyOverride(atom, OverrideDirective{Action: types.OverrideForce})
	if err == nil {
		t.Fatalf("expected an error when force has no value")
	}
}

func TestApplyOverrideRelaxDropsConstraint(t *testing.T) {
	atom := types.Atom{Name: "foo", Constraint: types.Constraint{Op: types.RelOpGe, Version: "2.0"}}
	out, err := ApplyOverride(atom, OverrideDirective{Action: types.OverrideRelax})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Constraint.Op != types.RelOpNone {
		t.Fatalf("expected relaxed constraint, got %+v", out.Constraint)
	}
}

func TestApplyOverrideReplaceRenamesAtom(t *testing.T) {
	atom := types.Atom{Name: "foo"}
	out, err := ApplyOverride(atom, OverrideDirective{Action: types.OverrideReplace, Value: "bar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "bar" {
		t.Fatalf("expected replacement name bar, got %q", out.Name)
	}
}

func TestApplyOverrideBlockReturnsTypedError(t *testing.T) {
	atom := types.Atom{Name: "foo"}
	_, err := ApplyOverride(atom, OverrideDirective{Action: types.OverrideBlock})

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected a *BlockedError, got %v (%T)", err, err)
	}
	if blocked.Atom.Name != "foo" {
		t.Fatalf("expected blocked atom to be foo, got %+v", blocked.Atom)
	}
}

func TestApplyAllLeavesUnmatchedAtomsUntouched(t *testing.T) {
	policy := NewOverridePolicy([]OverrideDirective{
		{Pattern: "foo", Action: types.OverrideRelax},
	})
	atoms := []types.Atom{
		{Name: "foo", Constraint: types.Constraint{Op: types.RelOpGe, Version: "2.0"}},
		{Name: "bar", Constraint: types.Constraint{Op: types.RelOpGe, Version: "3.0"}},
	}
	out, err := ApplyAll(policy, atoms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Constraint.Op != types.RelOpNone {
		t.Fatalf("expected foo's constraint relaxed, got %+v", out[0])
	}
	if out[1].Constraint.Op != types.RelOpGe || out[1].Constraint.Version != "3.0" {
		t.Fatalf("expected bar untouched, got %+v", out[1])
	}
}

func TestApplyAllPropagatesBlockedError(t *testing.T) {
	policy := NewOverridePolicy([]OverrideDirective{
		{Pattern: "foo", Action: types.OverrideBlock},
	})
	_, err := ApplyAll(policy, []types.Atom{{Name: "foo"}})

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected ApplyAll to surface the BlockedError, got %v", err)
	}
}
