package core

import (
	"testing"

	"resolvent/internal/types"
)

func TestVersionCacheCompareDebian(t *testing.T) {
	c := newVersionCache()
	if c.compare(types.OriginDebian, "1.0-1", "1.0-2") >= 0 {
		t.Fatalf("expected 1.0-1 < 1.0-2 under debian ordering")
	}
}

func TestVersionCacheComparePEP440(t *testing.T) {
	c := newVersionCache()
	if c.compare(types.OriginPEP440, "1.0", "1.0.1") >= 0 {
		t.Fatalf("expected 1.0 < 1.0.1 under pep440 ordering")
	}
}

func TestVersionCacheCompareGenericNumericSegments(t *testing.T) {
	c := newVersionCache()
	if c.compare(types.OriginGeneric, "1.9.0", "1.10.0") >= 0 {
		t.Fatalf("expected numeric segment comparison, not lexicographic (1.9 < 1.10)")
	}
}

func TestVersionCacheSatisfies(t *testing.T) {
	c := newVersionCache()
	ok, err := c.satisfies(types.OriginGeneric, "2.0", types.Constraint{Op: types.RelOpGe, Version: "1.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected 2.0 >= 1.0 to hold")
	}

	ok, err = c.satisfies(types.OriginGeneric, "1.0", types.Constraint{Op: types.RelOpGt, Version: "1.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected 1.0 > 1.0 to not hold")
	}
}

func TestSatisfiesNoneConstraintAlwaysHolds(t *testing.T) {
	c := newVersionCache()
	ok, err := c.satisfies(types.OriginGeneric, "anything", types.Constraint{Op: types.RelOpNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected RelOpNone to always be satisfied")
	}
}

func TestValidateVersionRejectsMalformedDebian(t *testing.T) {
	if err := validateVersion(types.OriginDebian, "not a version!!"); err == nil {
		t.Fatalf("expected an error for a malformed debian version")
	}
}

func TestValidateVersionAcceptsGenericAnything(t *testing.T) {
	if err := validateVersion(types.OriginGeneric, "whatever-goes-here"); err != nil {
		t.Fatalf("generic origin should never fail validation, got %v", err)
	}
}
