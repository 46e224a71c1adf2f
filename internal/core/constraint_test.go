package core

import (
	"testing"

	"resolvent/internal/types"
)

func TestParseAtomWithOperator(t *testing.T) {
	atom, err := ParseAtom("foo>=1.2.3")
	if err != nil {
		t.Fatalf("ParseAtom: %v", err)
	}
	if atom.Name != "foo" || atom.Constraint.Op != types.RelOpGe || atom.Constraint.Version != "1.2.3" {
		t.Fatalf("unexpected atom: %+v", atom)
	}
}

func TestParseAtomGreaterThanDoesNotSwallowGreaterEqual(t *testing.T) {
	atom, err := ParseAtom("foo>1.0")
	if err != nil {
		t.Fatalf("ParseAtom: %v", err)
	}
	if atom.Constraint.Op != types.RelOpGt || atom.Constraint.Version != "1.0" {
		t.Fatalf("expected a bare > operator, got %+v", atom.Constraint)
	}
}

func TestParseAtomNoOperatorMeansAnyVersion(t *testing.T) {
	atom, err := ParseAtom("foo")
	if err != nil {
		t.Fatalf("ParseAtom: %v", err)
	}
	if atom.Constraint.Op != types.RelOpNone {
		t.Fatalf("expected RelOpNone, got %+v", atom.Constraint)
	}
}

func TestParseAtomRejectsEmpty(t *testing.T) {
	if _, err := ParseAtom("   "); err == nil {
		t.Fatalf("expected an error for an empty atom")
	}
}

func TestParseAlternativesSplitsOnPipe(t *testing.T) {
	clause, err := parseAlternatives("foo | bar>=2.0")
	if err != nil {
		t.Fatalf("parseAlternatives: %v", err)
	}
	if len(clause) != 2 || clause[0].Name != "foo" || clause[1].Name != "bar" {
		t.Fatalf("unexpected clause: %+v", clause)
	}
}

func TestParseCNFFormulaSplitsOnCommaAndPipe(t *testing.T) {
	cnf, err := parseCNFFormula("foo, bar>=1.0 | baz")
	if err != nil {
		t.Fatalf("parseCNFFormula: %v", err)
	}
	if len(cnf) != 2 {
		t.Fatalf("expected two clauses, got %+v", cnf)
	}
	if len(cnf[0]) != 1 || len(cnf[1]) != 2 {
		t.Fatalf("expected a singleton clause then a two-way alternative, got %+v", cnf)
	}
}

func TestParseCNFFormulaEmptyIsNil(t *testing.T) {
	cnf, err := parseCNFFormula("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cnf != nil {
		t.Fatalf("expected nil CNF for an empty formula, got %+v", cnf)
	}
}
