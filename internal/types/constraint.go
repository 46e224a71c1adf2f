package types

// Constraint is one version constraint: None means "any version".
type Constraint struct {
	Op      RelOp
	Version string
}

// Atom is a package name paired with an optional version constraint.
type Atom struct {
	Name       string
	Constraint Constraint
}

// Clause is a disjunction of atoms: satisfied if any one atom is.
type Clause []Atom

// CNF is a conjunction of clauses: every clause must be satisfied.
type CNF []Clause
