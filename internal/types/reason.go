package types

// Reason is one atomic fact returned by the base solver on Unsat.
// Dependency facts form a DAG rooted at a synthetic request vertex;
// Conflict and Missing facts are leaves consumed directly by the
// Conflict Explainer's bullet list.
type Reason struct {
	Kind ReasonKind

	// Conflict: A and B name the two packages that cannot coexist.
	A, B string

	// Missing: Package is the package whose clause nobody satisfies;
	// Clause is the unmet disjunction.
	Package string
	Clause  Clause

	// Dependency: From is the depending package name (or the synthetic
	// request root); Candidates lists the packages that could have
	// satisfied From's clause.
	From       string
	Candidates []string
}
