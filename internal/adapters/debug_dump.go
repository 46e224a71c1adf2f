package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"resolvent/internal/ports"
	"resolvent/internal/types"
)

// DebugDumpAdapter writes .cudf universe dumps and .dot dependency-graph
// dumps to Dir, gated entirely by the caller constructing one —
// app.Service.Resolve builds one only when ResolveRequest.DebugDir is
// set, and its return value is unaffected either way. File writing is
// simple by design: create the directory, write a deterministic name,
// no retry.
type DebugDumpAdapter struct {
	Dir string
}

func NewDebugDumpAdapter(dir string) DebugDumpAdapter {
	return DebugDumpAdapter{Dir: dir}
}

// DumpUniverse writes a CUDF-style plain-text rendering of u, one
// stanza per package, to <Dir>/<name>.cudf.
func (a DebugDumpAdapter) DumpUniverse(name string, u types.Universe) error {
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create debug dump directory").
			WithCause(err)
	}

	var b strings.Builder
	names := append([]string{}, u.Names()...)
	sort.Strings(names)
	for _, n := range names {
		versions := append([]types.Package{}, u.Versions(n)...)
		sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
		for _, p := range versions {
			fmt.Fprintf(&b, "package: %s\n", p.Name)
			fmt.Fprintf(&b, "version: %s\n", p.Version)
			fmt.Fprintf(&b, "installed: %t\n", p.Installed)
			if len(p.Depends) > 0 {
				fmt.Fprintf(&b, "depends: %s\n", cnfToCUDF(p.Depends))
			}
			if len(p.Conflicts) > 0 {
				fmt.Fprintf(&b, "conflicts: %s\n", clauseToCUDF(p.Conflicts))
			}
			b.WriteString("\n")
		}
	}

	path := filepath.Join(a.Dir, name+".cudf")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write cudf dump").
			WithCause(err)
	}
	return nil
}

// DumpDependencyGraph writes a Graphviz .dot rendering of u's installed
// dependency edges to <Dir>/<name>.dot.
func (a DebugDumpAdapter) DumpDependencyGraph(name string, u types.Universe) error {
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create debug dump directory").
			WithCause(err)
	}

	var edges []string
	for _, p := range u.Installed() {
		for _, clause := range p.Depends {
			for _, atom := range clause {
				edges = append(edges, fmt.Sprintf("\t%q -> %q;", p.Name, atom.Name))
			}
		}
	}
	sort.Strings(edges)

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", graphvizSafeName(name))
	for _, edge := range edges {
		b.WriteString(edge)
		b.WriteString("\n")
	}
	b.WriteString("}\n")

	path := filepath.Join(a.Dir, name+".dot")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write dot dump").
			WithCause(err)
	}
	return nil
}

func cnfToCUDF(cnf types.CNF) string {
	clauses := make([]string, 0, len(cnf))
	for _, clause := range cnf {
		clauses = append(clauses, clauseToCUDF(clause))
	}
	return strings.Join(clauses, ", ")
}

func clauseToCUDF(clause types.Clause) string {
	parts := make([]string, 0, len(clause))
	for _, atom := range clause {
		if atom.Constraint.Op == types.RelOpNone {
			parts = append(parts, atom.Name)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s %s)", atom.Name, atom.Constraint.Op, atom.Constraint.Version))
	}
	return strings.Join(parts, " | ")
}

func graphvizSafeName(name string) string {
	replacer := strings.NewReplacer("-", "_", ".", "_", " ", "_")
	return replacer.Replace(name)
}

var _ ports.DebugSink = DebugDumpAdapter{}
