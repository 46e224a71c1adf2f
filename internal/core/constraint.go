package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"resolvent/internal/types"
)

// relOpTokens is the ordered list of operators tried during parsing.
// Longer/ambiguous tokens must precede shorter ones so ">=" is not
// mistaken for ">" followed by a literal "=".
var relOpTokens = []types.RelOp{
	types.RelOpGe,
	types.RelOpLe,
	types.RelOpNe,
	types.RelOpEq,
	types.RelOpGt,
	types.RelOpLt,
}

// ParseAtom splits a raw "name>=version" string (as found in request YAML
// or CLI flags) into an Atom. No operator present means "any version".
func ParseAtom(raw string) (types.Atom, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.Atom{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty atom")
	}
	for _, op := range relOpTokens {
		if idx := strings.Index(raw, string(op)); idx >= 0 {
			name := strings.TrimSpace(raw[:idx])
			version := strings.TrimSpace(raw[idx+len(op):])
			if name == "" || version == "" {
				return types.Atom{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("invalid atom: %s", raw))
			}
			return types.Atom{Name: name, Constraint: types.Constraint{Op: op, Version: version}}, nil
		}
	}
	return types.Atom{Name: raw, Constraint: types.Constraint{Op: types.RelOpNone}}, nil
}

// parseAlternatives splits a pipe-separated disjunction (e.g.
// "libfoo | libbar>=2") into an atom clause over the generic RelOp
// token set.
func parseAlternatives(group string) (types.Clause, error) {
	parts := strings.Split(group, "|")
	clause := make(types.Clause, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		atom, err := ParseAtom(part)
		if err != nil {
			return nil, err
		}
		clause = append(clause, atom)
	}
	return clause, nil
}

// parseCNFFormula parses a comma-separated list of pipe-separated
// alternatives into a CNF, the textual shape stored in a package's
// Extras map for optional dependencies.
func parseCNFFormula(formula string) (types.CNF, error) {
	formula = strings.TrimSpace(formula)
	if formula == "" {
		return nil, nil
	}
	groups := strings.Split(formula, ",")
	cnf := make(types.CNF, 0, len(groups))
	for _, group := range groups {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		clause, err := parseAlternatives(group)
		if err != nil {
			return nil, err
		}
		if len(clause) == 0 {
			continue
		}
		cnf = append(cnf, clause)
	}
	return cnf, nil
}
