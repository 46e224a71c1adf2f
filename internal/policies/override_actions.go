package policies

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"resolvent/internal/types"
)

// BlockedError signals that directive.Action was Block for atom: the
// caller should surface this as an immediate conflict, never reaching
// the base solver.
type BlockedError struct {
	Atom types.Atom
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s blocked by override policy", e.Atom.Name)
}

// ApplyOverride rewrites atom per directive. Block returns an error
// naming the blocked atom so the caller can surface an immediate
// unsatisfiable outcome without ever reaching the base solver.
func ApplyOverride(atom types.Atom, directive OverrideDirective) (types.Atom, error) {
	switch directive.Action {
	case types.OverrideForce:
		if directive.Value == "" {
			return types.Atom{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("force override requires a value")
		}
		return types.Atom{Name: atom.Name, Constraint: types.Constraint{Op: types.RelOpEq, Version: directive.Value}}, nil
	case types.OverrideRelax:
		return types.Atom{Name: atom.Name, Constraint: types.Constraint{Op: types.RelOpNone}}, nil
	case types.OverrideReplace:
		if directive.Value == "" {
			return types.Atom{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("replace override requires a value")
		}
		return types.Atom{Name: directive.Value, Constraint: types.Constraint{Op: types.RelOpNone}}, nil
	case types.OverrideBlock:
		return types.Atom{}, &BlockedError{Atom: atom}
	default:
		return types.Atom{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown override action: %s", directive.Action))
	}
}

// ApplyAll rewrites every atom in atoms whose name matches a directive
// in policy, leaving unmatched atoms untouched.
func ApplyAll(policy OverridePolicy, atoms []types.Atom) ([]types.Atom, error) {
	out := make([]types.Atom, 0, len(atoms))
	for _, atom := range atoms {
		directive, matched := policy.Match(atom.Name)
		if !matched {
			out = append(out, atom)
			continue
		}
		rewritten, err := ApplyOverride(atom, directive)
		if err != nil {
			return nil, err
		}
		out = append(out, rewritten)
	}
	return out, nil
}
