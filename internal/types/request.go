package types

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Request is the user's wish relative to the currently-installed set.
type Request struct {
	WishInstall []Atom
	WishRemove  []Atom
	WishUpgrade []Atom
}

// Validate enforces the invariant that WishInstall and WishRemove name
// sets are disjoint.
func (r Request) Validate() error {
	removed := make(map[string]struct{}, len(r.WishRemove))
	for _, atom := range r.WishRemove {
		removed[atom.Name] = struct{}{}
	}
	for _, atom := range r.WishInstall {
		if _, ok := removed[atom.Name]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s requested for both install and remove", atom.Name))
		}
	}
	return nil
}

// IsPureRemoval reports whether the request carries only removals.
func (r Request) IsPureRemoval() bool {
	return len(r.WishRemove) > 0 && len(r.WishInstall) == 0 && len(r.WishUpgrade) == 0
}
