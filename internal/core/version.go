package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"resolvent/internal/types"
)

// versionCache memoizes parsed version objects per Origin so repeated
// comparisons during sorting and constraint evaluation don't re-parse.
type versionCache struct {
	deb     map[string]debversion.Version
	pep     map[string]pep440.Version
	generic map[string][]genericSegment
}

func newVersionCache() *versionCache {
	return &versionCache{
		deb:     map[string]debversion.Version{},
		pep:     map[string]pep440.Version{},
		generic: map[string][]genericSegment{},
	}
}

func (c *versionCache) debVersion(value string) (debversion.Version, error) {
	if v, ok := c.deb[value]; ok {
		return v, nil
	}
	v, err := debversion.NewVersion(value)
	if err != nil {
		return debversion.Version{}, err
	}
	c.deb[value] = v
	return v, nil
}

func (c *versionCache) pepVersion(value string) (pep440.Version, error) {
	if v, ok := c.pep[value]; ok {
		return v, nil
	}
	v, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.pep[value] = v
	return v, nil
}

func (c *versionCache) genericVersion(value string) []genericSegment {
	if v, ok := c.generic[value]; ok {
		return v
	}
	v := parseGenericVersion(value)
	c.generic[value] = v
	return v
}

// compare returns -1, 0, or 1 comparing a to b under the given origin's
// scheme. Unparseable versions fall back to lexicographic comparison so
// sorting never errors.
func (c *versionCache) compare(origin types.Origin, a, b string) int {
	switch origin {
	case types.OriginDebian:
		va, errA := c.debVersion(a)
		vb, errB := c.debVersion(b)
		if errA != nil || errB != nil {
			return strings.Compare(a, b)
		}
		return va.Compare(vb)
	case types.OriginPEP440:
		va, errA := c.pepVersion(a)
		vb, errB := c.pepVersion(b)
		if errA != nil || errB != nil {
			return strings.Compare(a, b)
		}
		return va.Compare(vb)
	default:
		return compareGeneric(c.genericVersion(a), c.genericVersion(b))
	}
}

// satisfies reports whether version meets the single constraint under
// origin's scheme.
func (c *versionCache) satisfies(origin types.Origin, version string, constraint types.Constraint) (bool, error) {
	if constraint.Op == types.RelOpNone {
		return true, nil
	}
	cmp := 0
	switch origin {
	case types.OriginDebian:
		v, err := c.debVersion(version)
		if err != nil {
			return false, err
		}
		ref, err := c.debVersion(constraint.Version)
		if err != nil {
			return false, err
		}
		cmp = v.Compare(ref)
	case types.OriginPEP440:
		v, err := c.pepVersion(version)
		if err != nil {
			return false, err
		}
		ref, err := c.pepVersion(constraint.Version)
		if err != nil {
			return false, err
		}
		cmp = v.Compare(ref)
	default:
		cmp = compareGeneric(c.genericVersion(version), c.genericVersion(constraint.Version))
	}
	return relOpHolds(constraint.Op, cmp), nil
}

func relOpHolds(op types.RelOp, cmp int) bool {
	switch op {
	case types.RelOpEq:
		return cmp == 0
	case types.RelOpNe:
		return cmp != 0
	case types.RelOpLt:
		return cmp < 0
	case types.RelOpLe:
		return cmp <= 0
	case types.RelOpGt:
		return cmp > 0
	case types.RelOpGe:
		return cmp >= 0
	default:
		return true
	}
}

// genericSegment is one dot/dash/underscore/plus-separated token of a generic version
// string, compared numerically when both sides parse as integers and
// lexicographically otherwise. This is the fallback scheme (OriginGeneric)
// for packages sourced from neither APT nor PyPI-style ecosystems.
type genericSegment struct {
	num    int64
	isNum  bool
	text   string
}

func parseGenericVersion(value string) []genericSegment {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || r == '+'
	})
	segments := make([]genericSegment, 0, len(fields))
	for _, f := range fields {
		if n, err := strconv.ParseInt(f, 10, 64); err == nil {
			segments = append(segments, genericSegment{num: n, isNum: true})
			continue
		}
		segments = append(segments, genericSegment{text: f})
	}
	return segments
}

func compareGeneric(a, b []genericSegment) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareGenericSegment(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareGenericSegment(a, b genericSegment) int {
	if a.isNum && b.isNum {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.text, b.text)
}

// validateVersion fails fast on a version string that its origin's
// scheme cannot parse at all, so malformed universes are rejected at
// encoder Init rather than silently falling back to lexicographic order
// deep inside a sort.
func validateVersion(origin types.Origin, version string) error {
	switch origin {
	case types.OriginDebian:
		if _, err := debversion.NewVersion(version); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid debian version %q", version)).
				WithCause(err)
		}
	case types.OriginPEP440:
		if _, err := pep440.Parse(version); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid pep440 version %q", version)).
				WithCause(err)
		}
	}
	return nil
}
