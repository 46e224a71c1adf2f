package policies

import (
	"strings"

	"resolvent/internal/types"
)

// OverrideDirective rewrites or blocks a request atom before it reaches
// the encoder: force pins an exact version, relax drops the atom's
// constraint, replace swaps in another package name, block rejects the
// atom outright.
type OverrideDirective struct {
	Pattern string
	Action  types.OverrideAction
	Value   string
}

type prefixPattern struct {
	prefix string
	index  int
}

// OverridePolicy compiles directives into exact/prefix/wildcard
// matchers over one flat package namespace.
type OverridePolicy struct {
	Directives []OverrideDirective
	exact      map[string]int
	prefix     []prefixPattern
	wildcard   int
}

func NewOverridePolicy(directives []OverrideDirective) OverridePolicy {
	p := OverridePolicy{Directives: directives}
	p.compile()
	return p
}

func (p *OverridePolicy) compile() {
	p.exact = map[string]int{}
	p.prefix = nil
	p.wildcard = -1
	for idx, d := range p.Directives {
		pattern := strings.TrimSpace(d.Pattern)
		switch {
		case pattern == "" || pattern == "*":
			if p.wildcard < 0 {
				p.wildcard = idx
			}
		case strings.HasSuffix(pattern, "*"):
			p.prefix = append(p.prefix, prefixPattern{prefix: strings.TrimSuffix(pattern, "*"), index: idx})
		default:
			if _, ok := p.exact[pattern]; !ok {
				p.exact[pattern] = idx
			}
		}
	}
}

// Match returns the highest-precedence directive for name: an exact
// match wins over a prefix match, which wins over the wildcard
// fallback; ties within a tier keep whichever directive was declared
// first.
func (p OverridePolicy) Match(name string) (OverrideDirective, bool) {
	if idx, ok := p.exact[name]; ok {
		return p.Directives[idx], true
	}
	best := -1
	for _, entry := range p.prefix {
		if strings.HasPrefix(name, entry.prefix) {
			best = minIndex(best, entry.index)
		}
	}
	if best < 0 && p.wildcard >= 0 {
		best = p.wildcard
	}
	if best < 0 {
		return OverrideDirective{}, false
	}
	return p.Directives[best], true
}

func minIndex(current, candidate int) int {
	if candidate < 0 {
		return current
	}
	if current < 0 || candidate < current {
		return candidate
	}
	return current
}
