// Package vars implements the hierarchical, inheritance-based variable
// store that backs per-target command-line flags and environment.
package vars

import "strings"

// A Var is an ordered, inheritable list of strings with append/remove/join
// semantics. It optionally inherits from a set of parent Vars assembled at
// lookup time by a Context.
type Var struct {
	own      []string
	removed  map[string]bool
	joiner   string
	inherit  bool
	parents  []*Var
}

// New returns an empty, inheriting Var joined by the given separator.
// An empty joiner defaults to a single space, matching shell word joining.
func New(joiner string) *Var {
	if joiner == "" {
		joiner = " "
	}
	return &Var{joiner: joiner, inherit: true}
}

// NewNonInheriting returns a Var seeded with a single value that does not
// pull in any parent contributions. This is what a plain attribute
// assignment (`ctx.CFLAGS = "-O2"`) produces.
func NewNonInheriting(joiner string, value ...string) *Var {
	v := New(joiner)
	v.inherit = false
	v.own = append(v.own, value...)
	return v
}

// Clone deep-copies a Var, including its remove-set but not its parents
// (parents are re-assembled by the owning Context on each lookup).
func (v *Var) Clone() *Var {
	c := &Var{
		own:     append([]string(nil), v.own...),
		joiner:  v.joiner,
		inherit: v.inherit,
	}
	if v.removed != nil {
		c.removed = make(map[string]bool, len(v.removed))
		for k := range v.removed {
			c.removed[k] = true
		}
	}
	return c
}

// withParents returns a shallow copy of v with its parents field populated.
// Used by Context.Lookup, which assembles a fresh view on every read.
func (v *Var) withParents(parents []*Var) *Var {
	c := *v
	c.parents = parents
	return &c
}

// Append adds an entry to this Var's own list.
func (v *Var) Append(x string) {
	v.own = append(v.own, x)
}

// Add is the `+=` operator: append, without disabling inheritance.
func (v *Var) Add(xs ...string) {
	v.own = append(v.own, xs...)
}

// Set replaces the own list with a single value and disables inheritance.
// This is what a plain attribute assignment does.
func (v *Var) Set(x string) {
	v.own = []string{x}
	v.inherit = false
}

// Unset clears the own list and remove-set but keeps the inherit flag as-is.
func (v *Var) Unset() {
	v.own = nil
	v.removed = nil
}

// Reset clears everything and re-enables inheritance.
func (v *Var) Reset() {
	v.own = nil
	v.removed = nil
	v.inherit = true
}

// Sub is the `-=` operator: removes matching entries from the combined view
// and records them in the remove-set so future inherited additions with the
// same value are also suppressed.
func (v *Var) Sub(xs ...string) {
	if v.removed == nil {
		v.removed = make(map[string]bool, len(xs))
	}
	for _, x := range xs {
		v.removed[x] = true
	}
	kept := v.own[:0:0]
	for _, o := range v.own {
		if !v.removed[o] {
			kept = append(kept, o)
		}
	}
	v.own = kept
}

// Combined returns the assembled list: parents (in declared order,
// deduplicated by identity so a Var reachable via two parent paths
// contributes only once) followed by this Var's own additions, with
// anything in the remove-set filtered out. Each parent applies the same
// rules to what it contributes: its own parents only if it inherits, and
// minus its own remove-set.
func (v *Var) Combined() []string {
	out := []string{}
	seen := map[*Var]bool{}
	var walk func(p *Var)
	walk = func(p *Var) {
		if p == nil || seen[p] {
			return
		}
		seen[p] = true
		start := len(out)
		if p.inherit {
			for _, pp := range p.parents {
				walk(pp)
			}
		}
		out = append(out, p.own...)
		if len(p.removed) > 0 {
			kept := out[:start]
			for _, o := range out[start:] {
				if !p.removed[o] {
					kept = append(kept, o)
				}
			}
			out = kept
		}
	}
	if v.inherit {
		for _, p := range v.parents {
			walk(p)
		}
	}
	out = append(out, v.own...)
	if len(v.removed) == 0 {
		return out
	}
	kept := out[:0:0]
	for _, o := range out {
		if !v.removed[o] {
			kept = append(kept, o)
		}
	}
	return kept
}

// Join renders Combined() as a single shell-friendly string. An empty
// Combined() renders as the empty string. sep overrides the Var's own
// joiner for this call only; pass "" to use the Var's configured joiner.
func (v *Var) Join(sep string) string {
	if sep == "" {
		sep = v.joiner
	}
	c := v.Combined()
	if len(c) == 0 {
		return ""
	}
	return sep + strings.Join(c, sep)
}

// ShellJoin is Join with a single space, the common case for building
// command-line argument strings.
func (v *Var) ShellJoin() string {
	return strings.TrimPrefix(v.Join(" "), " ")
}

// Prefix returns a new list with p prepended to each entry of Combined(),
// e.g. Prefix("-I") on ["a", "b"] yields ["-Ia", "-Ib"].
func (v *Var) Prefix(p string) []string {
	c := v.Combined()
	out := make([]string, len(c))
	for i, e := range c {
		out[i] = p + e
	}
	return out
}
