package vars

// A Context is a named scope holding a name -> Var mapping and an ordered
// list of parent Contexts. Contexts form a DAG; all traversals are
// cycle-safe via a visited set.
//
// This is the explicit, non-reflective replacement for the source's
// dynamic attribute-hook lookup (see spec.md DESIGN NOTES): reading an
// attribute is modelled as Lookup(name), a pure function of the scope DAG.
type Context struct {
	Name    string
	vars    map[string]*Var
	Parents []*Context
}

// NewContext creates a named scope with the given parent contexts.
func NewContext(name string, parents ...*Context) *Context {
	return &Context{Name: name, vars: map[string]*Var{}, Parents: parents}
}

// Lookup returns a freshly-assembled view of the named Var: the locally
// declared Var (created empty and inheriting if absent) with its parents
// slot populated from each parent Context's recursive lookup of the same
// name. The returned Var is a read-only snapshot; mutate via Set/Append/Sub
// on the Context instead.
func (c *Context) Lookup(name string) *Var {
	return c.lookup(name, map[*Context]bool{})
}

func (c *Context) lookup(name string, visited map[*Context]bool) *Var {
	own := c.vars[name]
	if own == nil {
		own = New("")
	}
	if visited[c] {
		return own.withParents(nil)
	}
	visited[c] = true
	var parents []*Var
	for _, p := range c.Parents {
		if pv := p.lookup(name, visited); pv != nil {
			parents = append(parents, pv)
		}
	}
	return own.withParents(parents)
}

// ensure returns the local Var for name, creating an empty inheriting one
// if it doesn't exist yet. Local mutation (Append/Sub/Set) goes through
// this so repeated local edits accumulate on the same underlying Var.
func (c *Context) ensure(name string) *Var {
	v := c.vars[name]
	if v == nil {
		v = New("")
		c.vars[name] = v
	}
	return v
}

// SetValue wraps a plain value assignment: disables inheritance and sets
// the single value, creating the Var locally if it doesn't exist, or
// mutating the existing one in place.
func (c *Context) SetValue(name, value string) {
	c.ensure(name).Set(value)
}

// Append adds an entry to the local Var's own list without disabling
// inheritance (the `+=` operator).
func (c *Context) Append(name string, values ...string) {
	c.ensure(name).Add(values...)
}

// Remove is the `-=` operator: removes entries and records them so future
// inherited additions are suppressed too.
func (c *Context) Remove(name string, values ...string) {
	c.ensure(name).Sub(values...)
}

// SetVar assigns a Var by deep-copying it into the local slot, per spec.md:
// "assigning a Var deep-copies it."
func (c *Context) SetVar(name string, v *Var) {
	c.vars[name] = v.Clone()
}

// Names returns the union of locally-declared Var names over the whole
// parent DAG, cycle-safe.
func (c *Context) Names() []string {
	seen := map[string]bool{}
	var order []string
	c.names(map[*Context]bool{}, seen, &order)
	return order
}

func (c *Context) names(visited map[*Context]bool, seen map[string]bool, order *[]string) {
	if visited[c] {
		return
	}
	visited[c] = true
	for n := range c.vars {
		if !seen[n] {
			seen[n] = true
			*order = append(*order, n)
		}
	}
	for _, p := range c.Parents {
		p.names(visited, seen, order)
	}
}
