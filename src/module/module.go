// Package module implements named groups of compiled objects with
// transitive uses/needs relations, conditional (`use_if`) activation,
// and per-module context composition (spec.md §4.3).
package module

import (
	"fmt"

	"github.com/pyjam-build/pyjam/src/boolexpr"
	"github.com/pyjam-build/pyjam/src/cli/logging"
	"github.com/pyjam-build/pyjam/src/graph"
	"github.com/pyjam-build/pyjam/src/vars"
)

var log = logging.Log

// Module is a named bundle of object files with transitive use
// relations and conditional activation. It does not construct compile
// rules itself: the caller compiles its sources with the rules package
// and assigns the resulting object targets to Objects (rules imports
// module, so module cannot import rules).
type Module struct {
	// Name is the module's canonical bin-path string.
	Name string
	// Objects are the targets produced by compiling this module's
	// sources, in source order.
	Objects []*graph.Target
	// Uses lists every module this one declares a dependency on, in
	// declared order.
	Uses []*Module
	// UsesHard is the subset of Uses that forces inclusion: activating
	// this module activates every hard use transitively.
	UsesHard map[*Module]bool
	// Used is sticky: it only ever flips false -> true.
	Used bool
	// Context is this module's variable scope.
	Context *vars.Context
}

// Registry is the process-wide module name -> Module map from the
// source (spec.md §4.3), made an explicit, constructable value instead
// of module-level state, per the BuildSession redesign in spec.md §9.
type Registry struct {
	byName  map[string]*Module
	pending []pendingUseIf
}

type pendingUseIf struct {
	module *Module
	expr   boolexpr.Expr
	raw    string
}

// NewRegistry constructs an empty module registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Module{}}
}

// New creates a module with the given canonical name and context,
// registering it in the registry. Redefining an existing name logs a
// warning and returns the new Module, replacing the old registration,
// matching the source's "warn on redefine" behavior.
func (r *Registry) New(name string, ctx *vars.Context) *Module {
	if _, exists := r.byName[name]; exists {
		log.Warning("module %q redefined", name)
	}
	m := &Module{
		Name:     name,
		UsesHard: map[*Module]bool{},
		Context:  ctx,
	}
	r.byName[name] = m
	ctx.Append("defines", "MODULE_"+upper(name))
	return m
}

// Lookup returns the module registered under name, or nil.
func (r *Registry) Lookup(name string) *Module {
	return r.byName[name]
}

// Needs records that m depends on other. Hard edges force transitive
// activation (see UseIf/activate); soft edges only become part of m's
// used set if other is separately activated. locate is accepted for
// interface parity with the source's bin-path resolution (spec.md
// §6's locate_bin); name resolution itself is the loader's concern and
// out of scope here, so locate is a no-op placeholder in this package.
func (m *Module) Needs(other *Module, hard bool, locate bool) {
	m.Uses = append(m.Uses, other)
	if hard {
		m.UsesHard[other] = true
	}
}

// UseIf records a pending (module, expr) conditional-activation pair,
// to be resolved by the registry's post-parse fixed-point pass.
func (r *Registry) UseIf(m *Module, expr string) error {
	e, err := boolexpr.NewParser().Parse(expr)
	if err != nil {
		return fmt.Errorf("module %q use_if %q: %w", m.Name, expr, err)
	}
	r.pending = append(r.pending, pendingUseIf{module: m, expr: e, raw: expr})
	return nil
}

// ResolveUseIfs runs process_use_if_list to a fixed point: repeatedly
// scan the pending list (preserving order), activating any module whose
// used_if is true, dropping any that is already used, and keeping the
// rest, until a full pass makes no changes. Termination follows because
// `used` is monotone (false -> true only) and the pending list shrinks
// or is unchanged each pass (spec.md §4.3).
func (r *Registry) ResolveUseIfs() {
	oracle := func(name string) bool {
		m := r.byName[name]
		return m != nil && m.Used
	}
	changed := true
	for changed {
		changed = false
		remaining := r.pending[:0]
		for _, p := range r.pending {
			switch {
			case p.module.Used:
				// drop: already used, nothing left to resolve
			case p.expr.Eval(oracle):
				r.activate(p.module)
				changed = true
			default:
				remaining = append(remaining, p)
			}
		}
		r.pending = remaining
	}
}

// activate sets m.Used and recursively activates every hard dependency.
// Soft deps are left alone; they only become used if activated
// separately (directly wanted, or via their own use_if / hard chain).
func (r *Registry) activate(m *Module) {
	if m.Used {
		return
	}
	m.Used = true
	for _, u := range m.Uses {
		if m.UsesHard[u] {
			r.activate(u)
		}
	}
}

// Activate marks m (and its transitive hard deps) used directly, e.g.
// because it was named on the command line. Exported for callers
// outside the use_if mechanism (the select-wanted phase).
func (r *Registry) Activate(m *Module) {
	r.activate(m)
}

// LinkContexts runs the post-bind context-linking pass: for every used
// module, for every used direct dep, append the dep's context to the
// module's context's parent list. This makes CFLAGS/defines/includes/
// libs accumulated by dep modules visible to the user (spec.md §4.3).
func (r *Registry) LinkContexts() {
	for _, m := range r.byName {
		if !m.Used {
			continue
		}
		for _, u := range m.Uses {
			if u.Used {
				m.Context.Parents = append(m.Context.Parents, u.Context)
			}
		}
	}
}

// GetObjects DFS-gathers the object targets of every used module
// reachable from m (including m itself), optionally deduplicating while
// preserving first-occurrence order.
func (m *Module) GetObjects(unique bool) []*graph.Target {
	var out []*graph.Target
	seen := map[*graph.Target]bool{}
	seenModules := map[*Module]bool{}
	var walk func(mod *Module)
	walk = func(mod *Module) {
		if seenModules[mod] {
			return
		}
		seenModules[mod] = true
		for _, o := range mod.Objects {
			if unique && seen[o] {
				continue
			}
			seen[o] = true
			out = append(out, o)
		}
		for _, u := range mod.Uses {
			if u.Used {
				walk(u)
			}
		}
	}
	walk(m)
	return out
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		} else if c == '-' || c == '/' || c == '.' {
			b[i] = '_'
		}
	}
	return string(b)
}
