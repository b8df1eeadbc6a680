package rules

import (
	"github.com/pyjam-build/pyjam/src/graph"
	"github.com/pyjam-build/pyjam/src/module"
	"github.com/pyjam-build/pyjam/src/process"
)

// Link implements the Link rule: `${LINK} ${LINKFLAGS}
// -Wl,--start-group %sources %args -Wl,--end-group -o %target`, where
// %args is the target's accumulated `objects` Var, reversed and
// prefixed with nothing (spec.md §4.4).
type Link struct {
	pool *process.Pool
}

// NewLink constructs the Link rule.
func NewLink(pool *process.Pool) *Link {
	return &Link{pool: pool}
}

func (l *Link) Build(t *graph.Target) bool {
	tr := &templateRule{
		pool:     l.pool,
		template: "${LINK} ${LINKFLAGS} -Wl,--start-group %sources %args -Wl,--end-group -o %target",
		extraArgs: func(t *graph.Target) []string {
			return reversePrefix(t, "objects", "")
		},
	}
	return tr.Build(t)
}

// LinkModule implements the LinkModule rule: `${LINK}
// -Wl,--start-group %sources -Wl,--end-group %args ${LINKFLAGS} -o
// %target`. Unlike plain Link, its sources come from a Module's
// transitively-gathered object list rather than the target's direct
// Deps; %args is the target's accumulated `libs` Var, reversed and
// prefixed with "-l" (`original_source/rules.py`'s
// `LinkModule.extra_args`: `reversed(target.context.libs.prefix("-l"))`
// — spec.md §4.4 leaves %args unspecified, so this is ground truth).
// Per spec.md §9/DESIGN NOTES, the module -> object-list resolution
// runs as a **pre-build** hook, after post-bind context linking has
// stabilized module activation, and wires the resolved objects as Deps
// of the link target so the scheduler builds them first.
type LinkModule struct {
	pool     *process.Pool
	graph    *graph.BuildGraph
	mod      *module.Module
	resolved []*graph.Target
}

// NewLinkModule constructs the LinkModule rule for the given top-level
// module.
func NewLinkModule(g *graph.BuildGraph, pool *process.Pool, mod *module.Module) *LinkModule {
	return &LinkModule{pool: pool, graph: g, mod: mod}
}

// ResolveObjects is the pre-build hook: it gathers mod's transitive
// used objects, deduplicated, and wires them as Deps of t so the
// scheduler builds them before the link step runs.
func (l *LinkModule) ResolveObjects(t *graph.Target) {
	l.resolved = l.mod.GetObjects(true)
	l.graph.Depends([]*graph.Target{t}, l.resolved, false)
}

func (l *LinkModule) sources(t *graph.Target) []string {
	names := make([]string, len(l.resolved))
	for i, o := range l.resolved {
		names[i] = o.Name
	}
	return names
}

func (l *LinkModule) extraArgs(t *graph.Target) []string {
	return reversePrefix(t, "libs", "-l")
}

func (l *LinkModule) Build(t *graph.Target) bool {
	tr := &templateRule{
		pool:      l.pool,
		template:  "${LINK} -Wl,--start-group %sources -Wl,--end-group %args ${LINKFLAGS} -o %target",
		sources:   l.sources,
		extraArgs: l.extraArgs,
	}
	return tr.Build(t)
}

func reversePrefix(t *graph.Target, varName, prefix string) []string {
	if t.Context == nil {
		return nil
	}
	prefixed := t.Context.Lookup(varName).Prefix(prefix)
	out := make([]string, len(prefixed))
	for i, p := range prefixed {
		out[len(prefixed)-1-i] = p
	}
	return out
}
