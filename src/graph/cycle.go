package graph

import "strings"

// CycleError reports a dependency cycle detected before the build
// started (spec.md §7: a configuration error, exit 1).
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "circular dependency: " + strings.Join(e.Chain, " -> ")
}

// CheckCircularDep performs a DFS from t, returning a CycleError the
// first time a node on the current stack is revisited (spec.md §4.2).
// The returned chain lists the full cycle path, e.g. "x -> y -> x".
func (g *BuildGraph) CheckCircularDep(t *Target) *CycleError {
	return checkCircular(t, nil, map[*Target]bool{})
}

func checkCircular(t *Target, stack []*Target, onStack map[*Target]bool) *CycleError {
	if onStack[t] {
		chain := append(stack, t)
		names := make([]string, len(chain))
		for i, n := range chain {
			names[i] = n.Name
		}
		// Trim the chain down to start at the first occurrence of t so
		// the reported cycle is minimal, e.g. "x -> y -> x" rather than
		// "w -> x -> y -> x".
		for i, n := range chain {
			if n == t {
				names = names[i:]
				break
			}
		}
		return &CycleError{Chain: names}
	}
	onStack[t] = true
	stack = append(stack, t)
	for _, d := range t.Deps {
		if err := checkCircular(d, stack, onStack); err != nil {
			return err
		}
	}
	delete(onStack, t)
	return nil
}

// CheckAllCircularDeps runs CheckCircularDep from every interned target.
// A pure cycle disconnected from any wanted root (e.g. spec.md S5's
// `depends('x','y'); depends('y','x')`, where both nodes have incoming
// edges and neither is a "root") is only caught by trying every node as
// a potential DFS start, not just ones with no incoming edges.
func (g *BuildGraph) CheckAllCircularDeps() *CycleError {
	for _, t := range g.AllTargets() {
		if err := g.CheckCircularDep(t); err != nil {
			return err
		}
	}
	return nil
}
