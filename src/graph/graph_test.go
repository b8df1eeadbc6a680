package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRule struct {
	calls   *int
	succeed bool
}

func (r *fakeRule) Build(t *Target) bool {
	*r.calls++
	return r.succeed
}

func TestGetUnboundTargetInterns(t *testing.T) {
	g := New()
	a := g.GetUnboundTarget("a", nil)
	b := g.GetUnboundTarget("a", nil)
	assert.Same(t, a, b)
}

func TestDependsDropsSelfEdge(t *testing.T) {
	g := New()
	a := g.GetUnboundTarget("a", nil)
	g.Depends([]*Target{a}, []*Target{a}, false)
	assert.Empty(t, a.Deps)
}

func TestDependsAddsForwardAndBackEdges(t *testing.T) {
	g := New()
	a := g.GetUnboundTarget("a", nil)
	b := g.GetUnboundTarget("b", nil)
	g.Depends([]*Target{a}, []*Target{b}, false)

	assert.Equal(t, []*Target{b}, a.Deps)
	assert.Equal(t, []*Target{a}, b.NeededFor)
}

func TestBindTargetPromotesOnce(t *testing.T) {
	g := New()
	a := g.GetUnboundTarget("out.o", nil)
	assert.Equal(t, Phony, a.Kind)
	g.BindTarget(a)
	assert.Equal(t, File, a.Kind)
	a.Kind = Phony // simulate tampering to prove idempotency below
	g.BindTarget(a)
	assert.Equal(t, Phony, a.Kind, "binding an already-bound target is a no-op")
}

func TestIsNeededPropagatesThroughNeededFor(t *testing.T) {
	g := New()
	a := g.GetUnboundTarget("a", nil)
	b := g.GetUnboundTarget("b", nil)
	g.Depends([]*Target{a}, []*Target{b}, false)
	a.Wanted = true

	assert.True(t, b.IsNeeded())
}

func TestIsNeededFalseWhenUnwanted(t *testing.T) {
	g := New()
	a := g.GetUnboundTarget("a", nil)
	assert.False(t, a.IsNeeded())
}

func TestReadyForBuildingRequiresStableAndNoDeps(t *testing.T) {
	g := New()
	a := g.GetUnboundTarget("a", nil)
	a.Wanted = true
	assert.False(t, a.ReadyForBuilding(), "not stable yet")
	a.Stable = true
	assert.True(t, a.ReadyForBuilding())
	a.NDeps = 1
	assert.False(t, a.ReadyForBuilding())
}

func TestCheckCircularDepDetectsCycle(t *testing.T) {
	g := New()
	x := g.GetUnboundTarget("x", nil)
	y := g.GetUnboundTarget("y", nil)
	g.Depends([]*Target{x}, []*Target{y}, false)
	g.Depends([]*Target{y}, []*Target{x}, false)

	err := g.CheckAllCircularDeps()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "x")
	assert.Contains(t, err.Error(), "y")
}

func TestCheckCircularDepAcyclicOK(t *testing.T) {
	g := New()
	a := g.GetUnboundTarget("a", nil)
	b := g.GetUnboundTarget("b", nil)
	g.Depends([]*Target{a}, []*Target{b}, false)
	assert.Nil(t, g.CheckAllCircularDeps())
}

func TestPrepareAndCheckUpdatePhonyNotStaleByDefault(t *testing.T) {
	g := New()
	a := g.GetUnboundTarget("a", nil)
	g.Prepare(a)
	assert.True(t, a.Stable)
	// Phony targets with no deps and Always/Rebuild unset never force a
	// rebuild on their own; callers set Always or Rebuild explicitly when
	// that's wanted (e.g. the built-in clean target is Always).
	assert.False(t, g.CheckUpdate(a))
}

func TestCheckUpdatePropagatesFromDeps(t *testing.T) {
	g := New()
	a := g.GetUnboundTarget("a", nil)
	b := g.GetUnboundTarget("b", nil)
	g.Depends([]*Target{a}, []*Target{b}, false)
	b.Rebuild = true
	g.Prepare(a)

	assert.True(t, g.CheckUpdate(a))
}

func TestNDepsCountsUnfinishedDeps(t *testing.T) {
	g := New()
	a := g.GetUnboundTarget("a", nil)
	b := g.GetUnboundTarget("b", nil)
	c := g.GetUnboundTarget("c", nil)
	g.Depends([]*Target{a}, []*Target{b, c}, false)
	c.Done = true
	g.Prepare(a)

	assert.Equal(t, 1, a.NDeps)
}

func TestTargetOrDiePanicsOnUnknown(t *testing.T) {
	g := New()
	assert.Panics(t, func() { g.TargetOrDie("nope") })
}
