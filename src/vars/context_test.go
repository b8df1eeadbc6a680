package vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextLookupInheritsFromParent(t *testing.T) {
	parent := NewContext("default")
	parent.Append("CFLAGS", "-O2")
	child := NewContext("module", parent)
	child.Append("CFLAGS", "-Wall")

	got := child.Lookup("CFLAGS").Combined()
	assert.Equal(t, []string{"-O2", "-Wall"}, got)
}

func TestContextLookupMissingVarIsEmpty(t *testing.T) {
	c := NewContext("empty")
	assert.Equal(t, []string{}, c.Lookup("CFLAGS").Combined())
}

func TestContextSetValueDisablesInherit(t *testing.T) {
	parent := NewContext("default")
	parent.Append("CC", "gcc")
	child := NewContext("rule", parent)
	child.SetValue("CC", "clang")

	assert.Equal(t, []string{"clang"}, child.Lookup("CC").Combined())
}

func TestContextCycleSafeNames(t *testing.T) {
	a := NewContext("a")
	b := NewContext("b")
	a.Parents = []*Context{b}
	b.Parents = []*Context{a}
	a.Append("X", "1")
	b.Append("Y", "2")

	assert.NotPanics(t, func() { a.Names() })
	names := a.Names()
	assert.ElementsMatch(t, []string{"X", "Y"}, names)
}

func TestContextSetVarDeepCopies(t *testing.T) {
	src := New(" ")
	src.Add("a")
	c := NewContext("c")
	c.SetVar("LIBS", src)
	src.Add("b")

	assert.Equal(t, []string{"a"}, c.Lookup("LIBS").Combined())
}
