package rules

import (
	"github.com/pyjam-build/pyjam/src/graph"
	"github.com/pyjam-build/pyjam/src/process"
)

// Archive implements the Archive rule: `${AR} rcs %target %sources`.
type Archive struct {
	pool *process.Pool
}

// NewArchive constructs the Archive rule.
func NewArchive(pool *process.Pool) *Archive {
	return &Archive{pool: pool}
}

func (a *Archive) Build(t *graph.Target) bool {
	tr := &templateRule{pool: a.pool, template: "${AR} rcs %target %sources"}
	return tr.Build(t)
}
