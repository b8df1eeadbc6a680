package rules

import (
	"context"
	"os"
	"strings"

	"github.com/google/shlex"

	"github.com/pyjam-build/pyjam/src/cli/logging"
	"github.com/pyjam-build/pyjam/src/graph"
	"github.com/pyjam-build/pyjam/src/process"
)

func removeAll(path string) error {
	return os.RemoveAll(path)
}

// Touch implements the Touch rule: `touch -- %target`.
type Touch struct{ pool *process.Pool }

// NewTouch constructs the Touch rule.
func NewTouch(pool *process.Pool) *Touch { return &Touch{pool: pool} }

func (r *Touch) Build(t *graph.Target) bool {
	tr := &templateRule{pool: r.pool, template: "touch -- %target"}
	return tr.Build(t)
}

// Clean removes a target's declared outputs. There is exactly one Clean
// rule in this rendition, per spec.md §9's resolution of the source's
// `Clean`/`CleanRule` divergence.
type Clean struct {
	outputs func(t *graph.Target) []string
}

// NewClean constructs the Clean rule; outputs resolves which paths to
// remove for a given target (defaulting to the target's own Name).
func NewClean(outputs func(t *graph.Target) []string) *Clean {
	return &Clean{outputs: outputs}
}

func (c *Clean) Build(t *graph.Target) bool {
	paths := []string{t.Name}
	if c.outputs != nil {
		paths = c.outputs(t)
	}
	errs := make([]error, len(paths))
	for i, p := range paths {
		errs[i] = removeAll(p)
	}
	if err := aggregateErrors(errs...); err != nil {
		logging.Log.Errorf("clean %s: %s", t.Name, err)
		return false
	}
	return true
}

// NoOp performs no shell action at all and always succeeds; used for
// phony targets that exist purely to express dependency structure (e.g.
// spec.md S1's phony cascade).
type NoOp struct{}

// NewNoOp constructs the NoOp rule.
func NewNoOp() *NoOp { return &NoOp{} }

func (*NoOp) Build(t *graph.Target) bool { return true }

// NoOpShell runs the literal shell command `true`, distinct from NoOp
// in that it still dispatches through the command pool (useful for
// exercising the pool/env-construction path without doing real work).
type NoOpShell struct{ pool *process.Pool }

// NewNoOpShell constructs the NoOpShell rule.
func NewNoOpShell(pool *process.Pool) *NoOpShell { return &NoOpShell{pool: pool} }

func (r *NoOpShell) Build(t *graph.Target) bool {
	tr := &templateRule{pool: r.pool, template: "true"}
	return tr.Build(t)
}

// Toolcheck probes tool availability via a user-supplied command's exit
// code, used by description files to fail fast with a clear message
// when a required compiler/linker isn't on PATH.
type Toolcheck struct {
	pool    *process.Pool
	command string
}

// NewToolcheck constructs a Toolcheck rule that runs command.
func NewToolcheck(pool *process.Pool, command string) *Toolcheck {
	return &Toolcheck{pool: pool, command: command}
}

func (r *Toolcheck) Build(t *graph.Target) bool {
	argv, err := shlex.Split(r.command)
	if err != nil || len(argv) == 0 {
		logging.Log.Errorf("toolcheck %q: %s", t.Name, err)
		return false
	}
	h, err := r.pool.Run(context.Background(), []string{strings.Join(argv, " ")}, nil)
	if err != nil {
		return false
	}
	return h.Wait().ExitCode == 0
}

// Print logs a message at build time; it never fails. Supplemented from
// original_source/pyjam.py's Print rule, useful for progress
// annotations in a description file.
type Print struct{ Message string }

// NewPrint constructs a Print rule with the given message.
func NewPrint(message string) *Print { return &Print{Message: message} }

func (p *Print) Build(t *graph.Target) bool {
	logging.Log.Notice(p.Message)
	return true
}

// Fail always fails, with the given message; useful for description
// files to assert an unreachable configuration state.
type Fail struct{ Message string }

// NewFail constructs a Fail rule with the given message.
func NewFail(message string) *Fail { return &Fail{Message: message} }

func (f *Fail) Build(t *graph.Target) bool {
	logging.Log.Errorf("%s: %s", t.Name, f.Message)
	return false
}

// DebugEnv prints the resolved environment for a target without
// running a real action; handy for debugging Context composition from
// a description file (supplemented from the `env` debug channel,
// spec.md §6).
type DebugEnv struct{}

// NewDebugEnv constructs a DebugEnv rule.
func NewDebugEnv() *DebugEnv { return &DebugEnv{} }

func (*DebugEnv) Build(t *graph.Target) bool {
	for _, kv := range env(t) {
		logging.Log.Debug(kv)
	}
	return true
}
