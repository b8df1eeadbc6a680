// Package rules implements the rule library: Compile/Link/Archive/
// Touch/Clean/Toolcheck command templates that consume a Context and
// dispatch through the command pool (spec.md §4.4).
package rules

import (
	"context"
	"os"
	"strings"

	"github.com/google/shlex"
	"github.com/hashicorp/go-multierror"

	"github.com/pyjam-build/pyjam/src/cli/logging"
	"github.com/pyjam-build/pyjam/src/graph"
	"github.com/pyjam-build/pyjam/src/process"
)

var log = logging.Log

// templateRule is the shared shape of every shell-backed rule: an
// action-template string with %target/%sources/%args/%name
// placeholders, resolved against the target's Context at build time.
type templateRule struct {
	pool     *process.Pool
	template string
	sources  func(t *graph.Target) []string
	extraArgs func(t *graph.Target) []string
	name     string
}

// Build substitutes the template's placeholders, builds the
// environment from the target's Context via env(), and dispatches
// through the command pool; success is exit code 0. Multiple actions on
// one target run sequentially (graph.Target.Actions ordering) and the
// caller short-circuits on the first failure, per spec.md §4.2/§5.
func (r *templateRule) Build(t *graph.Target) bool {
	sources := ""
	if r.sources != nil {
		sources = strings.Join(r.sources(t), " ")
	} else {
		sources = joinNames(t.Deps)
	}
	args := ""
	if r.extraArgs != nil {
		args = strings.Join(r.extraArgs(t), " ")
	}
	action := expandTemplate(r.template, t.Name, sources, args, r.name)
	targetEnv := env(t)

	argv, err := shlex.Split(expandEnvVars(action, targetEnv))
	if err != nil {
		log.Errorf("%s: failed to split action %q: %s", t.Name, action, err)
		return false
	}
	if len(argv) == 0 {
		return true // NoOp-shaped empty template
	}

	h, err := r.pool.Run(context.Background(), []string{strings.Join(argv, " ")}, targetEnv)
	if err != nil {
		log.Errorf("%s: failed to start action: %s", t.Name, err)
		return false
	}
	res := h.Wait()
	if res.ExitCode != 0 {
		log.Errorf("%s: action failed (exit %d): %s", t.Name, res.ExitCode, strings.TrimSpace(string(res.Stdout)))
		return false
	}
	return true
}

func joinNames(ts []*graph.Target) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	return strings.Join(names, " ")
}

func expandTemplate(tpl, target, sources, args, name string) string {
	r := strings.NewReplacer(
		"%target", target,
		"%sources", sources,
		"%args", args,
		"%name", name,
	)
	return r.Replace(tpl)
}

// expandEnvVars resolves ${X} references against the env slice the
// same way a shell would expand them, before splitting into argv. This
// mirrors the source's reliance on the *shell* to expand ${CC} etc;
// since shlex.Split itself doesn't do variable substitution, we do it
// explicitly here instead of re-invoking a shell for every rule.
func expandEnvVars(s string, env []string) string {
	lookup := map[string]string{}
	for _, kv := range env {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			lookup[kv[:i]] = kv[i+1:]
		}
	}
	return os.Expand(s, func(name string) string { return lookup[name] })
}

// env builds the shell environment for a target's action: os.Environ()
// plus every variable visible from the target's Context (there is no
// per-variable export flag, so none is left out), then the target's own
// Env overrides, matching spec.md §5: "constructed fresh ... so concurrent
// actions do not observe each other's env mutations."
func env(t *graph.Target) []string {
	base := os.Environ()
	out := make([]string, 0, len(base)+len(t.Env)+8)
	out = append(out, base...)
	if t.Context != nil {
		for _, name := range t.Context.Names() {
			out = append(out, name+"="+t.Context.Lookup(name).ShellJoin())
		}
	}
	for k, v := range t.Env {
		out = append(out, k+"="+v)
	}
	return out
}

// aggregateErrors collects the errors of several independent sub-steps
// into one, so every failure is reported rather than just the first
// (Clean uses it for its per-path removals), following the teacher's use
// of hashicorp/go-multierror.
func aggregateErrors(errs ...error) error {
	var merr *multierror.Error
	for _, e := range errs {
		if e != nil {
			merr = multierror.Append(merr, e)
		}
	}
	if merr == nil {
		return nil
	}
	return merr
}
