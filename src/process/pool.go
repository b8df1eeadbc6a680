// Package process implements the command pool: a fixed-size set of
// helper "servers" that run shell subprocesses with constant
// concurrency accounting (spec.md §4.5, §9). In a systems language
// without fork-COW pressure a direct spawn per command is fine; this
// package keeps the pool *shape* anyway, per spec.md DESIGN NOTES, so
// that kill/signal handling and concurrency limits are centralized in
// one place rather than scattered across callers.
package process

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/pyjam-build/pyjam/src/cli/logging"
)

var log = logging.Log

// Result is what a command run through the pool returns: captured
// stdout and the process exit code. spec.md's external "command pool"
// collaborator is `run(argv, env) -> (stdout, exit_code)`; Run below is
// our concrete implementation of that contract.
type Result struct {
	Stdout   []byte
	ExitCode int
}

// helperServer is one pre-forked-in-spirit pool slot; it exists so the
// debug `threads` channel can name a concurrent worker independently of
// goroutine identity, matching the source's helper-process model.
type helperServer struct {
	ID uuid.UUID
}

// Pool is a fixed-capacity set of helper servers. Run blocks until a
// server is free, matching spec.md §5's "when all helpers are busy the
// worker blocks inside the pool."
type Pool struct {
	sem       *semaphore.Weighted
	servers   []helperServer
	mu        sync.Mutex
	free      []int
	shellOpts []string
}

// New constructs a Pool with J helper servers. Every shell invocation
// runs with "-e" by default (a failing command in a multi-command
// action aborts it rather than running the rest), matching the
// original's `_shell_options = ["-e"]`.
func New(j int) *Pool {
	if j < 1 {
		j = 1
	}
	p := &Pool{
		sem:       semaphore.NewWeighted(int64(j)),
		servers:   make([]helperServer, j),
		free:      make([]int, j),
		shellOpts: []string{"-e"},
	}
	for i := 0; i < j; i++ {
		p.servers[i] = helperServer{ID: uuid.New()}
		p.free[i] = i
	}
	return p
}

// EnableTrace adds "-x" to every subsequent shell invocation, printing
// each command before it runs. The caller wires this to the `commands`
// debug channel, mirroring the original's
// `_shell_options.append("-x")` when that channel is turned on.
func (p *Pool) EnableTrace() {
	p.shellOpts = append(p.shellOpts, "-x")
}

// CommandHandle is issued by Pool.Run; exactly one of Wait/Kill/Killpg
// must be called on it, per spec.md §3.
type CommandHandle struct {
	pool    *Pool
	slot    int
	cmd     *exec.Cmd
	done    chan Result
	errOnce chan error
}

// Run dispatches argv with the given environment through a free helper
// server, returning a handle. env is the full environment to use for
// the subprocess (callers build this from the target's Context plus
// os.Environ, per spec.md §5's "env constructed fresh ... so concurrent
// actions do not observe each other's env mutations").
func (p *Pool) Run(ctx context.Context, argv []string, env []string) (*CommandHandle, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	slot := p.takeSlot()
	log.Debugf("command pool: dispatching to helper %s: %v", p.servers[slot].ID, argv)

	var cmd *exec.Cmd
	if len(argv) == 1 {
		shArgs := append(append([]string{}, p.shellOpts...), "-c", argv[0])
		cmd = exec.CommandContext(ctx, "/bin/sh", shArgs...)
	} else {
		cmd = exec.CommandContext(ctx, argv[0], argv[1:]...)
	}
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stdout

	h := &CommandHandle{pool: p, slot: slot, cmd: cmd, done: make(chan Result, 1)}
	if err := cmd.Start(); err != nil {
		p.releaseSlot(slot)
		return nil, err
	}
	go func() {
		err := cmd.Wait()
		code := 0
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			} else {
				code = 1
			}
		}
		h.done <- Result{Stdout: stdout.Bytes(), ExitCode: code}
	}()
	return h, nil
}

// Wait blocks until the command completes, returning its result. It
// returns the server to the pool on completion, per spec.md §3's
// CommandHandle lifecycle.
func (h *CommandHandle) Wait() Result {
	r := <-h.done
	h.pool.releaseSlot(h.slot)
	return r
}

// Kill sends sig (default SIGKILL) to the process only.
func (h *CommandHandle) Kill(sig syscall.Signal) error {
	if sig == 0 {
		sig = syscall.SIGKILL
	}
	if h.cmd.Process == nil {
		return nil
	}
	defer h.pool.releaseSlot(h.slot)
	return h.cmd.Process.Signal(sig)
}

// Killpg sends sig (default SIGKILL) to the whole process group, for
// actions that spawn further children (e.g. a shell pipeline).
func (h *CommandHandle) Killpg(sig syscall.Signal) error {
	if sig == 0 {
		sig = syscall.SIGKILL
	}
	if h.cmd.Process == nil {
		return nil
	}
	defer h.pool.releaseSlot(h.slot)
	return syscall.Kill(-h.cmd.Process.Pid, sig)
}

func (p *Pool) takeSlot() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return s
}

func (p *Pool) releaseSlot(slot int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.free {
		if s == slot {
			return // already released; Kill+Wait both releasing is tolerated
		}
	}
	p.free = append(p.free, slot)
	p.sem.Release(1)
}
