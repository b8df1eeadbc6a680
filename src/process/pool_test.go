package process

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunSuccessCapturesStdout(t *testing.T) {
	p := New(2)
	h, err := p.Run(context.Background(), []string{"echo hello"}, nil)
	assert.NoError(t, err)
	r := h.Wait()
	assert.Equal(t, 0, r.ExitCode)
	assert.Contains(t, string(r.Stdout), "hello")
}

func TestRunFailureExitCode(t *testing.T) {
	p := New(1)
	h, err := p.Run(context.Background(), []string{"exit 3"}, nil)
	assert.NoError(t, err)
	r := h.Wait()
	assert.Equal(t, 3, r.ExitCode)
}

func TestPoolBlocksWhenAllHelpersBusy(t *testing.T) {
	p := New(1)
	h1, err := p.Run(context.Background(), []string{"sleep 0.2"}, nil)
	assert.NoError(t, err)

	start := time.Now()
	h2, err := p.Run(context.Background(), []string{"true"}, nil)
	assert.NoError(t, err)
	h1.Wait()
	h2.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestKillTerminatesProcess(t *testing.T) {
	p := New(1)
	h, err := p.Run(context.Background(), []string{"sleep 5"}, nil)
	assert.NoError(t, err)
	assert.NoError(t, h.Kill(0))
	r := h.Wait()
	assert.NotEqual(t, 0, r.ExitCode)
}
