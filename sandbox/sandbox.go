// Package sandbox provides isolated execution environments for untrusted or
// stateful tool invocations. Each sample that uses sandboxed tools owns
// exactly one environment, created lazily on first tool use, seeded with the
// sample's attached files and torn down unconditionally at sample completion
// or cancellation.
package sandbox

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/evalmesh/core"
)

// ExecResult holds the outcome of executing a command in an environment.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Combined returns stdout followed by stderr.
func (r *ExecResult) Combined() string { return r.Stdout + r.Stderr }

// Environment is the per-sample execution capability the tool layer depends
// on. Implementations must be safe for sequential use by one sample worker.
type Environment interface {
	// Exec runs a command, returning captured output and exit status. A
	// timeout of 0 means no bound beyond ctx.
	Exec(ctx context.Context, cmd []string, timeout time.Duration) (*ExecResult, error)

	// WriteFile places a file inside the environment's working directory.
	WriteFile(ctx context.Context, path string, data []byte) error

	// Close tears the environment down. Idempotent.
	Close(ctx context.Context) error
}

// Provider provisions isolated environments.
type Provider interface {
	// Name identifies the provider kind ("docker", "local").
	Name() string

	// Provision creates a fresh environment seeded with the given files.
	Provision(ctx context.Context, files map[string][]byte) (Environment, error)
}

// Handle is the lazy, sample-scoped owner of one environment. The first Env
// call provisions; a provisioning failure is cached and fatal to the sample.
// Release must run on every exit path of the owning sample.
type Handle struct {
	provider Provider
	files    map[string][]byte

	mu   sync.Mutex
	env  Environment
	err  error
	done bool
}

// NewHandle creates a handle bound to the provider and the owning sample's
// attached files. A nil provider yields a handle whose Env always fails.
func NewHandle(provider Provider, files map[string][]byte) *Handle {
	return &Handle{provider: provider, files: files}
}

// Env returns the provisioned environment, provisioning on first use.
func (h *Handle) Env(ctx context.Context) (Environment, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done {
		return nil, core.NewSandboxError("sandbox already released", nil)
	}
	if h.env != nil || h.err != nil {
		return h.env, h.err
	}
	if h.provider == nil {
		h.err = core.NewSandboxError("no sandbox provider configured for task", nil)
		return nil, h.err
	}

	env, err := h.provider.Provision(ctx, h.files)
	if err != nil {
		h.err = core.NewSandboxError("provisioning "+h.provider.Name()+" sandbox", err)
		return nil, h.err
	}
	h.env = env
	return h.env, nil
}

// Provisioned reports whether an environment currently exists.
func (h *Handle) Provisioned() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.env != nil
}

// Release tears down the environment if one was provisioned. Safe to call
// multiple times and on never-provisioned handles.
func (h *Handle) Release(ctx context.Context) error {
	h.mu.Lock()
	env := h.env
	h.env = nil
	h.done = true
	h.mu.Unlock()

	if env == nil {
		return nil
	}
	return env.Close(ctx)
}
