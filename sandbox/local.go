package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// LocalProvider provisions plain process environments rooted in throwaway
// temp directories. No isolation beyond the working directory: intended for
// development and tests, not for untrusted code.
type LocalProvider struct {
	baseDir string
}

// NewLocalProvider creates a LocalProvider. baseDir is the parent for
// per-sample working directories; empty uses the system temp dir.
func NewLocalProvider(baseDir string) *LocalProvider {
	return &LocalProvider{baseDir: baseDir}
}

// Name implements Provider.
func (p *LocalProvider) Name() string { return "local" }

// Provision implements Provider.
func (p *LocalProvider) Provision(ctx context.Context, files map[string][]byte) (Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp(p.baseDir, "evalmesh-sandbox-")
	if err != nil {
		return nil, fmt.Errorf("creating sandbox workdir: %w", err)
	}
	env := &localEnv{dir: dir}
	for path, data := range files {
		if err := env.WriteFile(ctx, path, data); err != nil {
			_ = env.Close(ctx)
			return nil, err
		}
	}
	return env, nil
}

type localEnv struct {
	dir    string
	closed bool
}

// Exec implements Environment using os/exec rooted in the sandbox dir.
func (e *localEnv) Exec(ctx context.Context, cmd []string, timeout time.Duration) (*ExecResult, error) {
	if len(cmd) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	if e.closed {
		return nil, fmt.Errorf("sandbox closed")
	}

	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	command := exec.CommandContext(execCtx, cmd[0], cmd[1:]...)
	command.Dir = e.dir

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	err := command.Run()
	result := &ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if execCtx.Err() == context.DeadlineExceeded {
		result.ExitCode = -1
		return result, fmt.Errorf("exec timed out after %v", timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("running command: %w", err)
	}
	return result, nil
}

// WriteFile implements Environment. Paths are confined to the sandbox dir.
func (e *localEnv) WriteFile(_ context.Context, path string, data []byte) error {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("file path %q escapes sandbox", path)
	}
	full := filepath.Join(e.dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating file parent dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("writing sandbox file: %w", err)
	}
	return nil
}

// Close implements Environment by removing the working directory.
func (e *localEnv) Close(_ context.Context) error {
	if e.closed {
		return nil
	}
	e.closed = true
	return os.RemoveAll(e.dir)
}
