package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/evalmesh/core"
)

// fakeProvider counts provisioning calls and can be made to fail.
type fakeProvider struct {
	provisions int
	fail       error
	closed     int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Provision(ctx context.Context, files map[string][]byte) (Environment, error) {
	p.provisions++
	if p.fail != nil {
		return nil, p.fail
	}
	return &fakeEnv{provider: p, files: files}, nil
}

type fakeEnv struct {
	provider *fakeProvider
	files    map[string][]byte
}

func (e *fakeEnv) Exec(ctx context.Context, cmd []string, timeout time.Duration) (*ExecResult, error) {
	return &ExecResult{Stdout: "ok", ExitCode: 0}, nil
}

func (e *fakeEnv) WriteFile(ctx context.Context, path string, data []byte) error { return nil }

func (e *fakeEnv) Close(ctx context.Context) error {
	e.provider.closed++
	return nil
}

func TestHandleLazyProvision(t *testing.T) {
	provider := &fakeProvider{}
	h := NewHandle(provider, nil)

	assert.False(t, h.Provisioned())
	assert.Equal(t, 0, provider.provisions)

	env, err := h.Env(context.Background())
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.True(t, h.Provisioned())

	// Second call reuses the provisioned environment.
	_, err = h.Env(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, provider.provisions)
}

func TestHandleProvisionFailureCached(t *testing.T) {
	provider := &fakeProvider{fail: errors.New("daemon unreachable")}
	h := NewHandle(provider, nil)

	_, err := h.Env(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.ErrSandboxUnavailable, core.CodeOf(err))

	// Failure is cached; the provider is not retried.
	_, err = h.Env(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, provider.provisions)
}

func TestHandleNilProvider(t *testing.T) {
	h := NewHandle(nil, nil)
	_, err := h.Env(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.ErrSandboxUnavailable, core.CodeOf(err))
}

func TestHandleReleaseIdempotent(t *testing.T) {
	provider := &fakeProvider{}
	h := NewHandle(provider, nil)

	_, err := h.Env(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.Release(context.Background()))
	require.NoError(t, h.Release(context.Background()))
	assert.Equal(t, 1, provider.closed)

	// Released handles refuse further use.
	_, err = h.Env(context.Background())
	assert.Error(t, err)
}

func TestHandleReleaseWithoutProvision(t *testing.T) {
	h := NewHandle(&fakeProvider{}, nil)
	assert.NoError(t, h.Release(context.Background()))
}
