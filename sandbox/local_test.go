package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvisionAndExec(t *testing.T) {
	provider := NewLocalProvider(t.TempDir())

	env, err := provider.Provision(context.Background(), map[string][]byte{
		"data.txt": []byte("alpha\nbeta\n"),
	})
	require.NoError(t, err)
	defer func() { _ = env.Close(context.Background()) }()

	res, err := env.Exec(context.Background(), []string{"cat", "data.txt"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "alpha\nbeta\n", res.Stdout)
}

func TestLocalExecNonZeroExit(t *testing.T) {
	provider := NewLocalProvider(t.TempDir())
	env, err := provider.Provision(context.Background(), nil)
	require.NoError(t, err)
	defer func() { _ = env.Close(context.Background()) }()

	res, err := env.Exec(context.Background(), []string{"sh", "-c", "echo oops >&2; exit 3"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Stderr, "oops")
}

func TestLocalExecTimeout(t *testing.T) {
	provider := NewLocalProvider(t.TempDir())
	env, err := provider.Provision(context.Background(), nil)
	require.NoError(t, err)
	defer func() { _ = env.Close(context.Background()) }()

	res, err := env.Exec(context.Background(), []string{"sleep", "5"}, 50*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, err.Error(), "timed out")
}

func TestLocalWriteFileConfinement(t *testing.T) {
	provider := NewLocalProvider(t.TempDir())
	env, err := provider.Provision(context.Background(), nil)
	require.NoError(t, err)
	defer func() { _ = env.Close(context.Background()) }()

	assert.Error(t, env.WriteFile(context.Background(), "/etc/passwd", []byte("x")))
	assert.Error(t, env.WriteFile(context.Background(), "../escape.txt", []byte("x")))
	assert.NoError(t, env.WriteFile(context.Background(), "nested/dir/file.txt", []byte("x")))
}

func TestLocalCloseRemovesDir(t *testing.T) {
	provider := NewLocalProvider(t.TempDir())
	env, err := provider.Provision(context.Background(), map[string][]byte{"f": []byte("x")})
	require.NoError(t, err)

	require.NoError(t, env.Close(context.Background()))
	require.NoError(t, env.Close(context.Background())) // idempotent

	_, err = env.Exec(context.Background(), []string{"true"}, 0)
	assert.Error(t, err)
}
