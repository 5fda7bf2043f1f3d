package eval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
model: openai/gpt-4o-mini
roles:
  grader: anthropic/claude-3-5-sonnet
epochs: 2
message_limit: 30
max_consecutive_failures: 5
failure_rate_threshold: 0.25
generate:
  temperature: 0.0
  max_tokens: 2048
  timeout: 60s
  max_retries: 3
  max_connections: 20
  cache: false
sandbox:
  type: docker
  image: python:3.12-bookworm
tool_timeout: 180s
`))
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o-mini", cfg.Model)
	assert.Equal(t, "anthropic/claude-3-5-sonnet", cfg.Roles["grader"])
	assert.Equal(t, 2, cfg.Epochs)
	assert.Equal(t, 30, cfg.MessageLimit)
	assert.Equal(t, 5, cfg.MaxConsecutiveFailures)
	assert.InDelta(t, 0.25, cfg.FailureRateThreshold, 1e-9)
	assert.Equal(t, "docker", cfg.Sandbox.Type)
	assert.Equal(t, 180*time.Second, cfg.ToolTimeout.Std())

	gen := cfg.GenerateConfig()
	require.NotNil(t, gen.Temperature)
	assert.Equal(t, 0.0, *gen.Temperature)
	assert.Equal(t, 2048, gen.MaxTokens)
	assert.Equal(t, 60*time.Second, gen.Timeout)
	assert.Equal(t, 20, gen.MaxConnections)
	assert.False(t, gen.CacheEnabled())
}

func TestParseConfigInvalid(t *testing.T) {
	_, err := ParseConfig([]byte("model: [broken"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("failure_rate_threshold: 1.5"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("sandbox:\n  type: vmware"))
	assert.Error(t, err)
}

func TestConfigOptions(t *testing.T) {
	cfg := &RunConfig{Epochs: 3, MessageLimit: 10}
	opts := TaskOptions{}
	for _, fn := range cfg.Options() {
		fn(&opts)
	}
	assert.Equal(t, 3, opts.Epochs)
	assert.Equal(t, 10, opts.MessageLimit)
	assert.Zero(t, opts.MaxConsecutiveFailures)
}
