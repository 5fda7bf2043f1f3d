package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateConfigMerge(t *testing.T) {
	base := GenerateConfig{
		Temperature:    Float(0.7),
		MaxTokens:      1024,
		Timeout:        30 * time.Second,
		MaxConnections: 5,
	}
	override := GenerateConfig{
		Temperature: Float(0.0),
		MaxRetries:  2,
		Cache:       Bool(false),
	}

	merged := base.Merge(override)
	assert.Equal(t, 0.0, *merged.Temperature)
	assert.Equal(t, 1024, merged.MaxTokens)
	assert.Equal(t, 30*time.Second, merged.Timeout)
	assert.Equal(t, 5, merged.MaxConnections)
	assert.Equal(t, 2, merged.MaxRetries)
	assert.False(t, merged.CacheEnabled())
}

func TestGenerateConfigDefaults(t *testing.T) {
	var cfg GenerateConfig
	assert.Equal(t, DefaultMaxConnections, cfg.Connections())
	assert.Equal(t, DefaultMaxRetries, cfg.Retries())
	assert.True(t, cfg.CacheEnabled())
}
