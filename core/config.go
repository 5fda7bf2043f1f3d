package core

import "time"

// Default invocation-layer settings.
const (
	DefaultMaxConnections = 10
	DefaultMaxRetries     = 5
)

// GenerateConfig controls a single model generation. Zero values mean
// "inherit": configs merge per call with defaults resolved from the task.
type GenerateConfig struct {
	Temperature    *float64      `json:"temperature,omitempty"`
	TopP           *float64      `json:"top_p,omitempty"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	Timeout        time.Duration `json:"timeout,omitempty"`
	MaxRetries     int           `json:"max_retries,omitempty"`
	MaxConnections int           `json:"max_connections,omitempty"`
	Cache          *bool         `json:"cache,omitempty"` // Memoization; default on
}

// Merge overlays o onto the receiver, returning the resolved config. Set
// fields in o win; unset fields inherit from the receiver.
func (c GenerateConfig) Merge(o GenerateConfig) GenerateConfig {
	out := c
	if o.Temperature != nil {
		out.Temperature = o.Temperature
	}
	if o.TopP != nil {
		out.TopP = o.TopP
	}
	if o.MaxTokens != 0 {
		out.MaxTokens = o.MaxTokens
	}
	if o.Timeout != 0 {
		out.Timeout = o.Timeout
	}
	if o.MaxRetries != 0 {
		out.MaxRetries = o.MaxRetries
	}
	if o.MaxConnections != 0 {
		out.MaxConnections = o.MaxConnections
	}
	if o.Cache != nil {
		out.Cache = o.Cache
	}
	return out
}

// Connections returns the resolved per-model concurrency bound.
func (c GenerateConfig) Connections() int {
	if c.MaxConnections > 0 {
		return c.MaxConnections
	}
	return DefaultMaxConnections
}

// Retries returns the resolved retry budget.
func (c GenerateConfig) Retries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return DefaultMaxRetries
}

// CacheEnabled reports whether memoization applies (default on).
func (c GenerateConfig) CacheEnabled() bool {
	return c.Cache == nil || *c.Cache
}

// Float returns a *float64 for config literals.
func Float(v float64) *float64 { return &v }

// Bool returns a *bool for config literals.
func Bool(v bool) *bool { return &v }
