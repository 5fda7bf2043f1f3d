package model

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/logging"
)

// ClientOptions holds dependency and configuration overrides passed to
// NewClient.
type ClientOptions struct {
	// Config supplies generation defaults merged under per-call overrides.
	Config core.GenerateConfig
	// Limiter bounds in-flight requests per model. Share one Limiter across
	// all clients of a run so the bound holds run-wide.
	Limiter *Limiter
	// Cache memoizes responses; nil disables memoization entirely.
	Cache *Cache
	// Logger receives model call telemetry.
	Logger logging.Logger
}

// Client is the model invocation layer: it wraps a provider Model with a
// per-model concurrency semaphore, retry/backoff for transient failures and
// optional response memoization. Safe for concurrent use by many samples.
type Client struct {
	model   Model
	config  core.GenerateConfig
	limiter *Limiter
	cache   *Cache
	logger  logging.Logger

	usageMu sync.Mutex
	usage   TokenUsage
}

// NewClient constructs a Client with optional overrides. Unset options get a
// private limiter, no cache and a no-op logger.
func NewClient(m Model, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{
		Limiter: NewLimiter(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{
		model:   m,
		config:  opts.Config,
		limiter: opts.Limiter,
		cache:   opts.Cache,
		logger:  opts.Logger,
	}
}

// Info returns the wrapped model's metadata.
func (c *Client) Info() Info { return c.model.Info() }

// Name returns the resolved model identifier.
func (c *Client) Name() string { return c.model.Info().Name }

// Generate resolves the request config against the client defaults, then
// serves the response from the memoization cache or invokes the provider
// under the concurrency bound with retry/backoff.
//
// Cache misses for the same signature may race; the duplicate provider call
// is accepted and the last write wins.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	req.Config = c.config.Merge(req.Config)
	modelID := c.Name()
	start := time.Now()

	var key string
	if c.cache != nil && req.Config.CacheEnabled() {
		key = Signature(modelID, req)
		if resp, ok := c.cache.Get(key); ok {
			c.logModelCall(resp, time.Since(start), true, nil)
			return resp, nil
		}
	}

	release, err := c.limiter.Acquire(ctx, modelID, req.Config.Connections())
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := generateWithRetry(ctx, modelID, req.Config.Retries(), c.logger, func() (*Response, error) {
		callCtx := ctx
		if req.Config.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, req.Config.Timeout)
			defer cancel()
		}
		resp, err := c.model.Generate(callCtx, req)
		if err != nil {
			// A deadline hit on the per-call context is a transient timeout
			// unless the parent was cancelled.
			if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				return nil, core.NewTimeoutError("model request timed out: " + modelID)
			}
			return nil, core.TranslateProviderError(modelID, err)
		}
		return resp, nil
	})

	c.logModelCall(resp, time.Since(start), false, err)
	if err != nil {
		return nil, err
	}

	if resp.Usage != nil {
		c.usageMu.Lock()
		c.usage.Add(*resp.Usage)
		c.usageMu.Unlock()
	}

	if key != "" {
		c.cache.Set(key, resp)
	}
	return resp, nil
}

// Usage returns the accumulated token usage of all provider calls made
// through this client. Cache hits do not count.
func (c *Client) Usage() TokenUsage {
	c.usageMu.Lock()
	defer c.usageMu.Unlock()
	return c.usage
}

func (c *Client) logModelCall(resp *Response, dur time.Duration, cached bool, err error) {
	tokens := 0
	if resp != nil && resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	if rl, ok := c.logger.(*logging.RunLogger); ok {
		rl.LogModelCall(c.Name(), tokens, dur, cached, err)
		return
	}
	if err != nil {
		c.logger.Warn("model call failed", "model", c.Name(), "error", err.Error())
		return
	}
	c.logger.Debug("model call completed", "model", c.Name(), "token_count", tokens, "cached", cached)
}
