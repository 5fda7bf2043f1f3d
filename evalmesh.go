// Package evalmesh provides a high-level façade over the evaluation engine
// (tasks, model clients, sandboxes, recorders) enabling rapid construction
// of model evaluations. Most applications interact with this package by:
//  1. Creating an EvalMesh via New() (optionally overriding the shared
//     limiter, cache and logger)
//  2. Registering model clients for the providers under test
//  3. Running tasks built from a dataset, a solver pipeline and a scorer
//
// The façade wires the shared model invocation resources (per-model
// connection limiter and memoization cache) into every registered client so
// run-wide concurrency and caching bounds hold across tasks. All defaults
// are safe for local development and testing.
package evalmesh

import (
	"context"
	"fmt"

	"github.com/hupe1980/evalmesh/eval"
	"github.com/hupe1980/evalmesh/logging"
	"github.com/hupe1980/evalmesh/model"
)

// Options configures the EvalMesh instance.
type Options struct {
	// CacheSize is the memoization cache budget in bytes. Set to a
	// negative value to disable response caching entirely.
	CacheSize int64

	// Logger receives run telemetry (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// EvalMesh is the high-level façade holding the process-scoped model
// invocation resources shared by all tasks of a run.
type EvalMesh struct {
	opts    Options
	limiter *model.Limiter
	cache   *model.Cache
	logger  logging.Logger
	clients map[string]*model.Client
}

// New creates a new EvalMesh instance with optional overrides.
func New(optFns ...func(o *Options)) (*EvalMesh, error) {
	opts := Options{
		CacheSize: model.DefaultCacheSize,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var cache *model.Cache
	if opts.CacheSize >= 0 {
		var err error
		cache, err = model.NewCache(opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating response cache: %w", err)
		}
	}

	return &EvalMesh{
		opts:    opts,
		limiter: model.NewLimiter(),
		cache:   cache,
		logger:  opts.Logger,
		clients: map[string]*model.Client{},
	}, nil
}

// RegisterModel wraps a provider model in a client sharing the mesh's
// limiter, cache and logger, and registers it under its model name.
func (m *EvalMesh) RegisterModel(mdl model.Model, optFns ...func(o *model.ClientOptions)) *model.Client {
	client := model.NewClient(mdl, func(o *model.ClientOptions) {
		o.Limiter = m.limiter
		o.Cache = m.cache
		o.Logger = m.logger
		for _, fn := range optFns {
			fn(o)
		}
	})
	m.clients[mdl.Info().Name] = client
	return client
}

// Client returns the registered client for a model name.
func (m *EvalMesh) Client(name string) (*model.Client, bool) {
	c, ok := m.clients[name]
	return c, ok
}

// Run executes a task and returns its report.
func (m *EvalMesh) Run(ctx context.Context, task *eval.Task) (*eval.Report, error) {
	return task.Run(ctx)
}

// Close releases the shared resources. Call once at run end.
func (m *EvalMesh) Close() {
	if m.cache != nil {
		m.cache.Close()
	}
}
