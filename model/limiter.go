package model

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds in-flight requests per resolved model id using weighted
// semaphores. All generate calls for a model go through one shared Limiter so
// the bound holds across every sample of a run. Callers suspend until a slot
// is free; waiting respects context cancellation.
type Limiter struct {
	mu    sync.Mutex
	slots map[string]*semaphore.Weighted
}

// NewLimiter creates an empty Limiter. Per-model capacity is fixed on first
// acquire for that model id.
func NewLimiter() *Limiter {
	return &Limiter{slots: make(map[string]*semaphore.Weighted)}
}

// Acquire blocks until a connection slot for the model is free, then returns
// a release function. Returns ctx.Err() if cancelled while waiting.
//
// The semaphore for a model id is sized by the maxConnections of the first
// Acquire for that id; later calls with a different value reuse the existing
// semaphore and their maxConnections is ignored.
func (l *Limiter) Acquire(ctx context.Context, modelID string, maxConnections int) (func(), error) {
	if maxConnections < 1 {
		maxConnections = 1
	}

	l.mu.Lock()
	sem, ok := l.slots[modelID]
	if !ok {
		sem = semaphore.NewWeighted(int64(maxConnections))
		l.slots[modelID] = sem
	}
	l.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}
