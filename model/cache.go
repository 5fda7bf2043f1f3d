package model

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/zeebo/blake3"
)

// DefaultCacheSize is the default maximum total size of cached responses.
const DefaultCacheSize = 256 << 20 // 256 MiB

// Cache memoizes model responses keyed by the full resolved request
// signature. Reads vastly outnumber writes; concurrent misses for the same
// key are tolerated (duplicate provider calls, last write wins) rather than
// serialized, to avoid a coordination bottleneck.
type Cache struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration
}

// NewCache creates a ristretto-backed response cache. maxCostBytes is the
// maximum total size of cached values in bytes; 0 uses DefaultCacheSize.
func NewCache(maxCostBytes int64) (*Cache, error) {
	if maxCostBytes <= 0 {
		maxCostBytes = DefaultCacheSize
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 1000 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

// Get retrieves a memoized response for the signature.
func (c *Cache) Get(key string) (*Response, bool) {
	data, found := c.c.Get(key)
	if !found {
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

// Set stores a response under the signature. Writes are buffered and may be
// dropped under pressure; that is acceptable for a memoization cache.
func (c *Cache) Set(key string, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if c.ttl > 0 {
		c.c.SetWithTTL(key, data, int64(len(data)), c.ttl)
		return
	}
	c.c.Set(key, data, int64(len(data)))
}

// Wait blocks until buffered writes are applied. Test hook.
func (c *Cache) Wait() { c.c.Wait() }

// Close shuts down the cache and releases resources.
func (c *Cache) Close() { c.c.Close() }

// Signature computes the memoization key for a request against a resolved
// model id: a blake3 hash over model id, generation config, prompt content
// and tool declarations.
func Signature(modelID string, req Request) string {
	h := blake3.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(modelID)
	_ = enc.Encode(req.Config)
	_ = enc.Encode(req.System)
	_ = enc.Encode(req.Input)
	_ = enc.Encode(req.Tools)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}
