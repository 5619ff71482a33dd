package dashboard

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache memoises encoded updates. Keys include the snapshot time, so an
// entry never goes stale; the TTL only bounds memory.
type Cache struct {
	rc  *ristretto.Cache[string, []byte]
	ttl time.Duration

	mu    sync.Mutex
	loads map[string]*call
}

// call deduplicates concurrent builds for the same key
type call struct {
	wg  sync.WaitGroup
	val []byte
	err error
}

// NewCache holds up to maxEntries updates (each entry has a cost of 1)
func NewCache(maxEntries int64, ttl time.Duration) (*Cache, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{
		rc:    rc,
		ttl:   ttl,
		loads: make(map[string]*call),
	}, nil
}

func (c *Cache) get(key string) ([]byte, bool) {
	v, ok := c.rc.Get(key)
	if !ok {
		return nil, false
	}
	return bytes.Clone(v), true
}

// GetOrSet returns the cached value for key. On a miss it calls build once
// for all concurrent callers and stores the result.
func (c *Cache) GetOrSet(ctx context.Context, key string, build func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	if cl, ok := c.loads[key]; ok {
		c.mu.Unlock()
		cl.wg.Wait()
		if cl.err != nil {
			return nil, cl.err
		}
		return bytes.Clone(cl.val), nil
	}

	cl := &call{}
	cl.wg.Add(1)
	c.loads[key] = cl
	c.mu.Unlock()

	cl.val, cl.err = build(ctx)
	if cl.err == nil {
		c.rc.SetWithTTL(key, bytes.Clone(cl.val), 1, c.ttl)
		c.rc.Wait()
	}
	cl.wg.Done()

	c.mu.Lock()
	delete(c.loads, key)
	c.mu.Unlock()

	if cl.err != nil {
		return nil, cl.err
	}
	return bytes.Clone(cl.val), nil
}

// Close stops the cache's background goroutines
func (c *Cache) Close() {
	c.rc.Close()
}
