package storage

import (
	"context"

	"github.com/coocood/freecache"
)

// cacheExpireSeconds bounds staleness when another process writes the same store.
const cacheExpireSeconds = 60

// CachedKV is a read-through, write-through freecache layer over a KV.
type CachedKV struct {
	next  KV
	cache *freecache.Cache
}

var _ KV = (*CachedKV)(nil)

// NewCachedKV wraps next with a cache of sizeMB megabytes.
func NewCachedKV(next KV, sizeMB int) *CachedKV {
	return &CachedKV{
		next:  next,
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
	}
}

// Get implements KV.
func (c *CachedKV) Get(ctx context.Context, key string) ([]byte, error) {
	if v, err := c.cache.Get([]byte(key)); err == nil {
		return v, nil
	}
	v, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	// Values larger than the cache's entry limit are simply not cached.
	_ = c.cache.Set([]byte(key), v, cacheExpireSeconds)
	return v, nil
}

// Put implements KV.
func (c *CachedKV) Put(ctx context.Context, key string, value []byte) error {
	if err := c.next.Put(ctx, key, value); err != nil {
		c.cache.Del([]byte(key))
		return err
	}
	if err := c.cache.Set([]byte(key), value, cacheExpireSeconds); err != nil {
		c.cache.Del([]byte(key))
	}
	return nil
}

// HitRate returns the cache hit ratio since creation.
func (c *CachedKV) HitRate() float64 {
	return c.cache.HitRate()
}

// Ping implements KV.
func (c *CachedKV) Ping(ctx context.Context) error {
	return c.next.Ping(ctx)
}

// Close implements KV.
func (c *CachedKV) Close() error {
	c.cache.Clear()
	return c.next.Close()
}
