// Package cache provides a namespaced, process-local query cache with an
// optional Redis-backed remote tier, grounded on the teacher's
// internal/security/ratelimit package: an in-process data structure backed
// by a fallback-capable remote store, both reachable through one API.
package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Namespace partitions the cache by the kind of result it holds, per
// spec.md §5.9.
type Namespace string

const (
	NamespaceGraph  Namespace = "graph"
	NamespaceVector Namespace = "vector"
	NamespaceAI     Namespace = "ai"
)

// Stats reports hit/miss counters for a namespace.
type Stats struct {
	Hits   int64
	Misses int64
}

// RemoteTier is the optional shared tier behind the per-process LRU,
// satisfied by *redisTier. A nil RemoteTier means process-local only.
type RemoteTier interface {
	Get(ctx context.Context, namespace Namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace Namespace, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, namespace Namespace, key string) error
	Close() error
}

type namespaceCache struct {
	mu    sync.Mutex
	lru   *lru.Cache[string, string]
	stats Stats
}

// Cache is a process-global, namespaced LRU with an optional remote tier.
// A single Cache instance is shared across a CLI invocation's packages
// (graph queries, vector search results, AI-generated summaries) rather
// than each package keeping its own cache, since the teacher's indexer
// runs as a long-lived server process but this CLI runs per-invocation —
// sharing one cache means a warm remote tier still pays off within a
// single run.
type Cache struct {
	mu         sync.RWMutex
	namespaces map[Namespace]*namespaceCache
	perNSSize  int
	remote     RemoteTier
	remoteTTL  time.Duration
}

// Config controls Cache construction.
type Config struct {
	// PerNamespaceSize bounds each namespace's in-process LRU. Default 1000.
	PerNamespaceSize int

	// RemoteTTL bounds how long a remote-tier entry lives. Default 1 hour.
	RemoteTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.PerNamespaceSize <= 0 {
		c.PerNamespaceSize = 1000
	}
	if c.RemoteTTL <= 0 {
		c.RemoteTTL = time.Hour
	}
	return c
}

// New constructs a Cache. remote may be nil for a process-local-only cache.
func New(remote RemoteTier, cfg Config) *Cache {
	cfg = cfg.withDefaults()
	return &Cache{
		namespaces: make(map[Namespace]*namespaceCache),
		perNSSize:  cfg.PerNamespaceSize,
		remote:     remote,
		remoteTTL:  cfg.RemoteTTL,
	}
}

func (c *Cache) namespaceFor(ns Namespace) *namespaceCache {
	c.mu.RLock()
	nc, ok := c.namespaces[ns]
	c.mu.RUnlock()
	if ok {
		return nc
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if nc, ok = c.namespaces[ns]; ok {
		return nc
	}
	l, _ := lru.New[string, string](c.perNSSize) // size > 0 guaranteed by withDefaults
	nc = &namespaceCache{lru: l}
	c.namespaces[ns] = nc
	return nc
}

// Get checks the in-process LRU first, then the remote tier (populating the
// LRU on a remote hit so the next lookup in this process is local).
func (c *Cache) Get(ctx context.Context, ns Namespace, key string) (string, bool) {
	nc := c.namespaceFor(ns)

	nc.mu.Lock()
	if v, ok := nc.lru.Get(key); ok {
		nc.stats.Hits++
		nc.mu.Unlock()
		return v, true
	}
	nc.mu.Unlock()

	if c.remote == nil {
		nc.mu.Lock()
		nc.stats.Misses++
		nc.mu.Unlock()
		return "", false
	}

	v, ok, err := c.remote.Get(ctx, ns, key)
	nc.mu.Lock()
	defer nc.mu.Unlock()
	if err != nil || !ok {
		nc.stats.Misses++
		return "", false
	}
	nc.stats.Hits++
	nc.lru.Add(key, v)
	return v, true
}

// Set populates both tiers.
func (c *Cache) Set(ctx context.Context, ns Namespace, key, value string) error {
	nc := c.namespaceFor(ns)
	nc.mu.Lock()
	nc.lru.Add(key, value)
	nc.mu.Unlock()

	if c.remote == nil {
		return nil
	}
	return c.remote.Set(ctx, ns, key, value, c.remoteTTL)
}

// Invalidate drops a single key from both tiers.
func (c *Cache) Invalidate(ctx context.Context, ns Namespace, key string) error {
	nc := c.namespaceFor(ns)
	nc.mu.Lock()
	nc.lru.Remove(key)
	nc.mu.Unlock()

	if c.remote == nil {
		return nil
	}
	return c.remote.Delete(ctx, ns, key)
}

// InvalidatePrefix drops every in-process key whose prefix matches, for
// cases where a single changed file invalidates many derived cache keys
// (e.g. all graph queries seeded from a symbol in that file). The remote
// tier isn't swept (Redis has no efficient prefix scan without SCAN, which
// this cache's hit-rate doesn't justify); remote entries simply expire via
// RemoteTTL.
func (c *Cache) InvalidatePrefix(ns Namespace, prefix string) int {
	nc := c.namespaceFor(ns)
	nc.mu.Lock()
	defer nc.mu.Unlock()

	dropped := 0
	for _, key := range nc.lru.Keys() {
		if hasPrefix(key, prefix) {
			nc.lru.Remove(key)
			dropped++
		}
	}
	return dropped
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Clear empties a namespace's in-process LRU and resets its counters.
func (c *Cache) Clear(ns Namespace) {
	nc := c.namespaceFor(ns)
	nc.mu.Lock()
	defer nc.mu.Unlock()
	nc.lru.Purge()
	nc.stats = Stats{}
}

// Stats reports the namespace's current hit/miss counters.
func (c *Cache) Stats(ns Namespace) Stats {
	nc := c.namespaceFor(ns)
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.stats
}

// Close releases the remote tier's connection, if any.
func (c *Cache) Close() error {
	if c.remote == nil {
		return nil
	}
	return c.remote.Close()
}
