package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRemote struct {
	entries map[string]string
	closed  bool
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{entries: make(map[string]string)}
}

func (m *memoryRemote) buildKey(ns Namespace, key string) string {
	return string(ns) + ":" + key
}

func (m *memoryRemote) Get(ctx context.Context, ns Namespace, key string) (string, bool, error) {
	v, ok := m.entries[m.buildKey(ns, key)]
	return v, ok, nil
}

func (m *memoryRemote) Set(ctx context.Context, ns Namespace, key, value string, ttl time.Duration) error {
	m.entries[m.buildKey(ns, key)] = value
	return nil
}

func (m *memoryRemote) Delete(ctx context.Context, ns Namespace, key string) error {
	delete(m.entries, m.buildKey(ns, key))
	return nil
}

func (m *memoryRemote) Close() error {
	m.closed = true
	return nil
}

func TestGetMissWithoutRemoteIncrementsMissCounter(t *testing.T) {
	c := New(nil, Config{})
	_, ok := c.Get(context.Background(), NamespaceGraph, "missing")
	assert.False(t, ok)
	assert.Equal(t, Stats{Misses: 1}, c.Stats(NamespaceGraph))
}

func TestSetThenGetHitsLocalLRU(t *testing.T) {
	c := New(nil, Config{})
	require.NoError(t, c.Set(context.Background(), NamespaceVector, "k1", "v1"))

	v, ok := c.Get(context.Background(), NamespaceVector, "k1")
	require.True(t, ok)
	assert.Equal(t, "v1", v)
	assert.Equal(t, Stats{Hits: 1}, c.Stats(NamespaceVector))
}

func TestGetFallsBackToRemoteAndPopulatesLocal(t *testing.T) {
	remote := newMemoryRemote()
	remote.entries[remote.buildKey(NamespaceAI, "k2")] = "from-remote"

	c := New(remote, Config{})
	v, ok := c.Get(context.Background(), NamespaceAI, "k2")
	require.True(t, ok)
	assert.Equal(t, "from-remote", v)

	// second Get should hit the now-populated local LRU, not the remote
	// (clearing the remote entry proves it wasn't consulted again).
	delete(remote.entries, remote.buildKey(NamespaceAI, "k2"))
	v, ok = c.Get(context.Background(), NamespaceAI, "k2")
	require.True(t, ok)
	assert.Equal(t, "from-remote", v)
}

func TestInvalidateDropsFromBothTiers(t *testing.T) {
	remote := newMemoryRemote()
	c := New(remote, Config{})
	require.NoError(t, c.Set(context.Background(), NamespaceGraph, "k3", "v3"))

	require.NoError(t, c.Invalidate(context.Background(), NamespaceGraph, "k3"))

	_, ok := c.Get(context.Background(), NamespaceGraph, "k3")
	assert.False(t, ok)
}

func TestInvalidatePrefixDropsMatchingLocalKeysOnly(t *testing.T) {
	c := New(nil, Config{})
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, NamespaceGraph, "symbol:foo:callers", "a"))
	require.NoError(t, c.Set(ctx, NamespaceGraph, "symbol:foo:callees", "b"))
	require.NoError(t, c.Set(ctx, NamespaceGraph, "symbol:bar:callers", "c"))

	dropped := c.InvalidatePrefix(NamespaceGraph, "symbol:foo:")
	assert.Equal(t, 2, dropped)

	_, ok := c.Get(ctx, NamespaceGraph, "symbol:bar:callers")
	assert.True(t, ok)
	_, ok = c.Get(ctx, NamespaceGraph, "symbol:foo:callers")
	assert.False(t, ok)
}

func TestClearResetsEntriesAndCounters(t *testing.T) {
	c := New(nil, Config{})
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, NamespaceVector, "k4", "v4"))
	_, _ = c.Get(ctx, NamespaceVector, "k4")

	c.Clear(NamespaceVector)

	assert.Equal(t, Stats{}, c.Stats(NamespaceVector))
	_, ok := c.Get(ctx, NamespaceVector, "k4")
	assert.False(t, ok)
}

func TestNamespacesAreIsolated(t *testing.T) {
	c := New(nil, Config{})
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, NamespaceGraph, "shared-key", "graph-value"))
	require.NoError(t, c.Set(ctx, NamespaceVector, "shared-key", "vector-value"))

	v, _ := c.Get(ctx, NamespaceGraph, "shared-key")
	assert.Equal(t, "graph-value", v)
	v, _ = c.Get(ctx, NamespaceVector, "shared-key")
	assert.Equal(t, "vector-value", v)
}

func TestCloseClosesRemoteTier(t *testing.T) {
	remote := newMemoryRemote()
	c := New(remote, Config{})
	require.NoError(t, c.Close())
	assert.True(t, remote.closed)
}

func TestConfigDefaultsApplied(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 1000, cfg.PerNamespaceSize)
	assert.Equal(t, time.Hour, cfg.RemoteTTL)
}
