package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFallsBackWhenNoQdrantURL(t *testing.T) {
	dir := t.TempDir()
	sqliteCalled := false
	store, usedFallback, err := Open(context.Background(), nil, "", dir, 8, nil, func(path string) (VectorStore, error) {
		sqliteCalled = true
		return NewMemoryStore(), nil
	})
	require.NoError(t, err)
	assert.True(t, usedFallback)
	assert.True(t, sqliteCalled)
	assert.NotNil(t, store)
}

func TestOpenFallsBackWhenOpenerFails(t *testing.T) {
	dir := t.TempDir()
	failingOpen := func(ctx context.Context, host string, port int, dimensions uint64, collections map[string]string) (VectorStore, error) {
		return nil, assert.AnError
	}
	store, usedFallback, err := Open(context.Background(), failingOpen, "http://localhost:6334", dir, 8, nil, func(path string) (VectorStore, error) {
		return NewMemoryStore(), nil
	})
	require.NoError(t, err)
	assert.True(t, usedFallback)
	assert.NotNil(t, store)
}

func TestOpenUsesPrimaryWhenReachable(t *testing.T) {
	dir := t.TempDir()
	succeedingOpen := func(ctx context.Context, host string, port int, dimensions uint64, collections map[string]string) (VectorStore, error) {
		assert.Equal(t, "localhost", host)
		assert.Equal(t, 6334, port)
		return NewMemoryStore(), nil
	}
	store, usedFallback, err := Open(context.Background(), succeedingOpen, "http://localhost:6334", dir, 8, nil, func(path string) (VectorStore, error) {
		t.Fatal("sqlite fallback should not be invoked")
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, usedFallback)
	assert.NotNil(t, store)
}

func TestSplitHostPort(t *testing.T) {
	host, port, err := splitHostPort("http://qdrant.internal:7000")
	require.NoError(t, err)
	assert.Equal(t, "qdrant.internal", host)
	assert.Equal(t, 7000, port)

	host, port, err = splitHostPort("http://qdrant.internal")
	require.NoError(t, err)
	assert.Equal(t, "qdrant.internal", host)
	assert.Equal(t, 6334, port)
}
