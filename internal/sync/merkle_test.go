package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestMerkleHashStableAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.go": "package a", "b.go": "package b"})

	mt := NewMerkleTree(NewFileWalker(0))
	h1, err := mt.Hash(context.Background(), dir, nil)
	require.NoError(t, err)
	h2, err := mt.Hash(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestMerkleDiffDetectsContentChange(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.go": "package a"})

	mt := NewMerkleTree(NewFileWalker(0))
	before, err := mt.Hash(context.Background(), dir, nil)
	require.NoError(t, err)

	writeFiles(t, dir, map[string]string{"a.go": "package a // changed"})
	after, err := mt.Hash(context.Background(), dir, nil)
	require.NoError(t, err)

	changed, err := mt.Diff(context.Background(), before, after)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "a.go", changed[0])
}

func TestMerkleDiffDetectsNewFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.go": "package a"})

	mt := NewMerkleTree(NewFileWalker(0))
	before, err := mt.Hash(context.Background(), dir, nil)
	require.NoError(t, err)

	writeFiles(t, dir, map[string]string{"b.go": "package b"})
	after, err := mt.Hash(context.Background(), dir, nil)
	require.NoError(t, err)

	changed, err := mt.Diff(context.Background(), before, after)
	require.NoError(t, err)
	assert.Contains(t, changed, "b.go")
}

func TestFileWalkerRespectsIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"keep.go":            "package a",
		"vendor/dropped.go":  "package v",
	})

	var seen []string
	walker := NewFileWalker(0)
	err := walker.Walk(context.Background(), dir, DefaultIgnorePatterns(), func(path string, info os.FileInfo) error {
		rel, _ := filepath.Rel(dir, path)
		seen = append(seen, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, seen, "keep.go")
	assert.NotContains(t, seen, "vendor/dropped.go")
}
