package credential

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlvector/cv-git/internal/cverrors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := OpenWithBackend(filepath.Join(dir, "credentials-metadata.json"), BackendFile)
	require.NoError(t, err)
	return s
}

func TestSetAndGetRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Set(ctx, Credential{
		Metadata: Metadata{Type: TypeGitHubToken, Name: "github-default", Platform: "github"},
		Value:    "ghp_secret",
	})
	require.NoError(t, err)

	cred, err := s.Get(ctx, "github-token:github-default")
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", cred.Value)
	assert.Equal(t, TypeGitHubToken, cred.Type)
	assert.WithinDuration(t, time.Now(), cred.LastUsed, 5*time.Second)
}

func TestGetMissingReturnsMissingCredentialKind(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	require.Error(t, err)
	cvErr, ok := cverrors.As(err)
	require.True(t, ok)
	assert.Equal(t, cverrors.KindMissingCredential, cvErr.Kind)
}

func TestListAndGetByType(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, Credential{Metadata: Metadata{Type: TypeGitHubToken, Name: "a"}, Value: "v1"}))
	require.NoError(t, s.Set(ctx, Credential{Metadata: Metadata{Type: TypeOpenAIKey, Name: "b"}, Value: "v2"}))

	all := s.List(ctx)
	assert.Len(t, all, 2)

	gh := s.GetByType(ctx, TypeGitHubToken)
	require.Len(t, gh, 1)
	assert.Equal(t, "a", gh[0].Name)
}

func TestDeleteRemovesFromBothBackends(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, Credential{Metadata: Metadata{Type: TypeNPM, Name: "default"}, Value: "tok"}))
	require.NoError(t, s.Delete(ctx, "npm-token:default"))

	_, err := s.Get(ctx, "npm-token:default")
	assert.Error(t, err)
	assert.Empty(t, s.List(ctx))
}

func TestSidecarPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials-metadata.json")

	s1, err := OpenWithBackend(path, BackendFile)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, Credential{Metadata: Metadata{Type: TypeGitHubToken, Name: "x"}, Value: "secret"}))

	s2, err := OpenWithBackend(path, BackendFile)
	require.NoError(t, err)
	cred, err := s2.Get(ctx, "github-token:x")
	require.NoError(t, err)
	assert.Equal(t, "secret", cred.Value)
}

func TestGetStorageBackendReportsFile(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, BackendFile, s.GetStorageBackend())
}
