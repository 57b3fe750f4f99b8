package gitrepo

import (
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootFindsRepositoryFromNestedSubdirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	nested := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	root, err := Root(nested)
	require.NoError(t, err)

	wantReal, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	gotReal, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, wantReal, gotReal)
}

func TestRootErrorsOutsideAnyRepository(t *testing.T) {
	_, err := Root(t.TempDir())
	assert.Error(t, err)
}

func TestRemoteURLReturnsConfiguredOriginURL(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@github.com:acme/widgets.git"},
	})
	require.NoError(t, err)

	url, err := RemoteURL(dir, "origin")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:acme/widgets.git", url)
}

func TestRemoteURLErrorsWhenRemoteMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	_, err = RemoteURL(dir, "origin")
	assert.Error(t, err)
}

func TestOwnerRepoParsesSSHAndHTTPSForms(t *testing.T) {
	cases := map[string][2]string{
		"git@github.com:acme/widgets.git":     {"acme", "widgets"},
		"https://github.com/acme/widgets.git": {"acme", "widgets"},
		"https://github.com/acme/widgets":     {"acme", "widgets"},
		"ssh://git@github.com/acme/widgets":   {"acme", "widgets"},
	}
	for remote, want := range cases {
		owner, repo, err := OwnerRepo(remote)
		require.NoError(t, err, remote)
		assert.Equal(t, want[0], owner, remote)
		assert.Equal(t, want[1], repo, remote)
	}
}

func TestOwnerRepoErrorsOnUnparseableURL(t *testing.T) {
	_, _, err := OwnerRepo("not-a-url")
	assert.Error(t, err)
}
