package credential

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateFromEnvSkipsEmptyAndStoresPresent(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_fromenv")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	s := newTestStore(t)
	created, err := s.MigrateFromEnv(context.Background())
	require.NoError(t, err)
	assert.Contains(t, created, "github-token:github-default")
	assert.Contains(t, created, "openai-key:default")
	assert.NotContains(t, created, "anthropic-key:default")

	cred, err := s.Get(context.Background(), "github-token:github-default")
	require.NoError(t, err)
	assert.Equal(t, "ghp_fromenv", cred.Value)
}

func TestMigrateFromEnvSkipsAlreadyPresent(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_new")

	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Set(ctx, Credential{
		Metadata: Metadata{ID: "github-token:github-default", Type: TypeGitHubToken, Name: "github-default"},
		Value:    "ghp_existing",
	}))

	created, err := s.MigrateFromEnv(ctx)
	require.NoError(t, err)
	assert.NotContains(t, created, "github-token:github-default")

	cred, err := s.Get(ctx, "github-token:github-default")
	require.NoError(t, err)
	assert.Equal(t, "ghp_existing", cred.Value, "migration must not overwrite an existing credential")
}

func TestMigrateFromEnvRequiresCompleteAWSPair(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIATEST")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("AWS_REGION", "us-east-1")

	s := newTestStore(t)
	created, err := s.MigrateFromEnv(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, created, "aws-credentials:default", "an incomplete AWS key pair must not be stored")
}

func TestMigrateFromEnvStoresAWSPairWithRegion(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIATEST")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "shh")
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("AWS_DEFAULT_REGION", "")

	s := newTestStore(t)
	created, err := s.MigrateFromEnv(context.Background())
	require.NoError(t, err)
	require.Contains(t, created, "aws-credentials:default")

	cred, err := s.Get(context.Background(), "aws-credentials:default")
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", cred.Region)
	assert.Equal(t, "AKIATEST:shh", cred.Value)
}

func TestMigrateFromEnvPrefersRegionOverDefaultRegion(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIATEST")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "shh")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "eu-west-1")

	s := newTestStore(t)
	_, err := s.MigrateFromEnv(context.Background())
	require.NoError(t, err)

	cred, err := s.Get(context.Background(), "aws-credentials:default")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cred.Region)
}

func init() {
	// envTable reads through os.Getenv directly; clearing these up front
	// keeps tests independent of whatever the host environment happens to
	// export (CI runners often set GITHUB_TOKEN).
	for _, v := range []string{
		"GITHUB_TOKEN", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY",
		"CLOUDFLARE_API_TOKEN", "CF_API_TOKEN", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"AWS_REGION", "AWS_DEFAULT_REGION", "DIGITALOCEAN_TOKEN", "DO_TOKEN",
		"SPACES_ACCESS_KEY_ID", "SPACES_SECRET_ACCESS_KEY", "SPACES_REGION",
		"NPM_TOKEN", "NPM_AUTH_TOKEN",
	} {
		_ = os.Unsetenv(v)
	}
}
