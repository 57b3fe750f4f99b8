package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	token     string
	expiresAt time.Time
	err       error
	calls     int
}

func (r *stubRefresher) RefreshToken(ctx context.Context, hubCredentialID string) (string, time.Time, error) {
	r.calls++
	return r.token, r.expiresAt, r.err
}

func TestPlatformTokenPrefersDirectCredential(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Set(ctx, Credential{
		Metadata: Metadata{Type: TypeGitHubToken, Name: "github-default", Platform: "github", AuthMethod: AuthMethodDirect},
		Value:    "direct-token",
	}))

	token, err := s.PlatformToken(ctx, "github", TypeGitHubToken, nil)
	require.NoError(t, err)
	assert.Equal(t, "direct-token", token)
}

func TestPlatformTokenReturnsUnexpiredHubProxyAsIs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	expiry := time.Now().Add(time.Hour)
	require.NoError(t, s.Set(ctx, Credential{
		Metadata: Metadata{Type: TypeGitHubToken, Name: "github-hub", Platform: "github", AuthMethod: AuthMethodHubProxy, ExpiresAt: &expiry},
		Value:    "proxy-token",
	}))

	refresher := &stubRefresher{}
	token, err := s.PlatformToken(ctx, "github", TypeGitHubToken, refresher)
	require.NoError(t, err)
	assert.Equal(t, "proxy-token", token)
	assert.Equal(t, 0, refresher.calls, "an unexpired hub-proxy credential must not be refreshed")
}

func TestPlatformTokenRefreshesExpiredHubProxy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	expiry := time.Now().Add(-time.Hour)
	require.NoError(t, s.Set(ctx, Credential{
		Metadata: Metadata{Type: TypeGitHubToken, Name: "github-hub", Platform: "github", AuthMethod: AuthMethodHubProxy, ExpiresAt: &expiry},
		Value:    "stale-token",
	}))

	newExpiry := time.Now().Add(time.Hour)
	refresher := &stubRefresher{token: "fresh-token", expiresAt: newExpiry}
	token, err := s.PlatformToken(ctx, "github", TypeGitHubToken, refresher)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, 1, refresher.calls)

	cred, err := s.Get(ctx, "github-token:github-hub")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", cred.Value)
}

func TestPlatformTokenRequestsOnDemandFromHubCredential(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Set(ctx, Credential{
		Metadata: Metadata{Type: TypeHubProxy, Name: "default"},
		Value:    "hub-session",
	}))

	expiry := time.Now().Add(time.Hour)
	refresher := &stubRefresher{token: "on-demand-token", expiresAt: expiry}
	token, err := s.PlatformToken(ctx, "github", TypeGitHubToken, refresher)
	require.NoError(t, err)
	assert.Equal(t, "on-demand-token", token)

	stored, err := s.Get(ctx, "github-token:github-hub")
	require.NoError(t, err)
	assert.Equal(t, "on-demand-token", stored.Value)
	assert.Equal(t, AuthMethodHubProxy, stored.AuthMethod)
}

func TestPlatformTokenErrorsWhenNothingAvailable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.PlatformToken(ctx, "github", TypeGitHubToken, nil)
	assert.Error(t, err)
}
