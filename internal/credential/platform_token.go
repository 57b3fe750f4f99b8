package credential

import (
	"context"
	"fmt"
	"time"
)

// HubRefresher exchanges a hub-proxy credential for a fresh platform token.
// The concrete implementation lives in internal/platform, which imports
// credential — this interface keeps the dependency pointed the other way.
type HubRefresher interface {
	RefreshToken(ctx context.Context, hubCredentialID string) (token string, expiresAt time.Time, err error)
}

// PlatformToken resolves the access token for platform (e.g. "github"),
// applying the retrieval precedence from spec.md §4.7:
//  1. a direct credential (authMethod != hub-proxy) wins outright;
//  2. a hub-proxy credential is refreshed if its expiry has passed, otherwise
//     returned as-is;
//  3. failing both, a hub credential (if one exists) is asked for a fresh
//     platform token on demand, which is persisted with its expiry and
//     returned.
func (s *Store) PlatformToken(ctx context.Context, platform string, typ Type, refresher HubRefresher) (string, error) {
	candidates := s.GetByType(ctx, typ)

	for _, m := range candidates {
		if m.AuthMethod != AuthMethodHubProxy && m.Platform == platform {
			cred, err := s.Get(ctx, m.ID)
			if err != nil {
				return "", err
			}
			return cred.Value, nil
		}
	}

	for _, m := range candidates {
		if m.AuthMethod != AuthMethodHubProxy || m.Platform != platform {
			continue
		}
		cred, err := s.Get(ctx, m.ID)
		if err != nil {
			return "", err
		}
		if cred.ExpiresAt == nil || cred.ExpiresAt.After(time.Now()) {
			return cred.Value, nil
		}
		return s.refreshHubToken(ctx, m.ID, refresher)
	}

	for _, m := range s.List(ctx) {
		if m.Type == TypeHubProxy {
			return s.onDemandFromHub(ctx, platform, typ, m.ID, refresher)
		}
	}

	return "", fmt.Errorf("no %s credential available for platform %q", typ, platform)
}

func (s *Store) refreshHubToken(ctx context.Context, credID string, refresher HubRefresher) (string, error) {
	if refresher == nil {
		return "", fmt.Errorf("hub-proxy credential %q expired and no refresher is configured", credID)
	}
	token, expiresAt, err := refresher.RefreshToken(ctx, credID)
	if err != nil {
		return "", fmt.Errorf("refresh hub-proxy token: %w", err)
	}

	meta, _ := s.sidecarHas(credID)
	meta.ExpiresAt = &expiresAt
	if err := s.Set(ctx, Credential{Metadata: meta, Value: token}); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Store) onDemandFromHub(ctx context.Context, platform string, typ Type, hubCredID string, refresher HubRefresher) (string, error) {
	if refresher == nil {
		return "", fmt.Errorf("no direct %s credential for platform %q and no hub refresher configured", typ, platform)
	}
	token, expiresAt, err := refresher.RefreshToken(ctx, hubCredID)
	if err != nil {
		return "", fmt.Errorf("request platform token from hub: %w", err)
	}

	id := string(typ) + ":" + platform + "-hub"
	cred := Credential{
		Metadata: Metadata{
			ID:         id,
			Type:       typ,
			Name:       platform + "-hub",
			AuthMethod: AuthMethodHubProxy,
			Platform:   platform,
			ExpiresAt:  &expiresAt,
		},
		Value: token,
	}
	if err := s.Set(ctx, cred); err != nil {
		return "", err
	}
	return token, nil
}
