// Package credential stores and retrieves typed secrets (platform tokens, AI
// provider keys, cloud access keys) on behalf of the rest of cv-git.
//
// A preferred backend holds the secret value itself: the OS keychain via
// zalando/go-keyring when the platform exposes one, or a restrictive-permission
// JSON file when it doesn't. Selection is automatic and probed once at
// construction. Alongside the secret backend, a non-sensitive JSON sidecar
// records enough metadata (type, name, timestamps, platform, expiry) to list
// and look credentials up by type without ever touching the secret backend.
package credential

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/controlvector/cv-git/internal/cverrors"
)

// Type classifies what a credential is used for.
type Type string

const (
	TypeGitHubToken   Type = "github-token"
	TypeGitLabToken   Type = "gitlab-token"
	TypeHubProxy      Type = "hub-proxy"
	TypeAnthropicKey  Type = "anthropic-key"
	TypeOpenAIKey     Type = "openai-key"
	TypeOpenRouterKey Type = "openrouter-key"
	TypeCloudflare    Type = "cloudflare-token"
	TypeAWS           Type = "aws-credentials"
	TypeDigitalOcean  Type = "digitalocean-token"
	TypeSpaces        Type = "spaces-credentials"
	TypeNPM           Type = "npm-token"
)

// AuthMethod distinguishes a directly-held token from one obtained on-demand
// through a hub proxy, per the retrieval precedence in spec.md §4.7.
type AuthMethod string

const (
	AuthMethodDirect   AuthMethod = "direct"
	AuthMethodHubProxy AuthMethod = "hub-proxy"
)

// Credential is the full record: non-sensitive Metadata plus the secret
// Value. Value is never persisted in the sidecar — only in the secret
// backend.
type Credential struct {
	Metadata
	Value string `json:"-"`
}

// Metadata is the sidecar-persisted, non-sensitive half of a Credential.
type Metadata struct {
	ID         string     `json:"id"`
	Type       Type       `json:"type"`
	Name       string     `json:"name"`
	AuthMethod AuthMethod `json:"authMethod"`
	Platform   string     `json:"platform,omitempty"`
	Username   string     `json:"username,omitempty"`
	Region     string     `json:"region,omitempty"`
	AccountID  string     `json:"accountId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsed   time.Time  `json:"lastUsed,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// Backend names the active secret backend, observable via Store.Backend().
type Backend string

const (
	BackendKeychain Backend = "keychain"
	BackendFile     Backend = "file"
)

// keyringService namespaces every keyring entry cv-git writes, so it never
// collides with another application's secrets in a shared OS keychain.
const keyringService = "cv-git"

// Store is the credential store: a metadata sidecar plus a secret backend.
// It is safe for concurrent use; writes to the sidecar serialize on mu,
// matching spec.md §4.7's "writes serialize on the metadata file" rule.
type Store struct {
	mu      sync.Mutex
	path    string
	backend Backend
	file    secretBackend
	sidecar sidecarFile
}

// secretBackend abstracts over the OS keychain and the file fallback so Store
// doesn't care which one is live.
type secretBackend interface {
	Set(id, value string) error
	Get(id string) (string, error)
	Delete(id string) error
}

// Open constructs a Store rooted at sidecarPath (typically
// $HOME/.cv-git/credentials-metadata.json per spec.md §6). It probes the OS
// keychain once; if the probe fails, it falls back to a file-backed secret
// store living alongside the sidecar.
func Open(sidecarPath string) (*Store, error) {
	s := &Store{path: sidecarPath}

	if probeKeyring() {
		s.backend = BackendKeychain
		s.file = keychainBackend{}
	} else {
		s.backend = BackendFile
		s.file = newFileSecretBackend(secretsPathFor(sidecarPath))
	}

	sc, err := loadSidecar(sidecarPath)
	if err != nil {
		return nil, fmt.Errorf("load credential sidecar: %w", err)
	}
	s.sidecar = sc
	return s, nil
}

// OpenWithBackend constructs a Store forced onto a specific backend,
// bypassing the keychain probe. Used by credentials.storage = file in config,
// and by tests, since the OS keychain is unavailable in a sandboxed test
// environment.
func OpenWithBackend(sidecarPath string, backend Backend) (*Store, error) {
	s := &Store{path: sidecarPath, backend: backend}
	switch backend {
	case BackendKeychain:
		s.file = keychainBackend{}
	case BackendFile:
		s.file = newFileSecretBackend(secretsPathFor(sidecarPath))
	default:
		return nil, fmt.Errorf("unknown credential backend %q", backend)
	}

	sc, err := loadSidecar(sidecarPath)
	if err != nil {
		return nil, fmt.Errorf("load credential sidecar: %w", err)
	}
	s.sidecar = sc
	return s, nil
}

// GetStorageBackend reports which secret backend is active, per spec.md
// §4.7's getStorageBackend().
func (s *Store) GetStorageBackend() Backend {
	return s.backend
}

// Set stores cred, writing its value to the secret backend and its metadata
// to the sidecar. If cred.ID is empty, one is derived from Type and Name.
func (s *Store) Set(ctx context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred.Type == "" || cred.Name == "" {
		return cverrors.New(cverrors.KindInvalidInput, "credential requires a type and a name")
	}
	if cred.ID == "" {
		cred.ID = string(cred.Type) + ":" + cred.Name
	}
	if cred.AuthMethod == "" {
		cred.AuthMethod = AuthMethodDirect
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	if err := s.file.Set(cred.ID, cred.Value); err != nil {
		return fmt.Errorf("store credential value: %w", err)
	}
	s.sidecar.put(cred.Metadata)
	return s.sidecar.save(s.path)
}

// Get returns the full credential (metadata + value) for id.
func (s *Store) Get(ctx context.Context, id string) (*Credential, error) {
	s.mu.Lock()
	meta, ok := s.sidecar.get(id)
	s.mu.Unlock()
	if !ok {
		return nil, cverrors.New(cverrors.KindMissingCredential, fmt.Sprintf("no credential %q", id))
	}

	value, err := s.file.Get(id)
	if err != nil {
		return nil, cverrors.Wrap(cverrors.KindMissingCredential, fmt.Sprintf("read credential %q", id), err)
	}

	s.mu.Lock()
	meta.LastUsed = time.Now().UTC()
	s.sidecar.put(meta)
	saveErr := s.sidecar.save(s.path)
	s.mu.Unlock()
	if saveErr != nil {
		return nil, fmt.Errorf("record credential last-used: %w", saveErr)
	}

	return &Credential{Metadata: meta, Value: value}, nil
}

// GetByType returns every credential of the given type, looked up through
// the sidecar only — it does not touch the secret backend unless the caller
// later calls Get on one of the returned IDs.
func (s *Store) GetByType(ctx context.Context, t Type) []Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sidecar.byType(t)
}

// List returns the metadata of every stored credential.
func (s *Store) List(ctx context.Context) []Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sidecar.list()
}

// Delete removes id from both the secret backend and the sidecar.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sidecar.get(id); !ok {
		return cverrors.New(cverrors.KindMissingCredential, fmt.Sprintf("no credential %q", id))
	}
	if err := s.file.Delete(id); err != nil {
		return fmt.Errorf("delete credential value: %w", err)
	}
	s.sidecar.remove(id)
	return s.sidecar.save(s.path)
}

// probeKeyring reports whether the OS keychain is usable by writing and
// reading back a throwaway entry. go-keyring returns an error on platforms
// with no backend (e.g. a headless Linux CI box with no libsecret).
func probeKeyring() bool {
	const probeUser = "cv-git-probe"
	if err := keyring.Set(keyringService, probeUser, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, probeUser)
	return true
}

// keychainBackend adapts zalando/go-keyring to secretBackend.
type keychainBackend struct{}

func (keychainBackend) Set(id, value string) error {
	return keyring.Set(keyringService, id, value)
}

func (keychainBackend) Get(id string) (string, error) {
	v, err := keyring.Get(keyringService, id)
	if err != nil {
		return "", err
	}
	return v, nil
}

func (keychainBackend) Delete(id string) error {
	return keyring.Delete(keyringService, id)
}
