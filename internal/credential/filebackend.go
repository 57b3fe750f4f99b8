package credential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

// fileSecretBackend is the fallback secret backend used when no OS keychain
// is available. It holds id -> plaintext value in a single JSON file with
// owner-only permissions, per spec.md §4.7's "plain file (restrictive
// permissions, owner-only read)".
type fileSecretBackend struct {
	mu   sync.Mutex
	path string
}

func newFileSecretBackend(path string) *fileSecretBackend {
	return &fileSecretBackend{path: path}
}

func (f *fileSecretBackend) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}
	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse credential secrets file %s: %w", f.path, err)
	}
	return values, nil
}

func (f *fileSecretBackend) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credential secrets directory: %w", err)
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal credential secrets: %w", err)
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(f.path, 0o600)
}

func (f *fileSecretBackend) Set(id, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[id] = value
	return f.save(values)
}

func (f *fileSecretBackend) Get(id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[id]
	if !ok {
		return "", fmt.Errorf("no secret stored for %q", id)
	}
	return v, nil
}

func (f *fileSecretBackend) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	delete(values, id)
	return f.save(values)
}
