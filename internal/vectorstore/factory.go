package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
)

// Opener constructs the primary backend from a Qdrant URL. It is a function
// value rather than a direct import so this package does not depend on
// internal/vectorstore/qdrant (which would be a cyclic sibling import);
// cmd/cv wires the real opener at startup.
type Opener func(ctx context.Context, host string, port int, dimensions uint64, collections map[string]string) (VectorStore, error)

// Open returns the primary Qdrant-backed store when qdrantURL is reachable,
// falling back to a local SQLite-backed store under dataDir otherwise. The
// second result (usedFallback) reports whether the fallback was taken.
func Open(ctx context.Context, open Opener, qdrantURL, dataDir string, dimensions uint64, collections map[string]string, sqliteOpener func(path string) (VectorStore, error)) (VectorStore, bool, error) {
	if qdrantURL != "" && open != nil {
		host, port, err := splitHostPort(qdrantURL)
		if err == nil {
			store, err := open(ctx, host, port, dimensions, collections)
			if err == nil {
				return store, false, nil
			}
		}
	}

	store, err := sqliteOpener(filepath.Join(dataDir, "vectors.db"))
	if err != nil {
		return nil, false, fmt.Errorf("open local fallback store: %w", err)
	}
	return store, true, nil
}

func splitHostPort(rawURL string) (string, int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, err
	}
	host := u.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("no host in %q", rawURL)
	}
	port := 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port in %q: %w", rawURL, err)
		}
	}
	return host, port, nil
}
