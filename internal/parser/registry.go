package parser

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
)

// Parser extracts a ParsedFile from one file's bytes. An implementation may
// return an error (GoParser does for syntactically invalid input); the
// Registry then falls back to its catch-all Parser.
type Parser interface {
	// Supports reports whether this Parser handles the given lowercase file
	// extension (including the leading dot, e.g. ".go").
	Supports(ext string) bool
	Parse(ctx context.Context, path string, content []byte) (*ParsedFile, error)
}

// Registry dispatches parseFile calls by extension, trying registered
// parsers in priority order (most specific/highest-fidelity first) before
// falling back to a catch-all Parser.
type Registry struct {
	mu       sync.RWMutex
	parsers  []Parser
	fallback Parser
}

// NewRegistry creates a Registry whose last resort is fallback.
func NewRegistry(fallback Parser) *Registry {
	return &Registry{fallback: fallback}
}

// Register adds p to the dispatch chain with higher priority than any
// parser registered before it.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers = append([]Parser{p}, r.parsers...)
}

// ParseFile is the registry's total function: it never returns an error it
// cannot recover from by falling back, matching spec.md's "never throws for
// syntactically invalid input" contract.
func (r *Registry) ParseFile(ctx context.Context, path string, content []byte) (*ParsedFile, error) {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	parsers := make([]Parser, len(r.parsers))
	copy(parsers, r.parsers)
	r.mu.RUnlock()

	for _, p := range parsers {
		if !p.Supports(ext) {
			continue
		}
		pf, err := p.Parse(ctx, path, content)
		if err == nil {
			return pf, nil
		}
	}

	return r.fallback.Parse(ctx, path, content)
}
