package credential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"
)

// sidecarFile is the in-memory, json-persisted index of credential metadata.
// It never holds a secret value.
type sidecarFile struct {
	entries map[string]Metadata
}

func loadSidecar(path string) (sidecarFile, error) {
	sc := sidecarFile{entries: make(map[string]Metadata)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sc, nil
		}
		return sc, err
	}
	if len(data) == 0 {
		return sc, nil
	}

	var records []Metadata
	if err := json.Unmarshal(data, &records); err != nil {
		return sc, fmt.Errorf("parse credential sidecar %s: %w", path, err)
	}
	for _, r := range records {
		sc.entries[r.ID] = r
	}
	return sc, nil
}

func (sc *sidecarFile) put(m Metadata) {
	sc.entries[m.ID] = m
}

func (sc *sidecarFile) get(id string) (Metadata, bool) {
	m, ok := sc.entries[id]
	return m, ok
}

func (sc *sidecarFile) remove(id string) {
	delete(sc.entries, id)
}

func (sc *sidecarFile) list() []Metadata {
	out := make([]Metadata, 0, len(sc.entries))
	for _, m := range sc.entries {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (sc *sidecarFile) byType(t Type) []Metadata {
	var out []Metadata
	for _, m := range sc.entries {
		if m.Type == t {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// save writes the sidecar to path via a temp-file-then-rename, per spec.md
// §4.7's "atomic replace via temp-file + rename" concurrency rule.
func (sc *sidecarFile) save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}

	records := sc.list()
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential sidecar: %w", err)
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

// secretsPathFor derives the file-backend path from the sidecar path, e.g.
// ~/.cv-git/credentials-metadata.json -> ~/.cv-git/credentials-secrets.json.
func secretsPathFor(sidecarPath string) string {
	dir := filepath.Dir(sidecarPath)
	return filepath.Join(dir, "credentials-secrets.json")
}
