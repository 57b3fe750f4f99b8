package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// State is the persisted `.cv/sync-state.json` document: the Merkle tree
// from the most recent run (successful or not) plus that run's report, letting a subsequent
// `cv sync` compute an incremental diff instead of rehashing from scratch.
type State struct {
	MerkleState []byte  `json:"merkleState"`
	LastReport  *Report `json:"lastReport,omitempty"`
}

// StatePath returns the sync state file path for a repo root.
func StatePath(repoRoot string) string {
	return filepath.Join(repoRoot, ".cv", "sync-state.json")
}

// LoadState reads the persisted sync state, returning a zero State (not an
// error) if the file does not exist yet — the first sync in a repo.
func LoadState(repoRoot string) (*State, error) {
	path := StatePath(repoRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("read sync state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse sync state: %w", err)
	}
	return &s, nil
}

// SaveState writes the sync state atomically enough for single-writer CLI
// use: write to a temp file in the same directory, then rename.
func SaveState(repoRoot string, s *State) error {
	path := StatePath(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create .cv directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sync state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write sync state: %w", err)
	}
	return os.Rename(tmp, path)
}
