package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStateMissingReturnsZeroValue(t *testing.T) {
	dir := t.TempDir()
	s, err := LoadState(dir)
	require.NoError(t, err)
	assert.Nil(t, s.MerkleState)
	assert.Nil(t, s.LastReport)
}

func TestSaveAndLoadStateRoundTrips(t *testing.T) {
	dir := t.TempDir()
	report := &Report{
		Timestamp: time.Unix(0, 0).UTC(),
		Type:      ReportTypeFull,
		Success:   true,
		Stats:     Stats{FilesProcessed: 3, SymbolsIndexed: 7},
	}
	want := &State{MerkleState: []byte(`{"root":null}`), LastReport: report}

	require.NoError(t, SaveState(dir, want))

	got, err := LoadState(dir)
	require.NoError(t, err)
	assert.Equal(t, want.MerkleState, got.MerkleState)
	require.NotNil(t, got.LastReport)
	assert.Equal(t, want.LastReport.Stats, got.LastReport.Stats)
	assert.True(t, got.LastReport.Success)
}
