package graphstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompositeID(t *testing.T) {
	assert.Equal(t, "repo1:symbol:foo.go:Bar", CompositeID("repo1", "symbol", "foo.go:Bar"))
}

func TestEdgePriorityOrder(t *testing.T) {
	assert.Less(t, PriorityOf(EdgeInherits), PriorityOf(EdgeCalls))
	assert.Less(t, PriorityOf(EdgeCalls), PriorityOf(EdgeImports))
	assert.Less(t, PriorityOf(EdgeImports), PriorityOf(EdgeReferencesDoc))
	assert.Less(t, PriorityOf(EdgeReferencesDoc), PriorityOf(EdgeDescribes))
}

func TestPriorityOfUnknownEdgeSortsLast(t *testing.T) {
	assert.Greater(t, PriorityOf(EdgeType("UNKNOWN")), PriorityOf(EdgeDescribes))
}

func TestRowToNode(t *testing.T) {
	row := map[string]any{"id": "r:symbol:x", "name": "x", "file": "a.go", "kind": "Symbol"}
	n := rowToNode(row)
	assert.Equal(t, "r:symbol:x", n.ID)
	assert.Equal(t, "x", n.Name)
	assert.Equal(t, "a.go", n.File)
}

func TestAsIntHandlesInt64(t *testing.T) {
	assert.Equal(t, 5, asInt(int64(5)))
	assert.Equal(t, 0, asInt("not-a-number"))
}
