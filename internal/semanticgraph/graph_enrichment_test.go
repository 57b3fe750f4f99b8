package semanticgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlvector/cv-git/internal/embedding"
	"github.com/controlvector/cv-git/internal/graphstore"
	"github.com/controlvector/cv-git/internal/vectorstore"
)

// TestSemanticSearchEnrichesHitsFromGraph exercises the non-nil Graph path:
// a real FakeGraph populated with a caller/callee pair around the hit's
// symbol must surface both in the returned Hit.
func TestSemanticSearchEnrichesHitsFromGraph(t *testing.T) {
	ctx := context.Background()
	vstore := vectorstore.NewMemoryStore()
	embedder := embedding.NewMock(8)
	seedStore(t, vstore, embedder, "doc1", "parses a go file into symbols", "ParseFile")

	graph := graphstore.NewFakeGraph()
	repoID := "repo1"
	require.NoError(t, graph.UpsertSymbolNode(ctx, repoID, graphstore.Node{ID: "ParseFile", Name: "ParseFile", File: "parse.go"}))
	require.NoError(t, graph.UpsertSymbolNode(ctx, repoID, graphstore.Node{ID: "Caller", Name: "Caller", File: "caller.go"}))
	require.NoError(t, graph.UpsertSymbolNode(ctx, repoID, graphstore.Node{ID: "Callee", Name: "Callee", File: "callee.go"}))

	parseID := graphstore.CompositeID(repoID, string(graphstore.NodeKindSymbol), "ParseFile")
	callerID := graphstore.CompositeID(repoID, string(graphstore.NodeKindSymbol), "Caller")
	calleeID := graphstore.CompositeID(repoID, string(graphstore.NodeKindSymbol), "Callee")
	require.NoError(t, graph.CreateCallsEdge(ctx, repoID, callerID, parseID, false, 1))
	require.NoError(t, graph.CreateCallsEdge(ctx, repoID, parseID, calleeID, false, 2))

	svc := New(embedder, vstore, graph, repoID, 0)
	hits, err := svc.SemanticSearch(ctx, "parse a file", Options{})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.Len(t, hits[0].Callers, 1)
	assert.Equal(t, "Caller", hits[0].Callers[0].Name)
	require.Len(t, hits[0].Callees, 1)
	assert.Equal(t, "Callee", hits[0].Callees[0].Name)
}

// TestExpandContextPullsRelatedNodesFromGraph exercises expandContext's BFS
// enrichment with a real, non-nil graph instead of the nil-degrades-to-empty
// path already covered elsewhere.
func TestExpandContextPullsRelatedNodesFromGraph(t *testing.T) {
	ctx := context.Background()
	vstore := vectorstore.NewMemoryStore()
	embedder := embedding.NewMock(8)
	seedStore(t, vstore, embedder, "doc1", "walks the file tree", "Walk")

	graph := graphstore.NewFakeGraph()
	repoID := "repo1"
	require.NoError(t, graph.UpsertSymbolNode(ctx, repoID, graphstore.Node{ID: "Walk", Name: "Walk", File: "walk.go"}))
	require.NoError(t, graph.UpsertSymbolNode(ctx, repoID, graphstore.Node{ID: "Related", Name: "Related", File: "related.go"}))
	walkID := graphstore.CompositeID(repoID, string(graphstore.NodeKindSymbol), "Walk")
	relatedID := graphstore.CompositeID(repoID, string(graphstore.NodeKindSymbol), "Related")
	require.NoError(t, graph.CreateImportsEdge(ctx, repoID, walkID, relatedID))

	svc := New(embedder, vstore, graph, repoID, 0)
	ec, err := svc.ExpandContext(ctx, "walk files", Options{Limit: 5})
	require.NoError(t, err)
	require.Len(t, ec.Related, 1)
	assert.Equal(t, "Related", ec.Related[0].Name)
	assert.Contains(t, ec.Files, "related.go")
}
