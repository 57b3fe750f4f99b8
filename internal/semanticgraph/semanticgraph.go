// Package semanticgraph combines internal/graphstore and internal/vectorstore
// to answer queries phrased in natural language about code structure:
// semantic search enriched with graph neighbors, context expansion by BFS,
// concept clusters, semantic bridges between two topics, and a symbol's full
// neighborhood+impact+similar-peers context. Graph failures never fail a
// semantic call — missing structural context degrades to empty lists.
package semanticgraph

import (
	"context"

	"github.com/controlvector/cv-git/internal/embedding"
	"github.com/controlvector/cv-git/internal/graphstore"
	"github.com/controlvector/cv-git/internal/vectorstore"
)

// Service composes the graph and vector stores. Graph may be nil, in which
// case every graph-dependent field of a result is left empty rather than
// erroring.
type Service struct {
	Embedder    embedding.Embedder
	VectorStore vectorstore.VectorStore
	Graph       graphstore.Graph
	RepoID      string

	// BridgeMaxDepth bounds findSemanticBridge's fallback findPath call.
	// Defaults to 4 (config.DefaultBridgeMaxDepth) when zero.
	BridgeMaxDepth int
}

// New constructs a Service. graph may be nil to run vector-only (graph
// enrichment then degrades to empty neighbor lists everywhere).
func New(embedder embedding.Embedder, vstore vectorstore.VectorStore, graph graphstore.Graph, repoID string, bridgeMaxDepth int) *Service {
	if bridgeMaxDepth <= 0 {
		bridgeMaxDepth = 4
	}
	return &Service{Embedder: embedder, VectorStore: vstore, Graph: graph, RepoID: repoID, BridgeMaxDepth: bridgeMaxDepth}
}

// Options configures how many semantic hits and how much graph context each
// operation pulls in.
type Options struct {
	Limit      int                    // Top-k semantic hits; default 10
	Filters    map[string]interface{} // Passed through to the vector search
	MinScore   float32                // Drop hits scoring below this threshold; 0 disables filtering
	GraphDepth int                    // BFS depth for expandContext; default 2
	MaxRelated int                    // Node budget for expandContext's BFS; default 25
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = 10
	}
	if o.GraphDepth <= 0 {
		o.GraphDepth = 2
	}
	if o.MaxRelated <= 0 {
		o.MaxRelated = 25
	}
	return o
}

// Hit is one semantic search result enriched with its graph context.
type Hit struct {
	Result    vectorstore.SearchResult
	Callers   []graphstore.Node
	Callees   []graphstore.Node
	Neighbors []graphstore.Node // non-call neighbors
}

func (s *Service) embedQuery(ctx context.Context, q string) (embedding.Vector, error) {
	emb, err := s.Embedder.Embed(ctx, q)
	if err != nil {
		return nil, err
	}
	return emb.Vector, nil
}

// symbolIDFromDocument recovers the graph node ID for a vector hit's
// symbol_name metadata field. Returns "" if the document carries no symbol.
func (s *Service) symbolIDFromDocument(doc vectorstore.Document) string {
	name, _ := doc.Metadata["symbol_name"].(string)
	if name == "" {
		return ""
	}
	return graphstore.CompositeID(s.RepoID, string(graphstore.NodeKindSymbol), name)
}
