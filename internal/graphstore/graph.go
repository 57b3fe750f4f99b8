package graphstore

import "context"

// Graph is the interface internal/semanticgraph and internal/sync depend on,
// satisfied by *Store against a real neo4j backend and by *FakeGraph in
// tests, mirroring the VectorStore/Embedder pattern used elsewhere for
// external dependencies.
type Graph interface {
	GetCallers(ctx context.Context, repoID, symbolID string) ([]Node, error)
	GetCallees(ctx context.Context, repoID, symbolID string) ([]Node, error)
	GetNeighborhood(ctx context.Context, repoID, seedID string, depth, maxNodes int) (*Neighborhood, error)
	FindPath(ctx context.Context, repoID, fromID, toID string, maxDepth int) (*PathResult, error)
	GetImpactAnalysis(ctx context.Context, repoID, symbolID string, maxDepth int) (*ImpactResult, error)

	UpsertSymbolNode(ctx context.Context, repoID string, sym Node) error
	UpsertFileNode(ctx context.Context, repoID, path, language string) error
	UpsertDocumentNode(ctx context.Context, repoID, path, documentType, status string) error

	CreateCallsEdge(ctx context.Context, repoID, caller, callee string, isConditional bool, line int) error
	CreateImportsEdge(ctx context.Context, repoID, fromFile, toTarget string) error
	CreateDescribesEdge(ctx context.Context, repoID, documentID, targetID string) error
	CreateReferencesDocEdge(ctx context.Context, repoID, fromDoc, toDoc string) error
	CreateInheritsEdge(ctx context.Context, repoID, child, parent string) error

	Close(ctx context.Context) error
}

var _ Graph = (*Store)(nil)
