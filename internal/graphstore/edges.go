package graphstore

import "context"

// createEdge is idempotent on (type, from, to, repoId): a MERGE on the
// relationship itself. fromID/toID must already be composite node IDs
// (see CompositeID); callers resolve the node kind since only they know it.
func (s *Store) createEdge(ctx context.Context, repoID string, edgeType EdgeType, fromID, toID string, props map[string]any) error {
	params := map[string]any{
		"repoId": repoID, "from": fromID, "to": toID,
	}
	for k, v := range props {
		params[k] = v
	}

	cypher := `
		MATCH (a {id: $from}), (b {id: $to})
		MERGE (a)-[r:` + string(edgeType) + ` {repoId: $repoId}]->(b)
	`
	for k := range props {
		cypher += "\n SET r." + k + " = $" + k
	}
	return s.run(ctx, cypher, params)
}

// CreateCallsEdge records a call-expression edge, carrying the line number
// and whether the call site is lexically conditional. caller/callee are
// composite symbol node IDs.
func (s *Store) CreateCallsEdge(ctx context.Context, repoID, caller, callee string, isConditional bool, line int) error {
	return s.createEdge(ctx, repoID, EdgeCalls, caller, callee, map[string]any{
		"isConditional": isConditional, "line": line,
	})
}

// CreateImportsEdge records a File→File or File→PackageName edge.
func (s *Store) CreateImportsEdge(ctx context.Context, repoID, fromFile, toTarget string) error {
	return s.createEdge(ctx, repoID, EdgeImports, fromFile, toTarget, nil)
}

// CreateDescribesEdge records a Document→path edge.
func (s *Store) CreateDescribesEdge(ctx context.Context, repoID, documentID, targetID string) error {
	return s.createEdge(ctx, repoID, EdgeDescribes, documentID, targetID, nil)
}

// CreateReferencesDocEdge records a Document→Document edge.
func (s *Store) CreateReferencesDocEdge(ctx context.Context, repoID, fromDoc, toDoc string) error {
	return s.createEdge(ctx, repoID, EdgeReferencesDoc, fromDoc, toDoc, nil)
}

// CreateInheritsEdge records a Symbol→Symbol inheritance edge.
func (s *Store) CreateInheritsEdge(ctx context.Context, repoID, child, parent string) error {
	return s.createEdge(ctx, repoID, EdgeInherits, child, parent, nil)
}
