package graphstore

import (
	"context"
	"time"
)

// UpsertSymbolNode is idempotent by (repoId, qualifiedName): re-running with
// identical fields is a no-op write.
func (s *Store) UpsertSymbolNode(ctx context.Context, repoID string, sym Node) error {
	id := CompositeID(repoID, string(NodeKindSymbol), sym.ID)
	return s.run(ctx, `
		MERGE (n:Symbol {id: $id})
		SET n.repoId = $repoId, n.name = $name, n.file = $file,
		    n.kind = $kind, n.props = $props, n.updatedAt = $now
	`, map[string]any{
		"id": id, "repoId": repoID, "name": sym.Name, "file": sym.File,
		"kind": string(sym.Kind), "props": flattenProps(sym.Props),
		"now": time.Now().Format(time.RFC3339),
	})
}

// UpsertFileNode is idempotent by (repoId, path).
func (s *Store) UpsertFileNode(ctx context.Context, repoID, path, language string) error {
	id := CompositeID(repoID, string(NodeKindFile), path)
	return s.run(ctx, `
		MERGE (n:File {id: $id})
		SET n.repoId = $repoId, n.path = $path, n.language = $language, n.updatedAt = $now
	`, map[string]any{
		"id": id, "repoId": repoID, "path": path, "language": language,
		"now": time.Now().Format(time.RFC3339),
	})
}

// UpsertDocumentNode is idempotent by (repoId, path). status is "active" or
// "archived" per the archived-document handling decision.
func (s *Store) UpsertDocumentNode(ctx context.Context, repoID, path, documentType, status string) error {
	id := CompositeID(repoID, string(NodeKindDocument), path)
	return s.run(ctx, `
		MERGE (n:Document {id: $id})
		SET n.repoId = $repoId, n.path = $path, n.documentType = $documentType,
		    n.status = $status, n.updatedAt = $now
	`, map[string]any{
		"id": id, "repoId": repoID, "path": path, "documentType": documentType,
		"status": status, "now": time.Now().Format(time.RFC3339),
	})
}

func flattenProps(props map[string]any) []string {
	if len(props) == 0 {
		return nil
	}
	out := make([]string, 0, len(props)*2)
	for k, v := range props {
		out = append(out, k, toStr(v))
	}
	return out
}

func toStr(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
