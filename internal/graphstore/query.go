package graphstore

import (
	"context"
	"sort"
)

// GetCallers returns the symbols that call the named symbol.
func (s *Store) GetCallers(ctx context.Context, repoID, symbolID string) ([]Node, error) {
	return s.oneHop(ctx, repoID, symbolID, EdgeCalls, "in")
}

// GetCallees returns the symbols the named symbol calls.
func (s *Store) GetCallees(ctx context.Context, repoID, symbolID string) ([]Node, error) {
	return s.oneHop(ctx, repoID, symbolID, EdgeCalls, "out")
}

func (s *Store) oneHop(ctx context.Context, repoID, nodeID string, edgeType EdgeType, direction string) ([]Node, error) {
	var cypher string
	if direction == "out" {
		cypher = `MATCH (a {id: $id})-[r:` + string(edgeType) + ` {repoId: $repoId}]->(b) RETURN b.id AS id, b.name AS name, b.file AS file, labels(b)[0] AS kind`
	} else {
		cypher = `MATCH (a {id: $id})<-[r:` + string(edgeType) + ` {repoId: $repoId}]-(b) RETURN b.id AS id, b.name AS name, b.file AS file, labels(b)[0] AS kind`
	}
	rows, err := s.Query(ctx, cypher, map[string]any{"id": nodeID, "repoId": repoID})
	if err != nil {
		return nil, err
	}
	return rowsToNodes(rows), nil
}

// allNeighbors returns both inbound and outbound edges touching nodeID,
// tagged with their EdgeType and the neighbor node, for BFS use.
func (s *Store) allNeighbors(ctx context.Context, repoID, nodeID string) ([]Edge, []Node, error) {
	rows, err := s.Query(ctx, `
		MATCH (a {id: $id})-[r {repoId: $repoId}]-(b)
		RETURN type(r) AS edgeType, startNode(r).id = $id AS outgoing,
		       b.id AS id, b.name AS name, b.file AS file, labels(b)[0] AS kind,
		       coalesce(r.isConditional, false) AS isConditional, coalesce(r.line, 0) AS line
	`, map[string]any{"id": nodeID, "repoId": repoID})
	if err != nil {
		return nil, nil, err
	}

	var edges []Edge
	var nodes []Node
	for _, row := range rows {
		outgoing, _ := row["outgoing"].(bool)
		edgeType := EdgeType(asString(row["edgeType"]))
		node := rowToNode(row)
		nodes = append(nodes, node)

		edge := Edge{Type: edgeType, IsConditional: asBool(row["isConditional"]), Line: asInt(row["line"])}
		if outgoing {
			edge.From, edge.To = nodeID, node.ID
		} else {
			edge.From, edge.To = node.ID, nodeID
		}
		edges = append(edges, edge)
	}
	return edges, nodes, nil
}

// GetNeighborhood performs a breadth-first expansion from name, bounded by
// depth and maxNodes (the number of nodes returned; the seed is not
// included), returning nodes sorted by distance asc, then the discovering
// edge's type priority (INHERITS > CALLS > IMPORTS > REFERENCES_DOC >
// DESCRIBES), then name asc.
func (s *Store) GetNeighborhood(ctx context.Context, repoID, seedID string, depth, maxNodes int) (*Neighborhood, error) {
	visited := map[string]bool{seedID: true}
	frontier := []string{seedID}

	var allEdges []Edge
	var found []distNode
	bestEdgePriority := map[string]int{}

	for d := 0; d < depth && len(found) < maxNodes; d++ {
		var next []string
		for _, id := range frontier {
			edges, nodes, err := s.allNeighbors(ctx, repoID, id)
			if err != nil {
				return nil, err
			}
			allEdges = append(allEdges, edges...)
			for i, n := range nodes {
				if visited[n.ID] {
					continue
				}
				visited[n.ID] = true
				found = append(found, distNode{node: n, dist: d + 1})
				bestEdgePriority[n.ID] = PriorityOf(edges[i].Type)
				next = append(next, n.ID)
				if len(found) >= maxNodes {
					break
				}
			}
			if len(found) >= maxNodes {
				break
			}
		}
		frontier = next
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		pi, pj := bestEdgePriority[found[i].node.ID], bestEdgePriority[found[j].node.ID]
		if pi != pj {
			return pi < pj
		}
		return found[i].node.Name < found[j].node.Name
	})

	result := &Neighborhood{Edges: allEdges}
	for _, f := range found {
		result.Nodes = append(result.Nodes, f.node)
	}
	return result, nil
}

// FindPath returns the shortest undirected path between from and to, bounded
// by maxDepth, via breadth-first search.
func (s *Store) FindPath(ctx context.Context, repoID, fromID, toID string, maxDepth int) (*PathResult, error) {
	if fromID == toID {
		return &PathResult{Found: true}, nil
	}

	type frame struct {
		id   string
		path []string
	}
	visited := map[string]bool{fromID: true}
	queue := []frame{{id: fromID, path: []string{fromID}}}

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var nextQueue []frame
		for _, f := range queue {
			_, nodes, err := s.allNeighbors(ctx, repoID, f.id)
			if err != nil {
				return nil, err
			}
			for _, n := range nodes {
				if visited[n.ID] {
					continue
				}
				newPath := append(append([]string{}, f.path...), n.ID)
				if n.ID == toID {
					return s.pathResultFromIDs(ctx, repoID, newPath)
				}
				visited[n.ID] = true
				nextQueue = append(nextQueue, frame{id: n.ID, path: newPath})
			}
		}
		queue = nextQueue
	}

	return &PathResult{Found: false}, nil
}

func (s *Store) pathResultFromIDs(ctx context.Context, repoID string, ids []string) (*PathResult, error) {
	result := &PathResult{Found: true}
	for _, id := range ids {
		rows, err := s.Query(ctx, `MATCH (n {id: $id}) RETURN n.id AS id, n.name AS name, n.file AS file, labels(n)[0] AS kind`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			result.Nodes = append(result.Nodes, rowToNode(rows[0]))
		}
	}
	for i := 0; i+1 < len(ids); i++ {
		result.Edges = append(result.Edges, Edge{From: ids[i], To: ids[i+1]})
	}
	return result, nil
}

// GetImpactAnalysis reports who is affected if symbolID's behavior changes:
// its direct callers, their transitive callers up to maxDepth, and the
// distinct set of files any of those callers live in.
func (s *Store) GetImpactAnalysis(ctx context.Context, repoID, symbolID string, maxDepth int) (*ImpactResult, error) {
	direct, err := s.GetCallers(ctx, repoID, symbolID)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{symbolID: true}
	for _, n := range direct {
		visited[n.ID] = true
	}

	var transitive []Node
	frontier := direct
	for d := 1; d < maxDepth && len(frontier) > 0; d++ {
		var next []Node
		for _, n := range frontier {
			callers, err := s.GetCallers(ctx, repoID, n.ID)
			if err != nil {
				return nil, err
			}
			for _, c := range callers {
				if visited[c.ID] {
					continue
				}
				visited[c.ID] = true
				transitive = append(transitive, c)
				next = append(next, c)
			}
		}
		frontier = next
	}

	fileSet := map[string]bool{}
	for _, n := range append(append([]Node{}, direct...), transitive...) {
		if n.File != "" {
			fileSet[n.File] = true
		}
	}
	var files []string
	for f := range fileSet {
		files = append(files, f)
	}
	sort.Strings(files)

	sort.Slice(direct, func(i, j int) bool { return direct[i].Name < direct[j].Name })
	sort.Slice(transitive, func(i, j int) bool { return transitive[i].Name < transitive[j].Name })

	return &ImpactResult{DirectCallers: direct, TransitiveCallers: transitive, AffectedFiles: files}, nil
}

func rowsToNodes(rows []map[string]any) []Node {
	nodes := make([]Node, 0, len(rows))
	for _, r := range rows {
		nodes = append(nodes, rowToNode(r))
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes
}

func rowToNode(row map[string]any) Node {
	return Node{
		ID:   asString(row["id"]),
		Name: asString(row["name"]),
		File: asString(row["file"]),
		Kind: NodeKind(asString(row["kind"])),
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
