package graphstore

import (
	"context"
	"sort"
	"sync"
)

// FakeGraph is a process-local Graph backed by plain maps. It runs the exact
// same BFS/path/impact algorithms as *Store (distance asc, edge-priority,
// name asc ordering included) over in-memory nodes and edges instead of
// cypher queries, so tests can exercise real traversal behavior without a
// neo4j connection.
type FakeGraph struct {
	mu    sync.RWMutex
	nodes map[string]Node
	edges []Edge
}

// NewFakeGraph returns an empty graph ready for Upsert/CreateEdge calls.
func NewFakeGraph() *FakeGraph {
	return &FakeGraph{nodes: make(map[string]Node)}
}

var _ Graph = (*FakeGraph)(nil)

func (f *FakeGraph) UpsertSymbolNode(ctx context.Context, repoID string, sym Node) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := CompositeID(repoID, string(NodeKindSymbol), sym.ID)
	n := sym
	n.ID = id
	n.Kind = NodeKindSymbol
	f.nodes[id] = n
	return nil
}

func (f *FakeGraph) UpsertFileNode(ctx context.Context, repoID, path, language string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := CompositeID(repoID, string(NodeKindFile), path)
	f.nodes[id] = Node{ID: id, Name: path, File: path, Kind: NodeKindFile, Props: map[string]any{"language": language}}
	return nil
}

func (f *FakeGraph) UpsertDocumentNode(ctx context.Context, repoID, path, documentType, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := CompositeID(repoID, string(NodeKindDocument), path)
	f.nodes[id] = Node{ID: id, Name: path, File: path, Kind: NodeKindDocument, Props: map[string]any{"documentType": documentType, "status": status}}
	return nil
}

func (f *FakeGraph) createEdge(edgeType EdgeType, from, to string, isConditional bool, line int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.edges {
		if e.Type == edgeType && e.From == from && e.To == to {
			f.edges[i].IsConditional = isConditional
			f.edges[i].Line = line
			return nil
		}
	}
	f.edges = append(f.edges, Edge{Type: edgeType, From: from, To: to, IsConditional: isConditional, Line: line})
	return nil
}

func (f *FakeGraph) CreateCallsEdge(ctx context.Context, repoID, caller, callee string, isConditional bool, line int) error {
	return f.createEdge(EdgeCalls, caller, callee, isConditional, line)
}

func (f *FakeGraph) CreateImportsEdge(ctx context.Context, repoID, fromFile, toTarget string) error {
	return f.createEdge(EdgeImports, fromFile, toTarget, false, 0)
}

func (f *FakeGraph) CreateDescribesEdge(ctx context.Context, repoID, documentID, targetID string) error {
	return f.createEdge(EdgeDescribes, documentID, targetID, false, 0)
}

func (f *FakeGraph) CreateReferencesDocEdge(ctx context.Context, repoID, fromDoc, toDoc string) error {
	return f.createEdge(EdgeReferencesDoc, fromDoc, toDoc, false, 0)
}

func (f *FakeGraph) CreateInheritsEdge(ctx context.Context, repoID, child, parent string) error {
	return f.createEdge(EdgeInherits, child, parent, false, 0)
}

func (f *FakeGraph) Close(ctx context.Context) error { return nil }

// allNeighbors mirrors Store.allNeighbors: every edge touching nodeID,
// regardless of direction, with the neighbor node and an Edge oriented
// from/to nodeID the same way Store reports it.
func (f *FakeGraph) allNeighbors(nodeID string) ([]Edge, []Node) {
	var edges []Edge
	var nodes []Node
	for _, e := range f.edges {
		switch nodeID {
		case e.From:
			if n, ok := f.nodes[e.To]; ok {
				edges = append(edges, e)
				nodes = append(nodes, n)
			}
		case e.To:
			if n, ok := f.nodes[e.From]; ok {
				edges = append(edges, e)
				nodes = append(nodes, n)
			}
		}
	}
	return edges, nodes
}

func (f *FakeGraph) GetCallers(ctx context.Context, repoID, symbolID string) ([]Node, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []Node
	for _, e := range f.edges {
		if e.Type == EdgeCalls && e.To == symbolID {
			if n, ok := f.nodes[e.From]; ok {
				out = append(out, n)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FakeGraph) GetCallees(ctx context.Context, repoID, symbolID string) ([]Node, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []Node
	for _, e := range f.edges {
		if e.Type == EdgeCalls && e.From == symbolID {
			if n, ok := f.nodes[e.To]; ok {
				out = append(out, n)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetNeighborhood runs the identical BFS contract as Store.GetNeighborhood:
// nodes ordered by (distance asc, edge-priority asc, name asc).
func (f *FakeGraph) GetNeighborhood(ctx context.Context, repoID, seedID string, depth, maxNodes int) (*Neighborhood, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	visited := map[string]bool{seedID: true}
	frontier := []string{seedID}

	var allEdges []Edge
	var found []distNode
	bestEdgePriority := map[string]int{}

	for d := 0; d < depth && len(found) < maxNodes; d++ {
		var next []string
		for _, id := range frontier {
			edges, nodes := f.allNeighbors(id)
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
	for _, fd := range found {
		result.Nodes = append(result.Nodes, fd.node)
	}
	return result, nil
}

// FindPath runs the identical BFS shortest-path contract as Store.FindPath.
func (f *FakeGraph) FindPath(ctx context.Context, repoID, fromID, toID string, maxDepth int) (*PathResult, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if fromID == toID {
		return &PathResult{Found: true}, nil
	}

	type frame struct {
		id   string
		path []string
	}
	visited := map[string]bool{fromID: true}
	queue := []frame{{id: fromID, path: []string{fromID}}}

	for d := 0; d < maxDepth && len(queue) > 0; d++ {
		var nextQueue []frame
		for _, fr := range queue {
			_, nodes := f.allNeighbors(fr.id)
			for _, n := range nodes {
				if visited[n.ID] {
					continue
				}
				newPath := append(append([]string{}, fr.path...), n.ID)
				if n.ID == toID {
					return f.pathResultFromIDs(newPath), nil
				}
				visited[n.ID] = true
				nextQueue = append(nextQueue, frame{id: n.ID, path: newPath})
			}
		}
		queue = nextQueue
	}

	return &PathResult{Found: false}, nil
}

func (f *FakeGraph) pathResultFromIDs(ids []string) *PathResult {
	result := &PathResult{Found: true}
	for _, id := range ids {
		if n, ok := f.nodes[id]; ok {
			result.Nodes = append(result.Nodes, n)
		}
	}
	for i := 0; i+1 < len(ids); i++ {
		result.Edges = append(result.Edges, Edge{From: ids[i], To: ids[i+1]})
	}
	return result
}

// GetImpactAnalysis runs the identical transitive-caller contract as
// Store.GetImpactAnalysis.
func (f *FakeGraph) GetImpactAnalysis(ctx context.Context, repoID, symbolID string, maxDepth int) (*ImpactResult, error) {
	direct, err := f.GetCallers(ctx, repoID, symbolID)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	visited := map[string]bool{symbolID: true}
	for _, n := range direct {
		visited[n.ID] = true
	}

	var transitive []Node
	frontier := direct
	for d := 1; d < maxDepth && len(frontier) > 0; d++ {
		var next []Node
		for _, n := range frontier {
			var callers []Node
			for _, e := range f.edges {
				if e.Type == EdgeCalls && e.To == n.ID {
					if cn, ok := f.nodes[e.From]; ok {
						callers = append(callers, cn)
					}
				}
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
	for fpath := range fileSet {
		files = append(files, fpath)
	}
	sort.Strings(files)

	sort.Slice(direct, func(i, j int) bool { return direct[i].Name < direct[j].Name })
	sort.Slice(transitive, func(i, j int) bool { return transitive[i].Name < transitive[j].Name })

	return &ImpactResult{DirectCallers: direct, TransitiveCallers: transitive, AffectedFiles: files}, nil
}
