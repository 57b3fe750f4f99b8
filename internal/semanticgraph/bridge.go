package semanticgraph

import (
	"context"

	"github.com/controlvector/cv-git/internal/graphstore"
	"github.com/controlvector/cv-git/internal/vectorstore"
)

// Bridge is findSemanticBridge's result: the nodes connecting two concepts,
// plus any callers/callees the two concepts' top hits share.
type Bridge struct {
	Intermediates  []vectorstore.SearchResult // when found via top-k intersection
	PathNodes      []graphstore.Node          // when found via findPath fallback
	SharedCallers  []graphstore.Node
	SharedCallees  []graphstore.Node
}

// FindSemanticBridge intersects the top-k semantic hits for c1 and c2; if
// the intersection is empty, it falls back to findPath between the two
// concepts' best hits and treats the intermediate nodes as the bridge. It
// also reports any callers/callees shared between the two concepts' best
// hits regardless of which path found a bridge.
func (s *Service) FindSemanticBridge(ctx context.Context, c1, c2 string, opts Options) (*Bridge, error) {
	opts = opts.withDefaults()

	hits1, err := s.topK(ctx, c1, opts)
	if err != nil {
		return nil, err
	}
	hits2, err := s.topK(ctx, c2, opts)
	if err != nil {
		return nil, err
	}

	bridge := &Bridge{Intermediates: intersectByID(hits1, hits2)}

	if len(bridge.Intermediates) == 0 && s.Graph != nil && len(hits1) > 0 && len(hits2) > 0 {
		from := s.symbolIDFromDocument(hits1[0].Document)
		to := s.symbolIDFromDocument(hits2[0].Document)
		if from != "" && to != "" {
			path, err := s.Graph.FindPath(ctx, s.RepoID, from, to, s.BridgeMaxDepth)
			if err == nil && path.Found && len(path.Nodes) > 2 {
				bridge.PathNodes = path.Nodes[1 : len(path.Nodes)-1]
			}
		}
	}

	if s.Graph != nil && len(hits1) > 0 && len(hits2) > 0 {
		sym1 := s.symbolIDFromDocument(hits1[0].Document)
		sym2 := s.symbolIDFromDocument(hits2[0].Document)
		if sym1 != "" && sym2 != "" {
			bridge.SharedCallers = sharedNodes(dropErr(s.Graph.GetCallers(ctx, s.RepoID, sym1)), dropErr(s.Graph.GetCallers(ctx, s.RepoID, sym2)))
			bridge.SharedCallees = sharedNodes(dropErr(s.Graph.GetCallees(ctx, s.RepoID, sym1)), dropErr(s.Graph.GetCallees(ctx, s.RepoID, sym2)))
		}
	}

	return bridge, nil
}

func (s *Service) topK(ctx context.Context, q string, opts Options) ([]vectorstore.SearchResult, error) {
	vec, err := s.embedQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.VectorStore.SearchVector(ctx, vec, vectorstore.SearchOptions{Limit: opts.Limit, Filters: opts.Filters})
}

func dropErr(nodes []graphstore.Node, err error) []graphstore.Node {
	if err != nil {
		return nil
	}
	return nodes
}

func intersectByID(a, b []vectorstore.SearchResult) []vectorstore.SearchResult {
	idsInB := map[string]bool{}
	for _, r := range b {
		idsInB[r.Document.ID] = true
	}
	var out []vectorstore.SearchResult
	for _, r := range a {
		if idsInB[r.Document.ID] {
			out = append(out, r)
		}
	}
	return out
}

func sharedNodes(a, b []graphstore.Node) []graphstore.Node {
	idsInB := map[string]bool{}
	for _, n := range b {
		idsInB[n.ID] = true
	}
	var out []graphstore.Node
	for _, n := range a {
		if idsInB[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// ComprehensiveContext is getComprehensiveContext's result: a symbol's
// graph neighborhood, its impact analysis, and semantically similar peers
// seeded by the symbol's docstring when one is available.
type ComprehensiveContext struct {
	Neighborhood *graphstore.Neighborhood
	Impact       *graphstore.ImpactResult
	SimilarPeers []vectorstore.SearchResult
}

// GetComprehensiveContext assembles a symbol's full context: its
// neighborhood and impact analysis from the graph, plus semantically
// similar peers found by searching on docstring (falling back to the
// symbol name itself when no docstring is supplied).
func (s *Service) GetComprehensiveContext(ctx context.Context, symbolID, docstring string, opts Options) (*ComprehensiveContext, error) {
	opts = opts.withDefaults()
	out := &ComprehensiveContext{}

	if s.Graph != nil {
		if nb, err := s.Graph.GetNeighborhood(ctx, s.RepoID, symbolID, opts.GraphDepth, opts.MaxRelated); err == nil {
			out.Neighborhood = nb
		}
		if impact, err := s.Graph.GetImpactAnalysis(ctx, s.RepoID, symbolID, s.BridgeMaxDepth); err == nil {
			out.Impact = impact
		}
	}

	seed := docstring
	if seed == "" {
		seed = symbolID
	}
	peers, err := s.topK(ctx, seed, opts)
	if err != nil {
		return out, err
	}
	out.SimilarPeers = peers
	return out, nil
}
