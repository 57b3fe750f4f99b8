package semanticgraph

import (
	"context"

	"github.com/controlvector/cv-git/internal/graphstore"
	"github.com/controlvector/cv-git/internal/vectorstore"
)

// ConceptCluster is findConceptCluster's result: the core semantic hits for
// a concept, plus graph-adjacent symbols split into abstractions
// (interfaces/types) and implementations (nodes that INHERITS into one of
// the core hits).
type ConceptCluster struct {
	Core            []vectorstore.SearchResult
	Abstractions    []graphstore.Node
	Implementations []graphstore.Node
}

// FindConceptCluster finds the core semantic hits for concept, then expands
// one hop into the graph to separate interface/type declarations
// (abstractions) from their inheriting nodes (implementations).
func (s *Service) FindConceptCluster(ctx context.Context, concept string, opts Options) (*ConceptCluster, error) {
	opts = opts.withDefaults()

	vec, err := s.embedQuery(ctx, concept)
	if err != nil {
		return nil, err
	}
	core, err := s.VectorStore.SearchVector(ctx, vec, vectorstore.SearchOptions{Limit: opts.Limit, Filters: opts.Filters})
	if err != nil {
		return nil, err
	}

	cluster := &ConceptCluster{Core: core}
	if s.Graph == nil {
		return cluster, nil
	}

	seenAbstraction := map[string]bool{}
	seenImpl := map[string]bool{}
	for _, r := range core {
		symID := s.symbolIDFromDocument(r.Document)
		if symID == "" {
			continue
		}

		kind, _ := r.Document.Metadata["symbol_kind"].(string)
		if kind == "interface" || kind == "type" {
			if !seenAbstraction[symID] {
				seenAbstraction[symID] = true
				cluster.Abstractions = append(cluster.Abstractions, graphstore.Node{
					ID: symID, Name: r.Document.Metadata["symbol_name"].(string), Kind: graphstore.NodeKindSymbol,
				})
			}
		}

		nb, err := s.Graph.GetNeighborhood(ctx, s.RepoID, symID, 1, 25)
		if err != nil {
			continue
		}
		inheritsFrom := map[string]bool{}
		for _, e := range nb.Edges {
			if e.Type == graphstore.EdgeInherits && e.To == symID {
				inheritsFrom[e.From] = true
			}
		}
		for _, n := range nb.Nodes {
			if inheritsFrom[n.ID] && !seenImpl[n.ID] {
				seenImpl[n.ID] = true
				cluster.Implementations = append(cluster.Implementations, n)
			}
		}
	}

	return cluster, nil
}
