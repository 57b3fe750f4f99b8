package semanticgraph

import (
	"context"
	"sort"

	"github.com/controlvector/cv-git/internal/graphstore"
	"github.com/controlvector/cv-git/internal/vectorstore"
)

// SemanticSearch runs a vector top-k search for q and, for each hit, attaches
// up to 5 callers, 5 callees, and 5 non-call neighbors pulled from the graph.
func (s *Service) SemanticSearch(ctx context.Context, q string, opts Options) ([]Hit, error) {
	opts = opts.withDefaults()

	vec, err := s.embedQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	results, err := s.VectorStore.SearchVector(ctx, vec, vectorstore.SearchOptions{Limit: opts.Limit, Filters: opts.Filters})
	if err != nil {
		return nil, err
	}
	results = filterByMinScore(results, opts.MinScore)

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{Result: r}
		symID := s.symbolIDFromDocument(r.Document)
		if s.Graph == nil || symID == "" {
			continue
		}

		if callers, err := s.Graph.GetCallers(ctx, s.RepoID, symID); err == nil {
			hits[i].Callers = capNodes(callers, 5)
		}
		if callees, err := s.Graph.GetCallees(ctx, s.RepoID, symID); err == nil {
			hits[i].Callees = capNodes(callees, 5)
		}
		if nb, err := s.Graph.GetNeighborhood(ctx, s.RepoID, symID, 1, 25); err == nil {
			hits[i].Neighbors = capNodes(nonCallNeighbors(nb), 5)
		}
	}
	return hits, nil
}

// nonCallNeighbors filters a Neighborhood's nodes down to the ones reached
// only by a non-CALLS edge, so SemanticSearch's "non-call neighbors" field
// doesn't just duplicate Callers/Callees.
func nonCallNeighbors(nb *graphstore.Neighborhood) []graphstore.Node {
	callNodes := map[string]bool{}
	for _, e := range nb.Edges {
		if e.Type == graphstore.EdgeCalls {
			callNodes[e.From] = true
			callNodes[e.To] = true
		}
	}
	var out []graphstore.Node
	for _, n := range nb.Nodes {
		if !callNodes[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// filterByMinScore drops results scoring below min, preserving order. A
// zero min disables filtering so callers that don't set MinScore see no
// behavior change.
func filterByMinScore(results []vectorstore.SearchResult, min float32) []vectorstore.SearchResult {
	if min <= 0 {
		return results
	}
	out := results[:0]
	for _, r := range results {
		if r.Score >= min {
			out = append(out, r)
		}
	}
	return out
}

func capNodes(nodes []graphstore.Node, n int) []graphstore.Node {
	if len(nodes) > n {
		return nodes[:n]
	}
	return nodes
}

// ExpandedContext is expandContext's result: primary semantic hits, their
// second-ring related code, a language breakdown, and the set of files
// touched by any hit or related node.
type ExpandedContext struct {
	Primary           []vectorstore.SearchResult
	Related           []graphstore.Node
	LanguageBreakdown map[string]int
	Files             []string
}

// ExpandContext produces primary hits plus second-ring related code reached
// by a bounded BFS of depth opts.GraphDepth (default 2), capped at
// opts.MaxRelated nodes total.
func (s *Service) ExpandContext(ctx context.Context, q string, opts Options) (*ExpandedContext, error) {
	opts = opts.withDefaults()

	vec, err := s.embedQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	primary, err := s.VectorStore.SearchVector(ctx, vec, vectorstore.SearchOptions{Limit: opts.Limit, Filters: opts.Filters})
	if err != nil {
		return nil, err
	}

	out := &ExpandedContext{Primary: primary, LanguageBreakdown: map[string]int{}}
	fileSet := map[string]bool{}

	for _, r := range primary {
		if lang, ok := r.Document.Metadata["language"].(string); ok && lang != "" {
			out.LanguageBreakdown[lang]++
		}
		if fp, ok := r.Document.Metadata["file_path"].(string); ok && fp != "" {
			fileSet[fp] = true
		}
	}

	if s.Graph != nil {
		seen := map[string]bool{}
		budget := opts.MaxRelated
		for _, r := range primary {
			if budget <= 0 {
				break
			}
			symID := s.symbolIDFromDocument(r.Document)
			if symID == "" {
				continue
			}
			nb, err := s.Graph.GetNeighborhood(ctx, s.RepoID, symID, opts.GraphDepth, budget)
			if err != nil {
				continue
			}
			for _, n := range nb.Nodes {
				if seen[n.ID] || budget <= 0 {
					continue
				}
				seen[n.ID] = true
				out.Related = append(out.Related, n)
				if n.File != "" {
					fileSet[n.File] = true
				}
				budget--
			}
		}
	}

	for f := range fileSet {
		out.Files = append(out.Files, f)
	}
	sort.Strings(out.Files)
	return out, nil
}
