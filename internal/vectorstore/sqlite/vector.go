// Package sqlite provides vector similarity search implementation.
package sqlite

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/controlvector/cv-git/internal/embedding"
	"github.com/controlvector/cv-git/internal/vectorstore"
)

// SearchVector performs dense vector similarity search in the "code"
// collection.
func (s *Store) SearchVector(ctx context.Context, queryVector embedding.Vector, opts vectorstore.SearchOptions) ([]vectorstore.SearchResult, error) {
	return s.SearchVectorCollection(ctx, "code", queryVector, opts)
}

// SearchVectorCollection performs dense vector similarity search within a
// named collection. Collections past hnswMinDocs use the HNSW index;
// smaller ones use exact brute force, which is both fast enough and exact
// at that scale.
func (s *Store) SearchVectorCollection(ctx context.Context, collection string, queryVector embedding.Vector, opts vectorstore.SearchOptions) ([]vectorstore.SearchResult, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if vectorMagnitude(queryVector) == 0 {
		return nil, fmt.Errorf("query vector has zero magnitude")
	}

	physical := s.physical(collection)
	if err := s.ensureCollection(physical); err != nil {
		return nil, err
	}

	if idx := s.hnsw[physical]; idx != nil && idx.Size() > hnswMinDocs {
		return s.searchVectorHNSW(ctx, physical, queryVector, opts)
	}
	return s.searchVectorBruteForce(ctx, physical, queryVector, opts)
}

// searchVectorHNSW performs search using the collection's HNSW index.
func (s *Store) searchVectorHNSW(ctx context.Context, physical string, queryVector embedding.Vector, opts vectorstore.SearchOptions) ([]vectorstore.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := opts.Offset

	ef := max(limit*2, 32)
	candidates, err := s.hnsw[physical].Search(queryVector, ef, ef)
	if err != nil {
		return nil, fmt.Errorf("HNSW search failed: %w", err)
	}
	if len(candidates) == 0 {
		return []vectorstore.SearchResult{}, nil
	}

	docIDs := make([]string, len(candidates))
	for i, c := range candidates {
		docIDs[i] = c.ID
	}

	results, err := s.fetchDocumentsByIDs(ctx, physical, docIDs, opts.Filters)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate documents: %w", err)
	}

	scoreMap := make(map[string]float32)
	for _, c := range candidates {
		scoreMap[c.ID] = 1.0 - c.Distance // convert distance to similarity
	}
	for i := range results {
		if score, exists := scoreMap[results[i].Document.ID]; exists {
			results[i].Score = score
		}
		if opts.Threshold > 0 && results[i].Score < opts.Threshold {
			results[i].Score = -1 // filtered below
		}
	}

	filtered := results[:0]
	for _, r := range results {
		if r.Score >= 0 {
			filtered = append(filtered, r)
		}
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Score > filtered[j].Score })

	start := offset
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	if start >= end {
		return []vectorstore.SearchResult{}, nil
	}
	return filtered[start:end], nil
}

// searchVectorBruteForce performs optimized brute force search with
// sampling for large collections.
func (s *Store) searchVectorBruteForce(ctx context.Context, physical string, queryVector embedding.Vector, opts vectorstore.SearchOptions) ([]vectorstore.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := opts.Offset

	queryNorm := vectorMagnitude(queryVector)

	var totalDocs int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", physical)).Scan(&totalDocs); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	sampleSize := totalDocs
	if totalDocs > 1000 {
		sampleSize = (limit + offset) * 20
		if sampleSize > totalDocs {
			sampleSize = totalDocs
		}
		if sampleSize > 500 {
			sampleSize = 500
		}
	}

	sqlQuery := fmt.Sprintf("SELECT id, content, vector, metadata, created_at, updated_at FROM %s", physical)
	args := []interface{}{}

	if len(opts.Filters) > 0 {
		sqlQuery += " WHERE"
		first := true
		for key, value := range opts.Filters {
			if !first {
				sqlQuery += " AND"
			}
			sqlQuery += fmt.Sprintf(" json_extract(metadata, '$.%s') = ?", key)
			args = append(args, value)
			first = false
		}
	}

	if sampleSize < totalDocs {
		sqlQuery += " LIMIT ?"
		args = append(args, sampleSize)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var candidates []vectorstore.SearchResult
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var doc vectorstore.Document
		var vectorJSON, metadataJSON []byte
		var createdAt, updatedAt int64

		if err := rows.Scan(&doc.ID, &doc.Content, &vectorJSON, &metadataJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := deserializeDocument(&doc, vectorJSON, metadataJSON, createdAt, updatedAt); err != nil {
			return nil, fmt.Errorf("deserialize document: %w", err)
		}

		if len(doc.Vector) == 0 || len(doc.Vector) != len(queryVector) {
			continue
		}

		similarity := cosineSimilarityOptimized(queryVector, doc.Vector, queryNorm)
		if opts.Threshold > 0 && similarity < opts.Threshold {
			continue
		}

		candidates = append(candidates, vectorstore.SearchResult{Document: doc, Score: similarity, Method: "vector"})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	start := offset
	if start > len(candidates) {
		start = len(candidates)
	}
	end := start + limit
	if end > len(candidates) {
		end = len(candidates)
	}
	if start >= end {
		return []vectorstore.SearchResult{}, nil
	}
	return candidates[start:end], nil
}

// fetchDocumentsByIDs fetches multiple documents by ID from a physical table.
func (s *Store) fetchDocumentsByIDs(ctx context.Context, physical string, ids []string, filters map[string]interface{}) ([]vectorstore.SearchResult, error) {
	if len(ids) == 0 {
		return []vectorstore.SearchResult{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	sqlQuery := fmt.Sprintf(`SELECT id, content, vector, metadata, created_at, updated_at FROM %s WHERE id IN (%s)`,
		physical, strings.Join(placeholders, ","))

	if len(filters) > 0 {
		for key, value := range filters {
			sqlQuery += fmt.Sprintf(" AND json_extract(metadata, '$.%s') = ?", key)
			args = append(args, value)
		}
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents by IDs: %w", err)
	}
	defer rows.Close()

	var results []vectorstore.SearchResult
	for rows.Next() {
		var doc vectorstore.Document
		var vectorJSON, metadataJSON []byte
		var createdAt, updatedAt int64

		if err := rows.Scan(&doc.ID, &doc.Content, &vectorJSON, &metadataJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := deserializeDocument(&doc, vectorJSON, metadataJSON, createdAt, updatedAt); err != nil {
			return nil, fmt.Errorf("deserialize document: %w", err)
		}

		results = append(results, vectorstore.SearchResult{Document: doc, Score: 0, Method: "vector"})
	}

	return results, rows.Err()
}

// cosineSimilarityOptimized calculates cosine similarity with a
// pre-computed query norm for efficiency.
func cosineSimilarityOptimized(queryVector, docVector embedding.Vector, queryNorm float32) float32 {
	if len(queryVector) != len(docVector) {
		return 0
	}

	dotProduct := float32(0)
	for i := range queryVector {
		dotProduct += queryVector[i] * docVector[i]
	}

	docNorm := vectorMagnitude(docVector)
	if queryNorm == 0 || docNorm == 0 {
		return 0
	}

	similarity := dotProduct / (queryNorm * docNorm)
	if similarity < 0 {
		similarity = 0
	}
	if similarity > 1 {
		similarity = 1
	}
	return similarity
}

// matchesFilters checks if a document's metadata matches the provided filters.
func matchesFilters(metadata map[string]interface{}, filters map[string]interface{}) bool {
	for key, expectedValue := range filters {
		actualValue, exists := metadata[key]
		if !exists || actualValue != expectedValue {
			return false
		}
	}
	return true
}

// cosineSimilarity calculates the cosine similarity between two vectors.
// Returns a value in [0, 1] where 1 is identical and 0 is orthogonal.
func cosineSimilarity(a, b embedding.Vector) float32 {
	if len(a) != len(b) {
		return 0
	}

	dotProduct := float32(0)
	for i := range a {
		dotProduct += a[i] * b[i]
	}

	magA := vectorMagnitude(a)
	magB := vectorMagnitude(b)
	if magA == 0 || magB == 0 {
		return 0
	}

	similarity := dotProduct / (magA * magB)
	if similarity < 0 {
		similarity = 0
	}
	if similarity > 1 {
		similarity = 1
	}
	return similarity
}

// vectorMagnitude calculates the Euclidean norm (L2 norm) of a vector.
func vectorMagnitude(v embedding.Vector) float32 {
	sum := float32(0)
	for _, val := range v {
		sum += val * val
	}
	return float32(math.Sqrt(float64(sum)))
}
