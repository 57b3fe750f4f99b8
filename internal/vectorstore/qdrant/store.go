// Package qdrant is the primary VectorStore backend, talking to a Qdrant
// instance over gRPC. internal/vectorstore/sqlite is the local fallback used
// when no Qdrant URL is configured or the daemon is unreachable.
package qdrant

import (
	"context"
	"fmt"

	qc "github.com/qdrant/go-client/qdrant"

	"github.com/controlvector/cv-git/internal/embedding"
	"github.com/controlvector/cv-git/internal/vectorstore"
)

// Store is a Qdrant-backed vector store. One Store serves every collection
// named in its collections map; collection is the logical name from
// Config.Vector.Collections ("code", "documents", "summary1" ...), resolved
// to the physical Qdrant collection name via that map.
type Store struct {
	client      *qc.Client
	collections map[string]string
	dimensions  uint64
}

// New dials a Qdrant instance and ensures every named collection exists,
// creating it with cosine distance and the given dimensionality if absent.
func New(ctx context.Context, host string, port int, dimensions uint64, collections map[string]string) (*Store, error) {
	client, err := qc.NewClient(&qc.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("dial qdrant: %w", err)
	}

	s := &Store{client: client, collections: collections, dimensions: dimensions}
	for _, physical := range collections {
		if err := s.ensureCollection(ctx, physical); err != nil {
			return nil, fmt.Errorf("ensure collection %s: %w", physical, err)
		}
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.CreateCollection(ctx, &qc.CreateCollection{
		CollectionName: name,
		VectorsConfig: qc.NewVectorsConfig(&qc.VectorParams{
			Size:     s.dimensions,
			Distance: qc.Distance_Cosine,
		}),
	})
}

// physical resolves a logical collection name ("code", "documents") to the
// underlying Qdrant collection; a name missing from the map is used as-is.
func (s *Store) physical(collection string) string {
	if name, ok := s.collections[collection]; ok {
		return name
	}
	return collection
}

func toPointID(id string) *qc.PointId {
	return qc.NewID(id)
}

func toPayload(metadata map[string]interface{}) map[string]*qc.Value {
	return qc.NewValueMap(metadata)
}

func fromPayload(payload map[string]*qc.Value) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = v.AsInterface()
	}
	return out
}

func toDocument(point *qc.RetrievedPoint) vectorstore.Document {
	doc := vectorstore.Document{ID: point.Id.GetUuid()}
	if doc.ID == "" {
		doc.ID = fmt.Sprintf("%d", point.Id.GetNum())
	}
	if payload := point.GetPayload(); payload != nil {
		meta := fromPayload(payload)
		if content, ok := meta["content"].(string); ok {
			doc.Content = content
			delete(meta, "content")
		}
		doc.Metadata = meta
	}
	if vec := point.GetVectors(); vec != nil {
		for _, f := range vec.GetVector().GetData() {
			doc.Vector = append(doc.Vector, f)
		}
	}
	return doc
}

// Upsert inserts or updates a document in the "code" collection. Use
// UpsertCollection to target a different collection.
func (s *Store) Upsert(ctx context.Context, doc vectorstore.Document) error {
	return s.UpsertCollection(ctx, "code", doc)
}

// UpsertCollection inserts or updates a document in a named collection.
func (s *Store) UpsertCollection(ctx context.Context, collection string, doc vectorstore.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	payload := map[string]interface{}{"content": doc.Content}
	for k, v := range doc.Metadata {
		payload[k] = v
	}
	_, err := s.client.Upsert(ctx, &qc.UpsertPoints{
		CollectionName: s.physical(collection),
		Points: []*qc.PointStruct{{
			Id:      toPointID(doc.ID),
			Vectors: qc.NewVectors(doc.Vector...),
			Payload: toPayload(payload),
		}},
	})
	return err
}

// UpsertBatch efficiently inserts or updates multiple documents in one call.
func (s *Store) UpsertBatch(ctx context.Context, docs []vectorstore.Document) error {
	return s.UpsertBatchCollection(ctx, "code", docs)
}

// UpsertBatchCollection batches docs into a single Qdrant upsert request
// against a named collection.
func (s *Store) UpsertBatchCollection(ctx context.Context, collection string, docs []vectorstore.Document) error {
	if len(docs) == 0 {
		return nil
	}
	points := make([]*qc.PointStruct, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document ID cannot be empty")
		}
		payload := map[string]interface{}{"content": doc.Content}
		for k, v := range doc.Metadata {
			payload[k] = v
		}
		points = append(points, &qc.PointStruct{
			Id:      toPointID(doc.ID),
			Vectors: qc.NewVectors(doc.Vector...),
			Payload: toPayload(payload),
		})
	}
	_, err := s.client.Upsert(ctx, &qc.UpsertPoints{
		CollectionName: s.physical(collection),
		Points:         points,
	})
	return err
}

// Delete removes a document by ID from the "code" collection.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.DeleteCollection(ctx, "code", id)
}

// DeleteCollection removes a document by ID from a named collection.
func (s *Store) DeleteCollection(ctx context.Context, collection, id string) error {
	_, err := s.client.Delete(ctx, &qc.DeletePoints{
		CollectionName: s.physical(collection),
		Points:         qc.NewPointsSelector(toPointID(id)),
	})
	return err
}

// Get retrieves a document by ID from the "code" collection.
func (s *Store) Get(ctx context.Context, id string) (*vectorstore.Document, error) {
	return s.GetCollection(ctx, "code", id)
}

// GetCollection retrieves a document by ID from a named collection.
func (s *Store) GetCollection(ctx context.Context, collection, id string) (*vectorstore.Document, error) {
	points, err := s.client.Get(ctx, &qc.GetPoints{
		CollectionName: s.physical(collection),
		Ids:            []*qc.PointId{toPointID(id)},
		WithVectors:    qc.NewWithVectors(true),
		WithPayload:    qc.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("document %s not found", id)
	}
	doc := toDocument(points[0])
	return &doc, nil
}

// SearchVector performs dense vector similarity search in the "code"
// collection.
func (s *Store) SearchVector(ctx context.Context, vector embedding.Vector, opts vectorstore.SearchOptions) ([]vectorstore.SearchResult, error) {
	return s.SearchVectorCollection(ctx, "code", vector, opts)
}

// SearchVectorCollection performs dense vector similarity search in a named
// collection.
func (s *Store) SearchVectorCollection(ctx context.Context, collection string, vector embedding.Vector, opts vectorstore.SearchOptions) ([]vectorstore.SearchResult, error) {
	limit := uint64(opts.Limit)
	if limit == 0 {
		limit = 10
	}
	points, err := s.client.Query(ctx, &qc.QueryPoints{
		CollectionName: s.physical(collection),
		Query:          qc.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qc.NewWithPayload(true),
		WithVectors:    qc.NewWithVectors(true),
		Filter:         filterFromMetadata(opts.Filters),
	})
	if err != nil {
		return nil, err
	}

	results := make([]vectorstore.SearchResult, 0, len(points))
	for _, p := range points {
		if opts.Threshold > 0 && p.GetScore() < opts.Threshold {
			continue
		}
		results = append(results, vectorstore.SearchResult{
			Document: toDocument(&qc.RetrievedPoint{Id: p.Id, Payload: p.Payload, Vectors: p.Vectors}),
			Score:    p.GetScore(),
			Method:   "vector",
		})
	}
	return results, nil
}

// SearchBM25 is not implemented by the Qdrant backend: Qdrant's sparse
// search requires a separately configured sparse vector, which this store
// does not set up. It always returns an error, and SearchHybrid on this
// backend is vector-only.
func (s *Store) SearchBM25(ctx context.Context, query string, opts vectorstore.SearchOptions) ([]vectorstore.SearchResult, error) {
	return nil, fmt.Errorf("qdrant backend does not support BM25 search directly")
}

// SearchHybrid performs vector search only; BM25 fusion is the caller's
// responsibility when running against this backend.
func (s *Store) SearchHybrid(ctx context.Context, query string, vector embedding.Vector, opts vectorstore.SearchOptions) ([]vectorstore.SearchResult, error) {
	return s.SearchVector(ctx, vector, opts)
}

// Count returns the point count of the "code" collection.
func (s *Store) Count(ctx context.Context) (int64, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.physical("code"))
	if err != nil {
		return 0, err
	}
	return int64(info.GetPointsCount()), nil
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func filterFromMetadata(filters map[string]interface{}) *qc.Filter {
	if len(filters) == 0 {
		return nil
	}
	conditions := make([]*qc.Condition, 0, len(filters))
	for k, v := range filters {
		conditions = append(conditions, qc.NewMatch(k, fmt.Sprintf("%v", v)))
	}
	return &qc.Filter{Must: conditions}
}
