// Package vectorstore provides storage abstractions for vectors and metadata with hybrid search.
package vectorstore

import (
	"context"
	"time"

	"github.com/controlvector/cv-git/internal/embedding"
	"github.com/controlvector/cv-git/internal/parser"
)

// Document represents a stored chunk with its vector embedding.
type Document struct {
	ID        string                 // Unique document identifier
	Content   string                 // Original text content
	Vector    embedding.Vector       // Dense embedding vector
	Metadata  map[string]interface{} // Arbitrary metadata (file path, language, etc.)
	CreatedAt time.Time              // When the document was stored
	UpdatedAt time.Time              // Last update timestamp
}

// SearchResult represents a single search result with relevance score.
type SearchResult struct {
	Document Document // The matched document
	Score    float32  // Relevance score (higher is better)
	Method   string   // Search method used ("bm25", "vector", "hybrid")
}

// SearchOptions configures search behavior.
type SearchOptions struct {
	Limit       int                    // Maximum number of results
	Offset      int                    // Number of ranked results to skip
	Threshold   float32                // Minimum score threshold
	Filters     map[string]interface{} // Metadata filters (e.g., language="go")
	Rerank      bool                   // Apply reranking to results
}

// VectorStore provides hybrid search over stored documents.
type VectorStore interface {
	// Upsert inserts or updates a document with its vector.
	Upsert(ctx context.Context, doc Document) error
	
	// UpsertBatch efficiently inserts or updates multiple documents.
	UpsertBatch(ctx context.Context, docs []Document) error
	
	// Delete removes a document by ID.
	Delete(ctx context.Context, id string) error
	
	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*Document, error)
	
	// SearchVector performs dense vector similarity search.
	SearchVector(ctx context.Context, vector embedding.Vector, opts SearchOptions) ([]SearchResult, error)
	
	// SearchBM25 performs sparse keyword search using BM25.
	SearchBM25(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
	
	// SearchHybrid combines vector and BM25 search with fusion.
	SearchHybrid(ctx context.Context, query string, vector embedding.Vector, opts SearchOptions) ([]SearchResult, error)
	
	// Count returns the total number of documents.
	Count(ctx context.Context) (int64, error)
	
	// Close releases resources.
	Close() error
}

// IndexStats provides statistics about the vector store.
type IndexStats struct {
	TotalDocuments int64             // Total documents indexed
	TotalChunks    int64             // Total chunks (same as documents for now)
	Languages      map[string]int64  // Document count per language
	LastIndexedAt  time.Time         // Timestamp of last indexing operation
	IndexSize      int64             // Storage size in bytes
}

// StatsProvider provides statistics about stored data.
type StatsProvider interface {
	// Stats returns current index statistics.
	Stats(ctx context.Context) (*IndexStats, error)
}

// CollectionAware is an optional capability implemented by backends that
// route documents into named collections (code_chunks, document_chunks,
// summaries_level_N) instead of a single flat store. Both qdrant.Store and
// sqlite.Store implement it; callers type-assert for it and fall back to the
// plain VectorStore methods (which always target the "code" collection)
// against backends that don't, such as the in-memory test fake.
type CollectionAware interface {
	UpsertCollection(ctx context.Context, collection string, doc Document) error
	UpsertBatchCollection(ctx context.Context, collection string, docs []Document) error
	DeleteCollection(ctx context.Context, collection, id string) error
	GetCollection(ctx context.Context, collection, id string) (*Document, error)
	SearchVectorCollection(ctx context.Context, collection string, vector embedding.Vector, opts SearchOptions) ([]SearchResult, error)
}

// ChunkToDocument converts a parser.CodeChunk to a vectorstore.Document,
// destined for the code_chunks collection.
func ChunkToDocument(chunk parser.CodeChunk, vector embedding.Vector) Document {
	now := time.Now()
	return Document{
		ID:      chunk.ID,
		Content: chunk.Text,
		Vector:  vector,
		Metadata: map[string]interface{}{
			"file_path":   chunk.File,
			"language":    chunk.Language,
			"symbol_name": chunk.SymbolName,
			"symbol_kind": string(chunk.SymbolKind),
			"start_line":  chunk.StartLine,
			"end_line":    chunk.EndLine,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DocumentChunkToDocument converts a markdown.DocumentChunk to a
// vectorstore.Document, destined for the document_chunks collection. It
// takes the source fields directly rather than importing the markdown
// package, since that package in turn depends on nothing here.
func DocumentChunkToDocument(id, file string, startLine, endLine int, text, documentType string, tags []string, vector embedding.Vector) Document {
	now := time.Now()
	return Document{
		ID:      id,
		Content: text,
		Vector:  vector,
		Metadata: map[string]interface{}{
			"file_path":     file,
			"document_type": documentType,
			"tags":          tags,
			"start_line":    startLine,
			"end_line":      endLine,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
