// Package sqlite is the local fallback VectorStore backend, used when no
// Qdrant URL is configured or the daemon is unreachable (see
// internal/vectorstore.Open's usedFallback signal). Unlike the teacher's
// single flat table, this store mirrors internal/vectorstore/qdrant's
// collection model: each logical collection ("code", "documents",
// "summary1".."summary4") gets its own SQLite table, FTS5 shadow table, and
// HNSW index, named after the same physical collection names Qdrant would
// use (code_chunks, document_chunks, summaries_level_N). Code chunks and
// document chunks therefore never compete for the same BM25/vector index.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/controlvector/cv-git/internal/vectorstore"
)

// DefaultCollections is the logical-to-physical collection map used when a
// caller (tests, standalone tooling) doesn't supply its own — identical to
// internal/config's default Vector.Collections so a local SQLite fallback
// and a configured Qdrant backend address the same physical names.
var DefaultCollections = map[string]string{
	"code":      "code_chunks",
	"documents": "document_chunks",
	"summary1":  "summaries_level_1",
	"summary2":  "summaries_level_2",
	"summary3":  "summaries_level_3",
	"summary4":  "summaries_level_4",
}

// hnswMinDocs is the collection size above which SearchVectorCollection
// prefers the HNSW index over brute force. Below it, brute force is both
// fast enough and exact, which matters for the small collections most
// repositories' summary levels end up with.
const hnswMinDocs = 500

var validIdent = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Store is a SQLite-backed vector store with FTS5 support for BM25 search
// and an HNSW index per collection for approximate vector search.
type Store struct {
	db          *sql.DB
	collections map[string]string // logical -> physical
	hnsw        map[string]*HNSWIndex
}

// NewStore creates a SQLite vector store using DefaultCollections. The path
// can be ":memory:" for an in-memory database or a file path for
// persistence.
func NewStore(path string) (*Store, error) {
	return NewStoreWithCollections(path, DefaultCollections)
}

// NewStoreWithCollections creates a SQLite vector store whose collection
// tables are named from collections (logical name -> physical table name),
// the same map internal/config hands to the Qdrant backend. Every named
// collection's schema is created eagerly so that later lookups never race
// on lazy table creation.
func NewStoreWithCollections(path string, collections map[string]string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// For :memory: databases, limit to 1 connection to ensure all goroutines
	// share the same database. Without this, the connection pool creates separate
	// in-memory databases per connection, causing "no such table" errors.
	db.SetMaxOpenConns(1)

	if len(collections) == 0 {
		collections = DefaultCollections
	}

	store := &Store{db: db, collections: collections, hnsw: make(map[string]*HNSWIndex)}

	for _, physical := range collections {
		if err := store.ensureCollection(physical); err != nil {
			// #nosec G104 - Best-effort cleanup in error path, primary error (schema init) already captured
			db.Close()
			return nil, fmt.Errorf("init collection %s: %w", physical, err)
		}
	}

	return store, nil
}

// physical resolves a logical collection name to its physical table name,
// falling back to the logical name itself when unmapped — the same
// fallback internal/vectorstore/qdrant.Store.physical uses.
func (s *Store) physical(logical string) string {
	if name, ok := s.collections[logical]; ok {
		return name
	}
	return logical
}

func ftsTable(physical string) string {
	return physical + "_fts"
}

// ensureCollection creates physical's table, FTS5 shadow table, sync
// triggers, and HNSW index if they don't already exist. Table names are
// interpolated into DDL (SQLite has no identifier placeholders), so
// physical must pass validIdent.
func (s *Store) ensureCollection(physical string) error {
	if !validIdent.MatchString(physical) {
		return fmt.Errorf("invalid collection name %q", physical)
	}
	if _, ok := s.hnsw[physical]; ok {
		return nil
	}

	fts := ftsTable(physical)
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		vector TEXT NOT NULL,  -- JSON-encoded float array
		metadata TEXT,         -- JSON-encoded metadata
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS %[2]s USING fts5(
		id UNINDEXED,
		content,
		tokenize='porter unicode61'
	);

	CREATE TRIGGER IF NOT EXISTS %[1]s_ai AFTER INSERT ON %[1]s BEGIN
		INSERT INTO %[2]s(id, content) VALUES (new.id, new.content);
	END;

	CREATE TRIGGER IF NOT EXISTS %[1]s_ad AFTER DELETE ON %[1]s BEGIN
		DELETE FROM %[2]s WHERE id = old.id;
	END;

	CREATE TRIGGER IF NOT EXISTS %[1]s_au AFTER UPDATE ON %[1]s BEGIN
		UPDATE %[2]s SET content = new.content WHERE id = old.id;
	END;

	CREATE INDEX IF NOT EXISTS idx_%[1]s_updated_at ON %[1]s(updated_at);
	`, physical, fts)

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	s.hnsw[physical] = NewHNSWIndex(DefaultHNSWConfig())
	return s.rebuildHNSW(physical)
}

// rebuildHNSW repopulates a collection's HNSW index from rows already on
// disk, so reopening a persisted database doesn't silently lose ANN search.
func (s *Store) rebuildHNSW(physical string) error {
	rows, err := s.db.Query(fmt.Sprintf("SELECT id, vector FROM %s", physical))
	if err != nil {
		return nil // virgin table, nothing to rebuild
	}
	defer rows.Close()

	idx := s.hnsw[physical]
	for rows.Next() {
		var id string
		var vectorJSON []byte
		if err := rows.Scan(&id, &vectorJSON); err != nil {
			continue
		}
		var vec []float32
		if err := json.Unmarshal(vectorJSON, &vec); err != nil {
			continue
		}
		_ = idx.Insert(id, vec)
	}
	return rows.Err()
}

// Upsert inserts or updates a document in the "code" collection
// (code_chunks), satisfying the VectorStore interface.
func (s *Store) Upsert(ctx context.Context, doc vectorstore.Document) error {
	return s.UpsertCollection(ctx, "code", doc)
}

// UpsertCollection inserts or updates a document in a named logical
// collection.
func (s *Store) UpsertCollection(ctx context.Context, collection string, doc vectorstore.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if len(doc.Vector) == 0 {
		return fmt.Errorf("document vector cannot be empty")
	}

	physical := s.physical(collection)
	if err := s.ensureCollection(physical); err != nil {
		return err
	}

	vectorJSON, err := json.Marshal(doc.Vector)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}

	var metadataJSON []byte
	if doc.Metadata != nil {
		metadataJSON, err = json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	var exists bool
	err = s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = ?)", physical), doc.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check existence: %w", err)
	}

	now := time.Now().Unix()

	if exists {
		_, err = s.db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET content = ?, vector = ?, metadata = ?, updated_at = ? WHERE id = ?`, physical),
			doc.Content, vectorJSON, metadataJSON, now, doc.ID,
		)
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
	} else {
		createdAt := now
		if !doc.CreatedAt.IsZero() {
			createdAt = doc.CreatedAt.Unix()
		}
		updatedAt := now
		if !doc.UpdatedAt.IsZero() {
			updatedAt = doc.UpdatedAt.Unix()
		}

		_, err = s.db.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (id, content, vector, metadata, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`, physical),
			doc.ID, doc.Content, vectorJSON, metadataJSON, createdAt, updatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}

	_ = s.hnsw[physical].Insert(doc.ID, doc.Vector)
	return nil
}

// UpsertBatch efficiently inserts or updates multiple documents in the
// "code" collection within a single transaction.
func (s *Store) UpsertBatch(ctx context.Context, docs []vectorstore.Document) error {
	return s.UpsertBatchCollection(ctx, "code", docs)
}

// UpsertBatchCollection batches docs into a single transaction against a
// named collection.
func (s *Store) UpsertBatchCollection(ctx context.Context, collection string, docs []vectorstore.Document) error {
	if len(docs) == 0 {
		return nil
	}
	physical := s.physical(collection)
	if err := s.ensureCollection(physical); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		if err := s.upsertInTx(ctx, tx, physical, doc); err != nil {
			return fmt.Errorf("upsert document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	idx := s.hnsw[physical]
	for _, doc := range docs {
		_ = idx.Insert(doc.ID, doc.Vector)
	}

	return nil
}

func (s *Store) upsertInTx(ctx context.Context, tx *sql.Tx, physical string, doc vectorstore.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if len(doc.Vector) == 0 {
		return fmt.Errorf("document vector cannot be empty")
	}

	vectorJSON, err := json.Marshal(doc.Vector)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}

	var metadataJSON []byte
	if doc.Metadata != nil {
		metadataJSON, err = json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	now := time.Now().Unix()
	createdAt := now
	if !doc.CreatedAt.IsZero() {
		createdAt = doc.CreatedAt.Unix()
	}
	updatedAt := now
	if !doc.UpdatedAt.IsZero() {
		updatedAt = doc.UpdatedAt.Unix()
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, content, vector, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 content = excluded.content,
		 vector = excluded.vector,
		 metadata = excluded.metadata,
		 updated_at = excluded.updated_at`, physical),
		doc.ID, doc.Content, vectorJSON, metadataJSON, createdAt, updatedAt,
	)

	return err
}

// Delete removes a document by ID from the "code" collection.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.DeleteCollection(ctx, "code", id)
}

// DeleteCollection removes a document by ID from a named collection.
func (s *Store) DeleteCollection(ctx context.Context, collection, id string) error {
	physical := s.physical(collection)
	result, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", physical), id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("document %s not found", id)
	}

	if idx, ok := s.hnsw[physical]; ok {
		_ = idx.Remove(id)
	}
	return nil
}

// Get retrieves a document by ID from the "code" collection.
func (s *Store) Get(ctx context.Context, id string) (*vectorstore.Document, error) {
	return s.GetCollection(ctx, "code", id)
}

// GetCollection retrieves a document by ID from a named collection.
func (s *Store) GetCollection(ctx context.Context, collection, id string) (*vectorstore.Document, error) {
	physical := s.physical(collection)
	var doc vectorstore.Document
	var vectorJSON, metadataJSON []byte
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, content, vector, metadata, created_at, updated_at FROM %s WHERE id = ?`, physical),
		id,
	).Scan(&doc.ID, &doc.Content, &vectorJSON, &metadataJSON, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	if err := deserializeDocument(&doc, vectorJSON, metadataJSON, createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Count returns the total number of documents in the "code" collection,
// mirroring internal/vectorstore/qdrant.Store.Count's single-collection
// scope.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.CountCollection(ctx, "code")
}

// CountCollection returns the document count of a named collection.
func (s *Store) CountCollection(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.physical(collection))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// ListIndexedFiles returns every unique file path indexed in the "code"
// collection.
func (s *Store) ListIndexedFiles(ctx context.Context) ([]string, error) {
	return s.listIndexedFilesIn(ctx, s.physical("code"))
}

func (s *Store) listIndexedFilesIn(ctx context.Context, physical string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT json_extract(metadata, '$.file_path') as file_path
		FROM %s
		WHERE metadata IS NOT NULL AND json_extract(metadata, '$.file_path') IS NOT NULL
		ORDER BY file_path
	`, physical)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query indexed files: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var filePath string
		if err := rows.Scan(&filePath); err != nil {
			return nil, fmt.Errorf("scan file path: %w", err)
		}
		files = append(files, filePath)
	}
	return files, rows.Err()
}

// GetFileChunks returns all code chunks for a specific file path, sorted by
// start_line.
func (s *Store) GetFileChunks(ctx context.Context, filePath string) ([]vectorstore.Document, error) {
	physical := s.physical("code")
	query := fmt.Sprintf(`
		SELECT id, content, vector, metadata, created_at, updated_at
		FROM %s
		WHERE metadata IS NOT NULL AND json_extract(metadata, '$.file_path') = ?
		ORDER BY json_extract(metadata, '$.start_line')
	`, physical)

	rows, err := s.db.QueryContext(ctx, query, filePath)
	if err != nil {
		return nil, fmt.Errorf("query file chunks: %w", err)
	}
	defer rows.Close()

	var docs []vectorstore.Document
	for rows.Next() {
		var doc vectorstore.Document
		var vectorJSON, metadataJSON []byte
		var createdAt, updatedAt int64

		if err := rows.Scan(&doc.ID, &doc.Content, &vectorJSON, &metadataJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := deserializeDocument(&doc, vectorJSON, metadataJSON, createdAt, updatedAt); err != nil {
			return nil, fmt.Errorf("deserialize document %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Close releases database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// Stats aggregates statistics across every collection this store was
// opened with, not just "code" — a local fallback is usually the whole
// index, so its stats should describe the whole index.
func (s *Store) Stats(ctx context.Context) (*vectorstore.IndexStats, error) {
	stats := &vectorstore.IndexStats{Languages: make(map[string]int64)}

	for _, physical := range s.collections {
		var n int64
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", physical)).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", physical, err)
		}
		stats.TotalDocuments += n
		stats.TotalChunks += n

		var lastUpdated sql.NullInt64
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT MAX(updated_at) FROM %s", physical)).Scan(&lastUpdated); err != nil {
			return nil, fmt.Errorf("last updated %s: %w", physical, err)
		}
		if lastUpdated.Valid {
			if t := time.Unix(lastUpdated.Int64, 0); t.After(stats.LastIndexedAt) {
				stats.LastIndexedAt = t
			}
		}

		rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT metadata FROM %s WHERE metadata IS NOT NULL", physical))
		if err != nil {
			return nil, fmt.Errorf("query metadata %s: %w", physical, err)
		}
		for rows.Next() {
			var metadataJSON []byte
			if err := rows.Scan(&metadataJSON); err != nil {
				continue
			}
			var metadata map[string]interface{}
			if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
				continue
			}
			if lang, ok := metadata["language"].(string); ok {
				stats.Languages[lang]++
			}
		}
		rows.Close()
	}

	err := s.db.QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").Scan(&stats.IndexSize)
	if err != nil {
		stats.IndexSize = 0 // ignore for in-memory databases
	}

	return stats, nil
}

// deserializeDocument unmarshals vector and metadata JSON into a document.
func deserializeDocument(doc *vectorstore.Document, vectorJSON, metadataJSON []byte, createdAt, updatedAt int64) error {
	if err := json.Unmarshal(vectorJSON, &doc.Vector); err != nil {
		return fmt.Errorf("unmarshal vector: %w", err)
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	doc.CreatedAt = time.Unix(createdAt, 0)
	doc.UpdatedAt = time.Unix(updatedAt, 0)
	return nil
}
