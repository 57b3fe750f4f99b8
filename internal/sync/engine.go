// Package sync is the ingest pipeline: it discovers changed files, parses
// them, embeds their chunks, and stores the results in the vector index and
// property graph. A run is organized as bounded-concurrency stages — parse,
// then embed → store for the vector index alongside a graph stage for the
// property graph — connected by channels, so a slow embedding provider
// doesn't stall file discovery or graph writes.
package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/controlvector/cv-git/internal/cverrors"
	"github.com/controlvector/cv-git/internal/embedding"
	"github.com/controlvector/cv-git/internal/graphstore"
	"github.com/controlvector/cv-git/internal/parser"
	"github.com/controlvector/cv-git/internal/parser/markdown"
	"github.com/controlvector/cv-git/internal/vectorstore"
)

// Config bounds an Engine's worker pools and batching. Values come from
// Config.Indexer (internal/config), carried over from the teacher's
// equivalent indexing knobs.
type Config struct {
	ParseWorkers       int
	EmbedWorkers       int
	StoreWorkers       int
	EmbedBatchSize     int
	ChunkSize          int
	ChunkOverlap       int
	CancelGrace        time.Duration
	MaxFileSize        int64
	IgnorePatterns     []string
}

// Engine runs sync passes against one repo.
type Engine struct {
	repoRoot string
	repoID   string
	registry *parser.Registry
	markdown *markdown.Parser
	embedder embedding.Embedder
	vstore   vectorstore.VectorStore
	gstore   graphstore.Graph
	walker   Walker
	merkle   MerkleTree
	cfg      Config
}

// New constructs an Engine. gstore may be nil to skip graph population.
func New(repoRoot, repoID string, registry *parser.Registry, md *markdown.Parser, embedder embedding.Embedder, vstore vectorstore.VectorStore, gstore graphstore.Graph, cfg Config) *Engine {
	if cfg.ParseWorkers <= 0 {
		cfg.ParseWorkers = 4
	}
	if cfg.EmbedWorkers <= 0 {
		cfg.EmbedWorkers = 2
	}
	if cfg.StoreWorkers <= 0 {
		cfg.StoreWorkers = 4
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 50
	}
	if cfg.CancelGrace <= 0 {
		cfg.CancelGrace = 5 * time.Second
	}
	walker := NewFileWalker(cfg.MaxFileSize)
	return &Engine{
		repoRoot: repoRoot,
		repoID:   repoID,
		registry: registry,
		markdown: md,
		embedder: embedder,
		vstore:   vstore,
		gstore:   gstore,
		walker:   walker,
		merkle:   NewMerkleTree(walker),
		cfg:      cfg,
	}
}

type discoveredFile struct {
	path    string
	relPath string
}

type parsedUnit struct {
	file    discoveredFile
	parsed  *parser.ParsedFile
	doc     *markdown.ParsedDocument
}

type embeddedChunk struct {
	id         string
	file       string
	content    string
	vector     embedding.Vector
	metadata   map[string]interface{}
	collection string // logical vectorstore collection ("code" or "documents")
}

// Run discovers files (full walk, or a Merkle diff against the prior state
// when full is false and prior state exists), then pushes them through the
// parse/embed/store pipeline. Once discovery has succeeded it persists the
// new Merkle state and a Report, even when ctx is cancelled mid-pipeline —
// KindCancelled is returned in that case, with partial Stats reflecting
// what completed before the stages stopped. An error while loading state,
// hashing, diffing or discovering is returned without persisting anything.
func (e *Engine) Run(ctx context.Context, full bool) (*Report, error) {
	start := time.Now()
	ignorePatterns := e.cfg.IgnorePatterns
	if len(ignorePatterns) == 0 {
		ignorePatterns = DefaultIgnorePatterns()
	}
	// The engine's own state directory is never hashed or indexed.
	ignorePatterns = append(append([]string(nil), ignorePatterns...), ".cv/")

	prevState, err := LoadState(e.repoRoot)
	if err != nil {
		return nil, cverrors.Wrap(cverrors.KindInternal, "load sync state", err)
	}

	newMerkleState, err := e.merkle.Hash(ctx, e.repoRoot, ignorePatterns)
	if err != nil {
		return nil, cverrors.Wrap(cverrors.KindInternal, "hash repository tree", err)
	}

	var changedPaths map[string]bool
	reportType := ReportTypeFull
	if !full && len(prevState.MerkleState) > 0 {
		changed, err := e.merkle.Diff(ctx, prevState.MerkleState, newMerkleState)
		if err != nil {
			return nil, cverrors.Wrap(cverrors.KindInternal, "diff repository tree", err)
		}
		changedPaths = make(map[string]bool, len(changed))
		for _, p := range changed {
			changedPaths[p] = true
		}
		reportType = ReportTypeIncremental
	}

	files, err := e.discover(ctx, ignorePatterns, changedPaths)
	if err != nil {
		return nil, cverrors.Wrap(cverrors.KindInternal, "discover files", err)
	}

	stats, fileErrors, runErr := e.pipeline(ctx, files)

	report := &Report{
		Timestamp: start,
		Type:      reportType,
		Success:   runErr == nil,
		Duration:  time.Since(start),
		Stats:     stats,
		Errors:    fileErrors,
	}

	if err := SaveState(e.repoRoot, &State{MerkleState: newMerkleState, LastReport: report}); err != nil {
		return report, cverrors.Wrap(cverrors.KindInternal, "save sync state", err)
	}

	return report, runErr
}

func (e *Engine) discover(ctx context.Context, ignorePatterns []string, changedPaths map[string]bool) ([]discoveredFile, error) {
	var files []discoveredFile
	err := e.walker.Walk(ctx, e.repoRoot, ignorePatterns, func(path string, info os.FileInfo) error {
		relPath, err := filepath.Rel(e.repoRoot, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if changedPaths != nil && !changedPaths[relPath] {
			return nil
		}
		files = append(files, discoveredFile{path: path, relPath: relPath})
		return nil
	})
	return files, err
}

// pipeline runs the parse -> embed -> store stages concurrently, each
// bounded by its own worker count, and collects Stats/errors as units flow
// through. A cancelled ctx stops new work from starting; the pipeline then
// waits, with no deadline, for every stage to return, and only after that
// waits a further cfg.CancelGrace before returning KindCancelled. In-flight
// work is not cut off at the grace deadline.
func (e *Engine) pipeline(ctx context.Context, files []discoveredFile) (Stats, []FileError, error) {
	var stats Stats
	var fileErrors []FileError

	parsedCh := make(chan parsedUnit, e.cfg.ParseWorkers*2)
	graphCh := make(chan parsedUnit, e.cfg.ParseWorkers*2)
	embeddedCh := make(chan embeddedChunk, e.cfg.EmbedWorkers*2)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(parsedCh)
		defer close(graphCh)
		return e.runParseStage(gctx, files, parsedCh, graphCh, &stats, &fileErrors)
	})

	g.Go(func() error {
		defer close(embeddedCh)
		return e.runEmbedStage(gctx, parsedCh, embeddedCh, &stats, &fileErrors)
	})

	g.Go(func() error {
		return e.runStoreStage(gctx, embeddedCh, &stats, &fileErrors)
	})

	g.Go(func() error {
		return e.runGraphStage(gctx, graphCh, &stats, &fileErrors)
	})

	err := g.Wait()
	if err != nil && ctx.Err() != nil {
		grace, cancel := context.WithTimeout(context.Background(), e.cfg.CancelGrace)
		defer cancel()
		<-grace.Done()
		return stats, fileErrors, cverrors.Wrap(cverrors.KindCancelled, "sync cancelled", ctx.Err())
	}
	return stats, fileErrors, err
}

func (e *Engine) runParseStage(ctx context.Context, files []discoveredFile, out chan<- parsedUnit, graphOut chan<- parsedUnit, stats *Stats, fileErrors *[]FileError) error {
	sem := make(chan struct{}, e.cfg.ParseWorkers)
	g, gctx := errgroup.WithContext(ctx)

	for _, f := range files {
		f := f
		select {
		case <-gctx.Done():
			return gctx.Err()
		case sem <- struct{}{}:
		}

		g.Go(func() error {
			defer func() { <-sem }()
			unit, err := e.parseOne(gctx, f)
			if err != nil {
				*fileErrors = append(*fileErrors, FileError{Phase: "parse", File: f.relPath, Error: err.Error()})
				stats.FilesFailed++
				return nil
			}
			stats.FilesProcessed++
			select {
			case out <- *unit:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case graphOut <- *unit:
			case <-gctx.Done():
				return gctx.Err()
			}
			return nil
		})
	}

	return g.Wait()
}

// runGraphStage upserts File/Document/Symbol nodes, an IMPORTS edge per
// import, and CALLS edges for each parsed unit; no INHERITS edges are
// created. Only within-repo, best-effort resolution is attempted: a CALLS
// edge (which may cross files) is created
// when the callee name matches another symbol already seen in this run;
// unresolved callees (external packages, dynamic dispatch) are skipped
// rather than guessed at.
func (e *Engine) runGraphStage(ctx context.Context, in <-chan parsedUnit, stats *Stats, fileErrors *[]FileError) error {
	if e.gstore == nil {
		for range in {
		}
		return nil
	}

	bySimpleName := map[string]string{} // symbol name -> composite id, filled as units arrive

	for unit := range in {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if unit.parsed != nil {
			if err := e.gstore.UpsertFileNode(ctx, e.repoID, unit.file.relPath, unit.parsed.Language); err != nil {
				*fileErrors = append(*fileErrors, FileError{Phase: "graph", File: unit.file.relPath, Error: err.Error()})
				continue
			}
			fromFileID := graphstore.CompositeID(e.repoID, string(graphstore.NodeKindFile), unit.file.relPath)
			for _, imp := range unit.parsed.Imports {
				toFileID := graphstore.CompositeID(e.repoID, string(graphstore.NodeKindFile), imp.Path)
				_ = e.gstore.CreateImportsEdge(ctx, e.repoID, fromFileID, toFileID)
			}
			for _, sym := range unit.parsed.Symbols {
				if err := e.gstore.UpsertSymbolNode(ctx, e.repoID, graphstore.Node{
					ID:   sym.QualifiedName,
					Name: sym.Name,
					File: unit.file.relPath,
					Kind: graphstore.NodeKindSymbol,
					Props: map[string]any{
						"kind":       string(sym.Kind),
						"complexity": sym.Complexity,
						"visibility": string(sym.Visibility),
					},
				}); err != nil {
					*fileErrors = append(*fileErrors, FileError{Phase: "graph", File: unit.file.relPath, Error: err.Error()})
					continue
				}
				stats.SymbolsIndexed++
				bySimpleName[sym.Name] = graphstore.CompositeID(e.repoID, string(graphstore.NodeKindSymbol), sym.QualifiedName)
			}
			for _, sym := range unit.parsed.Symbols {
				callerID := graphstore.CompositeID(e.repoID, string(graphstore.NodeKindSymbol), sym.QualifiedName)
				for _, call := range sym.Calls {
					calleeID, ok := bySimpleName[call.Callee]
					if !ok {
						continue
					}
					_ = e.gstore.CreateCallsEdge(ctx, e.repoID, callerID, calleeID, call.IsConditional, call.Line)
				}
			}
		}

		if unit.doc != nil {
			if err := e.gstore.UpsertDocumentNode(ctx, e.repoID, unit.file.relPath, string(unit.doc.DocumentType), "active"); err != nil {
				*fileErrors = append(*fileErrors, FileError{Phase: "graph", File: unit.file.relPath, Error: err.Error()})
				continue
			}
		}
	}

	return nil
}

func (e *Engine) parseOne(ctx context.Context, f discoveredFile) (*parsedUnit, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.relPath, err)
	}

	ext := filepath.Ext(f.relPath)
	if e.markdown != nil && e.markdown.Supports(ext) {
		doc, err := e.markdown.Parse(ctx, f.relPath, content)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.relPath, err)
		}
		return &parsedUnit{file: f, doc: doc}, nil
	}

	parsed, err := e.registry.ParseFile(ctx, f.relPath, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.relPath, err)
	}
	return &parsedUnit{file: f, parsed: parsed}, nil
}

func (e *Engine) runEmbedStage(ctx context.Context, in <-chan parsedUnit, out chan<- embeddedChunk, stats *Stats, fileErrors *[]FileError) error {
	if e.embedder == nil {
		// No embedder configured: pass chunks through without vectors to
		// the store stage (the graph stage is fed separately via graphCh).
		for unit := range in {
			for _, chunk := range chunksOf(unit) {
				select {
				case out <- chunk:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	}

	var batch []embeddedChunk
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.content
		}
		vectors, err := e.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			for _, c := range batch {
				*fileErrors = append(*fileErrors, FileError{Phase: "embed", File: c.file, Error: err.Error()})
			}
			batch = batch[:0]
			return nil
		}
		for i, c := range batch {
			if i < len(vectors) {
				c.vector = vectors[i].Vector
			}
			select {
			case out <- c:
				stats.ChunksEmbedded++
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		batch = batch[:0]
		return nil
	}

	for unit := range in {
		for _, chunk := range chunksOf(unit) {
			batch = append(batch, chunk)
			if len(batch) >= e.cfg.EmbedBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

func chunksOf(unit parsedUnit) []embeddedChunk {
	var chunks []embeddedChunk
	if unit.parsed != nil {
		for _, c := range unit.parsed.Chunks {
			chunks = append(chunks, embeddedChunk{
				id:         c.ID,
				file:       unit.file.relPath,
				content:    c.Text,
				collection: "code",
				metadata: map[string]interface{}{
					"file_path":   c.File,
					"language":    c.Language,
					"symbol_name": c.SymbolName,
					"symbol_kind": string(c.SymbolKind),
					"start_line":  c.StartLine,
					"end_line":    c.EndLine,
				},
			})
		}
	}
	if unit.doc != nil {
		for _, c := range unit.doc.Chunks {
			chunks = append(chunks, embeddedChunk{
				id:         c.ID,
				file:       unit.file.relPath,
				content:    c.Text,
				collection: "documents",
				metadata: map[string]interface{}{
					"file_path":     c.File,
					"document_type": string(c.DocumentType),
					"tags":          c.Tags,
					"start_line":    c.StartLine,
					"end_line":      c.EndLine,
				},
			})
		}
	}
	return chunks
}

func (e *Engine) runStoreStage(ctx context.Context, in <-chan embeddedChunk, stats *Stats, fileErrors *[]FileError) error {
	sem := make(chan struct{}, e.cfg.StoreWorkers)
	g, gctx := errgroup.WithContext(ctx)

	for chunk := range in {
		chunk := chunk
		select {
		case <-gctx.Done():
			return gctx.Err()
		case sem <- struct{}{}:
		}

		g.Go(func() error {
			defer func() { <-sem }()
			if e.vstore == nil {
				return nil
			}
			doc := vectorstore.Document{ID: chunk.id, Content: chunk.content, Vector: chunk.vector, Metadata: chunk.metadata}
			var storeErr error
			if aware, ok := e.vstore.(vectorstore.CollectionAware); ok && chunk.collection != "" {
				storeErr = aware.UpsertCollection(gctx, chunk.collection, doc)
			} else {
				storeErr = e.vstore.Upsert(gctx, doc)
			}
			if storeErr != nil {
				*fileErrors = append(*fileErrors, FileError{Phase: "store", File: chunk.file, Error: storeErr.Error()})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	_ = stats
	return nil
}
