package summary

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/controlvector/cv-git/internal/parser"
)

// FileInput is one parsed file's symbols plus its body, used to derive the
// file-level contentHash independently of any one symbol's hash.
type FileInput struct {
	Path    string
	Body    string
	Symbols []parser.SymbolNode
}

// summarizeOne runs the generator (if configured) and falls back to fallback
// on a nil generator or a generator error, tagging the result Extractive
// accordingly.
func (s *Service) summarizeOne(ctx context.Context, prompt string, fallback func() string) (text string, extractive bool) {
	if s.generator != nil {
		if out, err := s.generator.Summarize(ctx, prompt); err == nil && out != "" {
			return out, false
		}
	}
	return fallback(), true
}

// SummarizeSymbol produces or reuses the level-1 summary for one symbol.
func (s *Service) SummarizeSymbol(ctx context.Context, sym parser.SymbolNode) Summary {
	hash := hashText(sym.Docstring + "|" + sym.Name + "|" + string(sym.Kind))
	id := "symbol:" + sym.QualifiedName

	if s.shouldSkip(id, hash) {
		return Summary{ID: id, Level: LevelSymbol, Path: sym.QualifiedName, ContentHash: hash, Parent: sym.File}
	}

	prompt := fmt.Sprintf("Summarize %s %q in %s.\nDocstring: %s", sym.Kind, sym.Name, sym.File, sym.Docstring)
	text, extractive := s.summarizeOne(ctx, prompt, func() string {
		return extractiveSymbolSummary(sym)
	})
	s.remember(id, hash)

	return Summary{ID: id, Level: LevelSymbol, Path: sym.QualifiedName, Text: text, ContentHash: hash, Parent: sym.File, Extractive: extractive}
}

// SummarizeFile produces or reuses the level-2 summary for one file,
// aggregating its symbol summaries (capped at cfg.MaxSymbolsPerFile) and
// hashing the file body rather than the aggregated text, per spec.md §4.6
// step 2.
func (s *Service) SummarizeFile(ctx context.Context, f FileInput, symbolSummaries map[string]Summary) Summary {
	hash := hashText(f.Body)
	id := "file:" + f.Path

	childIDs := make([]string, 0, len(f.Symbols))
	var texts []string
	count := 0
	for _, sym := range f.Symbols {
		childIDs = append(childIDs, "symbol:"+sym.QualifiedName)
		if count >= s.cfg.MaxSymbolsPerFile {
			continue
		}
		if sm, ok := symbolSummaries["symbol:"+sym.QualifiedName]; ok && sm.Text != "" {
			texts = append(texts, sm.Text)
			count++
		}
	}

	if s.shouldSkip(id, hash) {
		return Summary{ID: id, Level: LevelFile, Path: f.Path, ContentHash: hash, Children: childIDs}
	}

	prompt := strings.Join(texts, "\n")
	text, extractive := s.summarizeOne(ctx, prompt, func() string {
		return extractiveFileSummary(f.Path, texts)
	})
	s.remember(id, hash)

	return Summary{ID: id, Level: LevelFile, Path: f.Path, Text: text, ContentHash: hash, Children: childIDs, Extractive: extractive}
}

// SummarizeDirectory produces or reuses the level-3 summary for one
// directory. children must already carry each child's up-to-date
// contentHash (files or deeper directories); callers process directories
// deepest-first so every child's hash is final by the time its parent runs,
// per spec.md §4.6 step 3.
func (s *Service) SummarizeDirectory(ctx context.Context, dirPath string, children []Summary) Summary {
	childIDs := make([]string, 0, len(children))
	childHashes := make([]string, 0, len(children))
	var texts []string
	for _, c := range children {
		childIDs = append(childIDs, c.ID)
		childHashes = append(childHashes, c.ContentHash)
		if c.Text != "" {
			texts = append(texts, c.Text)
		}
	}
	hash := hashText(sortedConcat(childHashes))
	id := "dir:" + dirPath

	if s.shouldSkip(id, hash) {
		return Summary{ID: id, Level: LevelDirectory, Path: dirPath, ContentHash: hash, Children: childIDs, Parent: parentOf(dirPath)}
	}

	prompt := strings.Join(texts, "\n")
	text, extractive := s.summarizeOne(ctx, prompt, func() string {
		names := make([]string, 0, len(children))
		for _, c := range children {
			names = append(names, path.Base(c.Path))
		}
		return extractiveDirectorySummary(dirPath, names)
	})
	s.remember(id, hash)

	return Summary{ID: id, Level: LevelDirectory, Path: dirPath, Text: text, ContentHash: hash, Children: childIDs, Parent: parentOf(dirPath), Extractive: extractive}
}

// SummarizeRepo produces or reuses the optional level-4 synthetic repo
// summary, parenting every top-level directory summary.
func (s *Service) SummarizeRepo(ctx context.Context, repoID string, topLevel []Summary) Summary {
	sorted := append([]Summary{}, topLevel...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	childIDs := make([]string, 0, len(sorted))
	childHashes := make([]string, 0, len(sorted))
	var names []string
	for _, c := range sorted {
		childIDs = append(childIDs, c.ID)
		childHashes = append(childHashes, c.ContentHash)
		names = append(names, c.Path)
	}
	hash := hashText(sortedConcat(childHashes))
	id := "repo:" + repoID

	if s.shouldSkip(id, hash) {
		return Summary{ID: id, Level: LevelRepo, Path: repoID, ContentHash: hash, Children: childIDs}
	}

	var texts []string
	for _, c := range sorted {
		if c.Text != "" {
			texts = append(texts, c.Text)
		}
	}
	prompt := strings.Join(texts, "\n")
	text, extractive := s.summarizeOne(ctx, prompt, func() string {
		return extractiveRepoSummary(repoID, names)
	})
	s.remember(id, hash)

	return Summary{ID: id, Level: LevelRepo, Path: repoID, Text: text, ContentHash: hash, Children: childIDs, Extractive: extractive}
}

// parentOf returns dirPath's enclosing directory, or "" at the root (the
// caller substitutes the synthetic repo node in that case).
func parentOf(dirPath string) string {
	parent := path.Dir(dirPath)
	if parent == "." || parent == dirPath {
		return ""
	}
	return parent
}
