package summary

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/controlvector/cv-git/internal/parser"
)

// firstSentence matches the first sentence-terminated run of a docstring,
// the same "one precompiled pattern per concern" shape as
// internal/enrichment/story_extractor.go's issue/PR/branch extractors.
var firstSentence = regexp.MustCompile(`(?s)^(.*?[.!?])(\s|$)`)

// extractiveSymbolSummary produces a one-line summary from a symbol's
// docstring when present, or a name-and-file template otherwise, per
// spec.md §4.6 step 1's extractive fallback.
func extractiveSymbolSummary(sym parser.SymbolNode) string {
	if sym.Docstring != "" {
		doc := strings.TrimSpace(sym.Docstring)
		if m := firstSentence.FindStringSubmatch(doc); m != nil {
			return strings.TrimSpace(m[1])
		}
		return doc
	}
	return fmt.Sprintf("%s %s defined in %s", sym.Kind, sym.Name, sym.File)
}

// extractiveFileSummary aggregates a file's symbol summaries into a short
// extractive paragraph when no LLM generator is configured.
func extractiveFileSummary(path string, symbolSummaries []string) string {
	if len(symbolSummaries) == 0 {
		return fmt.Sprintf("%s defines no indexed symbols", path)
	}
	return fmt.Sprintf("%s: %s", path, strings.Join(symbolSummaries, "; "))
}

// extractiveDirectorySummary aggregates child summaries (files and
// subdirectories) into a short extractive paragraph.
func extractiveDirectorySummary(path string, childPaths []string) string {
	if len(childPaths) == 0 {
		return fmt.Sprintf("%s is empty", path)
	}
	return fmt.Sprintf("%s contains %d entries: %s", path, len(childPaths), strings.Join(childPaths, ", "))
}

// extractiveRepoSummary aggregates top-level directory summaries into the
// synthetic repo-level node.
func extractiveRepoSummary(repoID string, topLevel []string) string {
	if len(topLevel) == 0 {
		return fmt.Sprintf("%s has no synced content", repoID)
	}
	return fmt.Sprintf("%s: %s", repoID, strings.Join(topLevel, ", "))
}
