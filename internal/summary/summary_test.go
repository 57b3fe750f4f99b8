package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlvector/cv-git/internal/parser"
)

type stubGenerator struct {
	text string
	err  error
	n    int
}

func (g *stubGenerator) Summarize(ctx context.Context, prompt string) (string, error) {
	g.n++
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func TestSummarizeSymbolExtractiveFallbackUsesFirstSentence(t *testing.T) {
	svc := New(nil, nil, Config{})
	sym := parser.SymbolNode{
		QualifiedName: "main.go:Greet",
		Name:          "Greet",
		Kind:          parser.SymbolFunction,
		File:          "main.go",
		Docstring:     "Greet returns a greeting. It has no side effects.",
	}

	s := svc.SummarizeSymbol(context.Background(), sym)
	assert.True(t, s.Extractive)
	assert.Equal(t, "Greet returns a greeting.", s.Text)
	assert.Equal(t, LevelSymbol, s.Level)
}

func TestSummarizeSymbolExtractiveFallbackWithoutDocstring(t *testing.T) {
	svc := New(nil, nil, Config{})
	sym := parser.SymbolNode{QualifiedName: "main.go:Run", Name: "Run", Kind: parser.SymbolFunction, File: "main.go"}

	s := svc.SummarizeSymbol(context.Background(), sym)
	assert.Contains(t, s.Text, "Run")
	assert.Contains(t, s.Text, "main.go")
}

func TestSummarizeSymbolUsesGeneratorWhenConfigured(t *testing.T) {
	gen := &stubGenerator{text: "an LLM summary"}
	svc := New(gen, nil, Config{})
	sym := parser.SymbolNode{QualifiedName: "main.go:Run", Name: "Run", Kind: parser.SymbolFunction, File: "main.go"}

	s := svc.SummarizeSymbol(context.Background(), sym)
	assert.False(t, s.Extractive)
	assert.Equal(t, "an LLM summary", s.Text)
	assert.Equal(t, 1, gen.n)
}

func TestSummarizeSymbolFallsBackWhenGeneratorErrors(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream down")}
	svc := New(gen, nil, Config{})
	sym := parser.SymbolNode{QualifiedName: "main.go:Run", Name: "Run", Kind: parser.SymbolFunction, File: "main.go"}

	s := svc.SummarizeSymbol(context.Background(), sym)
	assert.True(t, s.Extractive)
}

func TestSummarizeSymbolSkipsOnUnchangedHash(t *testing.T) {
	gen := &stubGenerator{text: "summary v1"}
	svc := New(gen, nil, Config{})
	sym := parser.SymbolNode{QualifiedName: "main.go:Run", Name: "Run", Kind: parser.SymbolFunction, File: "main.go"}

	first := svc.SummarizeSymbol(context.Background(), sym)
	require.Equal(t, 1, gen.n)

	second := svc.SummarizeSymbol(context.Background(), sym)
	assert.Equal(t, 1, gen.n, "unchanged hash must not re-invoke the generator")
	assert.Equal(t, first.ContentHash, second.ContentHash)
}

func TestSummarizeSymbolRegeneratesOnChangedDocstring(t *testing.T) {
	gen := &stubGenerator{text: "summary v1"}
	svc := New(gen, nil, Config{})
	sym := parser.SymbolNode{QualifiedName: "main.go:Run", Name: "Run", Kind: parser.SymbolFunction, File: "main.go", Docstring: "v1"}
	svc.SummarizeSymbol(context.Background(), sym)

	sym.Docstring = "v2"
	gen.text = "summary v2"
	second := svc.SummarizeSymbol(context.Background(), sym)
	assert.Equal(t, 2, gen.n)
	assert.Equal(t, "summary v2", second.Text)
}

func TestSummarizeFileAggregatesSymbolSummariesCappedAtMax(t *testing.T) {
	svc := New(nil, nil, Config{MaxSymbolsPerFile: 1})
	symbols := []parser.SymbolNode{
		{QualifiedName: "a.go:One", Name: "One", Kind: parser.SymbolFunction, File: "a.go"},
		{QualifiedName: "a.go:Two", Name: "Two", Kind: parser.SymbolFunction, File: "a.go"},
	}
	summaries := map[string]Summary{
		"symbol:a.go:One": {Text: "summary of One"},
		"symbol:a.go:Two": {Text: "summary of Two"},
	}

	f := svc.SummarizeFile(context.Background(), FileInput{Path: "a.go", Body: "package a", Symbols: symbols}, summaries)
	assert.Equal(t, LevelFile, f.Level)
	assert.Len(t, f.Children, 2, "children list must include every symbol regardless of the prompt cap")
	assert.Contains(t, f.Text, "summary of One")
	assert.NotContains(t, f.Text, "summary of Two", "prompt aggregation is capped at MaxSymbolsPerFile")
}

func TestSummarizeDirectoryHashIndependentOfChildOrder(t *testing.T) {
	svc := New(nil, nil, Config{})
	a := Summary{ID: "file:a.go", Path: "dir/a.go", ContentHash: "hash-a"}
	b := Summary{ID: "file:b.go", Path: "dir/b.go", ContentHash: "hash-b"}

	d1 := svc.SummarizeDirectory(context.Background(), "dir", []Summary{a, b})
	d2 := svc.SummarizeDirectory(context.Background(), "dir", []Summary{b, a})
	assert.Equal(t, d1.ContentHash, d2.ContentHash)
}

func TestSummarizeDirectoryParent(t *testing.T) {
	svc := New(nil, nil, Config{})
	d := svc.SummarizeDirectory(context.Background(), "internal/sync", []Summary{{ID: "file:a.go", ContentHash: "h"}})
	assert.Equal(t, "internal", d.Parent)

	root := svc.SummarizeDirectory(context.Background(), "internal", []Summary{{ID: "dir:internal/sync", ContentHash: "h"}})
	assert.Equal(t, "", root.Parent)
}

func TestSummarizeRepoAggregatesTopLevelDirectories(t *testing.T) {
	svc := New(nil, nil, Config{})
	dirs := []Summary{
		{ID: "dir:internal", Path: "internal", ContentHash: "h1", Text: "internal dir"},
		{ID: "dir:cmd", Path: "cmd", ContentHash: "h2", Text: "cmd dir"},
	}
	r := svc.SummarizeRepo(context.Background(), "repo1", dirs)
	assert.Equal(t, LevelRepo, r.Level)
	assert.Len(t, r.Children, 2)
	assert.True(t, r.Extractive)
}

func TestForceRegenerateBypassesSkip(t *testing.T) {
	gen := &stubGenerator{text: "v1"}
	svc := New(gen, nil, Config{ForceRegenerate: true})
	sym := parser.SymbolNode{QualifiedName: "main.go:Run", Name: "Run", Kind: parser.SymbolFunction, File: "main.go"}

	svc.SummarizeSymbol(context.Background(), sym)
	svc.SummarizeSymbol(context.Background(), sym)
	assert.Equal(t, 2, gen.n)
}
