package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct {
	ext     string
	lang    string
	failErr error
}

func (p *stubParser) Supports(ext string) bool { return ext == p.ext }

func (p *stubParser) Parse(ctx context.Context, path string, content []byte) (*ParsedFile, error) {
	if p.failErr != nil {
		return nil, p.failErr
	}
	return &ParsedFile{Path: path, Language: p.lang}, nil
}

func TestRegistry_ParseFile_DispatchesByExtension(t *testing.T) {
	reg := NewRegistry(NewRegexParser())
	reg.Register(&stubParser{ext: ".go", lang: "go"})
	reg.Register(&stubParser{ext: ".py", lang: "python"})

	pf, err := reg.ParseFile(context.Background(), "main.go", []byte("package main"))
	require.NoError(t, err)
	assert.Equal(t, "go", pf.Language)

	pf, err = reg.ParseFile(context.Background(), "script.py", []byte("def f(): pass"))
	require.NoError(t, err)
	assert.Equal(t, "python", pf.Language)
}

func TestRegistry_ParseFile_LaterRegistrationsWinPriority(t *testing.T) {
	reg := NewRegistry(NewRegexParser())
	reg.Register(&stubParser{ext: ".go", lang: "go-generic"})
	reg.Register(&stubParser{ext: ".go", lang: "go-native"})

	pf, err := reg.ParseFile(context.Background(), "main.go", []byte("package main"))
	require.NoError(t, err)
	assert.Equal(t, "go-native", pf.Language, "the most recently registered parser should be tried first")
}

func TestRegistry_ParseFile_FallsBackOnParserError(t *testing.T) {
	reg := NewRegistry(NewRegexParser())
	reg.Register(&stubParser{ext: ".go", failErr: assertErr})

	pf, err := reg.ParseFile(context.Background(), "main.go", []byte("func main() {}\n"))
	require.NoError(t, err)
	assert.NotNil(t, pf)
}

func TestRegistry_ParseFile_UnsupportedExtensionUsesFallback(t *testing.T) {
	reg := NewRegistry(NewRegexParser())
	reg.Register(&stubParser{ext: ".go", lang: "go"})

	pf, err := reg.ParseFile(context.Background(), "README.md", []byte("# hello"))
	require.NoError(t, err)
	assert.Equal(t, "text", pf.Language)
}

var assertErr = fakeErr("boom")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
