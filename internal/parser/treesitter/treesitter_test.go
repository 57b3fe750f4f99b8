package treesitter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlvector/cv-git/internal/parser"
)

func TestParser_Supports(t *testing.T) {
	p := New()
	assert.True(t, p.Supports(".go"))
	assert.True(t, p.Supports(".py"))
	assert.True(t, p.Supports(".ts"))
	assert.True(t, p.Supports(".rs"))
	assert.False(t, p.Supports(".java"), "no java grammar is wired")
	assert.False(t, p.Supports(".md"))
}

func TestParser_Parse_Go(t *testing.T) {
	src := `package widget

type Widget struct {
	Name string
}

func Greet(name string) {
	println(name)
}

func (w *Widget) Describe() string {
	return w.Name
}
`
	p := New()
	pf, err := p.Parse(context.Background(), "widget.go", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "go", pf.Language)

	var names []string
	for _, s := range pf.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Widget")
	assert.Contains(t, names, "Greet")
	assert.Contains(t, names, "Describe")
}

func TestParser_Parse_Python(t *testing.T) {
	src := `import os


class Greeter:
    def greet(self, name):
        print(name)


def standalone():
    pass
`
	p := New()
	pf, err := p.Parse(context.Background(), "greet.py", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "python", pf.Language)

	var names []string
	for _, s := range pf.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Greeter")
	assert.Contains(t, names, "greet")
	assert.Contains(t, names, "standalone")

	require.Len(t, pf.Imports, 1)
	assert.Contains(t, pf.Imports[0].Path, "os")
}

func TestParser_Parse_UnsupportedExtensionErrors(t *testing.T) {
	p := New()
	_, err := p.Parse(context.Background(), "README.md", []byte("# hi"))
	assert.Error(t, err)
}

func TestParser_Parse_EmptyFileProducesWholeFileChunk(t *testing.T) {
	p := New()
	pf, err := p.Parse(context.Background(), "empty.go", []byte("package empty\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, pf.Chunks)
}

func TestSetOf(t *testing.T) {
	s := setOf([]string{"a", "b"})
	assert.True(t, s["a"])
	assert.True(t, s["b"])
	assert.False(t, s["c"])
}

var _ parser.Parser = (*Parser)(nil)
