package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoParser_Supports(t *testing.T) {
	p := NewGoParser()
	assert.True(t, p.Supports(".go"))
	assert.False(t, p.Supports(".py"))
}

func TestGoParser_Parse_FunctionsAndMethods(t *testing.T) {
	src := `package widget

import "fmt"

// Widget is a thing.
type Widget struct {
	Name string
}

// Greet prints a greeting.
func Greet(name string) {
	fmt.Println("hello " + name)
}

func (w *Widget) Describe() string {
	return w.Name
}

func privateHelper() int {
	return 1
}
`
	p := NewGoParser()
	pf, err := p.Parse(context.Background(), "widget.go", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "go", pf.Language)
	require.Len(t, pf.Imports, 1)
	assert.Equal(t, "fmt", pf.Imports[0].Path)

	var names []string
	for _, s := range pf.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Widget")
	assert.Contains(t, names, "Greet")
	assert.Contains(t, names, "Describe")
	assert.Contains(t, names, "privateHelper")

	for _, s := range pf.Symbols {
		switch s.Name {
		case "Greet":
			assert.Equal(t, SymbolFunction, s.Kind)
			assert.Equal(t, VisibilityPublic, s.Visibility)
			assert.Equal(t, "Greet prints a greeting.", s.Docstring)
		case "Describe":
			assert.Equal(t, SymbolMethod, s.Kind)
			assert.Equal(t, "widget.go:Widget.Describe", s.QualifiedName)
		case "privateHelper":
			assert.Equal(t, VisibilityPrivate, s.Visibility)
		case "Widget":
			assert.Equal(t, SymbolClass, s.Kind)
		}
	}

	var exportNames []string
	for _, e := range pf.Exports {
		exportNames = append(exportNames, e.Name)
	}
	assert.Contains(t, exportNames, "Greet")
	assert.Contains(t, exportNames, "Widget")
	assert.NotContains(t, exportNames, "privateHelper")
}

func TestGoParser_Parse_ConstsAndVars(t *testing.T) {
	src := `package config

const MaxRetries = 3

var defaultTimeout = 30

const (
	StatusOK = iota
	StatusFailed
)
`
	p := NewGoParser()
	pf, err := p.Parse(context.Background(), "config.go", []byte(src))
	require.NoError(t, err)

	var names []string
	kinds := map[string]SymbolKind{}
	for _, s := range pf.Symbols {
		names = append(names, s.Name)
		kinds[s.Name] = s.Kind
	}
	assert.Contains(t, names, "MaxRetries")
	assert.Contains(t, names, "defaultTimeout")
	assert.Contains(t, names, "StatusOK")
	assert.Equal(t, SymbolConstant, kinds["MaxRetries"])
	assert.Equal(t, SymbolVariable, kinds["defaultTimeout"])
}

func TestGoParser_Parse_Interface(t *testing.T) {
	src := `package store

type Store interface {
	Get(key string) (string, error)
}
`
	p := NewGoParser()
	pf, err := p.Parse(context.Background(), "store.go", []byte(src))
	require.NoError(t, err)

	require.Len(t, pf.Symbols, 1)
	assert.Equal(t, SymbolInterface, pf.Symbols[0].Kind)
}

func TestGoParser_Parse_InvalidSyntaxReturnsError(t *testing.T) {
	p := NewGoParser()
	_, err := p.Parse(context.Background(), "broken.go", []byte("package broken\nfunc ( {"))
	assert.Error(t, err)
}

func TestFuncSignature(t *testing.T) {
	src := `package x

func Plain(a int) {}

type T struct{}

func (t *T) Method(a, b int) string { return "" }
`
	p := NewGoParser()
	pf, err := p.Parse(context.Background(), "x.go", []byte(src))
	require.NoError(t, err)

	sigs := map[string]string{}
	for _, s := range pf.Symbols {
		sigs[s.Name] = s.Signature
	}
	assert.Equal(t, "func Plain(...)", sigs["Plain"])
	assert.Equal(t, "func (T) Method(...)", sigs["Method"])
}
