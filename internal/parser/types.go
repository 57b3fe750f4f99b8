// Package parser extracts symbols, imports, exports and chunks from source
// files. A Registry dispatches by file extension to either a tree-sitter
// backed parser or a regex-based fallback; both produce the same ParsedFile
// shape so downstream stages never distinguish between them.
package parser

import (
	"fmt"
	"time"
)

// SymbolKind classifies a SymbolNode.
type SymbolKind string

const (
	SymbolFunction  SymbolKind = "function"
	SymbolMethod    SymbolKind = "method"
	SymbolClass     SymbolKind = "class"
	SymbolInterface SymbolKind = "interface"
	SymbolType      SymbolKind = "type"
	SymbolVariable  SymbolKind = "variable"
	SymbolConstant  SymbolKind = "constant"
)

// Visibility classifies access level.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// Call is one call-expression reachable in a symbol's body.
type Call struct {
	Callee        string `json:"callee"`
	Line          int    `json:"line"`
	IsConditional bool   `json:"isConditional"`
}

// SymbolNode is one function, method, class, interface, type, variable or
// constant extracted from a ParsedFile.
type SymbolNode struct {
	QualifiedName string     `json:"qualifiedName"`
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	File          string     `json:"file"`
	StartLine     int        `json:"startLine"`
	EndLine       int        `json:"endLine"`
	Signature     string     `json:"signature,omitempty"`
	Docstring     string     `json:"docstring,omitempty"`
	ReturnType    string     `json:"returnType,omitempty"`
	Parameters    []string   `json:"parameters,omitempty"`
	Visibility    Visibility `json:"visibility"`
	IsAsync       bool       `json:"isAsync"`
	IsStatic      bool       `json:"isStatic"`
	Complexity    int        `json:"complexity"`
	Calls         []Call     `json:"calls,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// QualifiedName builds the file+":"+dotted-scope identifier used as a
// SymbolNode's unique key within a repo.
func QualifiedName(file, scope, name string) string {
	if scope == "" {
		return fmt.Sprintf("%s:%s", file, name)
	}
	return fmt.Sprintf("%s:%s.%s", file, scope, name)
}

// Import is one import/require/use statement.
type Import struct {
	Path  string `json:"path"`
	Alias string `json:"alias,omitempty"`
	Line  int    `json:"line"`
}

// Export is one symbol a file makes available to importers, where the
// source language has an explicit export concept.
type Export struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// CodeChunk is a retrievable, embeddable slice of a ParsedFile.
type CodeChunk struct {
	ID         string     `json:"id"`
	File       string     `json:"file"`
	StartLine  int        `json:"startLine"`
	EndLine    int        `json:"endLine"`
	Text       string     `json:"text"`
	Language   string     `json:"language"`
	SymbolName string     `json:"symbolName,omitempty"`
	SymbolKind SymbolKind `json:"symbolKind,omitempty"`
}

// ChunkID builds the deterministic "file:startLine" chunk identifier.
func ChunkID(file string, startLine int) string {
	return fmt.Sprintf("%s:%d", file, startLine)
}

// ParsedFile is the complete output of parsing one file. It is produced
// fresh on every sync and never mutated in place; a subsequent sync produces
// a new ParsedFile that supersedes it.
type ParsedFile struct {
	Path     string       `json:"path"`
	Language string       `json:"language"`
	Content  string       `json:"content"`
	Symbols  []SymbolNode `json:"symbols"`
	Imports  []Import     `json:"imports"`
	Exports  []Export     `json:"exports"`
	Chunks   []CodeChunk  `json:"chunks"`
}

// VisibilityOf infers public/private visibility from a name's leading
// casing, the common convention in Go, Rust and several other languages
// this package parses. Every backend uses this rule, including for
// languages with explicit visibility keywords (Java's public/private/
// protected), whose keywords are not read.
func VisibilityOf(name string) Visibility {
	if name == "" {
		return VisibilityPrivate
	}
	r := []rune(name)[0]
	if r >= 'A' && r <= 'Z' {
		return VisibilityPublic
	}
	return VisibilityPrivate
}
