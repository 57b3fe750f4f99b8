// Package treesitter provides a high-fidelity parser.Parser backend for
// languages with a tree-sitter grammar available in the module graph. It is
// registered ahead of the regex fallback; on any parse error the registry
// falls through to the fallback automatically.
package treesitter

import (
	"context"
	"fmt"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/controlvector/cv-git/internal/parser"
)

// Parser dispatches to one sitter.Parser per language, re-using the
// teacher-pack idiom of holding one *sitter.Parser per grammar rather than
// constructing one per call.
type Parser struct {
	languages map[string]*sitter.Language
	extToLang map[string]string
}

// New constructs a Parser with every grammar this package links wired up.
// Java has no tree-sitter grammar subpackage wired here (none of the example
// repos exercise github.com/smacker/go-tree-sitter/java); .java files fall
// through to the regex parser instead.
func New() *Parser {
	p := &Parser{
		languages: map[string]*sitter.Language{
			"go":         golang.GetLanguage(),
			"javascript": javascript.GetLanguage(),
			"typescript": typescript.GetLanguage(),
			"python":     python.GetLanguage(),
			"rust":       rust.GetLanguage(),
		},
		extToLang: map[string]string{
			".go":  "go",
			".js":  "javascript",
			".jsx": "javascript",
			".mjs": "javascript",
			".ts":  "typescript",
			".tsx": "typescript",
			".py":  "python",
			".rs":  "rust",
		},
	}
	return p
}

func (p *Parser) Supports(ext string) bool {
	_, ok := p.extToLang[ext]
	return ok
}

func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*parser.ParsedFile, error) {
	lang, ok := p.extToLang[strings.ToLower(extOf(path))]
	if !ok {
		return nil, fmt.Errorf("treesitter: unsupported extension for %s", path)
	}

	sp := sitter.NewParser()
	sp.SetLanguage(p.languages[lang])
	tree, err := sp.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("treesitter: parse %s: %w", path, err)
	}
	defer tree.Close()

	now := time.Now()
	pf := &parser.ParsedFile{Path: path, Language: lang, Content: string(content)}
	root := tree.RootNode()

	extractSymbols(root, content, path, lang, pf, now)
	extractImports(root, content, path, lang, pf)

	if len(pf.Chunks) == 0 {
		lines := strings.Split(string(content), "\n")
		pf.Chunks = append(pf.Chunks, parser.CodeChunk{
			ID: parser.ChunkID(path, 1), File: path, StartLine: 1, EndLine: len(lines),
			Text: string(content), Language: lang,
		})
	}

	return pf, nil
}

// funcNodeTypes and classNodeTypes list, per language, the tree-sitter node
// kinds extracted as function-like and class-like symbols. Method-like
// declarations (Go's method_declaration, a function nested inside a class)
// carry a receiver/enclosing-class scope; top-level functions do not.
var funcNodeTypes = map[string][]string{
	"go":         {"function_declaration", "method_declaration"},
	"javascript": {"function_declaration", "method_definition"},
	"typescript": {"function_declaration", "method_definition"},
	"python":     {"function_definition"},
	"rust":       {"function_item"},
}

var classNodeTypes = map[string][]string{
	"go":         {"type_spec"},
	"javascript": {"class_declaration"},
	"typescript": {"class_declaration", "interface_declaration"},
	"python":     {"class_definition"},
	"rust":       {"struct_item", "enum_item", "trait_item"},
}

func extractSymbols(root *sitter.Node, content []byte, path, lang string, pf *parser.ParsedFile, now time.Time) {
	getText := func(n *sitter.Node) string {
		if n == nil {
			return ""
		}
		return n.Content(content)
	}

	funcTypes := setOf(funcNodeTypes[lang])
	classTypes := setOf(classNodeTypes[lang])

	var scopeStack []string

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		nodeType := n.Type()

		switch {
		case classTypes[nodeType]:
			nameNode := n.ChildByFieldName("name")
			name := getText(nameNode)
			if name != "" {
				start := n.StartPoint()
				end := n.EndPoint()
				text := getText(n)
				kind := parser.SymbolClass
				if nodeType == "interface_declaration" || nodeType == "trait_item" {
					kind = parser.SymbolInterface
				}
				sym := parser.SymbolNode{
					QualifiedName: parser.QualifiedName(path, "", name),
					Name:          name,
					Kind:          kind,
					File:          path,
					StartLine:     int(start.Row) + 1,
					EndLine:       int(end.Row) + 1,
					Visibility:    parser.VisibilityOf(name),
					Complexity:    parser.ComputeComplexity(text),
					CreatedAt:     now,
					UpdatedAt:     now,
				}
				pf.Symbols = append(pf.Symbols, sym)
				pf.Chunks = append(pf.Chunks, parser.CodeChunk{
					ID: parser.ChunkID(path, sym.StartLine), File: path,
					StartLine: sym.StartLine, EndLine: sym.EndLine, Text: text,
					Language: lang, SymbolName: name, SymbolKind: kind,
				})
				if sym.Visibility == parser.VisibilityPublic {
					pf.Exports = append(pf.Exports, parser.Export{Name: name, Line: sym.StartLine})
				}
				scopeStack = append(scopeStack, name)
				defer func() { scopeStack = scopeStack[:len(scopeStack)-1] }()
			}

		case funcTypes[nodeType]:
			nameNode := n.ChildByFieldName("name")
			name := getText(nameNode)
			if name != "" {
				start := n.StartPoint()
				end := n.EndPoint()
				text := getText(n)

				scope := ""
				kind := parser.SymbolFunction
				if nodeType == "method_definition" || nodeType == "method_declaration" {
					kind = parser.SymbolMethod
				}
				if recv := n.ChildByFieldName("receiver"); recv != nil {
					scope = strings.TrimSpace(getText(recv))
				} else if len(scopeStack) > 0 {
					scope = scopeStack[len(scopeStack)-1]
					if kind == parser.SymbolFunction {
						kind = parser.SymbolMethod
					}
				}

				sym := parser.SymbolNode{
					QualifiedName: parser.QualifiedName(path, scope, name),
					Name:          name,
					Kind:          kind,
					File:          path,
					StartLine:     int(start.Row) + 1,
					EndLine:       int(end.Row) + 1,
					Visibility:    parser.VisibilityOf(name),
					IsAsync:       strings.Contains(getText(n.Parent()), "async"),
					Complexity:    parser.ComputeComplexity(text),
					Calls:         parser.ExtractCalls(text, int(start.Row)+1),
					CreatedAt:     now,
					UpdatedAt:     now,
				}
				pf.Symbols = append(pf.Symbols, sym)
				pf.Chunks = append(pf.Chunks, parser.CodeChunk{
					ID: parser.ChunkID(path, sym.StartLine), File: path,
					StartLine: sym.StartLine, EndLine: sym.EndLine, Text: text,
					Language: lang, SymbolName: name, SymbolKind: kind,
				})
				if sym.Visibility == parser.VisibilityPublic {
					pf.Exports = append(pf.Exports, parser.Export{Name: name, Line: sym.StartLine})
				}
			}
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}

	walk(root)
}

var importNodeTypes = map[string]string{
	"go":         "import_spec",
	"javascript": "import_statement",
	"typescript": "import_statement",
	"python":     "import_statement",
	"rust":       "use_declaration",
}

func extractImports(root *sitter.Node, content []byte, path, lang string, pf *parser.ParsedFile) {
	target := importNodeTypes[lang]
	if target == "" {
		return
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == target {
			start := n.StartPoint()
			text := strings.TrimSpace(n.Content(content))
			text = strings.Trim(text, `"'`)
			pf.Imports = append(pf.Imports, parser.Import{Path: text, Line: int(start.Row) + 1})
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
}

func setOf(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, i := range items {
		m[i] = true
	}
	return m
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}
