package parser

import (
	"context"
	"go/ast"
	gotoken "go/parser"
	"go/token"
	"strings"
	"time"
)

// GoParser extracts symbols from Go source using the standard library's
// go/ast, which is always available and more precise than either the
// tree-sitter grammar or the regex fallback for this one language.
type GoParser struct{}

// NewGoParser constructs a GoParser.
func NewGoParser() *GoParser { return &GoParser{} }

func (p *GoParser) Supports(ext string) bool { return ext == ".go" }

func (p *GoParser) Parse(ctx context.Context, path string, content []byte) (*ParsedFile, error) {
	fset := token.NewFileSet()
	file, err := gotoken.ParseFile(fset, path, content, gotoken.ParseComments)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	now := time.Now()
	pf := &ParsedFile{Path: path, Language: "go", Content: string(content)}

	lineText := func(start, end int) string {
		if start < 1 {
			start = 1
		}
		if end > len(lines) {
			end = len(lines)
		}
		if start > end {
			return ""
		}
		return strings.Join(lines[start-1:end], "\n")
	}

	for _, imp := range file.Imports {
		pos := fset.Position(imp.Pos())
		path := strings.Trim(imp.Path.Value, `"`)
		alias := ""
		if imp.Name != nil {
			alias = imp.Name.Name
		}
		pf.Imports = append(pf.Imports, Import{Path: path, Alias: alias, Line: pos.Line})
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			start := fset.Position(d.Pos())
			end := fset.Position(d.End())
			text := lineText(start.Line, end.Line)

			kind := SymbolFunction
			scope := ""
			if d.Recv != nil && len(d.Recv.List) > 0 {
				kind = SymbolMethod
				scope = receiverTypeName(d.Recv.List[0].Type)
			}

			sym := SymbolNode{
				QualifiedName: QualifiedName(path, scope, d.Name.Name),
				Name:          d.Name.Name,
				Kind:          kind,
				File:          path,
				StartLine:     start.Line,
				EndLine:       end.Line,
				Signature:     funcSignature(d),
				Visibility:    VisibilityOf(d.Name.Name),
				Complexity:    ComputeComplexity(text),
				Calls:         ExtractCalls(text, start.Line),
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if d.Doc != nil {
				sym.Docstring = strings.TrimSpace(d.Doc.Text())
			}
			pf.Symbols = append(pf.Symbols, sym)
			pf.Chunks = append(pf.Chunks, CodeChunk{
				ID: ChunkID(path, start.Line), File: path, StartLine: start.Line,
				EndLine: end.Line, Text: text, Language: "go",
				SymbolName: d.Name.Name, SymbolKind: kind,
			})
			if VisibilityOf(d.Name.Name) == VisibilityPublic {
				pf.Exports = append(pf.Exports, Export{Name: d.Name.Name, Line: start.Line})
			}

		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					start := fset.Position(s.Pos())
					end := fset.Position(s.End())
					text := lineText(start.Line, end.Line)
					kind := SymbolType
					switch s.Type.(type) {
					case *ast.StructType:
						kind = SymbolClass
					case *ast.InterfaceType:
						kind = SymbolInterface
					}
					sym := SymbolNode{
						QualifiedName: QualifiedName(path, "", s.Name.Name),
						Name:          s.Name.Name,
						Kind:          kind,
						File:          path,
						StartLine:     start.Line,
						EndLine:       end.Line,
						Visibility:    VisibilityOf(s.Name.Name),
						Complexity:    ComputeComplexity(text),
						CreatedAt:     now,
						UpdatedAt:     now,
					}
					if d.Doc != nil {
						sym.Docstring = strings.TrimSpace(d.Doc.Text())
					}
					pf.Symbols = append(pf.Symbols, sym)
					pf.Chunks = append(pf.Chunks, CodeChunk{
						ID: ChunkID(path, start.Line), File: path, StartLine: start.Line,
						EndLine: end.Line, Text: text, Language: "go",
						SymbolName: s.Name.Name, SymbolKind: kind,
					})
					if VisibilityOf(s.Name.Name) == VisibilityPublic {
						pf.Exports = append(pf.Exports, Export{Name: s.Name.Name, Line: start.Line})
					}
				case *ast.ValueSpec:
					kind := SymbolVariable
					if d.Tok == token.CONST {
						kind = SymbolConstant
					}
					start := fset.Position(s.Pos())
					end := fset.Position(s.End())
					for _, name := range s.Names {
						if name.Name == "_" {
							continue
						}
						sym := SymbolNode{
							QualifiedName: QualifiedName(path, "", name.Name),
							Name:          name.Name,
							Kind:          kind,
							File:          path,
							StartLine:     start.Line,
							EndLine:       end.Line,
							Visibility:    VisibilityOf(name.Name),
							Complexity:    1,
							CreatedAt:     now,
							UpdatedAt:     now,
						}
						pf.Symbols = append(pf.Symbols, sym)
					}
				}
			}
		}
	}

	if len(pf.Chunks) == 0 {
		pf.Chunks = append(pf.Chunks, CodeChunk{
			ID: ChunkID(path, 1), File: path, StartLine: 1, EndLine: len(lines),
			Text: string(content), Language: "go",
		})
	}

	return pf, nil
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

func funcSignature(d *ast.FuncDecl) string {
	sig := "func "
	if d.Recv != nil && len(d.Recv.List) > 0 {
		sig += "(" + receiverTypeName(d.Recv.List[0].Type) + ") "
	}
	sig += d.Name.Name + "(...)"
	return sig
}
