// Package markdown parses README/design-doc markdown into the same
// ParsedDocument/DocumentChunk shape the graph and vector stores expect,
// walking the goldmark AST for headings and links rather than rendering to
// HTML.
package markdown

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// DocumentType is inferred from a document's path and frontmatter.
type DocumentType string

const (
	DocumentTypeReadme   DocumentType = "readme"
	DocumentTypeADR      DocumentType = "adr"
	DocumentTypeRunbook  DocumentType = "runbook"
	DocumentTypeDesign   DocumentType = "design"
	DocumentTypeGeneric  DocumentType = "generic"
)

// Heading is one markdown heading with its nesting level.
type Heading struct {
	Level int
	Text  string
	Line  int
}

// Link is one markdown link, used to build REFERENCES_DOC edges between
// documents that link to each other by relative path.
type Link struct {
	Text string
	URL  string
	Line int
}

// DocumentChunk mirrors parser.CodeChunk for a markdown section bounded by
// one heading.
type DocumentChunk struct {
	ID           string
	File         string
	StartLine    int
	EndLine      int
	Text         string
	DocumentType DocumentType
	Tags         []string
}

// ParsedDocument is the complete output of parsing one markdown file.
type ParsedDocument struct {
	Path         string
	DocumentType DocumentType
	Frontmatter  map[string]string
	Headings     []Heading
	Links        []Link
	Chunks       []DocumentChunk
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Parser parses markdown documents.
type Parser struct{}

// New constructs a markdown Parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Supports(ext string) bool {
	switch strings.ToLower(ext) {
	case ".md", ".markdown", ".mdx":
		return true
	default:
		return false
	}
}

// Parse extracts frontmatter, headings, links and section chunks from a
// markdown file's bytes.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*ParsedDocument, error) {
	frontmatter, body, frontmatterLines := extractFrontmatter(content)

	reader := text.NewReader(body)
	root := md.Parser().Parse(reader)

	doc := &ParsedDocument{
		Path:         path,
		Frontmatter:  frontmatter,
		DocumentType: inferDocumentType(path, frontmatter),
	}

	lines := strings.Split(string(body), "\n")

	var sectionStart int = 1

	flushSection := func(endLine int) {
		if endLine < sectionStart {
			return
		}
		text := strings.Join(lines[clampIdx(sectionStart-1, len(lines)):clampIdx(endLine, len(lines))], "\n")
		if strings.TrimSpace(text) == "" {
			return
		}
		doc.Chunks = append(doc.Chunks, DocumentChunk{
			ID:           fmt.Sprintf("%s:%d", path, sectionStart),
			File:         path,
			StartLine:    sectionStart + frontmatterLines,
			EndLine:      endLine + frontmatterLines,
			Text:         text,
			DocumentType: doc.DocumentType,
		})
	}

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			line := lineOf(node, body)
			flushSection(line - 1)
			sectionStart = line
			headingText := extractText(node, body)
			doc.Headings = append(doc.Headings, Heading{
				Level: node.Level, Text: headingText, Line: line + frontmatterLines,
			})

		case *ast.Link:
			line := lineOf(node, body)
			doc.Links = append(doc.Links, Link{
				Text: extractText(node, body),
				URL:  string(node.Destination),
				Line: line + frontmatterLines,
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("markdown: walk %s: %w", path, err)
	}

	flushSection(len(lines))

	if len(doc.Chunks) == 0 {
		doc.Chunks = append(doc.Chunks, DocumentChunk{
			ID: fmt.Sprintf("%s:1", path), File: path, StartLine: 1,
			EndLine: len(lines) + frontmatterLines, Text: string(body),
			DocumentType: doc.DocumentType,
		})
	}

	return doc, nil
}

// inferDocumentType cascades path- and frontmatter-based heuristics:
// explicit frontmatter "type" wins, then filename conventions, then a
// generic fallback.
func inferDocumentType(path string, frontmatter map[string]string) DocumentType {
	if t, ok := frontmatter["type"]; ok {
		switch strings.ToLower(t) {
		case "adr":
			return DocumentTypeADR
		case "runbook":
			return DocumentTypeRunbook
		case "design":
			return DocumentTypeDesign
		case "readme":
			return DocumentTypeReadme
		}
	}

	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "readme"):
		return DocumentTypeReadme
	case strings.Contains(lower, "adr") || strings.Contains(lower, "decision"):
		return DocumentTypeADR
	case strings.Contains(lower, "runbook") || strings.Contains(lower, "oncall"):
		return DocumentTypeRunbook
	case strings.Contains(lower, "design"):
		return DocumentTypeDesign
	default:
		return DocumentTypeGeneric
	}
}

// extractFrontmatter scans a minimal "---\nkey: value\n---" YAML
// frontmatter block at the top of the file. It intentionally does not pull
// in a full YAML parser: the subset of scalar key/value pairs documents use
// in frontmatter does not need one.
func extractFrontmatter(content []byte) (map[string]string, []byte, int) {
	fm := map[string]string{}
	lines := strings.Split(string(content), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return fm, content, 0
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return fm, content, 0
	}

	for _, line := range lines[1:end] {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if key != "" {
			fm[key] = val
		}
	}

	body := strings.Join(lines[end+1:], "\n")
	return fm, []byte(body), end + 1
}

func lineOf(n ast.Node, source []byte) int {
	lines := n.Lines()
	if lines.Len() == 0 {
		return 1
	}
	segment := lines.At(0)
	return strings.Count(string(source[:segment.Start]), "\n") + 1
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		} else {
			sb.WriteString(extractText(c, source))
		}
	}
	return sb.String()
}

func clampIdx(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
