package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Supports(t *testing.T) {
	p := New()
	assert.True(t, p.Supports(".md"))
	assert.True(t, p.Supports(".MD"))
	assert.True(t, p.Supports(".markdown"))
	assert.True(t, p.Supports(".mdx"))
	assert.False(t, p.Supports(".txt"))
}

func TestParser_Parse_HeadingsAndLinks(t *testing.T) {
	src := `# Title

See [the docs](./docs.md) for more.

## Section One

Some content here.

## Section Two

More content, linking to [another repo](https://example.com/other).
`
	p := New()
	doc, err := p.Parse(context.Background(), "README.md", []byte(src))
	require.NoError(t, err)

	require.Len(t, doc.Headings, 3)
	assert.Equal(t, "Title", doc.Headings[0].Text)
	assert.Equal(t, 1, doc.Headings[0].Level)
	assert.Equal(t, "Section One", doc.Headings[1].Text)
	assert.Equal(t, 2, doc.Headings[1].Level)

	require.Len(t, doc.Links, 2)
	assert.Equal(t, "./docs.md", doc.Links[0].URL)
	assert.Equal(t, "https://example.com/other", doc.Links[1].URL)

	assert.Equal(t, DocumentTypeReadme, doc.DocumentType)
	assert.NotEmpty(t, doc.Chunks)
}

func TestParser_Parse_Frontmatter(t *testing.T) {
	src := `---
type: adr
status: accepted
---

# Decision

We decided to do it.
`
	p := New()
	doc, err := p.Parse(context.Background(), "docs/0001-decision.md", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "adr", doc.Frontmatter["type"])
	assert.Equal(t, "accepted", doc.Frontmatter["status"])
	assert.Equal(t, DocumentTypeADR, doc.DocumentType)

	require.Len(t, doc.Headings, 1)
	assert.Equal(t, "Decision", doc.Headings[0].Text)
}

func TestInferDocumentType_PathHeuristics(t *testing.T) {
	tests := []struct {
		path string
		want DocumentType
	}{
		{"README.md", DocumentTypeReadme},
		{"docs/ADR-0012.md", DocumentTypeADR},
		{"docs/decisions/0003.md", DocumentTypeADR},
		{"runbooks/oncall-rotation.md", DocumentTypeRunbook},
		{"design/architecture.md", DocumentTypeDesign},
		{"CONTRIBUTING.md", DocumentTypeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, inferDocumentType(tt.path, nil))
		})
	}
}

func TestParser_Parse_NoFrontmatterNoHeadings(t *testing.T) {
	src := "Just a plain paragraph of text with no structure.\n"
	p := New()
	doc, err := p.Parse(context.Background(), "notes.md", []byte(src))
	require.NoError(t, err)

	assert.Empty(t, doc.Headings)
	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, src, doc.Chunks[0].Text)
}
