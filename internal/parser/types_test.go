package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, "main.go:Run", QualifiedName("main.go", "", "Run"))
	assert.Equal(t, "main.go:Server.Run", QualifiedName("main.go", "Server", "Run"))
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "main.go:42", ChunkID("main.go", 42))
}

func TestVisibilityOf(t *testing.T) {
	tests := []struct {
		name string
		want Visibility
	}{
		{"Exported", VisibilityPublic},
		{"unexported", VisibilityPrivate},
		{"", VisibilityPrivate},
		{"_underscored", VisibilityPrivate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VisibilityOf(tt.name))
		})
	}
}
