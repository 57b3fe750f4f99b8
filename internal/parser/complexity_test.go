package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeComplexity(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "straight-line code",
			text: "x := 1\ny := 2\n",
			want: 1,
		},
		{
			name: "single if",
			text: "if x > 0 {\n  return x\n}\n",
			want: 2,
		},
		{
			name: "if/else-if/for",
			text: "if a {\n} else if b {\n}\nfor i := 0; i < 10; i++ {\n}\n",
			want: 4,
		},
		{
			name: "short-circuit operators",
			text: "if a && b || c {\n}\n",
			want: 4,
		},
		{
			name: "ternary",
			text: "x := a ? 1 : 2\n",
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeComplexity(tt.text))
		})
	}
}

func TestExtractCalls(t *testing.T) {
	text := `func run() {
  setup()
  if ready {
    process(data)
  }
  teardown()
}
`
	calls := ExtractCalls(text, 10)
	seen := map[string]bool{"setup": false, "process": false, "teardown": false}
	for _, c := range calls {
		if _, ok := seen[c.Callee]; ok {
			seen[c.Callee] = true
		}
	}
	for name, found := range seen {
		assert.True(t, found, "expected call to %s", name)
	}

	for _, c := range calls {
		if c.Callee == "process" {
			assert.True(t, c.IsConditional, "process is called inside an if block")
		}
		if c.Callee == "setup" || c.Callee == "teardown" {
			assert.False(t, c.IsConditional)
		}
	}
}

func TestExtractCalls_IgnoresReservedKeywords(t *testing.T) {
	text := "if cond {\n  for i := 0; i < 10; i++ {\n  }\n}\n"
	calls := ExtractCalls(text, 1)
	for _, c := range calls {
		assert.NotContains(t, []string{"if", "for"}, c.Callee)
	}
}
