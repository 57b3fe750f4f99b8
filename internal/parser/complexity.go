package parser

import (
	"regexp"
	"strings"
)

var (
	branchKeywordRe  = regexp.MustCompile(`\b(if|else\s+if|for|while|case|catch)\b`)
	shortCircuitRe   = regexp.MustCompile(`&&|\|\|`)
	ternaryRe        = regexp.MustCompile(`\?[^:?\n]*:`)
	callExpressionRe = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	conditionalLineRe = regexp.MustCompile(`\b(if|else)\b|\?[^:?\n]*:`)
)

var reservedCallNames = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"func": true, "function": true, "def": true, "return": true, "fn": true,
}

// ComputeComplexity implements the spec's cyclomatic-ish complexity: one plus
// the count of branching tokens among if/else-if/for/while/case/catch,
// ternary (?:), and short-circuit (&&, ||) operators found in the symbol's
// source text. It is defined over raw text rather than an AST so both the
// tree-sitter backend and the regex fallback compute an identical value for
// identical source bytes.
func ComputeComplexity(text string) int {
	complexity := 1
	complexity += len(branchKeywordRe.FindAllString(text, -1))
	complexity += len(ternaryRe.FindAllString(text, -1))
	complexity += len(shortCircuitRe.FindAllString(text, -1))
	return complexity
}

// ExtractCalls scans a symbol's source text for call-expression-like
// patterns, line by line. isConditional holds for calls found on a line
// where an enclosing if/else/ternary construct has opened but its braces
// have not yet closed; this is a lexical approximation, adequate for both
// backends per the fallback contract in spec.md.
func ExtractCalls(text string, startLine int) []Call {
	var calls []Call
	lines := strings.Split(text, "\n")
	braceDepthAtConditionalOpen := -1
	depth := 0
	for i, line := range lines {
		lineNum := startLine + i
		depth += strings.Count(line, "{") - strings.Count(line, "}")

		if conditionalLineRe.MatchString(line) && braceDepthAtConditionalOpen < 0 {
			braceDepthAtConditionalOpen = depth
		}
		inConditional := braceDepthAtConditionalOpen >= 0

		for _, m := range callExpressionRe.FindAllStringSubmatch(line, -1) {
			name := m[1]
			if reservedCallNames[name] {
				continue
			}
			calls = append(calls, Call{Callee: name, Line: lineNum, IsConditional: inConditional})
		}

		if braceDepthAtConditionalOpen >= 0 && depth < braceDepthAtConditionalOpen {
			braceDepthAtConditionalOpen = -1
		}
	}
	return calls
}
