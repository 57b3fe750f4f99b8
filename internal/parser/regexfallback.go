package parser

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// languageRules describes how RegexParser recognizes symbol boundaries for
// one language family. It mirrors the per-language regex detection the
// teacher's code chunker used, but emits SymbolNode/CodeChunk pairs instead
// of bare text chunks.
type languageRules struct {
	language  string
	extension map[string]bool
	funcRe    *regexp.Regexp
	classRe   *regexp.Regexp
}

var ruleSets = []languageRules{
	{
		language:  "python",
		extension: map[string]bool{".py": true},
		funcRe:    regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(`),
		classRe:   regexp.MustCompile(`^\s*class\s+(\w+)`),
	},
	{
		language:  "javascript",
		extension: map[string]bool{".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".mjs": true},
		funcRe:    regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\(|^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s*)?(?:\([^)]*\)|\w+)\s*=>`),
		classRe:   regexp.MustCompile(`^\s*(?:export\s+)?class\s+(\w+)`),
	},
	{
		language:  "java",
		extension: map[string]bool{".java": true},
		funcRe:    regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(?:static\s+)?(?:final\s+)?[\w<>\[\],\s]+?\s+(\w+)\s*\([^;{]*\)\s*\{?\s*$`),
		classRe:   regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(?:abstract\s+)?(?:final\s+)?class\s+(\w+)|^\s*(?:public\s+)?interface\s+(\w+)`),
	},
	{
		language:  "c",
		extension: map[string]bool{".c": true, ".cpp": true, ".cc": true, ".cxx": true, ".c++": true, ".h": true, ".hpp": true},
		funcRe:    regexp.MustCompile(`^\s*[\w:<>\*&,\s]+?\s+\**(\w+)\s*\([^;]*\)\s*\{?\s*$`),
		classRe:   regexp.MustCompile(`^\s*(?:class|struct)\s+(\w+)`),
	},
	{
		language:  "rust",
		extension: map[string]bool{".rs": true},
		funcRe:    regexp.MustCompile(`^\s*(?:pub\s+)?(?:async\s+)?fn\s+(\w+)`),
		classRe:   regexp.MustCompile(`^\s*(?:pub\s+)?(?:struct|enum|trait)\s+(\w+)`),
	},
}

// RegexParser is the catch-all Parser used when no higher-fidelity parser
// claims a file, or when one claims it but fails. It approximates symbol
// boundaries with line-oriented regexes and brace-balance tracking,
// matching the "lower quality but same shape" fallback contract.
type RegexParser struct{}

// NewRegexParser constructs a RegexParser.
func NewRegexParser() *RegexParser { return &RegexParser{} }

// Supports always returns true: it is registered last and accepts anything.
func (p *RegexParser) Supports(ext string) bool { return true }

func (p *RegexParser) Parse(ctx context.Context, path string, content []byte) (*ParsedFile, error) {
	text := string(content)
	lines := strings.Split(text, "\n")
	now := time.Now()

	rules := rulesFor(path)
	pf := &ParsedFile{Path: path, Language: rules.language, Content: text}

	type open struct {
		kind      SymbolKind
		name      string
		startLine int
		braces    int
	}
	var current *open

	flush := func(endLine int) {
		if current == nil {
			return
		}
		// approximate end-line by brace/paren matching within the first 100
		// lines of the match, per the fallback contract.
		maxLine := current.startLine + 100
		if endLine > maxLine {
			endLine = maxLine
		}
		if endLine > len(lines) {
			endLine = len(lines)
		}
		if endLine < current.startLine {
			endLine = current.startLine
		}
		symText := strings.Join(lines[current.startLine-1:endLine], "\n")

		sym := SymbolNode{
			QualifiedName: QualifiedName(path, "", current.name),
			Name:          current.name,
			Kind:          current.kind,
			File:          path,
			StartLine:     current.startLine,
			EndLine:       endLine,
			Visibility:    VisibilityOf(current.name),
			Complexity:    ComputeComplexity(symText),
			Calls:         ExtractCalls(symText, current.startLine),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		pf.Symbols = append(pf.Symbols, sym)
		pf.Chunks = append(pf.Chunks, CodeChunk{
			ID: ChunkID(path, current.startLine), File: path,
			StartLine: current.startLine, EndLine: endLine, Text: symText,
			Language: rules.language, SymbolName: current.name, SymbolKind: current.kind,
		})
		current = nil
	}

	for i, line := range lines {
		lineNum := i + 1

		if current != nil {
			current.braces += strings.Count(line, "{") - strings.Count(line, "}")
		}

		if m := firstMatch(rules.funcRe, line); m != "" {
			if current != nil && current.braces <= 0 {
				flush(lineNum - 1)
			}
			current = &open{kind: SymbolFunction, name: m, startLine: lineNum, braces: strings.Count(line, "{") - strings.Count(line, "}")}
			continue
		}
		if rules.classRe != nil {
			if m := firstMatch(rules.classRe, line); m != "" {
				if current != nil && current.braces <= 0 {
					flush(lineNum - 1)
				}
				current = &open{kind: SymbolClass, name: m, startLine: lineNum, braces: strings.Count(line, "{") - strings.Count(line, "}")}
				continue
			}
		}

		if current != nil && current.braces <= 0 && strings.TrimSpace(line) != "" {
			flush(lineNum)
		}
	}
	if current != nil {
		flush(len(lines))
	}

	if len(pf.Symbols) == 0 {
		pf.Chunks = append(pf.Chunks, CodeChunk{
			ID: ChunkID(path, 1), File: path, StartLine: 1, EndLine: len(lines),
			Text: text, Language: rules.language,
		})
	}

	return pf, nil
}

func firstMatch(re *regexp.Regexp, line string) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	for _, group := range m[1:] {
		if group != "" {
			return group
		}
	}
	return ""
}

func rulesFor(path string) languageRules {
	ext := strings.ToLower(extOf(path))
	for _, rs := range ruleSets {
		if rs.extension[ext] {
			return rs
		}
	}
	return languageRules{language: "text", extension: map[string]bool{}}
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}
