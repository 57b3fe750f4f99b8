package cverrors

import (
	"io"
	"regexp"
)

// sanitizePatterns match credential-bearing substrings that must never reach
// a log. For a pattern with a capture group, the captured prefix (e.g.
// "token=") is kept and the secret value after it is replaced with "***";
// patterns with no capture group are matched and replaced wholesale.
var sanitizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._\-]+`),
	regexp.MustCompile(`(?i)(token\s*=\s*)\S+`),
	regexp.MustCompile(`(?i)(password\s*=\s*)\S+`),
	regexp.MustCompile(`(?i)(api[_-]?key\s*=\s*)\S+`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{10,}`),
	regexp.MustCompile(`ghp_[A-Za-z0-9]{10,}`),
	regexp.MustCompile(`glpat-[A-Za-z0-9_\-]{10,}`),
}

// Sanitize redacts known credential patterns from a log line before it is
// written anywhere durable.
func Sanitize(line string) string {
	out := line
	for _, re := range sanitizePatterns {
		if re.NumSubexp() > 0 {
			out = re.ReplaceAllString(out, "${1}***")
		} else {
			out = re.ReplaceAllString(out, "***")
		}
	}
	return out
}

// SanitizingWriter wraps an io.Writer, redacting credential patterns from
// every write before it reaches the underlying destination (observability's
// NewLogger wraps its output in one). No error.log file is written by this
// package or its callers.
type SanitizingWriter struct {
	W io.Writer
}

func NewSanitizingWriter(w io.Writer) *SanitizingWriter {
	return &SanitizingWriter{W: w}
}

func (s *SanitizingWriter) Write(p []byte) (int, error) {
	sanitized := Sanitize(string(p))
	if _, err := s.W.Write([]byte(sanitized)); err != nil {
		return 0, err
	}
	return len(p), nil
}
