package github

import (
	"strings"
	"time"
)

func parseTimeParam(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
