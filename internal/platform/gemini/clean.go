package gemini

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("```sql|```")

// CleanSQL normalizes a model-generated SQL response: markdown fences are
// stripped, a terminating semicolon is ensured, and anything after the first
// statement is dropped.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
	if s == "" {
		return ""
	}
	if !strings.HasSuffix(s, ";") {
		s += ";"
	}
	if i := strings.Index(s, ";"); i < len(s)-1 {
		s = s[:i+1]
	}
	return strings.TrimSpace(s)
}
