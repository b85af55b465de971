package transcript

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies Unicode compatibility composition (NFKC) so that Arabic
// Presentation Forms (U+FE70..U+FEFF) and other compatibility variants
// collapse to their canonical codepoints. Transcripts render several Arabic
// letters in presentation-form blocks that otherwise defeat substring
// matching against the policy keywords.
func Normalize(raw string) string {
	return norm.NFKC.String(raw)
}

// Lines normalizes the raw text and splits it into trimmed, non-empty lines.
// Blank lines are discarded; line order is preserved and significant, since
// several extraction rules look at the line following a label line.
func Lines(raw string) []string {
	normalized := Normalize(raw)
	split := strings.Split(normalized, "\n")
	lines := make([]string, 0, len(split))
	for _, line := range split {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}
