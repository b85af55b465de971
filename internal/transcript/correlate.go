package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

// withdrawalMarker is the single-character grade symbol for a course
// withdrawal ("ع").
const withdrawalMarker = 'ع'

var (
	hijriSemesterRe   = regexp.MustCompile(`هـ\d{4}(?:/\d{4})?\s+الفصل\s+(?:الأول|الثاني|الصيفي)`)
	genericSemesterRe = regexp.MustCompile(`الفصل الأول|الفصل الثاني|الفصل الصيفي`)
)

// correlateWithdrawals runs two independent, additive detection passes over
// the line stream. Their counts are summed without cross-deduplication: the
// same withdrawal may be seen by both passes, and the policy deliberately
// biases toward flagging possible prior withdrawals rather than missing them.
func correlateWithdrawals(lines []string, rec *Record) {
	// Pass 1: a line consisting of exactly the marker is one withdrawal
	// grade (newer layouts print the grade column standalone).
	for _, line := range lines {
		if line == string(withdrawalMarker) {
			rec.WithdrawalCount++
		}
	}

	// Pass 2: older layouts keep the grade inline with the course row. A
	// bounded marker token on a line carrying a digit and an uppercase
	// letter is treated as a withdrawal-bearing course line.
	for _, line := range lines {
		if line == string(withdrawalMarker) {
			continue
		}
		if !hasBoundedMarker(line) {
			continue
		}
		if containsDigit(line) && containsUpperASCII(line) {
			rec.WithdrawalCount++
			rec.WithdrawnCourses = append(rec.WithdrawnCourses, strings.TrimSpace(line))
		}
	}
}

// countSemesters counts distinct Hijri-year-plus-semester tokens across the
// full normalized text. When none match, generic semester mentions serve as a
// lower-confidence fallback.
func countSemesters(fullText string, rec *Record) {
	matches := hijriSemesterRe.FindAllString(fullText, -1)
	distinct := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		distinct[m] = struct{}{}
	}
	rec.SemestersCount = len(distinct)

	if rec.SemestersCount == 0 {
		fallback := genericSemesterRe.FindAllString(fullText, -1)
		seen := make(map[string]struct{}, len(fallback))
		for _, m := range fallback {
			seen[m] = struct{}{}
		}
		rec.SemestersCount = len(seen)
	}
}

// hasBoundedMarker reports whether the marker occurs as a standalone token,
// i.e. not embedded inside a longer word or number.
func hasBoundedMarker(line string) bool {
	runes := []rune(line)
	for i, r := range runes {
		if r != withdrawalMarker {
			continue
		}
		prevOK := i == 0 || !isWordRune(runes[i-1])
		nextOK := i == len(runes)-1 || !isWordRune(runes[i+1])
		if prevOK && nextOK {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func containsUpperASCII(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}
