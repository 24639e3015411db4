package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var wsRe = regexp.MustCompile(`\s+`)

// Fold prepares s for case- and accent-insensitive matching: marks are
// stripped after NFKD decomposition, runs of whitespace collapse to one
// space and the result is Unicode case folded.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := norm.NFKD.String(s)
	b := make([]rune, 0, len(t))
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b = append(b, r)
	}
	out := wsRe.ReplaceAllString(string(b), " ")
	return cases.Fold().String(out)
}

// ContainsFold reports whether needle occurs in any of haystacks after
// folding. An empty needle matches everything.
func ContainsFold(needle string, haystacks ...string) bool {
	n := Fold(needle)
	if n == "" {
		return true
	}
	for _, h := range haystacks {
		if strings.Contains(Fold(h), n) {
			return true
		}
	}
	return false
}

// TrimMax trims a string to at most max runes.
func TrimMax(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
