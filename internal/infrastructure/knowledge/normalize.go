package knowledge

import (
	"regexp"
	"strings"
)

// maxPatternLen bounds the derived error pattern.
const maxPatternLen = 200

// Substitution order matters: addresses before generic numbers, paths before
// the line:col suffix they carry, dates before bare times.
var (
	hexAddrRe = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	pathRe    = regexp.MustCompile(`(?:[A-Za-z]:)?(?:[\\/][\w.+~-]+)+`)
	lineColRe = regexp.MustCompile(`:\d+:\d+`)
	dateRe    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	timeRe    = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	bigNumRe  = regexp.MustCompile(`\d{5,}`)
)

// NormalizeErrorPattern derives a placeholder-substituted form of an error
// message used for fuzzy matching: file paths, line:col references, dates,
// times, hex addresses and long numbers each collapse to a fixed token.
func NormalizeErrorPattern(errorMessage string) string {
	s := strings.TrimSpace(errorMessage)
	if s == "" {
		return ""
	}
	s = hexAddrRe.ReplaceAllString(s, "<ADDR>")
	s = pathRe.ReplaceAllString(s, "<PATH>")
	s = lineColRe.ReplaceAllString(s, ":<LINE>:<COL>")
	s = dateRe.ReplaceAllString(s, "<DATE>")
	s = timeRe.ReplaceAllString(s, "<TIME>")
	s = bigNumRe.ReplaceAllString(s, "<NUM>")
	if len(s) > maxPatternLen {
		s = s[:maxPatternLen]
	}
	return s
}

var keywordStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "not": true, "was": true, "are": true,
	"but": true, "has": true, "had": true, "have": true, "error": true,
	"failed": true, "cannot": true, "could": true, "when": true, "while": true,
}

var tokenRe = regexp.MustCompile(`[a-z0-9_]+`)

// extractKeywords lower-cases the message, removes stop words, keeps tokens
// longer than two characters and returns at most the first ten.
func extractKeywords(message string) []string {
	tokens := tokenRe.FindAllString(strings.ToLower(message), -1)
	var keywords []string
	seen := map[string]bool{}
	for _, tok := range tokens {
		if len(tok) <= 2 || keywordStopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		keywords = append(keywords, tok)
		if len(keywords) == 10 {
			break
		}
	}
	return keywords
}
