// Package retrieval ranks knowledge units against a question and builds the
// bounded context bundle that grounds every answer.
package retrieval

import (
	"regexp"
	"strings"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s\-_/.:]`)
	spaces     = regexp.MustCompile(`\s+`)
)

const tokenTrim = "-_/.:"

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "to": {}, "of": {}, "in": {}, "on": {},
	"for": {}, "is": {}, "are": {}, "was": {}, "were": {}, "what": {}, "how": {}, "why": {},
	"which": {}, "that": {}, "this": {}, "these": {}, "those": {}, "with": {}, "from": {},
	"does": {}, "do": {}, "did": {}, "it": {}, "its": {}, "me": {}, "you": {}, "your": {},
	"can": {}, "tell": {}, "about": {}, "be": {}, "i": {},
}

// Normalize lowercases s, strips everything outside [a-z0-9\s\-_/.:] and
// collapses whitespace.
func Normalize(s string) string {
	s = disallowed.ReplaceAllString(strings.ToLower(s), "")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// Tokenize returns the distinct query terms of s in order of first appearance.
func Tokenize(s string) []string {
	fields := strings.Fields(Normalize(s))
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, tokenTrim)
		if f == "" {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Score awards 3 per token found as a whole word of text and 1 per token found
// only inside a longer word. Words are also compared with the tokenTrim
// characters stripped from their ends, so "lane." and "lane:" count as the
// whole word "lane" even though they are not space-bounded.
func Score(tokens []string, text string) int {
	norm := Normalize(text)
	if norm == "" {
		return 0
	}
	words := make(map[string]struct{})
	for _, w := range strings.Fields(norm) {
		words[w] = struct{}{}
		words[strings.Trim(w, tokenTrim)] = struct{}{}
	}
	total := 0
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, ok := words[tok]; ok {
			total += 3
			continue
		}
		if strings.Contains(norm, tok) {
			total++
		}
	}
	return total
}
