// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entities pulls emails, proper nouns, and frequency-ranked keyword
// candidates out of raw scraped text. Everything here is a pure function of
// its input; empty or non-text input yields empty containers, never errors.
package entities

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/clout-engine/pkg/types"
)

// emailPattern matches local-part@domain addresses. Partial or malformed
// matches are simply not matched; they are not an error condition.
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// minKeywordLen filters out short function words before stop-word checks.
const minKeywordLen = 4

// stopWords are common words excluded from proper-noun and keyword
// candidates. Checked against the lowercased token.
var stopWords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "also": true,
	"and": true, "any": true, "are": true, "because": true, "been": true,
	"before": true, "being": true, "between": true, "both": true, "but": true,
	"can": true, "could": true, "did": true, "does": true, "doing": true,
	"during": true, "each": true, "for": true, "from": true, "had": true,
	"has": true, "have": true, "having": true, "here": true, "how": true,
	"if": true, "in": true, "into": true, "is": true, "it": true, "its": true,
	"just": true, "like": true, "more": true, "most": true, "much": true,
	"not": true, "now": true, "of": true, "on": true, "once": true,
	"only": true, "or": true, "other": true, "our": true, "over": true,
	"should": true, "so": true, "some": true, "such": true, "than": true,
	"that": true, "the": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "those": true,
	"through": true, "to": true, "under": true, "very": true, "was": true,
	"we": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "who": true, "why": true, "will": true,
	"with": true, "would": true, "you": true, "your": true,
}

// Extract runs all three analyses over text.
func Extract(text string) types.Entities {
	return types.Entities{
		Emails:      Emails(text),
		ProperNouns: ProperNouns(text),
		Keywords:    Keywords(text),
	}
}

// Emails returns the deduplicated, sorted set of email addresses in text.
func Emails(text string) []string {
	seen := make(map[string]bool)
	for _, m := range emailPattern.FindAllString(text, -1) {
		seen[m] = true
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// ProperNouns returns the deduplicated, sorted set of capitalized-name
// candidates in text. A token qualifies when it is capitalized, longer than
// one rune, not a stop word, and not sentence-initial; consecutive
// qualifying tokens merge into multi-word names. Capitalized common words
// slipping through is an accepted trade-off of the heuristic.
func ProperNouns(text string) []string {
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		tokens := strings.Fields(line)
		sentenceStart := true
		var run []string

		flush := func() {
			if len(run) > 0 {
				seen[strings.Join(run, " ")] = true
				run = nil
			}
		}

		for _, tok := range tokens {
			word, terminal := splitToken(tok)
			if isNameToken(word) && !sentenceStart {
				run = append(run, word)
			} else {
				flush()
			}
			if terminal {
				flush()
			}
			sentenceStart = terminal
		}
		flush()
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Keywords returns candidate terms ranked by raw frequency, ties broken by
// first occurrence so repeated runs over identical input agree exactly.
func Keywords(text string) []types.Keyword {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	pos := 0
	for _, tok := range strings.Fields(text) {
		word := strings.ToLower(strings.TrimFunc(tok, isTokenEdge))
		if len([]rune(word)) < minKeywordLen || stopWords[word] || !hasLetter(word) {
			continue
		}
		if _, ok := counts[word]; !ok {
			firstSeen[word] = pos
		}
		counts[word]++
		pos++
	}

	out := make([]types.Keyword, 0, len(counts))
	for term, count := range counts {
		out = append(out, types.Keyword{Term: term, Count: count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return firstSeen[out[i].Term] < firstSeen[out[j].Term]
	})
	return out
}

// splitToken strips punctuation from a whitespace-delimited token and
// reports whether the token ended a sentence.
func splitToken(tok string) (word string, terminal bool) {
	trimmed := strings.TrimRightFunc(tok, isTokenEdge)
	for _, r := range tok[len(trimmed):] {
		if r == '.' || r == '!' || r == '?' || r == ':' {
			terminal = true
			break
		}
	}
	return strings.TrimLeftFunc(trimmed, isTokenEdge), terminal
}

// isNameToken reports whether word looks like part of a proper noun.
func isNameToken(word string) bool {
	runes := []rune(word)
	if len(runes) < 2 {
		return false
	}
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return !stopWords[strings.ToLower(word)]
}

func isTokenEdge(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
