// Package detect turns recognized text lines into the filtered, boxed
// detections drawn over the viewfinder.
package detect

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// MatchMode selects how a candidate string is compared to the query.
type MatchMode int

const (
	// MatchContains accepts candidates containing the query anywhere.
	MatchContains MatchMode = iota
	// MatchExact accepts only full-string matches.
	MatchExact
)

// Granularity selects the unit of matching and boxing.
type Granularity int

const (
	// GranularityLine matches and boxes whole recognized lines.
	GranularityLine Granularity = iota
	// GranularityWord matches individual tokens and reconstructs a
	// tight box per matching token.
	GranularityWord
)

// MatchConfig is the per-evaluation filter configuration. It carries no
// hidden state; callers pass it anew on every evaluation.
type MatchConfig struct {
	Query       string
	Mode        MatchMode
	Granularity Granularity
}

// Matches reports whether candidate satisfies the query under the given
// mode. An empty query matches everything. Both modes compare
// case-insensitively.
func Matches(candidate, query string, mode MatchMode) bool {
	if query == "" {
		return true
	}
	switch mode {
	case MatchExact:
		return strings.EqualFold(candidate, query)
	default:
		return strings.Contains(strings.ToLower(candidate), strings.ToLower(query))
	}
}

// Token is one word of a line together with its rune range.
type Token struct {
	Text       string
	Start, End int // rune offsets into the line, half-open
}

// Tokenize splits a line on Unicode word boundaries (UAX #29) and
// returns the tokens that contain at least one letter or digit, with
// their rune offsets. Punctuation and whitespace segments are skipped.
func Tokenize(line string) []Token {
	var tokens []Token
	state := -1
	rest := line
	off := 0
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		runes := len([]rune(word))
		if hasTextContent(word) {
			tokens = append(tokens, Token{Text: word, Start: off, End: off + runes})
		}
		off += runes
	}
	return tokens
}

func hasTextContent(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
