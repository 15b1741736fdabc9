package discovery

import (
	"fmt"
	"strings"
	"unicode"
)

// MatchStrategy decides whether a keyword occurs in a piece of text.
type MatchStrategy interface {
	Match(text, keyword string) bool
}

// Substring matches raw case-insensitive containment, so "career" matches
// "/careers-portal" and "job" matches "/jobsearch".
type Substring struct{}

// Match implements MatchStrategy.
func (Substring) Match(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}

// Token requires the keyword's words to appear as consecutive whole tokens,
// where tokens are runs of letters and digits.
type Token struct{}

// Match implements MatchStrategy.
func (Token) Match(text, keyword string) bool {
	want := tokenize(keyword)
	if len(want) == 0 {
		return false
	}
	have := tokenize(text)
	for i := 0; i+len(want) <= len(have); i++ {
		matched := true
		for j := range want {
			if have[i+j] != want[j] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// StrategyByName maps a config value to a MatchStrategy.
func StrategyByName(name string) (MatchStrategy, error) {
	switch strings.ToLower(name) {
	case "", "substring":
		return Substring{}, nil
	case "token":
		return Token{}, nil
	default:
		return nil, fmt.Errorf("unknown match strategy %q", name)
	}
}
