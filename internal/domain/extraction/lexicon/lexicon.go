// Package lexicon holds the keyword sets used to recognize transaction lines
// and to decide their polarity. Matching is case-insensitive substring
// matching backed by an Aho-Corasick automaton.
package lexicon

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Set is an immutable keyword set. It is safe for concurrent use.
type Set struct {
	words []string
	// Match keeps a per-call counter inside the automaton, so each goroutine
	// borrows its own matcher.
	matchers sync.Pool
}

// NewSet builds a matcher over the given keywords.
func NewSet(words ...string) *Set {
	upper := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w != "" {
			upper = append(upper, w)
		}
	}
	s := &Set{words: upper}
	s.matchers.New = func() any {
		return ahocorasick.NewStringMatcher(upper)
	}
	return s
}

// Contains reports whether s contains at least one keyword.
func (s *Set) Contains(text string) bool {
	if s == nil || len(s.words) == 0 || text == "" {
		return false
	}
	return len(s.match(text)) > 0
}

func (s *Set) match(text string) []int {
	m := s.matchers.Get().(*ahocorasick.Matcher)
	defer s.matchers.Put(m)
	return m.Match([]byte(strings.ToUpper(text)))
}

// Matches returns each keyword found in text once.
func (s *Set) Matches(text string) []string {
	if s == nil || len(s.words) == 0 || text == "" {
		return nil
	}
	hits := s.match(text)
	if len(hits) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(hits))
	out := make([]string, 0, len(hits))
	for _, idx := range hits {
		if !seen[idx] {
			seen[idx] = true
			out = append(out, s.words[idx])
		}
	}
	return out
}

// Words returns the normalized keywords.
func (s *Set) Words() []string {
	return append([]string(nil), s.words...)
}

// Indicators are tokens that mark a line as a transaction: payment rails,
// deposit and withdrawal keywords, and merchant codes seen on card statements.
var Indicators = NewSet(
	"PRCR", "CRTR", "VAT", "DEPOSIT", "WITHDRAWAL", "TRANSFER", "PAYMENT",
	"PURCHASE", "ATM", "DEBIT", "CREDIT", "CHECK", "CHEQUE",
	"SALARY", "REFUND", "INTEREST", "DIVIDEND",
	"GOOGLE", "WEBFLOW", "MONGO", "ANTHROPIC", "FACEBK",
)

// CreditIndicators mark money coming in. Anything else defaults to a debit.
var CreditIndicators = NewSet(
	"CRTR", "DEPOSIT", "CREDIT", "SALARY", "REFUND", "INTEREST", "DIVIDEND",
)
