// Package heuristic recovers transactions from reconstructed statement text
// with an ordered list of regex tiers, strict first.
package heuristic

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/lexicon"
)

// Rejection explains why the classifier refused a line. The empty value
// means the line was accepted.
type Rejection string

const (
	Accepted          Rejection = ""
	RejectLength      Rejection = "length"
	RejectNoDate      Rejection = "no_leading_date"
	RejectAmounts     Rejection = "too_few_amounts"
	RejectMultiDate   Rejection = "multiple_dates"
	RejectBoilerplate Rejection = "boilerplate"
	RejectIndicator   Rejection = "no_indicator"
)

const (
	minCandidateLength = 25
	maxCandidateLength = 150
)

var rejectionPatterns = []*regexp.Regexp{
	// column headers
	regexp.MustCompile(`(?i)^\s*(DATE|PARTICULARS|DESCRIPTION|CHQ|BALANCE|STATEMENT|ACCOUNT|SUMMARY|AMOUNT|WITHDRAWAL|DEPOSIT)\b`),
	regexp.MustCompile(`(?i)\bDATE\s+PARTICULARS\b|\bDEBIT\s+CREDIT\s+BALANCE\b|\bWITHDRAWAL\s+DEPOSIT\b`),
	// institution boilerplate
	regexp.MustCompile(`(?i)\bBANK\s+(PLC|LIMITED|LTD)\b|\bCUSTOMER\s+ID\b|\bACCOUNT\s+(NO|NUMBER|NAME|TYPE)\b|\bIBAN\b|\bSWIFT\b|\bROUTING\b`),
	// contact and address lines
	regexp.MustCompile(`(?i)\b(PHONE|FAX|E-?MAIL|WEBSITE|ADDRESS|TOWER|BUILDING|FLOOR)\b|WWW\.`),
	// statement metadata
	regexp.MustCompile(`(?i)\bSTATEMENT\s+(PERIOD|DATE)\b|\bISSUE\s+DATE\b|\bPERIOD\s+FROM\b|\bPAGE\s+\d+`),
	// carried balances and totals
	regexp.MustCompile(`(?i)\bBALANCE\s+(FORWARD|B/F|C/F|BROUGHT|CARRIED)\b|\b(OPENING|CLOSING)\s+BALANCE\b|\bTOTAL\b`),
	// decorative separators
	regexp.MustCompile(`^[\s\-=_.*~#]+$`),
	regexp.MustCompile(`[-=_*~]{5,}`),
}

// Classifier is the precision gate in front of the tiers: it keeps only
// lines that look like a single dated transaction row.
type Classifier struct {
	minLength  int
	maxLength  int
	indicators *lexicon.Set
}

// NewClassifier returns a classifier with the default gates.
func NewClassifier() *Classifier {
	return &Classifier{
		minLength:  minCandidateLength,
		maxLength:  maxCandidateLength,
		indicators: lexicon.Indicators,
	}
}

// Classify checks a single line.
func (c *Classifier) Classify(line string) Rejection {
	line = strings.TrimSpace(line)

	if n := runeLen(line); n < c.minLength || n > c.maxLength {
		return RejectLength
	}
	for _, re := range rejectionPatterns {
		if re.MatchString(line) {
			return RejectBoilerplate
		}
	}
	if !datePrefix.MatchString(line) {
		return RejectNoDate
	}
	if len(amountToken.FindAllStringIndex(line, 3)) < 2 {
		return RejectAmounts
	}
	if len(dateToken.FindAllStringIndex(line, 2)) > 1 {
		return RejectMultiDate
	}
	if !c.indicators.Contains(line) {
		return RejectIndicator
	}
	return Accepted
}

// Filter returns the accepted lines, trimmed, in input order.
func (c *Classifier) Filter(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if c.Classify(l) == Accepted {
			out = append(out, strings.TrimSpace(l))
		}
	}
	return out
}
