package heuristic

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/lexicon"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/record"
)

const (
	months     = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec`
	dateExpr   = `\b(?:\d{1,2}[-/ ](?:` + months + `)[a-z]*\.?[-/ ]\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2}|\d{1,2}[-/]\d{1,2}[-/]\d{2,4})\b`
	amountExpr = `\b(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}\b`
)

var (
	dateToken   = regexp.MustCompile(`(?i)` + dateExpr)
	datePrefix  = regexp.MustCompile(`(?i)^.{0,5}?(` + dateExpr + `)`)
	amountToken = regexp.MustCompile(amountExpr)

	descriptionNoise = []struct {
		re   *regexp.Regexp
		with string
	}{
		{regexp.MustCompile(`/\d{10,}`), ""},
		{regexp.MustCompile(`\+\d{10,}`), ""},
		{regexp.MustCompile(`(?i)\bCHQ\.?\s*NO\.?`), " "},
		{regexp.MustCompile(`\b\d{10,}\b`), " "},
	}
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}\s\-.()/&*_]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// cleanDescription strips embedded account and phone numbers, cheque-number
// artifacts and stray symbols, then collapses whitespace.
func cleanDescription(s string) string {
	for _, n := range descriptionNoise {
		s = n.re.ReplaceAllString(s, n.with)
	}
	s = disallowedChars.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.Trim(s, " -/")
}

// stripAmounts removes decimal amounts that precede the amount and balance
// columns, e.g. reference numbers printed with two decimals.
func stripAmounts(s string) string {
	return amountToken.ReplaceAllString(s, " ")
}

// cut returns s with the byte ranges in spans removed. Spans must be sorted
// and non-overlapping.
func cut(s string, spans [][]int) string {
	var b strings.Builder
	last := 0
	for _, sp := range spans {
		if sp[0] < last {
			continue
		}
		b.WriteString(s[last:sp[0]])
		b.WriteByte(' ')
		last = sp[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// candidate assembles a heuristic record from captured text fields. ok is
// false when any field fails to normalize; the caller drops the line.
func candidate(dateTok, rawDesc, amountTok, balanceTok, tier string) (record.TransactionRecord, bool) {
	date, err := record.ParseDate(dateTok)
	if err != nil {
		return record.TransactionRecord{}, false
	}
	amount, err := record.ParseAmount(amountTok)
	if err != nil {
		return record.TransactionRecord{}, false
	}
	balance, err := record.ParseAmount(balanceTok)
	if err != nil {
		return record.TransactionRecord{}, false
	}

	desc := cleanDescription(rawDesc)
	txType := record.Debit
	if lexicon.CreditIndicators.Contains(desc) {
		txType = record.Credit
	}
	return record.New(date, desc, amount, balance, txType).WithSource(record.SourceHeuristic, tier), true
}
