package heuristic

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/record"
)

// TierKind names a parsing tier.
type TierKind string

const (
	TierStrict  TierKind = "strict"
	TierGeneral TierKind = "general"
	TierWindow  TierKind = "window"
	TierLine    TierKind = "line"
)

// Input is what every tier sees for one document.
type Input struct {
	// Lines are the reconstructed physical lines, page separators included.
	Lines []string
	// Candidates are the lines accepted by the Classifier.
	Candidates []string
}

// Text returns the raw document text.
func (in Input) Text() string {
	return strings.Join(in.Lines, "\n")
}

// Tier turns one document's text into transaction candidates. Tiers are pure:
// the same input always yields the same candidates.
type Tier interface {
	Kind() TierKind
	Parse(in Input) []record.TransactionRecord
}

// StrictTier accepts only candidate lines that are exactly
// "<date> <description> <amount> <balance>".
type StrictTier struct{}

var strictLine = regexp.MustCompile(`(?i)^(` + dateExpr + `)\s+(.+?)\s+(` + amountExpr + `)\s+(` + amountExpr + `)$`)

const (
	strictMinLine = 35
	strictMaxLine = 120
	strictMinDesc = 10
	strictMaxDesc = 80
)

func (StrictTier) Kind() TierKind { return TierStrict }

func (t StrictTier) Parse(in Input) []record.TransactionRecord {
	var out []record.TransactionRecord
	for _, line := range in.Candidates {
		if n := runeLen(line); n < strictMinLine || n > strictMaxLine {
			continue
		}
		m := strictLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if n := runeLen(strings.TrimSpace(m[2])); n < strictMinDesc || n > strictMaxDesc {
			continue
		}
		rec, ok := candidate(m[1], m[2], m[3], m[4], string(TierStrict))
		if !ok || record.Validate(rec, record.StrictRules) != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// GeneralTier tolerates a short prefix before the date and extra numbers in
// the description. The last two amounts on the line are amount and balance.
type GeneralTier struct{}

func (GeneralTier) Kind() TierKind { return TierGeneral }

func (t GeneralTier) Parse(in Input) []record.TransactionRecord {
	var out []record.TransactionRecord
	for _, line := range in.Candidates {
		loc := datePrefix.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		dateTok, rest := line[loc[2]:loc[3]], line[loc[3]:]

		amounts := amountToken.FindAllStringIndex(rest, -1)
		if len(amounts) < 2 {
			continue
		}
		amt, bal := amounts[len(amounts)-2], amounts[len(amounts)-1]
		desc := stripAmounts(rest[:amt[0]])

		if rec, ok := candidate(dateTok, desc, rest[amt[0]:amt[1]], rest[bal[0]:bal[1]], string(TierGeneral)); ok {
			out = append(out, rec)
		}
	}
	return out
}

// WindowTier anchors on every date in the raw text and reads a fixed window
// after it. It recovers rows the line reconstruction split or merged.
type WindowTier struct {
	Size int
}

// DefaultWindowSize is the number of bytes scanned after each date.
const DefaultWindowSize = 200

func (WindowTier) Kind() TierKind { return TierWindow }

func (t WindowTier) Parse(in Input) []record.TransactionRecord {
	size := t.Size
	if size <= 0 {
		size = DefaultWindowSize
	}
	text := in.Text()

	var out []record.TransactionRecord
	for _, loc := range dateToken.FindAllStringIndex(text, -1) {
		end := loc[0] + size
		if end > len(text) {
			end = len(text)
		}
		for end < len(text) && end > loc[1] && !utf8.RuneStart(text[end]) {
			end--
		}
		if end <= loc[1] {
			continue
		}
		window := text[loc[1]:end]

		amounts := amountToken.FindAllStringIndex(window, 2)
		if len(amounts) < 2 {
			continue
		}
		desc := strings.ReplaceAll(window[:amounts[0][0]], "\n", " ")
		amtTok := window[amounts[0][0]:amounts[0][1]]
		balTok := window[amounts[1][0]:amounts[1][1]]

		if rec, ok := candidate(text[loc[0]:loc[1]], desc, amtTok, balTok, string(TierWindow)); ok {
			out = append(out, rec)
		}
	}
	return out
}

// LineTier is the last resort: per physical line it finds a date anywhere,
// takes the last two amounts and keeps whatever text remains as description.
type LineTier struct{}

const lineTierMinLength = 15

func (LineTier) Kind() TierKind { return TierLine }

func (t LineTier) Parse(in Input) []record.TransactionRecord {
	var out []record.TransactionRecord
	for _, raw := range in.Lines {
		line := strings.TrimSpace(raw)
		if runeLen(line) < lineTierMinLength {
			continue
		}
		dateLoc := dateToken.FindStringIndex(line)
		if dateLoc == nil {
			continue
		}

		var amounts [][]int
		for _, a := range amountToken.FindAllStringIndex(line, -1) {
			if a[1] <= dateLoc[0] || a[0] >= dateLoc[1] {
				amounts = append(amounts, a)
			}
		}
		if len(amounts) < 2 {
			continue
		}
		amt, bal := amounts[len(amounts)-2], amounts[len(amounts)-1]

		spans := make([][]int, 0, len(amounts)+1)
		inserted := false
		for _, a := range amounts {
			if !inserted && dateLoc[0] < a[0] {
				spans = append(spans, dateLoc)
				inserted = true
			}
			spans = append(spans, a)
		}
		if !inserted {
			spans = append(spans, dateLoc)
		}

		desc := cut(line, spans)
		if rec, ok := candidate(line[dateLoc[0]:dateLoc[1]], desc, line[amt[0]:amt[1]], line[bal[0]:bal[1]], string(TierLine)); ok {
			out = append(out, rec)
		}
	}
	return out
}
