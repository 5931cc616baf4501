package engine

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/record"
)

const (
	diagnosticMaxLines  = 50
	diagnosticLineRunes = 150

	// TierDiagnostic labels records of a diagnostic result.
	TierDiagnostic = "diagnostic"
)

// diagnosticRecords describes what the engine saw when no transaction
// survived, so the exported file still explains the document.
func diagnosticRecords(lines []string, now time.Time) []record.TransactionRecord {
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var chars, nonEmpty int
	for _, l := range lines {
		chars += utf8.RuneCountInString(l)
		if strings.TrimSpace(l) != "" {
			nonEmpty++
		}
	}

	out := make([]record.TransactionRecord, 0, 2+min(nonEmpty, diagnosticMaxLines))
	add := func(desc string) {
		out = append(out, record.New(date, desc, decimal.Zero, decimal.Zero, record.Credit).
			WithSource(record.SourceDiagnostic, TierDiagnostic))
	}

	add(fmt.Sprintf("Extracted text: %d characters, %d lines", chars, nonEmpty))
	add("No transactions detected")

	n := 0
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		n++
		if n > diagnosticMaxLines {
			break
		}
		if utf8.RuneCountInString(l) > diagnosticLineRunes {
			l = string([]rune(l)[:diagnosticLineRunes])
		}
		add(fmt.Sprintf("Line %d: %s", n, l))
	}
	return out
}
