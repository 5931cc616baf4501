package tablegraph

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/record"
)

// PlaceholderDescription stands in for rows without a description column.
const PlaceholderDescription = "Unknown Transaction"

const maxDescriptionRunes = 100

// TierTable labels records produced by the table path.
const TierTable = "table"

// ParseRow converts one data row. ok is false when the row has no usable
// date or no non-zero amount; the caller drops it.
func ParseRow(row []string, m RoleMapping) (record.TransactionRecord, bool) {
	dateCell := cellFor(row, m, RoleDate)
	if dateCell == "" {
		return record.TransactionRecord{}, false
	}
	date, err := record.ParseDate(dateCell)
	if err != nil {
		return record.TransactionRecord{}, false
	}

	desc := strings.Join(strings.Fields(cellFor(row, m, RoleDescription)), " ")
	if desc == "" {
		desc = PlaceholderDescription
	}
	if utf8.RuneCountInString(desc) > maxDescriptionRunes {
		desc = string([]rune(desc)[:maxDescriptionRunes])
	}

	amount, txType, ok := resolveAmount(row, m)
	if !ok {
		return record.TransactionRecord{}, false
	}

	balance := decimal.Zero
	if cell := cellFor(row, m, RoleBalance); cell != "" {
		if b, err := record.ParseAmount(cell); err == nil {
			balance = b
		}
	}

	rec := record.New(date, desc, amount, balance, txType).
		WithSource(record.SourceTable, TierTable).
		WithReference(strings.TrimSpace(cellFor(row, m, RoleReference)))
	return rec, true
}

// resolveAmount applies the column precedence: a signed amount column, then
// a debit column, then a credit column.
func resolveAmount(row []string, m RoleMapping) (decimal.Decimal, record.TxType, bool) {
	if _, ok := m.Column(RoleAmount); ok {
		if v, ok := nonZero(cellFor(row, m, RoleAmount)); ok {
			if m.AmountIsDebit {
				return v.Abs(), record.Debit, true
			}
			if v.IsNegative() {
				return v, record.Debit, true
			}
			return v, record.Credit, true
		}
	}
	if v, ok := nonZero(cellFor(row, m, RoleCredit)); ok {
		return v.Abs(), record.Credit, true
	}
	return decimal.Zero, "", false
}

func nonZero(cell string) (decimal.Decimal, bool) {
	if strings.TrimSpace(cell) == "" {
		return decimal.Zero, false
	}
	v, err := record.ParseAmount(cell)
	if err != nil || v.IsZero() {
		return decimal.Zero, false
	}
	return v, true
}

func cellFor(row []string, m RoleMapping, r Role) string {
	idx, ok := m.Column(r)
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseRows classifies the header of t and parses every data row. Rows
// that cannot be parsed are counted in skipped.
func ParseRows(t Table) (records []record.TransactionRecord, mapping RoleMapping, skipped int) {
	mapping = ClassifyColumns(t.Header())
	if len(t.Rows) < 2 {
		return nil, mapping, 0
	}
	for _, row := range t.Rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec, ok := ParseRow(row, mapping)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, mapping, skipped
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
