// Package record defines the transaction record produced by every extraction
// strategy, together with the normalization and validation rules shared by them.
package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TxType is the polarity of a transaction.
type TxType string

const (
	Debit  TxType = "debit"
	Credit TxType = "credit"
)

// Source identifies which pipeline produced a record. It selects the
// validation profile applied during quality control.
type Source string

const (
	SourceHeuristic  Source = "heuristic"
	SourceTable      Source = "table"
	SourceDiagnostic Source = "diagnostic"
)

// DateLayout is the canonical rendering of a record date.
const DateLayout = "2006-01-02"

// dedupDescriptionRunes is how much of the description takes part in the dedup key.
const dedupDescriptionRunes = 20

// TransactionRecord is one extracted ledger entry. Records are values and are
// never mutated after the tier or row parser creates them.
type TransactionRecord struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = debit
	Balance     decimal.Decimal
	Type        TxType
	Reference   string
	Source      Source
	Tier        string
}

// New builds a record whose type and amount sign agree. The magnitude of
// amount is kept; its sign is forced by txType.
func New(date time.Time, description string, amount, balance decimal.Decimal, txType TxType) TransactionRecord {
	abs := amount.Abs()
	if txType == Debit {
		abs = abs.Neg()
	}
	return TransactionRecord{
		Date:        date,
		Description: description,
		Amount:      abs,
		Balance:     balance,
		Type:        txType,
	}
}

// FromSigned builds a record whose type is derived from the sign of amount.
func FromSigned(date time.Time, description string, amount, balance decimal.Decimal) TransactionRecord {
	txType := Credit
	if amount.IsNegative() {
		txType = Debit
	}
	return New(date, description, amount, balance, txType)
}

// WithSource returns a copy of r attributed to the given source and tier.
func (r TransactionRecord) WithSource(src Source, tier string) TransactionRecord {
	r.Source = src
	r.Tier = tier
	return r
}

// WithReference returns a copy of r carrying ref.
func (r TransactionRecord) WithReference(ref string) TransactionRecord {
	r.Reference = ref
	return r
}

// ISODate renders the record date as YYYY-MM-DD.
func (r TransactionRecord) ISODate() string {
	return r.Date.Format(DateLayout)
}

// IsDebit reports whether the record is a debit.
func (r TransactionRecord) IsDebit() bool {
	return r.Type == Debit
}

// DedupKey is the composite identity used to collapse repeated extractions of
// the same transaction: date, rounded absolute amount and a normalized
// description prefix.
func (r TransactionRecord) DedupKey() string {
	return fmt.Sprintf("%s_%s_%s", r.ISODate(), r.Amount.Abs().StringFixed(2), normalizeKeyDescription(r.Description))
}

func normalizeKeyDescription(desc string) string {
	runes := []rune(strings.Join(strings.Fields(strings.ToUpper(desc)), "_"))
	if len(runes) > dedupDescriptionRunes {
		runes = runes[:dedupDescriptionRunes]
	}
	return string(runes)
}
