// Package export renders extracted ledgers as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/record"
	"github.com/FACorreiaa/statement-ledger/pkg/money"
)

// Columns is the ledger layout shared by every format.
var Columns = []string{"Date", "Description", "Debit", "Credit", "Balance", "Type", "Reference"}

// Row is one ledger line as written to CSV. Debit and Credit are unsigned;
// exactly one of them is set.
type Row struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Debit       string `csv:"Debit"`
	Credit      string `csv:"Credit"`
	Balance     string `csv:"Balance"`
	Type        string `csv:"Type"`
	Reference   string `csv:"Reference"`
}

// NewRow splits the signed amount of r into the debit or credit column.
func NewRow(r record.TransactionRecord) Row {
	row := Row{
		Date:        r.ISODate(),
		Description: r.Description,
		Balance:     r.Balance.StringFixed(2),
		Type:        string(r.Type),
		Reference:   r.Reference,
	}
	if r.Amount.IsNegative() {
		row.Debit = r.Amount.Abs().StringFixed(2)
	} else {
		row.Credit = r.Amount.StringFixed(2)
	}
	return row
}

// WriteCSV writes records with a header line.
func WriteCSV(w io.Writer, records []record.TransactionRecord) error {
	rows := make([]*Row, len(records))
	for i, r := range records {
		row := NewRow(r)
		rows[i] = &row
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// Summary totals a ledger. Debits is positive.
type Summary struct {
	Count   int
	Debits  *money.Money
	Credits *money.Money
	Net     *money.Money
}

// Summarize adds the ledger up in minor units of currency.
func Summarize(records []record.TransactionRecord, currency string) (Summary, error) {
	var debits, credits []decimal.Decimal
	for _, r := range records {
		if r.Amount.IsNegative() {
			debits = append(debits, r.Amount.Abs())
		} else {
			credits = append(credits, r.Amount)
		}
	}

	s := Summary{Count: len(records)}
	var err error
	if s.Debits, err = money.Sum(currency, debits...); err != nil {
		return Summary{}, fmt.Errorf("failed to total debits: %w", err)
	}
	if s.Credits, err = money.Sum(currency, credits...); err != nil {
		return Summary{}, fmt.Errorf("failed to total credits: %w", err)
	}
	if s.Net, err = s.Credits.Subtract(s.Debits); err != nil {
		return Summary{}, fmt.Errorf("failed to compute net: %w", err)
	}
	return s, nil
}
