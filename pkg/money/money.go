// Package money sums ledger amounts in integer minor units so that exported
// totals match the statement to the cent.
package money

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	JPY = "JPY" // no minor unit
	INR = "INR"
)

// Money is an amount in one currency.
type Money struct {
	m *money.Money
}

// New creates Money from minor units.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: money.New(amountCents, currencyCode)}
}

// Zero returns a zero amount in the given currency.
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// NewFromDecimal rounds amount half away from zero to the currency's minor
// unit. Unknown currency codes fall back to two decimals.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	cents := amount.Shift(int32(fraction(currencyCode))).Round(0).IntPart()
	return New(cents, currencyCode)
}

func fraction(currencyCode string) int {
	if c := money.GetCurrency(currencyCode); c != nil {
		return c.Fraction
	}
	return 2
}

// Amount returns the amount in minor units.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// Abs returns the absolute value.
func (m *Money) Abs() *Money {
	if m == nil || m.m == nil {
		return Zero(USD)
	}
	return &Money{m: m.m.Absolute()}
}

// Add returns m+other. Currencies must match.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s to %s: %w", other.Currency(), m.Currency(), err)
	}
	return &Money{m: sum}, nil
}

// Subtract returns m-other. Currencies must match.
func (m *Money) Subtract(other *Money) (*Money, error) {
	if other == nil || other.m == nil {
		return m, nil
	}
	return m.Add(&Money{m: other.m.Negative()})
}

// Display formats with the currency symbol, e.g. "$1,234.56".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return "$0.00"
	}
	return m.m.Display()
}

// String renders the plain decimal amount, e.g. "1234.56".
func (m *Money) String() string {
	return m.ToDecimal().StringFixed(int32(fraction(m.Currency())))
}

// ToDecimal converts back to a decimal.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(m.m.Amount()).Shift(-int32(m.m.Currency().Fraction))
}

// Sum adds decimal amounts after rounding each one to the minor unit.
func Sum(currencyCode string, amounts ...decimal.Decimal) (*Money, error) {
	total := Zero(currencyCode)
	for _, a := range amounts {
		var err error
		if total, err = total.Add(NewFromDecimal(a, currencyCode)); err != nil {
			return nil, err
		}
	}
	return total, nil
}
