package record

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"14-Dec-2024", day(2024, 12, 14)},
		{"14 Dec 2024", day(2024, 12, 14)},
		{"14-DEC-24", day(2024, 12, 14)},
		{"3/Sept/2023", day(2023, 9, 3)},
		{"01-January-1999", day(1999, 1, 1)},
		{"12/31/2024", day(2024, 12, 31)},
		{"12-31-2024", day(2024, 12, 31)},
		{"2024-12-14", day(2024, 12, 14)},
		{"2024/02/29", day(2024, 2, 29)},
		{"12/31/24", day(2024, 12, 31)},
		{"01/15/75", day(1975, 1, 15)},
		{"01/15/49", day(2049, 1, 15)},
		{"24/12/14", day(2024, 12, 14)},
		{"25/12/2024", day(2024, 12, 25)},
		{"  06/01/2024 ", day(2024, 6, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "got %s", got)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"Invalid Date",
		"02/30/2024",
		"13/13/2024",
		"31-Foo-2024",
		"2024-13-01",
		"1/1/1800",
		"12.31.2024",
		"123/4/5",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDate(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDate))
		})
	}
}

func TestParseDate_RoundTrip(t *testing.T) {
	layouts := []string{
		"02-Jan-2006",
		"02 Jan 2006",
		"02-Jan-06",
		"01/02/2006",
		"01-02-2006",
		"01/02/06",
		"2006-01-02",
		"2006/01/02",
	}
	dates := []time.Time{
		day(2024, 12, 14),
		day(2000, 1, 1),
		day(1999, 7, 4),
		day(2024, 2, 29),
		day(2031, 11, 30),
	}

	for _, layout := range layouts {
		for _, d := range dates {
			t.Run(layout+"/"+FormatDate(d), func(t *testing.T) {
				first, err := ParseDate(d.Format(layout))
				require.NoError(t, err)
				assert.True(t, d.Equal(first))

				again, err := ParseDate(FormatDate(first))
				require.NoError(t, err)
				assert.True(t, first.Equal(again))
			})
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"650.00", "650"},
		{"1,234.56", "1234.56"},
		{"$1,234.56", "1234.56"},
		{"€ 99.90", "99.9"},
		{"(42.10)", "-42.1"},
		{"-3.00", "-3"},
		{"15.25-", "-15.25"},
		{"₹2,50,000.00", "250000"},
		{"  7 ", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}

	for _, bad := range []string{"", "$", "abc", "1e5", "--3", "()"} {
		t.Run("invalid/"+bad, func(t *testing.T) {
			_, err := ParseAmount(bad)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestNew_SignFollowsType(t *testing.T) {
	d := day(2024, 12, 14)

	debit := New(d, "Google One", decimal.RequireFromString("650.00"), decimal.Zero, Debit)
	assert.True(t, debit.Amount.IsNegative())

	credit := New(d, "Salary", decimal.RequireFromString("-3000"), decimal.Zero, Credit)
	assert.True(t, credit.Amount.IsPositive())

	signed := FromSigned(d, "Refund", decimal.RequireFromString("-1"), decimal.Zero)
	assert.Equal(t, Debit, signed.Type)
	signed = FromSigned(d, "Refund", decimal.Zero, decimal.Zero)
	assert.Equal(t, Credit, signed.Type)
}

func TestDedupKey(t *testing.T) {
	d := day(2024, 12, 14)

	a := New(d, "PRCR Google One subscription", decimal.RequireFromString("650"), decimal.Zero, Debit)
	b := New(d, "prcr  google one subscription renewal", decimal.RequireFromString("650.004"), decimal.RequireFromString("1"), Debit)
	assert.Equal(t, a.DedupKey(), b.DedupKey())
	assert.Equal(t, "2024-12-14_650.00_PRCR_GOOGLE_ONE_SUBS", a.DedupKey())

	c := New(d.AddDate(0, 0, 1), a.Description, a.Amount, a.Balance, Debit)
	assert.NotEqual(t, a.DedupKey(), c.DedupKey())
}

func TestValidate(t *testing.T) {
	d := day(2024, 12, 14)
	valid := New(d, "PRCR Google One", decimal.RequireFromString("650"), decimal.RequireFromString("2530"), Debit)

	require.NoError(t, Validate(valid, HeuristicRules))

	tests := []struct {
		name  string
		rec   TransactionRecord
		rules Rules
		field string
	}{
		{"missing date", TransactionRecord{Description: "PAYMENT", Amount: decimal.NewFromInt(1), Type: Credit}, HeuristicRules, "date"},
		{"sign mismatch", TransactionRecord{Date: d, Description: "PAYMENT", Amount: decimal.NewFromInt(1), Type: Debit}, HeuristicRules, "type"},
		{"short description", New(d, "AT", decimal.NewFromInt(5), decimal.Zero, Debit), HeuristicRules, "description"},
		{"junk description", New(d, "DEPOSIT", decimal.NewFromInt(5), decimal.Zero, Credit), HeuristicRules, "description"},
		{"no indicator", New(d, "Coffee shop", decimal.NewFromInt(5), decimal.Zero, Debit), HeuristicRules, "description"},
		{"zero amount", New(d, "PAYMENT RECEIVED", decimal.Zero, decimal.Zero, Credit), HeuristicRules, "amount"},
		{"amount over heuristic cap", New(d, "TRANSFER OUT", decimal.NewFromInt(1_000_001), decimal.Zero, Debit), HeuristicRules, "amount"},
		{"amount over strict cap", New(d, "TRANSFER OUT", decimal.NewFromInt(100_001), decimal.Zero, Debit), StrictRules, "amount"},
		{"balance over cap", New(d, "TRANSFER OUT", decimal.NewFromInt(10), decimal.NewFromInt(10_000_001), Debit), TableRules, "balance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.rec, tt.rules)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRecord)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	t.Run("table rows skip the keyword gate", func(t *testing.T) {
		rec := New(d, "Coffee shop", decimal.NewFromInt(2_000_000), decimal.Zero, Debit)
		assert.NoError(t, Validate(rec, TableRules))
	})
}
