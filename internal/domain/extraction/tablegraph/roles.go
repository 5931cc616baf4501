package tablegraph

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Role is the meaning of a table column.
type Role int

const (
	RoleDate Role = iota
	RoleDescription
	RoleAmount
	RoleCredit
	RoleBalance
	RoleReference
)

func (r Role) String() string {
	switch r {
	case RoleDate:
		return "date"
	case RoleDescription:
		return "description"
	case RoleAmount:
		return "amount"
	case RoleCredit:
		return "credit"
	case RoleBalance:
		return "balance"
	case RoleReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Roles lists every role in classification order.
var Roles = []Role{RoleDate, RoleDescription, RoleAmount, RoleCredit, RoleBalance, RoleReference}

// RoleMapping maps roles to column indices. -1 means the statement has no
// such column.
type RoleMapping struct {
	Date        int
	Description int
	Amount      int
	Credit      int
	Balance     int
	Reference   int
	// AmountIsDebit is set when the amount column was recognized as a
	// debit or withdrawal column rather than a signed amount.
	AmountIsDebit bool
}

// EmptyMapping has no roles assigned.
func EmptyMapping() RoleMapping {
	return RoleMapping{Date: -1, Description: -1, Amount: -1, Credit: -1, Balance: -1, Reference: -1}
}

// Column returns the index for role and whether it is present.
func (m RoleMapping) Column(r Role) (int, bool) {
	idx := -1
	switch r {
	case RoleDate:
		idx = m.Date
	case RoleDescription:
		idx = m.Description
	case RoleAmount:
		idx = m.Amount
	case RoleCredit:
		idx = m.Credit
	case RoleBalance:
		idx = m.Balance
	case RoleReference:
		idx = m.Reference
	}
	return idx, idx >= 0
}

func (m *RoleMapping) set(r Role, col int) {
	switch r {
	case RoleDate:
		m.Date = col
	case RoleDescription:
		m.Description = col
	case RoleAmount:
		m.Amount = col
	case RoleCredit:
		m.Credit = col
	case RoleBalance:
		m.Balance = col
	case RoleReference:
		m.Reference = col
	}
}

var roleKeywords = map[Role][]string{
	RoleDate:        {"date", "posting date", "transaction date", "value date"},
	RoleDescription: {"description", "details", "memo", "particulars", "narration", "payee", "transaction"},
	RoleAmount:      {"amount", "debit", "debits", "withdrawal", "withdrawals"},
	RoleCredit:      {"credit", "credits", "deposit", "deposits", "payment"},
	RoleBalance:     {"balance", "running balance"},
	RoleReference:   {"reference", "ref", "check", "cheque", "chq", "transaction id"},
}

var debitKeywords = []string{"debit", "debits", "withdrawal", "withdrawals"}

// minFuzzyWord keeps very short header words out of the typo fallback.
const minFuzzyWord = 5

// ClassifyColumns maps a header row to roles. A header matching nothing is
// ignored. The amount role keeps its first match; the other roles take the
// last matching column.
func ClassifyColumns(header []string) RoleMapping {
	m := EmptyMapping()
	for col, cell := range header {
		h := normalizeHeader(cell)
		if h == "" {
			continue
		}
		role, ok := matchRole(h)
		if !ok {
			role, ok = fuzzyRole(h)
		}
		if !ok {
			continue
		}
		if role == RoleAmount {
			if m.Amount >= 0 {
				continue
			}
			m.AmountIsDebit = hasKeyword(h, debitKeywords)
		}
		m.set(role, col)
	}
	return m
}

// matchRole tries multi-word keywords before single words, so "transaction
// date" and "transaction id" are not taken by the bare "transaction".
func matchRole(h string) (Role, bool) {
	for _, phrases := range []bool{true, false} {
		for _, role := range Roles {
			for _, kw := range roleKeywords[role] {
				if strings.Contains(kw, " ") != phrases || !hasKeyword(h, []string{kw}) {
					continue
				}
				// "Credit Amount" is a credit column, not a signed amount.
				if role == RoleAmount && kw == "amount" && !hasKeyword(h, debitKeywords) && hasKeyword(h, roleKeywords[RoleCredit]) {
					return RoleCredit, true
				}
				return role, true
			}
		}
	}
	return 0, false
}

// hasKeyword reports whether any keyword occurs in h as whole words.
func hasKeyword(h string, keywords []string) bool {
	padded := " " + h + " "
	for _, kw := range keywords {
		if strings.Contains(padded, " "+kw+" ") {
			return true
		}
	}
	return false
}

// fuzzyRole tolerates OCR damage such as dropped letters ("Descripton",
// "Balnce") on single-word headers.
func fuzzyRole(h string) (Role, bool) {
	if strings.Contains(h, " ") || len(h) < minFuzzyWord {
		return 0, false
	}
	for _, role := range Roles {
		for _, kw := range roleKeywords[role] {
			if strings.Contains(kw, " ") || len(kw) < minFuzzyWord {
				continue
			}
			if d := fuzzy.RankMatch(h, kw); d >= 0 && d <= 2 {
				return role, true
			}
		}
	}
	return 0, false
}

func normalizeHeader(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
