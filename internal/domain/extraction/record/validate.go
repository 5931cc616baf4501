package record

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/lexicon"
)

// ErrInvalidRecord is the root of every validation failure.
var ErrInvalidRecord = errors.New("invalid record")

// ValidationError names the field that broke an invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

// Rules is a validation profile. Zero values disable the matching check.
type Rules struct {
	MinDescription   int
	MaxDescription   int
	MinAmount        decimal.Decimal
	MaxAmount        decimal.Decimal
	MaxBalance       decimal.Decimal
	RequireIndicator bool
	RejectJunk       bool
}

var (
	oneCent     = decimal.RequireFromString("0.01")
	oneMillion  = decimal.NewFromInt(1_000_000)
	hundredK    = decimal.NewFromInt(100_000)
	tenMillion  = decimal.NewFromInt(10_000_000)
	junkExact   = regexp.MustCompile(`^(?i)(CHQ|NO|WITHDRAW|DEPOSIT|BALANCE|DATE|PARTICULARS)$`)
	junkNumeric = regexp.MustCompile(`^[\d\s.\-/]+$`)
)

// HeuristicRules apply to records recovered from free text.
var HeuristicRules = Rules{
	MinDescription:   3,
	MaxDescription:   100,
	MinAmount:        oneCent,
	MaxAmount:        oneMillion,
	MaxBalance:       tenMillion,
	RequireIndicator: true,
	RejectJunk:       true,
}

// StrictRules is the tighter profile of the anchored full-line tier.
var StrictRules = Rules{
	MinDescription:   3,
	MaxDescription:   100,
	MinAmount:        oneCent,
	MaxAmount:        hundredK,
	MaxBalance:       tenMillion,
	RequireIndicator: true,
	RejectJunk:       true,
}

// TableRules apply to role-classified table rows. Columns are trusted, so
// there is no keyword gate.
var TableRules = Rules{
	MinDescription: 1,
	MaxDescription: 100,
	MinAmount:      oneCent,
	MaxBalance:     tenMillion,
}

// RulesFor returns the profile for records of the given source.
func RulesFor(src Source) Rules {
	switch src {
	case SourceHeuristic:
		return HeuristicRules
	case SourceTable:
		return TableRules
	default:
		return Rules{}
	}
}

// Validate checks r against the record invariants and the given profile.
func Validate(r TransactionRecord, rules Rules) error {
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "missing"}
	}

	switch r.Type {
	case Credit:
		if r.Amount.IsNegative() {
			return &ValidationError{Field: "type", Reason: "credit with negative amount"}
		}
	case Debit:
		if !r.Amount.IsNegative() {
			return &ValidationError{Field: "type", Reason: "debit with non-negative amount"}
		}
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown type %q", r.Type)}
	}

	desc := strings.TrimSpace(r.Description)
	n := utf8.RuneCountInString(desc)
	if rules.MinDescription > 0 && n < rules.MinDescription {
		return &ValidationError{Field: "description", Reason: "too short"}
	}
	if rules.MaxDescription > 0 && n > rules.MaxDescription {
		return &ValidationError{Field: "description", Reason: "too long"}
	}
	if rules.RejectJunk && IsJunkDescription(desc) {
		return &ValidationError{Field: "description", Reason: "column artifact"}
	}

	abs := r.Amount.Abs()
	if !rules.MinAmount.IsZero() && abs.LessThan(rules.MinAmount) {
		return &ValidationError{Field: "amount", Reason: "below minimum"}
	}
	if !rules.MaxAmount.IsZero() && abs.GreaterThan(rules.MaxAmount) {
		return &ValidationError{Field: "amount", Reason: "above maximum"}
	}
	if !rules.MaxBalance.IsZero() && r.Balance.Abs().GreaterThan(rules.MaxBalance) {
		return &ValidationError{Field: "balance", Reason: "above maximum"}
	}

	if rules.RequireIndicator && !lexicon.Indicators.Contains(desc) {
		return &ValidationError{Field: "description", Reason: "no transaction indicator"}
	}
	return nil
}

// IsJunkDescription reports descriptions that are column headers or bare
// numbers rather than a transaction narrative.
func IsJunkDescription(desc string) bool {
	desc = strings.TrimSpace(desc)
	return desc == "" || junkExact.MatchString(desc) || junkNumeric.MatchString(desc)
}
