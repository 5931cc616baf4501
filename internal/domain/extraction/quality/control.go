// Package quality validates, orders and deduplicates extraction candidates.
package quality

import (
	"errors"
	"sort"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/record"
)

// Report is the outcome of one quality-control pass.
type Report struct {
	Records    []record.TransactionRecord
	Input      int
	Rejected   int
	Duplicates int
	// Rejections counts invalid candidates by failing field.
	Rejections map[string]int
}

// NoTransactions reports whether nothing survived. It is a signal for the
// diagnostic path, not an error.
func (r Report) NoTransactions() bool {
	return len(r.Records) == 0
}

// Control applies the record invariants to candidates from either strategy.
// A zero Control is ready to use.
type Control struct {
	rules func(record.Source) record.Rules
}

// New returns a Control using the profile of each record's source.
func New() *Control {
	return &Control{rules: record.RulesFor}
}

// WithRules overrides how a profile is picked for a source.
func (c *Control) WithRules(fn func(record.Source) record.Rules) *Control {
	c.rules = fn
	return c
}

// Apply validates, stable-sorts ascending by date and drops later
// occurrences of a dedup key. Applying it to its own output is a no-op.
func (c *Control) Apply(candidates []record.TransactionRecord) Report {
	rulesFor := c.rules
	if rulesFor == nil {
		rulesFor = record.RulesFor
	}

	report := Report{
		Input:      len(candidates),
		Rejections: make(map[string]int),
	}

	valid := make([]record.TransactionRecord, 0, len(candidates))
	for _, cand := range candidates {
		if err := record.Validate(cand, rulesFor(cand.Source)); err != nil {
			report.Rejected++
			field := "unknown"
			var verr *record.ValidationError
			if errors.As(err, &verr) {
				field = verr.Field
			}
			report.Rejections[field]++
			continue
		}
		valid = append(valid, cand)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Date.Before(valid[j].Date)
	})

	seen := make(map[string]struct{}, len(valid))
	out := make([]record.TransactionRecord, 0, len(valid))
	for _, rec := range valid {
		key := rec.DedupKey()
		if _, dup := seen[key]; dup {
			report.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}

	report.Records = out
	return report
}
