package heuristic

import (
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/record"
)

// Stage is a group of tiers run together. Their outputs are merged.
type Stage struct {
	Tiers []Tier
}

// DefaultStages is the escalation order: strict and general always run
// together, the window and line tiers only when everything before them
// produced nothing usable.
func DefaultStages() []Stage {
	return []Stage{
		{Tiers: []Tier{StrictTier{}, GeneralTier{}}},
		{Tiers: []Tier{WindowTier{Size: DefaultWindowSize}}},
		{Tiers: []Tier{LineTier{}}},
	}
}

// TierReport summarizes what one tier produced for a document.
type TierReport struct {
	Tier       TierKind
	Stage      int
	Candidates int
	Valid      int
}

// Result is the output of Parser.Parse.
type Result struct {
	// Candidates from the first stage that produced valid records.
	Candidates []record.TransactionRecord
	// Stage is the index of that stage, or -1 when no stage succeeded.
	Stage int
	// ClassifiedLines is how many lines passed the Classifier.
	ClassifiedLines int
	Reports         []TierReport
}

// Parser runs the tier stages in order and stops at the first stage whose
// candidates include at least one record that passes validation.
type Parser struct {
	classifier *Classifier
	stages     []Stage
	rules      record.Rules
}

// NewParser returns a parser with the default classifier and stages.
func NewParser() *Parser {
	return &Parser{
		classifier: NewClassifier(),
		stages:     DefaultStages(),
		rules:      record.HeuristicRules,
	}
}

// WithStages replaces the escalation order.
func (p *Parser) WithStages(stages ...Stage) *Parser {
	p.stages = stages
	return p
}

// WithClassifier replaces the precision gate.
func (p *Parser) WithClassifier(c *Classifier) *Parser {
	p.classifier = c
	return p
}

// Parse extracts candidates from reconstructed lines.
func (p *Parser) Parse(lines []string) Result {
	in := Input{
		Lines:      lines,
		Candidates: p.classifier.Filter(lines),
	}
	result := Result{Stage: -1, ClassifiedLines: len(in.Candidates)}

	for i, stage := range p.stages {
		var (
			merged []record.TransactionRecord
			valid  int
		)
		for _, tier := range stage.Tiers {
			recs := tier.Parse(in)
			report := TierReport{Tier: tier.Kind(), Stage: i, Candidates: len(recs)}
			for _, r := range recs {
				if record.Validate(r, p.rules) == nil {
					report.Valid++
				}
			}
			result.Reports = append(result.Reports, report)
			merged = append(merged, recs...)
			valid += report.Valid
		}

		if valid > 0 {
			result.Candidates = merged
			result.Stage = i
			return result
		}
	}
	return result
}
