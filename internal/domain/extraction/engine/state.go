package engine

import "fmt"

// State is a step of the conversion state machine.
type State int

const (
	StateStart State = iota
	StateReconstructText
	StateParseHeuristic
	StateAnalyzeTables
	StateSelectTable
	StateParseTable
	StateQualityControl
	StateDiagnostic
	StateDone
)

var stateNames = map[State]string{
	StateStart:           "start",
	StateReconstructText: "reconstruct_text",
	StateParseHeuristic:  "parse_heuristic",
	StateAnalyzeTables:   "analyze_tables",
	StateSelectTable:     "select_table",
	StateParseTable:      "parse_table",
	StateQualityControl:  "quality_control",
	StateDiagnostic:      "diagnostic",
	StateDone:            "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Strategy selects the extraction path.
type Strategy string

const (
	StrategyHeuristic Strategy = "heuristic"
	StrategyTable     Strategy = "table"
)

// ParseStrategy maps a configuration value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyHeuristic, StrategyTable:
		return Strategy(s), nil
	case "":
		return StrategyHeuristic, nil
	default:
		return "", fmt.Errorf("unknown extraction strategy %q", s)
	}
}

// Outcome says whether a successful conversion found transactions.
type Outcome string

const (
	OutcomeTransactions Outcome = "transactions"
	OutcomeDiagnostic   Outcome = "diagnostic"
)
