package tablegraph

import "regexp"

var (
	numericCell  = regexp.MustCompile(`\$?\d+[.,]\d{2}|\d+\.\d{2}`)
	dateLikeCell = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2}`)
)

// Score rates how much a table looks like a transaction listing:
//
//	2*rows + 3*numericCells + 2*dateLikeCells + confidence
func Score(t Table) float64 {
	var numeric, dates int
	for _, row := range t.Rows {
		for _, cell := range row {
			if numericCell.MatchString(cell) {
				numeric++
			}
			if dateLikeCell.MatchString(cell) {
				dates++
			}
		}
	}
	return float64(2*len(t.Rows)+3*numeric+2*dates) + t.Confidence
}

// Select returns the highest scoring table. Ties go to the earlier table.
// ok is false when tables is empty.
func Select(tables []Table) (best Table, ok bool) {
	bestScore := 0.0
	for i, t := range tables {
		if s := Score(t); i == 0 || s > bestScore {
			best, bestScore = t, s
		}
	}
	return best, len(tables) > 0
}
