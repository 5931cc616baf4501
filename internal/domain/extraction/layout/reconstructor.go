// Package layout turns positioned text tokens into reading-order lines.
package layout

import (
	"math"
	"sort"
	"strings"
)

// DefaultTolerance is the vertical distance under which two tokens are
// considered to sit on the same line.
const DefaultTolerance = 0.5

// Token is a run of text at a position on a page. Y grows downwards.
type Token struct {
	Text string
	X    float64
	Y    float64
}

// Page is the token set of a single page.
type Page struct {
	Number int
	Tokens []Token
}

// TokenCount returns the number of tokens across all pages.
func TokenCount(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += len(p.Tokens)
	}
	return n
}

// Reconstructor groups tokens into lines.
type Reconstructor struct {
	tolerance float64
}

// NewReconstructor returns a reconstructor using tolerance as the vertical
// band. Non-positive values fall back to DefaultTolerance.
func NewReconstructor(tolerance float64) *Reconstructor {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Reconstructor{tolerance: tolerance}
}

// Tolerance returns the vertical band in use.
func (r *Reconstructor) Tolerance() float64 {
	return r.tolerance
}

// Lines returns the document as an ordered slice of lines. Pages are
// separated by one blank line. No tokens yields an empty slice.
func (r *Reconstructor) Lines(pages []Page) []string {
	lines := make([]string, 0)
	for _, page := range pages {
		pageLines := r.pageLines(page.Tokens)
		if len(pageLines) == 0 {
			continue
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, pageLines...)
	}
	return lines
}

func (r *Reconstructor) pageLines(tokens []Token) []string {
	sorted := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if strings.TrimSpace(t.Text) != "" {
			sorted = append(sorted, t)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y < sorted[j].Y
	})

	var (
		lines   []string
		current []Token
		prevY   = sorted[0].Y
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		sort.SliceStable(current, func(i, j int) bool {
			return current[i].X < current[j].X
		})
		parts := make([]string, len(current))
		for i, t := range current {
			parts[i] = strings.TrimSpace(t.Text)
		}
		lines = append(lines, strings.Join(parts, " "))
		current = current[:0]
	}

	for _, t := range sorted {
		if math.Abs(t.Y-prevY) > r.tolerance {
			flush()
		}
		current = append(current, t)
		prevY = t.Y
	}
	flush()
	return lines
}

// Text joins lines with newlines.
func Text(lines []string) string {
	return strings.Join(lines, "\n")
}
