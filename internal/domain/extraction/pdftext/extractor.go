// Package pdftext pulls positioned word tokens out of PDF bytes.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/layout"
)

// ErrEncrypted is returned for password protected documents.
var ErrEncrypted = errors.New("document is encrypted")

const (
	// baselineTolerance is how far two glyphs may sit apart vertically and
	// still belong to the same word.
	baselineTolerance = 0.5
	// wordGapRatio is the horizontal gap, relative to the font size, above
	// which two glyphs start separate words.
	wordGapRatio = 0.25
)

// Extractor implements the engine token source on top of ledongthuc/pdf.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Tokens returns the words of every page. Y grows downwards so that the
// line reconstructor reads the page top to bottom.
func (e *Extractor) Tokens(ctx context.Context, document []byte) (pages []layout.Page, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, ErrEncrypted
		}
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	n := reader.NumPage()
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := reader.Page(i)
		if p.V.IsNull() {
			e.logger.Debug("skipping empty page", "page", i)
			continue
		}
		pages = append(pages, layout.Page{Number: i, Tokens: words(p.Content().Text)})
	}
	return pages, nil
}

// words merges the per-glyph text runs of a page into word tokens.
func words(glyphs []pdf.Text) []layout.Token {
	var (
		out  []layout.Token
		cur  strings.Builder
		word layout.Token
		end  float64 // right edge of the last glyph
		y    float64
		size float64
	)
	flush := func() {
		if cur.Len() > 0 {
			word.Text = cur.String()
			out = append(out, word)
		}
		cur.Reset()
	}

	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		gap := g.X - end
		sameWord := cur.Len() > 0 &&
			math.Abs(g.Y-y) <= baselineTolerance &&
			gap > -size && gap <= wordGapRatio*math.Max(size, 1)
		if !sameWord {
			flush()
			word = layout.Token{X: g.X, Y: -g.Y}
			y = g.Y
		}
		cur.WriteString(g.S)
		end = g.X + g.W
		size = g.FontSize
	}
	flush()
	return out
}
