package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/layout"
)

// buildPDF writes a one-page document with each line drawn 14pt below the
// previous one.
func buildPDF(lines ...string) []byte {
	var content bytes.Buffer
	for i, l := range lines {
		fmt.Fprintf(&content, "BT /F1 10 Tf 50 %d Td (%s) Tj ET\n", 740-i*14, l)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractor_Tokens(t *testing.T) {
	doc := buildPDF(
		"Example Bank Statement",
		"14-Dec-2024 PRCR/Google One 650.00 2530.00",
	)

	pages, err := NewExtractor(nil).Tokens(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)

	lines := layout.NewReconstructor(layout.DefaultTolerance).Lines(pages)
	assert.Equal(t, []string{
		"Example Bank Statement",
		"14-Dec-2024 PRCR/Google One 650.00 2530.00",
	}, lines)
}

func TestExtractor_GeneratedStatement(t *testing.T) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 10)

	doc.AddPage()
	doc.Text(50, 60, "Example Bank Statement")
	doc.Text(50, 90, "14-Dec-2024 PRCR/Google One 650.00 2530.00")
	doc.AddPage()
	doc.Text(50, 60, "15-Dec-2024 CRTR Salary Payment 3000.00 5530.00")

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	pages, err := NewExtractor(nil).Tokens(context.Background(), buf.Bytes())
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 2, pages[1].Number)

	lines := layout.NewReconstructor(layout.DefaultTolerance).Lines(pages)
	assert.Equal(t, []string{
		"Example Bank Statement",
		"14-Dec-2024 PRCR/Google One 650.00 2530.00",
		"",
		"15-Dec-2024 CRTR Salary Payment 3000.00 5530.00",
	}, lines)
}

func TestExtractor_MalformedInput(t *testing.T) {
	for name, doc := range map[string][]byte{
		"empty":     nil,
		"not a pdf": []byte("hello, this is plain text and not a document"),
		"truncated": buildPDF("14-Dec-2024 PRCR/Google One 650.00 2530.00")[:120],
	} {
		t.Run(name, func(t *testing.T) {
			pages, err := NewExtractor(nil).Tokens(context.Background(), doc)
			assert.Error(t, err)
			assert.Nil(t, pages)
		})
	}
}

func TestExtractor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(nil).Tokens(ctx, buildPDF("Example Bank"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWords(t *testing.T) {
	glyph := func(s string, x, y float64) pdf.Text {
		return pdf.Text{S: s, X: x, Y: y, W: 5, FontSize: 10}
	}
	glyphs := []pdf.Text{
		glyph("6", 100, 700), glyph("5", 105, 700), glyph("0", 110, 700),
		glyph(" ", 115, 700),
		glyph("O", 120, 700), glyph("n", 125, 700), glyph("e", 130, 700),
		// same baseline but far to the right: a new column
		glyph("X", 300, 700),
		// next line
		glyph("Y", 100, 686),
	}

	tokens := words(glyphs)

	assert.Equal(t, []layout.Token{
		{Text: "650", X: 100, Y: -700},
		{Text: "One", X: 120, Y: -700},
		{Text: "X", X: 300, Y: -700},
		{Text: "Y", X: 100, Y: -686},
	}, tokens)
}
