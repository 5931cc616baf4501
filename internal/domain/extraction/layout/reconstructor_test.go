package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructor_Lines(t *testing.T) {
	r := NewReconstructor(0)
	require.Equal(t, DefaultTolerance, r.Tolerance())

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, r.Lines(nil))
		assert.Empty(t, r.Lines([]Page{{Number: 1}}))
		assert.NotNil(t, r.Lines(nil))
	})

	t.Run("orders by row then column", func(t *testing.T) {
		pages := []Page{{
			Number: 1,
			Tokens: []Token{
				{Text: "2530.00", X: 40, Y: 10.2},
				{Text: "14-Dec-2024", X: 1, Y: 10},
				{Text: "Balance", X: 40, Y: 2},
				{Text: "PRCR/Google One", X: 10, Y: 10.4},
				{Text: "650.00", X: 30, Y: 10.1},
				{Text: "Date", X: 1, Y: 2},
			},
		}}

		lines := r.Lines(pages)
		assert.Equal(t, []string{
			"Date Balance",
			"14-Dec-2024 PRCR/Google One 650.00 2530.00",
		}, lines)
	})

	t.Run("separates rows beyond the tolerance", func(t *testing.T) {
		pages := []Page{{Tokens: []Token{
			{Text: "a", X: 0, Y: 1},
			{Text: "b", X: 0, Y: 1.6},
			{Text: "  ", X: 5, Y: 1.6},
		}}}
		assert.Equal(t, []string{"a", "b"}, r.Lines(pages))
	})

	t.Run("blank line between pages", func(t *testing.T) {
		pages := []Page{
			{Number: 1, Tokens: []Token{{Text: "first", Y: 1}}},
			{Number: 2},
			{Number: 3, Tokens: []Token{{Text: "second", Y: 1}}},
		}
		lines := r.Lines(pages)
		assert.Equal(t, []string{"first", "", "second"}, lines)
		assert.Equal(t, "first\n\nsecond", Text(lines))
		assert.Equal(t, 2, TokenCount(pages))
	})

	t.Run("restartable", func(t *testing.T) {
		pages := []Page{{Tokens: []Token{{Text: "x", Y: 1}, {Text: "y", Y: 3}}}}
		assert.Equal(t, r.Lines(pages), r.Lines(pages))
	})
}
