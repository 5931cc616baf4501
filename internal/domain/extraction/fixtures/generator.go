// Package fixtures generates synthetic statements for exercising the
// extraction pipeline: text lines, positioned tokens and analysis graphs
// with a known set of expected transactions.
package fixtures

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/layout"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/record"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/tablegraph"
)

// Entry is one generated statement row.
type Entry struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // signed, negative = debit
	Balance     decimal.Decimal
}

// Line renders the entry the way a statement prints it.
func (e Entry) Line() string {
	return fmt.Sprintf("%s %s %s %s",
		e.Date.Format("02-Jan-2006"), e.Description, e.Amount.Abs().StringFixed(2), e.Balance.StringFixed(2))
}

// Record returns the record a perfect extraction would produce.
func (e Entry) Record() record.TransactionRecord {
	return record.FromSigned(e.Date, e.Description, e.Amount, e.Balance).WithSource(record.SourceHeuristic, "")
}

// Generator produces reproducible statements.
type Generator struct {
	faker *gofakeit.Faker
	start time.Time
}

// NewGenerator returns a generator seeded for reproducibility.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		start: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
	}
}

var debitPrefixes = []string{"PRCR/", "POS PURCHASE ", "ATM WITHDRAWAL ", "TRANSFER TO ", "PAYMENT "}

var creditPrefixes = []string{"CRTR Salary ", "DEPOSIT ", "REFUND ", "INTEREST "}

var merchants = []string{
	"Google One", "Webflow Inc", "MongoDB Atlas", "Anthropic API", "FACEBK Ads",
	"City Grocers", "Metro Transit", "Green Pharmacy", "Blue Cafe", "Harbor Books",
}

var payers = []string{"Acme Corp", "Globex Ltd", "Initech", "Savings Account", "Umbrella Co"}

// Entries returns n rows in ascending date order with a running balance.
func (g *Generator) Entries(n int, opening decimal.Decimal) []Entry {
	entries := make([]Entry, 0, n)
	date := g.start
	balance := opening
	for i := 0; i < n; i++ {
		date = date.AddDate(0, 0, g.faker.Number(0, 3))

		amount := decimal.NewFromFloat(g.faker.Float64Range(1, 5000)).Round(2)
		var desc string
		if g.faker.Number(1, 4) == 1 {
			desc = g.faker.RandomString(creditPrefixes) + g.faker.RandomString(payers)
		} else {
			desc = g.faker.RandomString(debitPrefixes) + g.faker.RandomString(merchants)
			amount = amount.Neg()
		}
		balance = balance.Add(amount)

		entries = append(entries, Entry{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Balance:     balance,
		})
	}
	return entries
}

// Lines renders entries one per line.
func Lines(entries []Entry) []string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Line()
	}
	return lines
}

// Candidates returns heuristic candidates built from n entries, shuffled,
// with duplicates (same key, different balance) and invalid rows mixed in.
func (g *Generator) Candidates(n int) []record.TransactionRecord {
	entries := g.Entries(n, decimal.NewFromInt(10_000))
	out := make([]record.TransactionRecord, 0, n*2)
	for _, e := range entries {
		rec := e.Record()
		out = append(out, rec)

		switch g.faker.Number(1, 5) {
		case 1:
			dup := rec
			dup.Balance = dup.Balance.Add(decimal.NewFromInt(1))
			out = append(out, dup)
		case 2:
			bad := record.New(e.Date, "ATM FEE", decimal.Zero, e.Balance, record.Credit).WithSource(record.SourceHeuristic, "")
			out = append(out, bad)
		}
	}
	g.faker.ShuffleAnySlice(out)
	return out
}

// Pages lays out lines as word tokens, perPage lines to a page. Tokens of a
// line share a Y with small jitter below the reconstruction tolerance and
// are emitted right to left to exercise ordering.
func (g *Generator) Pages(lines []string, perPage int) []layout.Page {
	if perPage <= 0 {
		perPage = len(lines)
	}
	var pages []layout.Page
	for start := 0; start < len(lines); start += perPage {
		end := start + perPage
		if end > len(lines) {
			end = len(lines)
		}
		page := layout.Page{Number: len(pages) + 1}
		for row, line := range lines[start:end] {
			words := strings.Fields(line)
			y := float64(row*2 + 1)
			for col := len(words) - 1; col >= 0; col-- {
				page.Tokens = append(page.Tokens, layout.Token{
					Text: words[col],
					X:    float64(col * 10),
					Y:    y + g.faker.Float64Range(0, 0.2),
				})
			}
		}
		pages = append(pages, page)
	}
	return pages
}

// TableGraph builds an analysis block graph holding a single table whose
// first row is header. Cell text is split into WORD blocks.
func TableGraph(header []string, rows [][]string, confidence float64) *tablegraph.Graph {
	b := newGraphBuilder()
	b.table(append([][]string{header}, rows...), confidence)
	return b.graph()
}

// MultiTableGraph builds a graph with several tables, each given with its
// header as the first row.
func MultiTableGraph(confidence float64, tables ...[][]string) *tablegraph.Graph {
	b := newGraphBuilder()
	for _, t := range tables {
		b.table(t, confidence)
	}
	return b.graph()
}

// EntryRows renders entries as Date, Description, Debit, Credit, Balance cells.
func EntryRows(entries []Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		debit, credit := "", ""
		if e.Amount.IsNegative() {
			debit = e.Amount.Abs().StringFixed(2)
		} else {
			credit = e.Amount.StringFixed(2)
		}
		rows[i] = []string{e.Date.Format("01/02/2006"), e.Description, debit, credit, e.Balance.StringFixed(2)}
	}
	return rows
}

type graphBuilder struct {
	blocks []tablegraph.Block
	next   int
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{}
}

func (b *graphBuilder) id() string {
	b.next++
	return "b" + strconv.Itoa(b.next)
}

func (b *graphBuilder) table(rows [][]string, confidence float64) {
	tableIdx := len(b.blocks)
	b.blocks = append(b.blocks, tablegraph.Block{ID: b.id(), Type: tablegraph.BlockTable, Confidence: confidence})

	var cellIDs []string
	for r, row := range rows {
		for c, text := range row {
			cell := tablegraph.Block{
				ID:          b.id(),
				Type:        tablegraph.BlockCell,
				RowIndex:    r + 1,
				ColumnIndex: c + 1,
				Confidence:  confidence,
			}
			var wordIDs []string
			for _, w := range strings.Fields(text) {
				word := tablegraph.Block{ID: b.id(), Type: tablegraph.BlockWord, Text: w, Confidence: confidence}
				b.blocks = append(b.blocks, word)
				wordIDs = append(wordIDs, word.ID)
			}
			if len(wordIDs) > 0 {
				cell.Relationships = []tablegraph.Relationship{{Type: tablegraph.RelationChild, IDs: wordIDs}}
			}
			b.blocks = append(b.blocks, cell)
			cellIDs = append(cellIDs, cell.ID)
		}
		b.blocks = append(b.blocks, tablegraph.Block{
			ID:   b.id(),
			Type: tablegraph.BlockLine,
			Text: strings.Join(row, " "),
		})
	}
	b.blocks[tableIdx].Relationships = []tablegraph.Relationship{{Type: tablegraph.RelationChild, IDs: cellIDs}}
}

func (b *graphBuilder) graph() *tablegraph.Graph {
	return tablegraph.NewGraph(b.blocks)
}
