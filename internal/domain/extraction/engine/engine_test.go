package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/engine"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/fixtures"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/layout"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/record"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/tablegraph"
)

var fixedNow = time.Date(2025, time.March, 3, 15, 4, 5, 0, time.UTC)

func newEngine(opts engine.Options) (*engine.Engine, *engine.Recorder) {
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	rec := &engine.Recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return engine.NewEngine(logger, opts).WithEventSink(rec), rec
}

func statementPages(lines ...string) []layout.Page {
	return fixtures.NewGenerator(1).Pages(lines, 0)
}

func TestExtractTokens_DebitAndCredit(t *testing.T) {
	e, _ := newEngine(engine.Options{})
	pages := statementPages(
		"Example Bank Statement",
		"14-Dec-2024 PRCR/Google One 650.00 2530.00",
		"14-Dec-2024 CRTR Salary Payment 3000.00 8300.00",
	)

	res, err := e.ExtractTokens(context.Background(), pages)
	require.NoError(t, err)

	assert.Equal(t, engine.OutcomeTransactions, res.Outcome)
	assert.Equal(t, engine.StrategyHeuristic, res.Strategy)
	require.Len(t, res.Records, 2)

	google := res.Records[0]
	assert.Equal(t, "2024-12-14", google.ISODate())
	assert.Contains(t, google.Description, "Google")
	assert.True(t, google.Amount.Equal(decimal.RequireFromString("-650.00")))
	assert.True(t, google.Balance.Equal(decimal.RequireFromString("2530.00")))
	assert.Equal(t, record.Debit, google.Type)

	salary := res.Records[1]
	assert.True(t, salary.Amount.Equal(decimal.RequireFromString("3000.00")))
	assert.Equal(t, record.Credit, salary.Type)

	assert.Equal(t, []engine.State{
		engine.StateStart,
		engine.StateReconstructText,
		engine.StateParseHeuristic,
		engine.StateQualityControl,
		engine.StateDone,
	}, res.Trace)
	assert.Equal(t, 0, res.Stats.Stage)
}

func TestExtractTokens_EmptyDocumentIsDiagnostic(t *testing.T) {
	e, rec := newEngine(engine.Options{})

	res, err := e.ExtractTokens(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, engine.OutcomeDiagnostic, res.Outcome)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Extracted text: 0 characters, 0 lines", res.Records[0].Description)
	assert.Equal(t, "No transactions detected", res.Records[1].Description)
	for _, r := range res.Records {
		assert.True(t, r.Amount.IsZero())
		assert.True(t, r.Balance.IsZero())
		assert.Equal(t, record.Credit, r.Type)
		assert.Equal(t, record.SourceDiagnostic, r.Source)
		assert.Equal(t, "2025-03-03", r.ISODate())
	}
	assert.Equal(t, []engine.State{
		engine.StateStart,
		engine.StateReconstructText,
		engine.StateParseHeuristic,
		engine.StateQualityControl,
		engine.StateDiagnostic,
		engine.StateDone,
	}, res.Trace)
	assert.Len(t, rec.Kind(engine.EventDiagnostic), 1)
}

func TestExtractTokens_DiagnosticListsLines(t *testing.T) {
	e, _ := newEngine(engine.Options{})

	lines := make([]string, 0, 60)
	lines = append(lines, "Welcome to Example Bank "+strings.Repeat("x", 200))
	for i := 1; i < 60; i++ {
		lines = append(lines, "Page footer "+strings.Repeat("y", i%7+1))
	}

	res, err := e.ExtractTokens(context.Background(), statementPages(lines...))
	require.NoError(t, err)

	assert.Equal(t, engine.OutcomeDiagnostic, res.Outcome)
	require.Len(t, res.Records, 2+50)
	first := res.Records[2].Description
	assert.True(t, strings.HasPrefix(first, "Line 1: Welcome to Example Bank"))
	assert.Equal(t, len("Line 1: ")+150, len(first))
	assert.True(t, strings.HasPrefix(res.Records[51].Description, "Line 50: "))
}

func TestExtractTokens_GeneratedStatement(t *testing.T) {
	gen := fixtures.NewGenerator(99)
	entries := gen.Entries(40, decimal.NewFromInt(1_000_000))
	pages := gen.Pages(fixtures.Lines(entries), 15)

	e, rec := newEngine(engine.Options{})
	res, err := e.ExtractTokens(context.Background(), pages)
	require.NoError(t, err)

	require.Equal(t, engine.OutcomeTransactions, res.Outcome)
	assert.NotEmpty(t, res.Records)
	assert.LessOrEqual(t, len(res.Records), len(entries))

	seen := map[string]bool{}
	for i, r := range res.Records {
		if i > 0 {
			assert.False(t, r.Date.Before(res.Records[i-1].Date))
		}
		assert.False(t, seen[r.DedupKey()])
		seen[r.DedupKey()] = true
		assert.Equal(t, r.IsDebit(), r.Amount.IsNegative())
	}

	reports := rec.Kind(engine.EventTierCompleted)
	require.NotEmpty(t, reports)
	assert.Equal(t, "strict", reports[0].String("tier"))
	assert.Len(t, rec.Kind(engine.EventCompleted), 1)
}

func tableEntries(seed int64, n int) ([]fixtures.Entry, *tablegraph.Graph) {
	entries := fixtures.NewGenerator(seed).Entries(n, decimal.NewFromInt(50_000))
	header := []string{"Date", "Description", "Debit", "Credit", "Balance"}
	return entries, fixtures.TableGraph(header, fixtures.EntryRows(entries), 97.5)
}

func TestExtractGraph_TablePath(t *testing.T) {
	entries, graph := tableEntries(5, 25)
	e, rec := newEngine(engine.Options{})

	res, err := e.ExtractGraph(context.Background(), graph)
	require.NoError(t, err)

	assert.Equal(t, engine.OutcomeTransactions, res.Outcome)
	assert.Equal(t, engine.StrategyTable, res.Strategy)
	require.Len(t, res.Records, len(entries))
	for i, r := range res.Records {
		assert.Equal(t, entries[i].Date, r.Date)
		assert.True(t, entries[i].Amount.Equal(r.Amount), "row %d", i)
		assert.Equal(t, record.SourceTable, r.Source)
	}

	require.NotNil(t, res.Mapping)
	assert.Equal(t, 2, res.Mapping.Amount)
	assert.True(t, res.Mapping.AmountIsDebit)
	assert.Equal(t, 3, res.Mapping.Credit)
	assert.Equal(t, 1, res.Stats.Tables)
	assert.Equal(t, []engine.State{
		engine.StateStart,
		engine.StateAnalyzeTables,
		engine.StateSelectTable,
		engine.StateParseTable,
		engine.StateQualityControl,
		engine.StateDone,
	}, res.Trace)
	require.Len(t, rec.Kind(engine.EventTableSelected), 1)
	assert.Equal(t, len(entries)+1, rec.Kind(engine.EventTableSelected)[0].Int("rows"))
}

func TestExtractGraph_PicksTransactionTable(t *testing.T) {
	summary := [][]string{
		{"Account", "Owner"},
		{"12345678", "Jane Doe"},
	}
	ledger := [][]string{
		{"Date", "Details", "Amount", "Balance"},
		{"12/14/2024", "Google One", "-650.00", "2530.00"},
		{"12/15/2024", "Salary", "3000.00", "5530.00"},
	}
	graph := fixtures.MultiTableGraph(99, summary, ledger)
	e, _ := newEngine(engine.Options{})

	res, err := e.ExtractGraph(context.Background(), graph)
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, record.Debit, res.Records[0].Type)
	assert.Equal(t, record.Credit, res.Records[1].Type)
	assert.Equal(t, 2, res.Stats.Tables)
}

func TestExtractGraph_NoTable(t *testing.T) {
	graph := tablegraph.NewGraph([]tablegraph.Block{
		{ID: "l1", Type: tablegraph.BlockLine, Text: "Example Bank"},
	})
	e, rec := newEngine(engine.Options{FallbackToHeuristic: true})

	// No tokens to fall back on.
	_, err := e.ExtractGraph(context.Background(), graph)
	require.ErrorIs(t, err, tablegraph.ErrNoSuitableTable)
	assert.False(t, errors.Is(err, tablegraph.ErrServiceUnavailable))
	assert.Len(t, rec.Kind(engine.EventFailed), 1)
}

func TestExtractGraph_UnparseableRowsGiveDiagnostic(t *testing.T) {
	graph := fixtures.TableGraph(
		[]string{"Date", "Description", "Amount"},
		[][]string{{"not a date", "Opening", "10.00"}, {"12/14/2024", "Nothing", "0.00"}},
		90,
	)
	e, _ := newEngine(engine.Options{})

	res, err := e.ExtractGraph(context.Background(), graph)
	require.NoError(t, err)

	assert.Equal(t, engine.OutcomeDiagnostic, res.Outcome)
	assert.Equal(t, 2, res.Stats.Skipped)
	assert.Contains(t, res.Records[2].Description, "Date Description Amount")
}

func TestConvert_TableWithService(t *testing.T) {
	entries, graph := tableEntries(11, 10)
	var got []byte
	svc := tablegraph.AnalysisFunc(func(_ context.Context, doc []byte) (*tablegraph.Graph, error) {
		got = doc
		return graph, nil
	})
	e, _ := newEngine(engine.Options{})
	e.WithAnalysisService(svc)

	res, err := e.Convert(context.Background(), []byte("%PDF-1.7"), engine.StrategyTable)
	require.NoError(t, err)

	assert.Equal(t, []byte("%PDF-1.7"), got)
	assert.Len(t, res.Records, len(entries))
	assert.NotEqual(t, res.RunID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestConvert_ServiceFailure(t *testing.T) {
	svc := tablegraph.AnalysisFunc(func(context.Context, []byte) (*tablegraph.Graph, error) {
		return nil, errors.New("connection reset")
	})
	e, _ := newEngine(engine.Options{})
	e.WithAnalysisService(svc)

	_, err := e.Convert(context.Background(), []byte("%PDF"), engine.StrategyTable)
	require.ErrorIs(t, err, tablegraph.ErrServiceUnavailable)

	var serr *tablegraph.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.False(t, serr.Timeout)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestConvert_ServiceTimeout(t *testing.T) {
	svc := tablegraph.AnalysisFunc(func(ctx context.Context, _ []byte) (*tablegraph.Graph, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	e, _ := newEngine(engine.Options{AnalysisTimeout: 20 * time.Millisecond})
	e.WithAnalysisService(svc)

	_, err := e.Convert(context.Background(), []byte("%PDF"), engine.StrategyTable)

	var serr *tablegraph.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.True(t, serr.Timeout)
	assert.ErrorIs(t, err, tablegraph.ErrServiceUnavailable)
}

func TestConvert_FallbackToHeuristic(t *testing.T) {
	svc := tablegraph.AnalysisFunc(func(context.Context, []byte) (*tablegraph.Graph, error) {
		return tablegraph.NewGraph(nil), nil
	})
	tokens := engine.TokenFunc(func(context.Context, []byte) ([]layout.Page, error) {
		return statementPages("14-Dec-2024 PRCR/Google One 650.00 2530.00"), nil
	})
	e, rec := newEngine(engine.Options{FallbackToHeuristic: true})
	e.WithAnalysisService(svc).WithTokenSource(tokens)

	res, err := e.Convert(context.Background(), []byte("%PDF"), engine.StrategyTable)
	require.NoError(t, err)

	assert.Equal(t, engine.StrategyTable, res.Requested)
	assert.Equal(t, engine.StrategyHeuristic, res.Strategy)
	require.Len(t, res.Records, 1)
	assert.Contains(t, res.Trace, engine.StateSelectTable)
	assert.Contains(t, res.Trace, engine.StateReconstructText)
	assert.Len(t, rec.Kind(engine.EventFallback), 1)
}

func TestConvert_NoFallbackWithoutOption(t *testing.T) {
	svc := tablegraph.AnalysisFunc(func(context.Context, []byte) (*tablegraph.Graph, error) {
		return nil, nil
	})
	tokens := engine.TokenFunc(func(context.Context, []byte) ([]layout.Page, error) {
		t.Fatal("tokens must not be requested")
		return nil, nil
	})
	e, _ := newEngine(engine.Options{})
	e.WithAnalysisService(svc).WithTokenSource(tokens)

	_, err := e.Convert(context.Background(), []byte("%PDF"), engine.StrategyTable)
	assert.ErrorIs(t, err, tablegraph.ErrNoSuitableTable)
}

func TestConvert_UnreadableDocument(t *testing.T) {
	tokens := engine.TokenFunc(func(context.Context, []byte) ([]layout.Page, error) {
		return nil, errors.New("malformed xref table")
	})
	e, _ := newEngine(engine.Options{})
	e.WithTokenSource(tokens)

	_, err := e.Convert(context.Background(), []byte("junk"), engine.StrategyHeuristic)
	require.ErrorIs(t, err, engine.ErrUnreadableDocument)
	assert.Contains(t, err.Error(), "malformed xref table")
}

func TestConvert_MissingCollaborators(t *testing.T) {
	e, _ := newEngine(engine.Options{})

	_, err := e.Convert(context.Background(), nil, engine.StrategyHeuristic)
	assert.ErrorIs(t, err, engine.ErrNoTokenSource)

	_, err = e.Convert(context.Background(), nil, engine.StrategyTable)
	assert.ErrorIs(t, err, engine.ErrNoAnalysisService)

	_, err = e.Convert(context.Background(), nil, engine.Strategy("ocr"))
	assert.Error(t, err)
}

func TestConvert_Canceled(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e, rec := newEngine(engine.Options{})

		res, err := e.ExtractTokens(ctx, statementPages("14-Dec-2024 PRCR/Google One 650.00 2530.00"))
		assert.Nil(t, res)
		require.ErrorIs(t, err, context.Canceled)
		assert.Len(t, rec.Kind(engine.EventFailed), 1)
	})

	t.Run("during analysis", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		svc := tablegraph.AnalysisFunc(func(callCtx context.Context, _ []byte) (*tablegraph.Graph, error) {
			cancel()
			<-callCtx.Done()
			return nil, callCtx.Err()
		})
		e, _ := newEngine(engine.Options{})
		e.WithAnalysisService(svc)

		_, err := e.Convert(ctx, []byte("%PDF"), engine.StrategyTable)
		require.ErrorIs(t, err, context.Canceled)
		assert.False(t, errors.Is(err, tablegraph.ErrServiceUnavailable))
	})
}

func TestEngine_ConcurrentUse(t *testing.T) {
	e, _ := newEngine(engine.Options{})
	pages := statementPages("14-Dec-2024 PRCR/Google One 650.00 2530.00")

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			res, err := e.ExtractTokens(context.Background(), pages)
			if err == nil && len(res.Records) != 1 {
				err = errors.New("unexpected record count")
			}
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := engine.ParseStrategy("table")
	require.NoError(t, err)
	assert.Equal(t, engine.StrategyTable, s)

	s, err = engine.ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, engine.StrategyHeuristic, s)

	_, err = engine.ParseStrategy("vision")
	assert.Error(t, err)
}
