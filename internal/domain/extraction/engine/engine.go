// Package engine drives a statement through one of the two extraction
// strategies and returns an ordered, validated ledger.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/heuristic"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/layout"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/quality"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/record"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/tablegraph"
)

var (
	// ErrUnreadableDocument means no text could be pulled from the document.
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrNoTokenSource is returned when the heuristic path is requested on raw
	// bytes without a token source.
	ErrNoTokenSource = errors.New("no token source configured")

	// ErrNoAnalysisService is returned when the table path is requested on raw
	// bytes without an analysis service.
	ErrNoAnalysisService = errors.New("no analysis service configured")
)

// DefaultAnalysisTimeout bounds one call to the analysis service.
const DefaultAnalysisTimeout = 60 * time.Second

var tracer = otel.Tracer("github.com/FACorreiaa/statement-ledger/internal/domain/extraction/engine")

// TokenSource pulls positioned text tokens out of a document.
type TokenSource interface {
	Tokens(ctx context.Context, document []byte) ([]layout.Page, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context, document []byte) ([]layout.Page, error)

func (f TokenFunc) Tokens(ctx context.Context, document []byte) ([]layout.Page, error) {
	return f(ctx, document)
}

// Options tune a conversion.
type Options struct {
	// AnalysisTimeout bounds the analysis call. Zero means DefaultAnalysisTimeout.
	AnalysisTimeout time.Duration
	// FallbackToHeuristic re-routes a table conversion that found no
	// suitable table to the text heuristics, when tokens can be obtained.
	FallbackToHeuristic bool
	// LineTolerance is the vertical tolerance for line reconstruction.
	// Zero means layout.DefaultTolerance.
	LineTolerance float64
	// Now dates diagnostic records. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the options used by NewEngine when none are set.
func DefaultOptions() Options {
	return Options{
		AnalysisTimeout: DefaultAnalysisTimeout,
		LineTolerance:   layout.DefaultTolerance,
		Now:             time.Now,
	}
}

// Stats summarizes the work done for a document.
type Stats struct {
	Lines      int
	Classified int
	Stage      int // heuristic stage that succeeded, -1 when none
	Tables     int
	Skipped    int // table rows that could not be parsed
	Candidates int
	Rejected   int
	Duplicates int
}

// Result is a successful conversion. A diagnostic outcome is a success: its
// records describe the document instead of transactions.
type Result struct {
	RunID     uuid.UUID
	Requested Strategy
	// Strategy is the path that produced Records. It differs from Requested
	// after a fallback.
	Strategy Strategy
	Outcome  Outcome
	Records  []record.TransactionRecord
	Metadata []tablegraph.KeyValue
	Mapping  *tablegraph.RoleMapping
	Trace    []State
	Stats    Stats
	Duration time.Duration
}

// Engine converts statements. It holds no per-document state and is safe
// for concurrent use once configured.
type Engine struct {
	tokens        TokenSource
	analysis      tablegraph.AnalysisService
	reconstructor *layout.Reconstructor
	parser        *heuristic.Parser
	quality       *quality.Control
	sink          EventSink
	metrics       *Metrics
	opts          Options
	logger        *slog.Logger
}

// NewEngine creates an engine with the default parser and quality control.
func NewEngine(logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = DefaultAnalysisTimeout
	}
	if opts.LineTolerance <= 0 {
		opts.LineTolerance = layout.DefaultTolerance
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		reconstructor: layout.NewReconstructor(opts.LineTolerance),
		parser:        heuristic.NewParser(),
		quality:       quality.New(),
		sink:          NewLogSink(logger),
		opts:          opts,
		logger:        logger,
	}
}

// WithTokenSource sets where the heuristic path gets its tokens.
func (e *Engine) WithTokenSource(ts TokenSource) *Engine {
	e.tokens = ts
	return e
}

// WithAnalysisService sets the service used by the table path.
func (e *Engine) WithAnalysisService(svc tablegraph.AnalysisService) *Engine {
	e.analysis = svc
	return e
}

// WithEventSink replaces the default log sink.
func (e *Engine) WithEventSink(sink EventSink) *Engine {
	e.sink = sink
	return e
}

// WithMetrics enables Prometheus metrics.
func (e *Engine) WithMetrics(m *Metrics) *Engine {
	e.metrics = m
	return e
}

// WithParser replaces the heuristic parser.
func (e *Engine) WithParser(p *heuristic.Parser) *Engine {
	e.parser = p
	return e
}

// Convert extracts a ledger from document bytes with the given strategy.
func (e *Engine) Convert(ctx context.Context, document []byte, strategy Strategy) (*Result, error) {
	switch strategy {
	case StrategyHeuristic:
		if e.tokens == nil {
			return nil, ErrNoTokenSource
		}
	case StrategyTable:
		if e.analysis == nil {
			return nil, ErrNoAnalysisService
		}
	default:
		return nil, fmt.Errorf("unknown extraction strategy %q", strategy)
	}
	return e.execute(ctx, &run{strategy: strategy, document: document})
}

// ExtractTokens runs the heuristic path on tokens that were already
// extracted from a document.
func (e *Engine) ExtractTokens(ctx context.Context, pages []layout.Page) (*Result, error) {
	return e.execute(ctx, &run{strategy: StrategyHeuristic, pages: pages, havePages: true})
}

// ExtractGraph runs the table path on a block graph that was already
// obtained from the analysis service.
func (e *Engine) ExtractGraph(ctx context.Context, graph *tablegraph.Graph) (*Result, error) {
	return e.execute(ctx, &run{strategy: StrategyTable, graph: graph, haveGraph: true})
}

// run carries the data of one conversion between states.
type run struct {
	id        uuid.UUID
	strategy  Strategy
	requested Strategy
	document  []byte

	pages     []layout.Page
	havePages bool
	graph     *tablegraph.Graph
	haveGraph bool

	lines      []string // text shown in a diagnostic result
	tables     []tablegraph.Table
	table      tablegraph.Table
	candidates []record.TransactionRecord

	result Result
}

func (e *Engine) execute(ctx context.Context, r *run) (*Result, error) {
	started := time.Now()
	r.id = uuid.New()
	r.requested = r.strategy
	r.result = Result{
		RunID:     r.id,
		Requested: r.strategy,
		Outcome:   OutcomeTransactions,
		Stats:     Stats{Stage: -1},
	}

	ctx, span := tracer.Start(ctx, "engine.convert", trace.WithAttributes(
		attribute.String("extraction.run_id", r.id.String()),
		attribute.String("extraction.strategy", string(r.strategy)),
	))
	defer span.End()

	state := StateStart
	for {
		if err := ctx.Err(); err != nil {
			return nil, e.fail(ctx, span, r, state, started, fmt.Errorf("conversion canceled: %w", err))
		}
		r.result.Trace = append(r.result.Trace, state)
		e.emit(ctx, r, EventStateEntered, state, nil)
		if state == StateDone {
			break
		}

		next, err := e.step(ctx, r, state)
		if err != nil {
			return nil, e.fail(ctx, span, r, state, started, err)
		}
		state = next
	}

	res := r.result
	res.Strategy = r.strategy
	res.Duration = time.Since(started)

	e.metrics.observeConversion(r.requested, string(res.Outcome), len(res.Records), res.Duration)
	span.SetAttributes(
		attribute.String("extraction.outcome", string(res.Outcome)),
		attribute.Int("extraction.records", len(res.Records)),
	)
	e.emit(ctx, r, EventCompleted, StateDone, map[string]any{
		"outcome":  string(res.Outcome),
		"strategy": string(res.Strategy),
		"records":  len(res.Records),
	})
	return &res, nil
}

func (e *Engine) fail(ctx context.Context, span trace.Span, r *run, state State, started time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	e.metrics.observeConversion(r.requested, "error", 0, time.Since(started))
	// ctx may be done here; sinks still get the failure.
	e.emit(context.WithoutCancel(ctx), r, EventFailed, state, map[string]any{"error": err.Error()})
	return err
}

func (e *Engine) step(ctx context.Context, r *run, state State) (State, error) {
	switch state {
	case StateStart:
		if r.strategy == StrategyTable {
			return StateAnalyzeTables, nil
		}
		return StateReconstructText, nil

	case StateReconstructText:
		if !r.havePages {
			pages, err := e.tokens.Tokens(ctx, r.document)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return 0, fmt.Errorf("conversion canceled: %w", ctxErr)
				}
				return 0, fmt.Errorf("failed to extract text: %w: %w", ErrUnreadableDocument, err)
			}
			r.pages, r.havePages = pages, true
		}
		r.lines = e.reconstructor.Lines(r.pages)
		r.result.Stats.Lines = len(r.lines)
		return StateParseHeuristic, nil

	case StateParseHeuristic:
		res := e.parser.Parse(r.lines)
		for _, rep := range res.Reports {
			e.metrics.observeCandidates(string(rep.Tier), rep.Candidates)
			e.emit(ctx, r, EventTierCompleted, state, map[string]any{
				"tier":       string(rep.Tier),
				"stage":      rep.Stage,
				"candidates": rep.Candidates,
				"valid":      rep.Valid,
			})
		}
		r.candidates = res.Candidates
		r.result.Stats.Classified = res.ClassifiedLines
		r.result.Stats.Stage = res.Stage
		return StateQualityControl, nil

	case StateAnalyzeTables:
		if !r.haveGraph {
			g, err := e.analyze(ctx, r.document)
			if err != nil {
				return 0, err
			}
			r.graph, r.haveGraph = g, true
		}
		r.tables = tablegraph.Resolve(r.graph)
		r.lines = r.graph.Lines()
		r.result.Metadata = r.graph.KeyValues()
		r.result.Stats.Tables = len(r.tables)
		return StateSelectTable, nil

	case StateSelectTable:
		table, ok := tablegraph.Select(r.tables)
		if !ok {
			if e.opts.FallbackToHeuristic && (r.havePages || (e.tokens != nil && r.document != nil)) {
				e.emit(ctx, r, EventFallback, state, map[string]any{"reason": tablegraph.ErrNoSuitableTable.Error()})
				r.strategy = StrategyHeuristic
				return StateReconstructText, nil
			}
			return 0, tablegraph.ErrNoSuitableTable
		}
		r.table = table
		e.emit(ctx, r, EventTableSelected, state, map[string]any{
			"table": table.ID,
			"rows":  table.RowCount(),
			"score": tablegraph.Score(table),
		})
		return StateParseTable, nil

	case StateParseTable:
		records, mapping, skipped := tablegraph.ParseRows(r.table)
		r.candidates = records
		r.result.Mapping = &mapping
		r.result.Stats.Skipped = skipped
		e.metrics.observeCandidates(tablegraph.TierTable, len(records))
		e.emit(ctx, r, EventRowsParsed, state, map[string]any{
			"records": len(records),
			"skipped": skipped,
		})
		return StateQualityControl, nil

	case StateQualityControl:
		rep := e.quality.Apply(r.candidates)
		r.result.Records = rep.Records
		r.result.Stats.Candidates = rep.Input
		r.result.Stats.Rejected = rep.Rejected
		r.result.Stats.Duplicates = rep.Duplicates
		e.emit(ctx, r, EventQualityChecked, state, map[string]any{
			"input":      rep.Input,
			"kept":       len(rep.Records),
			"rejected":   rep.Rejected,
			"duplicates": rep.Duplicates,
		})
		if rep.NoTransactions() {
			return StateDiagnostic, nil
		}
		return StateDone, nil

	case StateDiagnostic:
		r.result.Outcome = OutcomeDiagnostic
		r.result.Records = diagnosticRecords(r.lines, e.opts.Now())
		e.emit(ctx, r, EventDiagnostic, state, map[string]any{"lines": len(r.lines)})
		return StateDone, nil
	}
	return 0, fmt.Errorf("unexpected state %s", state)
}

// analyze calls the analysis service once under the configured timeout.
func (e *Engine) analyze(ctx context.Context, document []byte) (*tablegraph.Graph, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.AnalysisTimeout)
	defer cancel()

	g, err := e.analysis.Analyze(callCtx, document)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("conversion canceled: %w", ctxErr)
		}
		timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)
		return nil, &tablegraph.ServiceError{Err: err, Timeout: timeout}
	}
	if g == nil {
		g = tablegraph.NewGraph(nil)
	}
	return g, nil
}

func (e *Engine) emit(ctx context.Context, r *run, kind EventKind, state State, attrs map[string]any) {
	if e.sink == nil {
		return
	}
	e.sink.Emit(ctx, Event{RunID: r.id, Kind: kind, State: state, Attrs: attrs})
}
