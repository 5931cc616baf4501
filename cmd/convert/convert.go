package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/statement-ledger/internal/domain/export"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/engine"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/intake"
	"github.com/FACorreiaa/statement-ledger/pkg/money"
	"github.com/FACorreiaa/statement-ledger/pkg/storage"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv"
)

// FileResult is the outcome of converting one input file.
type FileResult struct {
	Path     string
	RunID    uuid.UUID
	Strategy engine.Strategy
	Outcome  engine.Outcome
	Records  int
	Output   *storage.FileInfo
	Err      error
}

// Converter runs statement files through the engine and stores the rendered
// ledgers under one batch.
type Converter struct {
	engine   *engine.Engine
	storage  storage.Storage
	strategy engine.Strategy
	format   string
	currency string
	workers  int
	batchID  uuid.UUID
	logger   *slog.Logger
}

func NewConverter(e *engine.Engine, s storage.Storage, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		engine:   e,
		storage:  s,
		strategy: engine.StrategyHeuristic,
		format:   "xlsx",
		currency: money.USD,
		workers:  1,
		batchID:  uuid.New(),
		logger:   logger,
	}
}

func (c *Converter) WithStrategy(s engine.Strategy) *Converter {
	c.strategy = s
	return c
}

func (c *Converter) WithFormat(format, currency string) *Converter {
	c.format = format
	if currency != "" {
		c.currency = currency
	}
	return c
}

func (c *Converter) WithWorkers(n int) *Converter {
	if n > 0 {
		c.workers = n
	}
	return c
}

func (c *Converter) BatchID() uuid.UUID {
	return c.batchID
}

// ConvertAll converts paths concurrently. Results keep the order of paths; a
// failed file does not stop the others.
func (c *Converter) ConvertAll(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = c.ConvertFile(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("batch canceled: %w", err)
	}
	return results, nil
}

// ConvertFile validates, converts and stores a single statement.
func (c *Converter) ConvertFile(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path}
	logger := c.logger.With("file", path)

	doc, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read statement: %w", err)
		return res
	}

	name := filepath.Base(path)
	if err := intake.Check(name, http.DetectContentType(doc), doc); err != nil {
		logger.Warn("statement rejected", "error", err)
		res.Err = err
		return res
	}

	out, err := c.engine.Convert(ctx, doc, c.strategy)
	if err != nil {
		logger.Error("conversion failed", "strategy", c.strategy, "error", err)
		res.Err = err
		return res
	}
	res.RunID = out.RunID
	res.Strategy = out.Strategy
	res.Outcome = out.Outcome
	res.Records = len(out.Records)

	var buf bytes.Buffer
	contentType, ext := contentTypeXLSX, ".xlsx"
	switch c.format {
	case "csv":
		contentType, ext = contentTypeCSV, ".csv"
		err = export.WriteCSV(&buf, out.Records)
	default:
		err = export.WriteWorkbook(&buf, out.Records, export.WorkbookOptions{
			Currency: c.currency,
			Metadata: out.Metadata,
		})
	}
	if err != nil {
		res.Err = fmt.Errorf("failed to render ledger: %w", err)
		return res
	}

	info, err := c.storage.Save(ctx, c.batchID, outputName(name, ext), name, contentType, &buf)
	if err != nil {
		res.Err = fmt.Errorf("failed to store ledger: %w", err)
		return res
	}
	res.Output = info

	logger.Info("statement converted",
		"runID", out.RunID,
		"strategy", out.Strategy,
		"outcome", out.Outcome,
		"records", len(out.Records),
		"output", info.Path,
		"duration", out.Duration)
	return res
}

func outputName(source, ext string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ext
}

// expandInputs replaces directories with the PDF files directly inside them.
func expandInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !st.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}
