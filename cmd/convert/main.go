// Command convert turns bank statement PDFs into transaction ledgers.
//
//	convert [-strategy heuristic|table] [-format xlsx|csv] [-out dir] file.pdf|dir ...
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/engine"
	"github.com/FACorreiaa/statement-ledger/pkg/config"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		strategy = flag.String("strategy", "", "extraction strategy: heuristic or table (overrides EXTRACTION_STRATEGY)")
		format   = flag.String("format", "", "output format: xlsx or csv (overrides OUTPUT_FORMAT)")
		outDir   = flag.String("out", "", "output directory (overrides OUTPUT_DIR)")
		workers  = flag.Int("workers", 0, "documents converted in parallel (overrides CONVERT_WORKERS)")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		printError("Usage: convert [flags] file.pdf|dir ...\n")
		flag.PrintDefaults()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		printError("Error: %v\n", err)
		return 1
	}
	applyFlags(cfg, *strategy, *format, *outDir, *workers)
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		return 1
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := expandInputs(flag.Args())
	if err != nil {
		logger.Error("failed to collect inputs", "error", err)
		return 1
	}
	if len(paths) == 0 {
		logger.Warn("no statements to convert")
		return 0
	}

	deps, err := InitDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", "error", err)
		return 1
	}
	defer deps.Cleanup()

	results, err := deps.Converter.ConvertAll(ctx, paths)
	if err != nil {
		logger.Error("batch interrupted", "error", err)
	}

	converted, diagnostics, failures := 0, 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failures++
		case r.Outcome == engine.OutcomeDiagnostic:
			diagnostics++
		default:
			converted++
		}
	}
	logger.Info("batch complete",
		"batchID", deps.Converter.BatchID(),
		"files", len(paths),
		"converted", converted,
		"diagnostics", diagnostics,
		"failures", failures,
		"outputDir", cfg.Output.Dir)

	if failures > 0 || err != nil {
		return 1
	}
	return 0
}

func applyFlags(cfg *config.Config, strategy, format, outDir string, workers int) {
	if strategy != "" {
		cfg.Extraction.Strategy = strings.ToLower(strategy)
	}
	if format != "" {
		cfg.Output.Format = strings.ToLower(format)
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if workers > 0 {
		cfg.Extraction.Workers = workers
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
