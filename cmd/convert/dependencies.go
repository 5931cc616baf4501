package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/engine"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/pdftext"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/tablegraph"
	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/textract"
	"github.com/FACorreiaa/statement-ledger/pkg/config"
	"github.com/FACorreiaa/statement-ledger/pkg/storage"
)

// Dependencies holds everything a conversion batch needs
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Registry *prometheus.Registry
	Metrics  *engine.Metrics

	// Extraction
	Extractor *pdftext.Extractor
	Analysis  tablegraph.AnalysisService
	Engine    *engine.Engine

	Storage   storage.Storage
	Converter *Converter

	metricsServer *http.Server
}

// InitDependencies wires the converter from configuration
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	if err := deps.initExtraction(ctx); err != nil {
		return nil, fmt.Errorf("failed to init extraction: %w", err)
	}

	if err := deps.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	deps.Converter = NewConverter(deps.Engine, deps.Storage, logger).
		WithStrategy(engine.Strategy(cfg.Extraction.Strategy)).
		WithFormat(cfg.Output.Format, cfg.Output.Currency).
		WithWorkers(cfg.Extraction.Workers)

	logger.Info("all dependencies initialized successfully", "batchID", deps.Converter.BatchID())

	return deps, nil
}

// initMetrics creates the registry and, when enabled, the /metrics endpoint
func (d *Dependencies) initMetrics() error {
	d.Registry = prometheus.NewRegistry()
	if err := d.Registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	d.Metrics = engine.NewMetrics(d.Registry)

	if !d.Config.Observability.MetricsEnabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	d.metricsServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", d.Config.Observability.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := d.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.Logger.Error("metrics server stopped", "error", err)
		}
	}()
	d.Logger.Info("metrics endpoint listening", "addr", d.metricsServer.Addr)
	return nil
}

// initExtraction builds the token source, the optional analysis service and
// the engine that drives them
func (d *Dependencies) initExtraction(ctx context.Context) error {
	d.Extractor = pdftext.NewExtractor(d.Logger)

	if region := d.Config.Analysis.Region; region != "" {
		client, err := textract.New(ctx, region, d.Config.Analysis.RateLimit, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create textract client: %w", err)
		}
		d.Analysis = client
		d.Logger.Info("table analysis enabled", "region", region)
	} else {
		d.Logger.Info("table analysis disabled, AWS_REGION not set")
	}

	d.Engine = engine.NewEngine(d.Logger, engine.Options{
		AnalysisTimeout:     d.Config.Analysis.Timeout,
		FallbackToHeuristic: d.Config.Extraction.Fallback,
		LineTolerance:       d.Config.Extraction.LineTolerance,
	}).
		WithTokenSource(d.Extractor).
		WithMetrics(d.Metrics)
	if d.Analysis != nil {
		d.Engine.WithAnalysisService(d.Analysis)
	}
	return nil
}

func (d *Dependencies) initStorage() error {
	local, err := storage.NewLocalStorage(d.Config.Output.Dir)
	if err != nil {
		return err
	}
	d.Storage = local
	return nil
}

// Cleanup stops the metrics endpoint
func (d *Dependencies) Cleanup() {
	if d.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.metricsServer.Shutdown(ctx); err != nil {
			d.Logger.Warn("failed to stop metrics server", "error", err)
		}
	}
	d.Logger.Info("cleanup completed")
}
