package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"vecbacktest/internal/logging"
)

var engineLog = logging.New("engine")

// Engine loads the series for one data feed, runs the batch and hands the
// result to the reporting layer.
type Engine struct {
	db         DataStore
	feed       *DataFeedConfig
	strategies []StrategySpec
	runner     *BatchRunner
	reporting  *ReportingConfig
	out        io.Writer
}

func NewEngine(
	feed *DataFeedConfig,
	strategies []StrategySpec,
	simulationConfig *SimulationConfig,
	metricsConfig *MetricsConfig,
	batchConfig *BatchConfig,
	reportingConfig *ReportingConfig,
	db DataStore,
) *Engine {
	if reportingConfig == nil {
		reportingConfig = NewReportingConfig(false, "")
	}
	return &Engine{
		db:         db,
		feed:       feed,
		strategies: strategies,
		runner:     NewBatchRunner(simulationConfig, metricsConfig, batchConfig),
		reporting:  reportingConfig,
		out:        os.Stdout,
	}
}

func (e *Engine) Run(ctx context.Context) (*BatchResult, error) {
	// Load the data
	series, err := e.loadData(ctx)
	if err != nil {
		return nil, err
	}
	// Run every strategy against it
	result, err := e.runner.Run(ctx, series, e.strategies)
	if err != nil {
		return nil, err
	}

	if e.reporting.printReport {
		e.printReport(result)
	}
	if e.reporting.csvDir != "" {
		if err := e.writeCSVReports(e.reporting.csvDir, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (e *Engine) loadData(ctx context.Context) (*Series, error) {
	if e.feed == nil {
		return nil, fmt.Errorf("missing data feed: %w", ErrInvalidConfig)
	}
	slog.Info("loading data", "ticker", e.feed.ticker, "interval", e.feed.interval, "start", e.feed.start, "end", e.feed.end)
	candles, err := e.db.GetCandles(ctx, e.feed.ticker, e.feed.interval, e.feed.start, e.feed.end)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", e.feed.ticker, err)
	}
	series, err := NewSeries(candles)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", e.feed.ticker, err)
	}
	slog.Info("data loaded", "ticker", e.feed.ticker, "bars", series.Len())
	return series, nil
}
