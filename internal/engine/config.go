package engine

import (
	"fmt"
	"time"

	"vecbacktest/types"

	"github.com/shopspring/decimal"
)

type DataFeedConfig struct {
	ticker   string
	interval types.Interval
	start    time.Time
	end      time.Time
}

func NewDataFeedConfig(ticker string, interval types.Interval, start, end time.Time) *DataFeedConfig {
	return &DataFeedConfig{
		ticker:   ticker,
		interval: interval,
		start:    start,
		end:      end,
	}
}

type SimulationConfig struct {
	initialCapital decimal.Decimal
	feeRate        decimal.Decimal
}

// NewSimulationConfig builds the per-run parameters. feeRate is the fraction
// of notional charged per unit of position change (0.001 = 10bps).
func NewSimulationConfig(initialCapital, feeRate decimal.Decimal) *SimulationConfig {
	return &SimulationConfig{
		initialCapital: initialCapital,
		feeRate:        feeRate,
	}
}

func (c *SimulationConfig) validate() error {
	if c == nil {
		return fmt.Errorf("missing simulation config: %w", ErrInvalidConfig)
	}
	if !c.initialCapital.IsPositive() {
		return fmt.Errorf("initial capital %s must be positive: %w", c.initialCapital, ErrInvalidConfig)
	}
	if c.feeRate.IsNegative() {
		return fmt.Errorf("fee rate %s must not be negative: %w", c.feeRate, ErrInvalidConfig)
	}
	return nil
}

// VolatilityEstimator selects the standard deviation used for annualized
// volatility. Sample (n-1) is the default.
type VolatilityEstimator int

const (
	SampleStdDev VolatilityEstimator = iota
	PopulationStdDev
)

func ParseVolatilityEstimator(s string) (VolatilityEstimator, error) {
	switch s {
	case "", "sample":
		return SampleStdDev, nil
	case "population":
		return PopulationStdDev, nil
	}
	return 0, fmt.Errorf("unknown volatility estimator %q: %w", s, ErrInvalidConfig)
}

func (v VolatilityEstimator) String() string {
	if v == PopulationStdDev {
		return "population"
	}
	return "sample"
}

type MetricsConfig struct {
	barsPerYear  float64
	volatility   VolatilityEstimator
	riskFreeRate float64
}

// NewMetricsConfig requires barsPerYear to match the resampling period of the
// series (365 for daily crypto bars, 252 for daily equity sessions, ...).
// riskFreeRate is annual and subtracted from the annualized return before the
// Sharpe division.
func NewMetricsConfig(barsPerYear float64, volatility VolatilityEstimator, riskFreeRate float64) *MetricsConfig {
	return &MetricsConfig{
		barsPerYear:  barsPerYear,
		volatility:   volatility,
		riskFreeRate: riskFreeRate,
	}
}

func (c *MetricsConfig) validate() error {
	if c == nil {
		return fmt.Errorf("missing metrics config: %w", ErrInvalidConfig)
	}
	if !(c.barsPerYear > 0) {
		return fmt.Errorf("bars per year %v must be positive: %w", c.barsPerYear, ErrInvalidConfig)
	}
	return nil
}

type BatchConfig struct {
	workers      int
	showProgress bool
}

// NewBatchConfig sets how many strategies run concurrently. Values below 1
// run the batch sequentially.
func NewBatchConfig(workers int, showProgress bool) *BatchConfig {
	if workers < 1 {
		workers = 1
	}
	return &BatchConfig{
		workers:      workers,
		showProgress: showProgress,
	}
}

type ReportingConfig struct {
	printReport bool
	csvDir      string
}

// NewReportingConfig controls the presentation layer. An empty csvDir skips
// the CSV export.
func NewReportingConfig(printReport bool, csvDir string) *ReportingConfig {
	return &ReportingConfig{
		printReport: printReport,
		csvDir:      csvDir,
	}
}
