package engine

import (
	"fmt"
	"math"
	"time"
)

const daysPerYear = 365.25

type MetricsReport struct {
	// Measured period, first defined return onwards
	Start time.Time
	End   time.Time
	Bars  int

	// Performance
	TotalReturn      float64
	AnnualizedReturn float64

	// Risk
	AnnualizedVolatility float64
	MaxDrawdown          float64
	MaxDrawdownDuration  time.Duration

	// Risk-adjusted. +Inf, -Inf or NaN when volatility is zero.
	SharpeRatio float64

	// Costs. TotalFees is the summed per-bar fee drag, not a currency amount.
	TradeCount int
	TotalFees  float64
}

// DivisionAnomaly reports whether the Sharpe ratio was computed against zero
// volatility and therefore holds a signed infinity or NaN.
func (r MetricsReport) DivisionAnomaly() bool {
	return r.AnnualizedVolatility == 0
}

// ComputeMetrics reduces a run into the statistics table.
//
// Bar 0 has no prior close, so its return is undefined and the whole row is
// dropped before any statistic: total return, elapsed years, drawdown and
// costs are all measured from bar 1. A run therefore needs at least 2 bars
// with a defined return. Volatility uses the estimator from cfg.
func ComputeMetrics(run *StrategyRun, cfg *MetricsConfig) (MetricsReport, error) {
	if err := cfg.validate(); err != nil {
		return MetricsReport{}, err
	}
	if run == nil {
		return MetricsReport{}, fmt.Errorf("nil run: %w", ErrInsufficientData)
	}
	rows := definedRows(run)
	if rows.len() < 2 {
		return MetricsReport{}, fmt.Errorf("need at least 2 bars with a defined return, got %d: %w", rows.len(), ErrInsufficientData)
	}

	years := calcYearsElapsed(rows.timestamps)
	if years <= 0 {
		return MetricsReport{}, fmt.Errorf("run spans zero time: %w", ErrInsufficientData)
	}

	report := MetricsReport{
		Start: rows.timestamps[0],
		End:   rows.timestamps[rows.len()-1],
		Bars:  rows.len(),
	}
	report.TotalReturn = calcTotalReturn(rows.equity)
	report.AnnualizedReturn = calcAnnualizedReturn(report.TotalReturn, years)
	report.AnnualizedVolatility = calcAnnualizedVolatility(rows.strategyReturns, cfg.volatility, cfg.barsPerYear)
	report.MaxDrawdown, report.MaxDrawdownDuration = calcDrawdownMetrics(rows.equity, rows.timestamps)
	report.SharpeRatio = calcSharpeRatio(report.AnnualizedReturn-cfg.riskFreeRate, report.AnnualizedVolatility)
	report.TradeCount, report.TotalFees = calcTradeCosts(rows.trades, run.feeRate)

	return report, nil
}

// measuredRows is the part of a run the statistics are computed over.
type measuredRows struct {
	timestamps      []time.Time
	equity          []float64
	strategyReturns []float64
	trades          []float64
}

func (m measuredRows) len() int {
	return len(m.equity)
}

// definedRows keeps only the rows whose raw return is defined.
func definedRows(run *StrategyRun) measuredRows {
	n := run.Len()
	m := measuredRows{
		timestamps:      make([]time.Time, 0, n),
		equity:          make([]float64, 0, n),
		strategyReturns: make([]float64, 0, n),
		trades:          make([]float64, 0, n),
	}
	for i, r := range run.returns {
		if math.IsNaN(r) {
			continue
		}
		m.timestamps = append(m.timestamps, run.timestamps[i])
		m.equity = append(m.equity, run.equity[i])
		m.strategyReturns = append(m.strategyReturns, run.strategyReturns[i])
		m.trades = append(m.trades, run.trades[i])
	}
	return m
}

func calcYearsElapsed(timestamps []time.Time) float64 {
	elapsed := timestamps[len(timestamps)-1].Sub(timestamps[0])
	return elapsed.Hours() / 24.0 / daysPerYear
}

func calcTotalReturn(equity []float64) float64 {
	return equity[len(equity)-1]/equity[0] - 1
}

func calcAnnualizedReturn(totalReturn, years float64) float64 {
	return math.Pow(1+totalReturn, 1/years) - 1
}

func calcAnnualizedVolatility(returns []float64, estimator VolatilityEstimator, barsPerYear float64) float64 {
	return stdDev(returns, estimator) * math.Sqrt(barsPerYear)
}

func stdDev(xs []float64, estimator VolatilityEstimator) float64 {
	n := len(xs)
	ddof := 1
	if estimator == PopulationStdDev {
		ddof = 0
	}
	if n-ddof <= 0 {
		return math.NaN()
	}

	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)

	var varianceSum float64
	for _, x := range xs {
		diff := x - mean
		varianceSum += diff * diff
	}
	return math.Sqrt(varianceSum / float64(n-ddof))
}

// calcDrawdownMetrics returns the deepest relative decline from the running
// peak (a value in [-1, 0] for non-negative equity) and the time elapsed
// between that peak and the trough.
func calcDrawdownMetrics(equity []float64, timestamps []time.Time) (float64, time.Duration) {
	peak := equity[0]
	peakTime := timestamps[0]

	maxDD := 0.0
	var maxDDDuration time.Duration

	for i, eq := range equity {
		if eq > peak {
			peak = eq
			peakTime = timestamps[i]
		}
		if peak <= 0 {
			continue
		}
		dd := (eq - peak) / peak
		if dd < maxDD {
			maxDD = dd
			maxDDDuration = timestamps[i].Sub(peakTime)
		}
	}
	return maxDD, maxDDDuration
}

// calcSharpeRatio divides explicitly so zero volatility maps to a signed
// infinity, or NaN when the numerator is zero as well.
func calcSharpeRatio(excessReturn, volatility float64) float64 {
	if volatility != 0 {
		return excessReturn / volatility
	}
	switch {
	case excessReturn > 0:
		return math.Inf(1)
	case excessReturn < 0:
		return math.Inf(-1)
	}
	return math.NaN()
}

// calcTradeCosts counts bars where exposure changed and sums the fee drag in
// return units (0.001 per unit of position change at 10bps).
func calcTradeCosts(trades []float64, feeRate float64) (int, float64) {
	count := 0
	fees := 0.0
	for _, tr := range trades {
		if tr == 0 {
			continue
		}
		count++
		fees += feeRate * tr
	}
	return count, fees
}
