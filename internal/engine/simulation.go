package engine

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// StrategyRun is the per-bar trajectory of one strategy. It is owned by the
// caller of Simulate and never mutated afterwards; accessors return copies.
type StrategyRun struct {
	timestamps      []time.Time
	returns         []float64
	positions       []float64
	trades          []float64
	strategyReturns []float64
	equity          []float64
	initialCapital  float64
	feeRate         float64
}

// Simulate turns a signal into positions, fees, returns and an equity curve.
//
// For every bar t:
//
//	return[t]   = close[t]/close[t-1] - 1          (NaN at t=0)
//	position[t] = signal[t-1]                      (0 at t=0)
//	trade[t]    = |position[t] - position[t-1]|
//	strategy[t] = return[t]*position[t] - fee*trade[t]
//	equity[t]   = equity[t-1] * (1 + strategy[t])  (initial capital at t=0)
//
// The one bar lag means a signal observed on bar t can only be acted on at
// bar t+1.
func Simulate(series *Series, signal []float64, cfg *SimulationConfig) (*StrategyRun, error) {
	if series == nil {
		return nil, fmt.Errorf("nil series: %w", ErrDataIntegrity)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	n := series.Len()
	if len(signal) != n {
		return nil, fmt.Errorf("signal has %d values, series has %d bars: %w", len(signal), n, ErrAlignment)
	}

	capital := cfg.initialCapital.InexactFloat64()
	fee := cfg.feeRate.InexactFloat64()

	run := &StrategyRun{
		timestamps:      series.Timestamps(),
		returns:         make([]float64, n),
		positions:       make([]float64, n),
		trades:          make([]float64, n),
		strategyReturns: make([]float64, n),
		equity:          make([]float64, n),
		initialCapital:  capital,
		feeRate:         fee,
	}

	run.returns[0] = math.NaN()
	run.equity[0] = capital

	for t := 1; t < n; t++ {
		ret := series.close(t)/series.close(t-1) - 1
		if !isFinite(ret) {
			return nil, overflowErr("return", t, series.timestamp(t), ret)
		}
		pos := signal[t-1]
		trade := math.Abs(pos - run.positions[t-1])
		strat := ret*pos - fee*trade
		if !isFinite(strat) {
			return nil, overflowErr("strategy return", t, series.timestamp(t), strat)
		}
		eq := run.equity[t-1] * (1 + strat)
		if !isFinite(eq) {
			return nil, overflowErr("equity", t, series.timestamp(t), eq)
		}

		run.returns[t] = ret
		run.positions[t] = pos
		run.trades[t] = trade
		run.strategyReturns[t] = strat
		run.equity[t] = eq
	}

	engineLog.Debug("simulation finished", "bars", n, "final_equity", run.equity[n-1])
	return run, nil
}

func overflowErr(field string, t int, ts time.Time, v float64) error {
	return fmt.Errorf("%s at bar %d (%s) is %v: %w", field, t, ts.Format(time.RFC3339), v, ErrNumericOverflow)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (r *StrategyRun) Len() int {
	return len(r.equity)
}

func (r *StrategyRun) Timestamps() []time.Time {
	return slices.Clone(r.timestamps)
}

// Returns are the raw close-to-close returns. Index 0 is NaN because no prior
// close exists.
func (r *StrategyRun) Returns() []float64 {
	return slices.Clone(r.returns)
}

func (r *StrategyRun) Positions() []float64 {
	return slices.Clone(r.positions)
}

// Trades holds |position[t] - position[t-1]|, the exposure change fees are
// charged on.
func (r *StrategyRun) Trades() []float64 {
	return slices.Clone(r.trades)
}

// StrategyReturns are net of fees.
func (r *StrategyRun) StrategyReturns() []float64 {
	return slices.Clone(r.strategyReturns)
}

func (r *StrategyRun) Equity() []float64 {
	return slices.Clone(r.equity)
}

func (r *StrategyRun) InitialCapital() float64 {
	return r.initialCapital
}

func (r *StrategyRun) FeeRate() float64 {
	return r.feeRate
}

func (r *StrategyRun) FinalEquity() float64 {
	return r.equity[len(r.equity)-1]
}
