package engine

import (
	"math"
	"testing"

	"vecbacktest/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate_ThreeBarScenario(t *testing.T) {
	series := mockSeries(100, 110, 99)

	run, err := Simulate(series, types.Signal{1, 1, 0}, simConfig(1000, 0.01))
	require.NoError(t, err)

	returns := run.Returns()
	assert.True(t, math.IsNaN(returns[0]))
	assert.InDelta(t, 0.1, returns[1], 1e-12)
	assert.InDelta(t, -0.1, returns[2], 1e-12)

	assert.Equal(t, []float64{0, 1, 1}, run.Positions())
	assert.Equal(t, []float64{0, 1, 0}, run.Trades())

	strat := run.StrategyReturns()
	assert.InDelta(t, 0.09, strat[1], 1e-12)
	assert.InDelta(t, -0.1, strat[2], 1e-12)

	equity := run.Equity()
	assert.InDelta(t, 1000, equity[0], 1e-9)
	assert.InDelta(t, 1090, equity[1], 1e-9)
	assert.InDelta(t, 981, equity[2], 1e-9)
	assert.InDelta(t, 981, run.FinalEquity(), 1e-9)
	assert.Equal(t, 1000.0, run.InitialCapital())
	assert.Equal(t, 0.01, run.FeeRate())
}

func TestSimulate_PositionLagsSignalByOneBar(t *testing.T) {
	series := mockSeries(10, 11, 12, 13, 14)
	signal := types.Signal{1, -1, 0.5, 0, 1}

	run, err := Simulate(series, signal, simConfig(1, 0))
	require.NoError(t, err)

	positions := run.Positions()
	assert.Equal(t, 0.0, positions[0])
	for i := 1; i < len(signal); i++ {
		assert.Equal(t, signal[i-1], positions[i], "bar %d", i)
	}
	assert.Equal(t, []float64{0, 1, 2, 0.5, 0.5}, run.Trades())
}

func TestSimulate_NoLookAhead(t *testing.T) {
	closes := []float64{100, 103, 98, 101, 107, 95, 99}
	signal := types.Signal{1, 0, -1, 1, 1, 0, -1}
	const k = 3

	base, err := Simulate(mockSeries(closes...), signal, simConfig(1000, 0.001))
	require.NoError(t, err)

	tests := []struct {
		name   string
		closes []float64
		signal types.Signal
	}{
		{
			name:   "future signal changed",
			closes: closes,
			signal: append(append(types.Signal{}, signal[:k]...), -1, -1, -1, -1),
		},
		{
			name:   "future prices changed",
			closes: append(append([]float64{}, closes[:k+1]...), 1, 500, 2),
			signal: signal,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			run, err := Simulate(mockSeries(tc.closes...), tc.signal, simConfig(1000, 0.001))
			require.NoError(t, err)
			assert.Equal(t, base.Equity()[:k+1], run.Equity()[:k+1])
		})
	}
}

func TestSimulate_FeesNeverHelp(t *testing.T) {
	series := mockSeries(100, 105, 102, 108, 104, 110)
	signal := types.Signal{1, -1, 1, 0, 1, 1}

	prev := math.Inf(1)
	for _, fee := range []float64{0, 0.0005, 0.001, 0.01, 0.05} {
		run, err := Simulate(series, signal, simConfig(1000, fee))
		require.NoError(t, err)
		assert.LessOrEqual(t, run.FinalEquity(), prev, "fee %v", fee)
		prev = run.FinalEquity()
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	series := mockSeries(100, 105, 102, 108, 104, 110)
	signal := types.Signal{1, -1, 1, 0, 1, 1}

	a, err := Simulate(series, signal, simConfig(1000, 0.001))
	require.NoError(t, err)
	b, err := Simulate(series, signal, simConfig(1000, 0.001))
	require.NoError(t, err)

	assert.Equal(t, a.Equity(), b.Equity())
	assert.Equal(t, a.StrategyReturns(), b.StrategyReturns())
}

func TestSimulate_FlatSignalKeepsCapital(t *testing.T) {
	run, err := Simulate(mockSeries(100, 50, 200, 10), types.Constant(4, types.Flat), simConfig(1000, 0.01))
	require.NoError(t, err)

	for i, eq := range run.Equity() {
		assert.Equal(t, 1000.0, eq, "bar %d", i)
	}
}

func TestSimulate_SingleBar(t *testing.T) {
	run, err := Simulate(mockSeries(100), types.Signal{1}, simConfig(1000, 0.01))
	require.NoError(t, err)

	assert.Equal(t, 1, run.Len())
	assert.Equal(t, 1000.0, run.FinalEquity())
}

func TestSimulate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		series  *Series
		signal  types.Signal
		cfg     *SimulationConfig
		wantErr error
	}{
		{
			name:    "signal too short",
			series:  mockSeries(100, 101, 102),
			signal:  types.Signal{1, 1},
			cfg:     simConfig(1000, 0),
			wantErr: ErrAlignment,
		},
		{
			name:    "signal too long",
			series:  mockSeries(100, 101),
			signal:  types.Signal{1, 1, 1},
			cfg:     simConfig(1000, 0),
			wantErr: ErrAlignment,
		},
		{
			name:    "nil series",
			signal:  types.Signal{1},
			cfg:     simConfig(1000, 0),
			wantErr: ErrDataIntegrity,
		},
		{
			name:    "equity overflows",
			series:  mockSeries(100, 200),
			signal:  types.Signal{1e308, 0},
			cfg:     simConfig(1000, 0),
			wantErr: ErrNumericOverflow,
		},
		{
			name:    "NaN signal",
			series:  mockSeries(100, 200),
			signal:  types.Signal{math.NaN(), 0},
			cfg:     simConfig(1000, 0),
			wantErr: ErrNumericOverflow,
		},
		{
			name:    "zero close",
			series:  mockSeries(0, 200),
			signal:  types.Signal{1, 1},
			cfg:     simConfig(1000, 0),
			wantErr: ErrNumericOverflow,
		},
		{
			name:    "zero capital",
			series:  mockSeries(100, 200),
			signal:  types.Signal{1, 1},
			cfg:     simConfig(0, 0),
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative fee",
			series:  mockSeries(100, 200),
			signal:  types.Signal{1, 1},
			cfg:     simConfig(1000, -0.01),
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "nil config",
			series:  mockSeries(100, 200),
			signal:  types.Signal{1, 1},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			run, err := Simulate(tc.series, tc.signal, tc.cfg)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, run)
		})
	}
}
