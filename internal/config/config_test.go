package config

import (
	"os"
	"path/filepath"
	"testing"

	"vecbacktest/strategies"
	"vecbacktest/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
source:
  kind: parquet
  ticker: btcusd
  interval: D
  start: "2020-01-01"
  end: "2024-01-01T00:00:00Z"
  data_dir: /tmp/vecbacktest/data
  market: crypto
simulation:
  initial_capital: "25000"
  fee_rate: "0.0005"
metrics:
  bars_per_year: 365
  volatility: population
  risk_free_rate: 0.02
batch:
  workers: 4
  progress: true
reporting:
  print: true
  csv_dir: ./reports
logging:
  level: debug
  format: json
strategies:
  - id: hold
    kind: buy_and_hold
  - id: sma-10-30
    kind: trend_following
    params:
      fast: 10
      slow: 30
      allow_short: true
  - id: breakout
    kind: donchian
    params:
      lookback: 55
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DATABASE_URL", "DATA_DIR", "LOG_LEVEL", "BACKTEST_FEE_RATE"} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceParquet, cfg.Source.Kind)
	assert.Equal(t, "/tmp/vecbacktest/data", cfg.Source.DataDir)
	assert.Equal(t, "25000", cfg.Simulation.InitialCapital)
	assert.Equal(t, 365.0, cfg.Metrics.BarsPerYear)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.True(t, cfg.Reporting.Print)
	assert.Equal(t, "json", cfg.Logging.Format)
	require.Len(t, cfg.Strategies, 3)
	assert.Equal(t, "sma-10-30", cfg.Strategies[1].ID)

	feed := cfg.DataFeed()
	require.NotNil(t, feed)
	assert.NotNil(t, cfg.SimulationConfig())
	assert.NotNil(t, cfg.MetricsConfig())
	assert.NotNil(t, cfg.BatchConfig())
	assert.NotNil(t, cfg.ReportingConfig())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(`
source: {kind: csv, ticker: BTCUSD, csv_path: data.csv}
metrics: {bars_per_year: 365}
strategies: [{id: hold, kind: buy_and_hold}]
`))
	require.NoError(t, err)

	assert.Equal(t, string(types.Day), cfg.Source.Interval)
	assert.Equal(t, "10000", cfg.Simulation.InitialCapital)
	assert.Equal(t, "0.001", cfg.Simulation.FeeRate)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("DATA_DIR", "/env/data")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("BACKTEST_FEE_RATE", "0.002")

	cfg, err := Parse([]byte(`
source: {kind: postgres, ticker: BTCUSD}
simulation: {fee_rate: "0.1"}
metrics: {bars_per_year: 252}
strategies: [{id: hold, kind: buy_and_hold}]
`))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.Source.DatabaseURL)
	assert.Equal(t, "/env/data", cfg.Source.DataDir)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "0.002", cfg.Simulation.FeeRate)
}

func TestParse_Invalid(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name     string
		yaml     string
		wantText string
	}{
		{
			name:     "unknown source kind",
			yaml:     "source: {kind: kafka, ticker: X}\nmetrics: {bars_per_year: 365}\nstrategies: [{id: a, kind: buy_and_hold}]",
			wantText: "source.kind",
		},
		{
			name:     "missing bars per year",
			yaml:     "source: {kind: csv, ticker: X, csv_path: a.csv}\nstrategies: [{id: a, kind: buy_and_hold}]",
			wantText: "bars_per_year",
		},
		{
			name:     "duplicate strategy id",
			yaml:     "source: {kind: csv, ticker: X, csv_path: a.csv}\nmetrics: {bars_per_year: 365}\nstrategies: [{id: a, kind: buy_and_hold}, {id: a, kind: donchian}]",
			wantText: "not unique",
		},
		{
			name:     "strategy id with path separator",
			yaml:     "source: {kind: csv, ticker: X, csv_path: a.csv}\nmetrics: {bars_per_year: 365}\nstrategies: [{id: ../escape, kind: buy_and_hold}]",
			wantText: "path separators",
		},
		{
			name:     "no strategies",
			yaml:     "source: {kind: csv, ticker: X, csv_path: a.csv}\nmetrics: {bars_per_year: 365}",
			wantText: "at least one strategy",
		},
		{
			name:     "bad fee",
			yaml:     "source: {kind: csv, ticker: X, csv_path: a.csv}\nsimulation: {fee_rate: ten}\nmetrics: {bars_per_year: 365}\nstrategies: [{id: a, kind: buy_and_hold}]",
			wantText: "fee_rate",
		},
		{
			name:     "end before start",
			yaml:     "source: {kind: csv, ticker: X, csv_path: a.csv, start: 2024-01-01, end: 2023-01-01}\nmetrics: {bars_per_year: 365}\nstrategies: [{id: a, kind: buy_and_hold}]",
			wantText: "source.end",
		},
		{
			name:     "bad interval",
			yaml:     "source: {kind: csv, ticker: X, csv_path: a.csv, interval: 7D}\nmetrics: {bars_per_year: 365}\nstrategies: [{id: a, kind: buy_and_hold}]",
			wantText: "source.interval",
		},
		{
			name:     "bad volatility",
			yaml:     "source: {kind: csv, ticker: X, csv_path: a.csv}\nmetrics: {bars_per_year: 365, volatility: garch}\nstrategies: [{id: a, kind: buy_and_hold}]",
			wantText: "metrics.volatility",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tc.wantText)
		})
	}
}

func TestConfig_StrategySpecs(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(fullConfig))
	require.NoError(t, err)

	specs, err := cfg.StrategySpecs()
	require.NoError(t, err)
	require.Len(t, specs, 3)

	assert.Equal(t, "hold", specs[0].ID)
	assert.Equal(t, "buy-and-hold", specs[0].Source.Name())
	assert.Equal(t, "trend-following(10,30)", specs[1].Source.Name())
	assert.Equal(t, "donchian(55)", specs[2].Source.Name())
}

func TestConfig_StrategySpecsErrors(t *testing.T) {
	clearEnv(t)
	base := "source: {kind: csv, ticker: X, csv_path: a.csv}\nmetrics: {bars_per_year: 365}\n"

	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "unknown kind",
			yaml:    base + "strategies: [{id: a, kind: martingale}]",
			wantErr: strategies.ErrUnknownKind,
		},
		{
			name:    "bad params",
			yaml:    base + "strategies: [{id: a, kind: trend_following, params: {fast: 30, slow: 10}}]",
			wantErr: strategies.ErrInvalidParams,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tc.yaml))
			require.NoError(t, err)

			_, err = cfg.StrategySpecs()
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
