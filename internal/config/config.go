// Package config loads the backtester's YAML configuration and turns it into
// the engine's config values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"vecbacktest/internal/engine"
	"vecbacktest/internal/ingest"
	"vecbacktest/internal/logging"
	"vecbacktest/strategies"
	"vecbacktest/types"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

const (
	SourcePostgres = "postgres"
	SourceParquet  = "parquet"
	SourceCSV      = "csv"
)

const (
	defaultInitialCapital = "10000"
	defaultFeeRate        = "0.001"
)

// Config is the top-level configuration of a backtest run.
type Config struct {
	Source     Source     `yaml:"source"`
	Simulation Simulation `yaml:"simulation"`
	Metrics    Metrics    `yaml:"metrics"`
	Batch      Batch      `yaml:"batch"`
	Reporting  Reporting  `yaml:"reporting"`
	Logging    Logging    `yaml:"logging"`
	Strategies []Strategy `yaml:"strategies"`
}

// Source selects where candles come from and which slice of them to use.
type Source struct {
	Kind     string `yaml:"kind"`
	Ticker   string `yaml:"ticker"`
	Interval string `yaml:"interval"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`

	DatabaseURL string         `yaml:"database_url"`
	DataDir     string         `yaml:"data_dir"`
	Market      string         `yaml:"market"`
	CSVPath     string         `yaml:"csv_path"`
	Columns     ingest.Columns `yaml:"columns"`
}

// Simulation keeps money values as strings so they reach decimal.Decimal
// without a float round trip.
type Simulation struct {
	InitialCapital string `yaml:"initial_capital"`
	FeeRate        string `yaml:"fee_rate"`
}

type Metrics struct {
	BarsPerYear  float64 `yaml:"bars_per_year"`
	Volatility   string  `yaml:"volatility"`
	RiskFreeRate float64 `yaml:"risk_free_rate"`
}

type Batch struct {
	Workers  int  `yaml:"workers"`
	Progress bool `yaml:"progress"`
}

type Reporting struct {
	Print  bool   `yaml:"print"`
	CSVDir string `yaml:"csv_dir"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Strategy is one batch entry. Params is decoded by the strategy kind itself.
type Strategy struct {
	ID     string    `yaml:"id"`
	Kind   string    `yaml:"kind"`
	Params yaml.Node `yaml:"params"`
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Source.DatabaseURL = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Source.DataDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BACKTEST_FEE_RATE"); v != "" {
		cfg.Simulation.FeeRate = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Source.Interval == "" {
		cfg.Source.Interval = string(types.Day)
	}
	if cfg.Simulation.InitialCapital == "" {
		cfg.Simulation.InitialCapital = defaultInitialCapital
	}
	if cfg.Simulation.FeeRate == "" {
		cfg.Simulation.FeeRate = defaultFeeRate
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 1
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate reports every problem it finds, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalid))
	}

	switch c.Source.Kind {
	case SourcePostgres:
		if c.Source.DatabaseURL == "" {
			invalid("source.database_url is required for %s", SourcePostgres)
		}
	case SourceParquet:
		if c.Source.DataDir == "" {
			invalid("source.data_dir is required for %s", SourceParquet)
		}
	case SourceCSV:
		if c.Source.CSVPath == "" {
			invalid("source.csv_path is required for %s", SourceCSV)
		}
	default:
		invalid("source.kind %q must be one of %s, %s, %s", c.Source.Kind, SourcePostgres, SourceParquet, SourceCSV)
	}
	if c.Source.Ticker == "" {
		invalid("source.ticker is required")
	}
	if _, err := types.ParseInterval(c.Source.Interval); err != nil {
		invalid("source.interval: %v", err)
	}
	start, err := parseDate(c.Source.Start)
	if err != nil {
		invalid("source.start: %v", err)
	}
	end, err := parseDate(c.Source.End)
	if err != nil {
		invalid("source.end: %v", err)
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		invalid("source.end must be after source.start")
	}

	if _, err := decimal.NewFromString(c.Simulation.InitialCapital); err != nil {
		invalid("simulation.initial_capital %q: %v", c.Simulation.InitialCapital, err)
	}
	if _, err := decimal.NewFromString(c.Simulation.FeeRate); err != nil {
		invalid("simulation.fee_rate %q: %v", c.Simulation.FeeRate, err)
	}

	if !(c.Metrics.BarsPerYear > 0) {
		invalid("metrics.bars_per_year must be positive")
	}
	if _, err := engine.ParseVolatilityEstimator(c.Metrics.Volatility); err != nil {
		invalid("metrics.volatility: %v", err)
	}

	if c.Batch.Workers < 0 {
		invalid("batch.workers must not be negative")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		invalid("logging.level: %v", err)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		invalid("logging.format %q must be text or json", c.Logging.Format)
	}

	if len(c.Strategies) == 0 {
		invalid("at least one strategy is required")
	}
	seen := make(map[string]bool, len(c.Strategies))
	for i, s := range c.Strategies {
		if s.ID == "" {
			invalid("strategies[%d].id is required", i)
		} else if seen[s.ID] {
			invalid("strategies[%d].id %q is not unique", i, s.ID)
		} else if s.ID == "." || s.ID == ".." || strings.ContainsAny(s.ID, `/\`) {
			invalid("strategies[%d].id %q must not contain path separators", i, s.ID)
		}
		seen[s.ID] = true
		if s.Kind == "" {
			invalid("strategies[%d].kind is required", i)
		}
	}

	return errors.Join(errs...)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate accepts RFC3339 or a plain date, read as UTC. Empty means
// unbounded.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// DataFeed returns the engine feed. A missing end date means "up to now".
func (c *Config) DataFeed() *engine.DataFeedConfig {
	interval, _ := types.ParseInterval(c.Source.Interval)
	start, _ := parseDate(c.Source.Start)
	end, _ := parseDate(c.Source.End)
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return engine.NewDataFeedConfig(strings.ToUpper(c.Source.Ticker), interval, start, end)
}

func (c *Config) SimulationConfig() *engine.SimulationConfig {
	return engine.NewSimulationConfig(
		decimal.RequireFromString(c.Simulation.InitialCapital),
		decimal.RequireFromString(c.Simulation.FeeRate),
	)
}

func (c *Config) MetricsConfig() *engine.MetricsConfig {
	estimator, _ := engine.ParseVolatilityEstimator(c.Metrics.Volatility)
	return engine.NewMetricsConfig(c.Metrics.BarsPerYear, estimator, c.Metrics.RiskFreeRate)
}

func (c *Config) BatchConfig() *engine.BatchConfig {
	return engine.NewBatchConfig(c.Batch.Workers, c.Batch.Progress)
}

func (c *Config) ReportingConfig() *engine.ReportingConfig {
	return engine.NewReportingConfig(c.Reporting.Print, c.Reporting.CSVDir)
}

// StrategySpecs builds the signal source of every configured strategy, in
// file order.
func (c *Config) StrategySpecs() ([]engine.StrategySpec, error) {
	specs := make([]engine.StrategySpec, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		s := s // per-iteration copy; go.mod targets go 1.21
		var decode strategies.Decoder
		if !s.Params.IsZero() {
			decode = s.Params.Decode
		}
		src, err := strategies.Build(s.Kind, decode)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", s.ID, err)
		}
		specs = append(specs, engine.StrategySpec{ID: s.ID, Source: src})
	}
	return specs, nil
}
