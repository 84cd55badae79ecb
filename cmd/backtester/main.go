package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"vecbacktest/internal/config"
	"vecbacktest/internal/engine"
	"vecbacktest/internal/ingest"
	"vecbacktest/internal/logging"
	"vecbacktest/internal/repository"
	"vecbacktest/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the backtest configuration")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		slog.Error("backtest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr); err != nil {
		return err
	}

	specs, err := cfg.StrategySpecs()
	if err != nil {
		return err
	}

	db, closeDB, err := openStore(ctx, cfg.Source)
	if err != nil {
		return err
	}
	defer closeDB()

	eng := engine.NewEngine(
		cfg.DataFeed(),
		specs,
		cfg.SimulationConfig(),
		cfg.MetricsConfig(),
		cfg.BatchConfig(),
		cfg.ReportingConfig(),
		db,
	)
	result, err := eng.Run(ctx)
	if err != nil {
		return err
	}
	if failed := result.Failed(); len(failed) > 0 {
		slog.Warn("some strategies failed", "failed", len(failed), "total", len(result.Entries))
	}
	return nil
}

// openStore returns the candle source named by the config and a func that
// releases it.
func openStore(ctx context.Context, src config.Source) (engine.DataStore, func(), error) {
	switch src.Kind {
	case config.SourcePostgres:
		db, err := repository.NewDatabase(ctx, src.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case config.SourceParquet:
		return store.NewParquetStore(src.DataDir, src.Market), func() {}, nil
	case config.SourceCSV:
		return ingest.NewCSVSource(src.CSVPath, src.Columns), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown source kind %q", src.Kind)
}
