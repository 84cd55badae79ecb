// Command ingest resamples a CSV export and stores it in the Parquet bar
// store the backtester reads from.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"vecbacktest/internal/ingest"
	"vecbacktest/internal/logging"
	"vecbacktest/internal/store"
	"vecbacktest/types"
)

func main() {
	var (
		csvPath  = flag.String("csv", "", "CSV file to ingest")
		ticker   = flag.String("ticker", "", "ticker the file holds, e.g. BTCUSD")
		interval = flag.String("interval", string(types.Day), "bar interval to resample to")
		dataDir  = flag.String("data-dir", os.Getenv("DATA_DIR"), "root of the parquet store")
		assetTyp = flag.String("asset-type", string(types.AssetTypeCrypto), "STOCK, CRYPTO or ETF; picks the market directory")
		market   = flag.String("market", "", "market directory inside the store, overrides -asset-type")
		logLevel = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	if err := logging.Setup(*logLevel, "text", os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *csvPath == "" || *ticker == "" || *dataDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *market == "" {
		at, err := types.ParseAssetType(*assetTyp)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		*market = at.Market()
	}

	if err := run(context.Background(), *csvPath, strings.ToUpper(*ticker), *interval, *dataDir, *market); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath, ticker, intervalCode, dataDir, market string) error {
	interval, err := types.ParseInterval(intervalCode)
	if err != nil {
		return err
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	candles, err := ingest.LoadCSV(f, ticker, interval, ingest.DefaultColumns)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("%s: no bars after resampling", csvPath)
	}

	ps := store.NewParquetStore(dataDir, market)
	if err := ps.WriteBars(ctx, interval, candles); err != nil {
		return err
	}
	slog.Info("ingest finished", "ticker", ticker, "interval", interval, "bars", len(candles),
		"start", candles[0].Timestamp, "end", candles[len(candles)-1].Timestamp)
	return nil
}
