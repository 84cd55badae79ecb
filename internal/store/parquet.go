// Package store persists resampled bars as Parquet files so a backtest can
// run without a database.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"vecbacktest/types"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
)

var ErrNoBars = errors.New("no bars found in parquet store")

// ParquetStore reads and writes bars laid out as
//
//	<DataDir>/<market>/<interval>/<TICKER>/<YYYY>.parquet
type ParquetStore struct {
	DataDir string
	Market  string
}

func NewParquetStore(dataDir, market string) *ParquetStore {
	if market == "" {
		market = "crypto"
	}
	return &ParquetStore{DataDir: dataDir, Market: market}
}

// BarRecord is the on-disk schema. Close is optional so a missing close
// survives a round trip.
type BarRecord struct {
	Ticker      string   `parquet:"ticker"`
	Timestamp   int64    `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open        float64  `parquet:"open"`
	High        float64  `parquet:"high"`
	Low         float64  `parquet:"low"`
	Close       *float64 `parquet:"close,optional"`
	Volume      float64  `parquet:"volume"`
	QuoteVolume float64  `parquet:"quote_volume"`
}

// WriteBars merges candles into the per-year files of their ticker. Existing
// records with the same timestamp are replaced.
func (s *ParquetStore) WriteBars(_ context.Context, interval types.Interval, candles []types.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	type key struct {
		ticker string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, c := range candles {
		k := key{ticker: c.Ticker, year: c.Timestamp.UTC().Year()}
		groups[k] = append(groups[k], toRecord(c))
	}

	for k, records := range groups {
		path := s.barPath(k.ticker, interval, k.year)

		existing, err := readParquetFile[BarRecord](path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		merged := mergeBarRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.ticker, k.year, err)
		}
	}
	return nil
}

// GetCandles returns the bars of ticker within [start, end). A zero end
// means no upper bound.
func (s *ParquetStore) GetCandles(ctx context.Context, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	years, err := s.years(ticker, interval)
	if err != nil {
		return nil, err
	}

	var candles []types.Candle
	for _, year := range years {
		if year < start.UTC().Year() || (!end.IsZero() && year > end.UTC().Year()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := s.barPath(ticker, interval, year)
		records, err := readParquetFile[BarRecord](path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if ts.Before(start) || (!end.IsZero() && !ts.Before(end)) {
				continue
			}
			candles = append(candles, fromRecord(r, interval))
		}
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s %s: %w", ticker, interval, ErrNoBars)
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

// years lists the yearly files stored for ticker, ascending.
func (s *ParquetStore) years(ticker string, interval types.Interval) ([]int, error) {
	dir := filepath.Dir(s.barPath(ticker, interval, 0))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var years []int
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".parquet")
		if !ok || e.IsDir() {
			continue
		}
		year, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}

func (s *ParquetStore) barPath(ticker string, interval types.Interval, year int) string {
	return filepath.Join(s.DataDir, s.Market, string(interval), strings.ToUpper(ticker), fmt.Sprintf("%d.parquet", year))
}

func toRecord(c types.Candle) BarRecord {
	r := BarRecord{
		Ticker:      strings.ToUpper(c.Ticker),
		Timestamp:   c.Timestamp.UnixMilli(),
		Open:        c.Open.InexactFloat64(),
		High:        c.High.InexactFloat64(),
		Low:         c.Low.InexactFloat64(),
		Volume:      c.Volume.InexactFloat64(),
		QuoteVolume: c.QuoteVolume.InexactFloat64(),
	}
	if c.Close.Valid {
		v := c.Close.Decimal.InexactFloat64()
		r.Close = &v
	}
	return r
}

func fromRecord(r BarRecord, interval types.Interval) types.Candle {
	c := types.Candle{
		Ticker:      r.Ticker,
		Timestamp:   time.UnixMilli(r.Timestamp).UTC(),
		Open:        decimal.NewFromFloat(r.Open),
		High:        decimal.NewFromFloat(r.High),
		Low:         decimal.NewFromFloat(r.Low),
		Volume:      decimal.NewFromFloat(r.Volume),
		QuoteVolume: decimal.NewFromFloat(r.QuoteVolume),
		Interval:    interval,
	}
	if r.Close != nil {
		c.Close = types.NewClose(decimal.NewFromFloat(*r.Close))
	}
	return c
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return parquet.ReadFile[T](path)
}

// mergeBarRecords deduplicates by timestamp, preferring incoming records.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	seen := make(map[int64]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
