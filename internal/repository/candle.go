package repository

import (
	"context"
	"errors"
	"time"

	"vecbacktest/types"

	"github.com/jackc/pgx/v5"
)

var bucketToInterval = map[types.Interval]string{
	types.OneMinute:      "1 minute",
	types.ThreeMinutes:   "3 minutes",
	types.FiveMinutes:    "5 minutes",
	types.FifteenMinutes: "15 minutes",
	types.ThirtyMinutes:  "30 minutes",
	types.Hour:           "1 hour",
	types.TwoHours:       "2 hours",
	types.FourHours:      "4 hours",
	types.Day:            "1 day",
	types.Week:           "1 week",
}

// GetCandles resolves the ticker and returns its bars aggregated to interval
// within [start, end). A zero end means no upper bound.
func (db *Database) GetCandles(ctx context.Context, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	asset, err := db.GetAssetByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return db.GetAggregates(ctx, asset.Id, ticker, interval, start, end)
}

func (db *Database) GetAggregates(ctx context.Context, assetId int, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	bucket, ok := bucketToInterval[interval]
	if !ok {
		return nil, ErrIntervalNotSupported
	}
	args := GetAggregatesParams{
		TimeBucket: bucket,
		AssetID:    int32(assetId),
		Starttime:  &start,
	}
	if !end.IsZero() {
		args.Endtime = &end
	}
	candles, err := db.candles.GetAggregates(ctx, args)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCandles
		}
		return nil, err
	}
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return convertCandles(candles, interval, ticker), nil
}

func convertCandles(candleDAOs []GetAggregatesRow, interval types.Interval, ticker string) []types.Candle {
	candles := make([]types.Candle, 0, len(candleDAOs))
	for _, dao := range candleDAOs {
		candles = append(candles, types.Candle{
			AssetId:     int(dao.AssetID),
			Ticker:      ticker,
			Open:        dao.Open,
			Close:       dao.Close,
			High:        dao.High,
			Low:         dao.Low,
			Volume:      dao.Volume,
			QuoteVolume: dao.QuoteVolume.Decimal,
			Interval:    interval,
			Timestamp:   *dao.Bucket,
		})
	}
	return candles
}
