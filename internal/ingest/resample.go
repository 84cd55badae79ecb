package ingest

import (
	"time"

	"vecbacktest/types"

	"github.com/shopspring/decimal"
)

type bucket struct {
	start       time.Time
	open        decimal.NullDecimal
	high        decimal.NullDecimal
	low         decimal.NullDecimal
	close       decimal.NullDecimal
	volume      decimal.Decimal
	quoteVolume decimal.Decimal
}

// Resample aggregates chronologically sorted rows into one candle per
// interval bucket: first open, max high, min low, last close and summed
// volumes, each ignoring null cells. Buckets without rows are not emitted,
// and neither is a bucket whose open, high, low or close stayed null.
func Resample(rows []Row, ticker string, interval types.Interval) []types.Candle {
	var buckets []*bucket
	var cur *bucket
	for _, r := range rows {
		ts := interval.Truncate(r.Timestamp)
		if cur == nil || !ts.Equal(cur.start) {
			cur = &bucket{start: ts}
			buckets = append(buckets, cur)
		}
		cur.add(r)
	}

	candles := make([]types.Candle, 0, len(buckets))
	for _, b := range buckets {
		c, ok := b.candle()
		if !ok {
			continue
		}
		c.Ticker = ticker
		c.Interval = interval
		candles = append(candles, c)
	}
	return candles
}

func (b *bucket) add(r Row) {
	if !b.open.Valid && r.Open.Valid {
		b.open = r.Open
	}
	if r.High.Valid && (!b.high.Valid || r.High.Decimal.GreaterThan(b.high.Decimal)) {
		b.high = r.High
	}
	if r.Low.Valid && (!b.low.Valid || r.Low.Decimal.LessThan(b.low.Decimal)) {
		b.low = r.Low
	}
	if r.Close.Valid {
		b.close = r.Close
	}
	b.volume = b.volume.Add(r.Volume)
	b.quoteVolume = b.quoteVolume.Add(r.QuoteVolume)
}

func (b *bucket) candle() (types.Candle, bool) {
	if !b.open.Valid || !b.high.Valid || !b.low.Valid || !b.close.Valid {
		return types.Candle{}, false
	}
	return types.Candle{
		Timestamp:   b.start,
		Open:        b.open.Decimal,
		High:        b.high.Decimal,
		Low:         b.low.Decimal,
		Close:       b.close,
		Volume:      b.volume,
		QuoteVolume: b.quoteVolume,
	}, true
}
