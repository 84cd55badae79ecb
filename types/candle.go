package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar. Close is nullable so that gaps coming out of the
// datasource or a CSV file can be detected instead of silently read as zero.
type Candle struct {
	AssetId     int                 `json:"id"`
	Ticker      string              `json:"ticker"`
	Open        decimal.Decimal     `json:"open"`
	Close       decimal.NullDecimal `json:"close"`
	High        decimal.Decimal     `json:"high" `
	Low         decimal.Decimal     `json:"low"`
	Volume      decimal.Decimal     `json:"volume"`
	QuoteVolume decimal.Decimal     `json:"quoteVolume"`
	Interval    Interval            `json:"interval"`
	Timestamp   time.Time           `json:"timestamp"`
}

func NewClose(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
