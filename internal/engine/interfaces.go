package engine

import (
	"context"
	"time"

	"vecbacktest/types"
)

// DataStore is anything that can serve a ticker's candles for a time range,
// oldest first.
type DataStore interface {
	GetCandles(ctx context.Context, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error)
}

// SignalSource produces one exposure value per bar of the series. How the
// value is derived is up to the implementation; the engine only checks the
// length.
type SignalSource interface {
	Name() string
	GenerateSignal(ctx context.Context, series *Series) (types.Signal, error)
}

// StrategySpec binds a caller chosen, batch unique identifier to a source.
type StrategySpec struct {
	ID     string
	Source SignalSource
}
