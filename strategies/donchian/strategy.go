// Package donchian implements a channel breakout signal: go long when the
// high breaks the highest high of the preceding lookback bars, go short (or
// flat) when the low breaks the lowest low. The position is held until the
// opposite breakout (stop-and-reverse).
package donchian

import (
	"context"
	"errors"
	"fmt"

	"vecbacktest/internal/engine"
	"vecbacktest/types"

	"github.com/shopspring/decimal"
)

var ErrInvalidLookback = errors.New("donchian lookback must be at least 1")

var _ engine.SignalSource = (*Strategy)(nil)

type Params struct {
	Lookback   int  `yaml:"lookback"`
	AllowShort bool `yaml:"allow_short"`
}

type Strategy struct {
	params Params
}

func NewStrategy(params Params) (*Strategy, error) {
	if params.Lookback < 1 {
		return nil, fmt.Errorf("lookback %d: %w", params.Lookback, ErrInvalidLookback)
	}
	return &Strategy{params: params}, nil
}

func (s *Strategy) Name() string {
	return fmt.Sprintf("donchian(%d)", s.params.Lookback)
}

func (s *Strategy) GenerateSignal(ctx context.Context, series *engine.Series) (types.Signal, error) {
	candles := series.Candles()
	signal := make(types.Signal, len(candles))

	exitSide := types.Flat
	if s.params.AllowShort {
		exitSide = types.Short
	}

	pos := types.Flat
	for i, candle := range candles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Need lookback *completed* bars before the current one
		if i < s.params.Lookback {
			continue
		}
		highestHigh, lowestLow := donchianHighLow(candles[i-s.params.Lookback : i])

		// Break of the highest high of the preceding bars: BUY
		if candle.High.GreaterThan(highestHigh) {
			pos = types.Long
		}
		// Break of the lowest low: SELL (flat for long-only)
		if candle.Low.LessThan(lowestLow) {
			pos = exitSide
		}
		signal[i] = pos
	}
	return signal, nil
}

// Utility: Donchian Channel High/Low
func donchianHighLow(candles []types.Candle) (decimal.Decimal, decimal.Decimal) {
	if len(candles) == 0 {
		return decimal.Zero, decimal.Zero
	}

	highest := candles[0].High
	lowest := candles[0].Low

	for _, c := range candles {
		if c.High.GreaterThan(highest) {
			highest = c.High
		}
		if c.Low.LessThan(lowest) {
			lowest = c.Low
		}
	}
	return highest, lowest
}
