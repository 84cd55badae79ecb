package engine

import (
	"fmt"
	"math"
	"slices"
	"time"

	"vecbacktest/types"
)

// Series is a validated, read-only view over a chronologically ordered list
// of candles. It is shared by every strategy in a batch, so nothing hands out
// its internal slices.
type Series struct {
	candles    []types.Candle
	timestamps []time.Time
	closes     []float64
}

// NewSeries copies candles and checks the contract every run relies on:
// at least one bar, strictly increasing timestamps and a finite, non-null
// close on every bar. Gaps in the calendar are not detected.
func NewSeries(candles []types.Candle) (*Series, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("empty series: %w", ErrDataIntegrity)
	}

	s := &Series{
		candles:    slices.Clone(candles),
		timestamps: make([]time.Time, len(candles)),
		closes:     make([]float64, len(candles)),
	}
	for i, c := range candles {
		if i > 0 && !c.Timestamp.After(candles[i-1].Timestamp) {
			return nil, fmt.Errorf("bar %d at %s is not after %s: %w",
				i, c.Timestamp.Format(time.RFC3339), candles[i-1].Timestamp.Format(time.RFC3339), ErrDataIntegrity)
		}
		if !c.Close.Valid {
			return nil, fmt.Errorf("bar %d at %s has null close: %w",
				i, c.Timestamp.Format(time.RFC3339), ErrDataIntegrity)
		}
		closePrice := c.Close.Decimal.InexactFloat64()
		if math.IsNaN(closePrice) || math.IsInf(closePrice, 0) {
			return nil, fmt.Errorf("bar %d at %s has non-finite close: %w",
				i, c.Timestamp.Format(time.RFC3339), ErrDataIntegrity)
		}
		s.timestamps[i] = c.Timestamp
		s.closes[i] = closePrice
	}
	return s, nil
}

func (s *Series) Len() int {
	return len(s.closes)
}

func (s *Series) Start() time.Time {
	return s.timestamps[0]
}

func (s *Series) End() time.Time {
	return s.timestamps[len(s.timestamps)-1]
}

// Closes returns a copy of the close prices as float64.
func (s *Series) Closes() []float64 {
	return slices.Clone(s.closes)
}

func (s *Series) Timestamps() []time.Time {
	return slices.Clone(s.timestamps)
}

// Candles returns a copy of the underlying bars, for strategies that need
// more than the close (e.g. high/low channels).
func (s *Series) Candles() []types.Candle {
	return slices.Clone(s.candles)
}

func (s *Series) close(i int) float64 {
	return s.closes[i]
}

func (s *Series) timestamp(i int) time.Time {
	return s.timestamps[i]
}
