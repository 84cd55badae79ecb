package strategies

import (
	"context"
	"fmt"
	"math"

	"vecbacktest/internal/engine"
	"vecbacktest/types"
)

var _ engine.SignalSource = (*TrendFollowing)(nil)

type TrendParams struct {
	Fast       int  `yaml:"fast"`
	Slow       int  `yaml:"slow"`
	AllowShort bool `yaml:"allow_short"`
}

// TrendFollowing is a moving average crossover: long while the fast SMA is
// above the slow one, otherwise flat (or short when AllowShort is set).
type TrendFollowing struct {
	params TrendParams
}

func NewTrendFollowing(params TrendParams) (*TrendFollowing, error) {
	if params.Fast < 1 || params.Slow < 1 {
		return nil, fmt.Errorf("trend periods must be positive, got fast=%d slow=%d: %w", params.Fast, params.Slow, ErrInvalidParams)
	}
	if params.Fast >= params.Slow {
		return nil, fmt.Errorf("fast period %d must be shorter than slow period %d: %w", params.Fast, params.Slow, ErrInvalidParams)
	}
	return &TrendFollowing{params: params}, nil
}

func (s *TrendFollowing) Name() string {
	return fmt.Sprintf("trend-following(%d,%d)", s.params.Fast, s.params.Slow)
}

func (s *TrendFollowing) GenerateSignal(ctx context.Context, series *engine.Series) (types.Signal, error) {
	closes := series.Closes()
	fast := rollingMean(closes, s.params.Fast)
	slow := rollingMean(closes, s.params.Slow)

	signal := make(types.Signal, len(closes))
	for i := range closes {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		// Warm-up: the slow average is not defined yet.
		if math.IsNaN(slow[i]) {
			continue
		}
		switch {
		case fast[i] > slow[i]:
			signal[i] = types.Long
		case s.params.AllowShort:
			signal[i] = types.Short
		}
	}
	strategyLog.Debug("trend signal generated", "bars", len(signal), "fast", s.params.Fast, "slow", s.params.Slow)
	return signal, nil
}
