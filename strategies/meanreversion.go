package strategies

import (
	"context"
	"fmt"
	"math"

	"vecbacktest/internal/engine"
	"vecbacktest/types"
)

var _ engine.SignalSource = (*MeanReversion)(nil)

type MeanReversionParams struct {
	Window     int     `yaml:"window"`
	EntryZ     float64 `yaml:"entry_z"`
	ExitZ      float64 `yaml:"exit_z"`
	AllowShort bool    `yaml:"allow_short"`
}

// MeanReversion trades a z-score band around a rolling mean. It enters long
// when the close is more than EntryZ deviations below the mean (short when
// above, if allowed) and exits once the z-score is back inside ±ExitZ.
type MeanReversion struct {
	params MeanReversionParams
}

func NewMeanReversion(params MeanReversionParams) (*MeanReversion, error) {
	if params.Window < 2 {
		return nil, fmt.Errorf("window %d must be at least 2: %w", params.Window, ErrInvalidParams)
	}
	if !(params.EntryZ > 0) {
		return nil, fmt.Errorf("entry z %v must be positive: %w", params.EntryZ, ErrInvalidParams)
	}
	if params.ExitZ < 0 || params.ExitZ >= params.EntryZ {
		return nil, fmt.Errorf("exit z %v must be in [0, %v): %w", params.ExitZ, params.EntryZ, ErrInvalidParams)
	}
	return &MeanReversion{params: params}, nil
}

func (s *MeanReversion) Name() string {
	return fmt.Sprintf("mean-reversion(%d,%.2f)", s.params.Window, s.params.EntryZ)
}

func (s *MeanReversion) GenerateSignal(ctx context.Context, series *engine.Series) (types.Signal, error) {
	closes := series.Closes()
	mean := rollingMean(closes, s.params.Window)
	std := rollingStd(closes, s.params.Window)

	signal := make(types.Signal, len(closes))
	pos := types.Flat
	for i, c := range closes {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if math.IsNaN(mean[i]) || math.IsNaN(std[i]) {
			continue
		}
		z := 0.0
		if std[i] > 0 {
			z = (c - mean[i]) / std[i]
		}

		switch pos {
		case types.Flat:
			if z < -s.params.EntryZ {
				pos = types.Long
			} else if z > s.params.EntryZ && s.params.AllowShort {
				pos = types.Short
			}
		case types.Long:
			if z >= -s.params.ExitZ {
				pos = types.Flat
			}
		case types.Short:
			if z <= s.params.ExitZ {
				pos = types.Flat
			}
		}
		signal[i] = pos
	}
	strategyLog.Debug("mean reversion signal generated", "bars", len(signal), "window", s.params.Window)
	return signal, nil
}
