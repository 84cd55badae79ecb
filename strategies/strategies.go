// Package strategies holds the signal sources that ship with the backtester
// and a registry that builds them from configuration.
package strategies

import (
	"errors"
	"fmt"
	"sort"

	"vecbacktest/internal/engine"
	"vecbacktest/internal/logging"
	"vecbacktest/strategies/donchian"
)

var ErrInvalidParams = errors.New("invalid strategy parameters")
var ErrUnknownKind = errors.New("unknown strategy kind")

var strategyLog = logging.New("strategy")

// Decoder fills a params struct, e.g. (*yaml.Node).Decode.
type Decoder func(v any) error

type factory func(decode Decoder) (engine.SignalSource, error)

var factories = map[string]factory{
	"buy_and_hold": func(Decoder) (engine.SignalSource, error) {
		return NewBuyAndHold(), nil
	},
	"trend_following": func(decode Decoder) (engine.SignalSource, error) {
		p := TrendParams{Fast: 20, Slow: 50}
		if err := decodeParams(decode, &p); err != nil {
			return nil, err
		}
		return NewTrendFollowing(p)
	},
	"mean_reversion": func(decode Decoder) (engine.SignalSource, error) {
		p := MeanReversionParams{Window: 20, EntryZ: 2, ExitZ: 0.5}
		if err := decodeParams(decode, &p); err != nil {
			return nil, err
		}
		return NewMeanReversion(p)
	},
	"donchian": func(decode Decoder) (engine.SignalSource, error) {
		p := donchian.Params{Lookback: 20}
		if err := decodeParams(decode, &p); err != nil {
			return nil, err
		}
		s, err := donchian.NewStrategy(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		return s, nil
	},
}

// Build creates the signal source registered under kind. decode may be nil
// when the kind takes no parameters or the defaults are wanted.
func Build(kind string, decode Decoder) (engine.SignalSource, error) {
	f, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	return f(decode)
}

// Kinds lists the registered strategy kinds, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func decodeParams(decode Decoder, v any) error {
	if decode == nil {
		return nil
	}
	if err := decode(v); err != nil {
		return fmt.Errorf("decode params: %w: %w", ErrInvalidParams, err)
	}
	return nil
}
