package strategies

import (
	"testing"
	"time"

	"vecbacktest/internal/engine"
	"vecbacktest/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func mockSeries(t *testing.T, closes ...float64) *engine.Series {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, len(closes))
	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		candles[i] = types.Candle{
			Ticker:    "BTCUSD",
			Open:      p,
			High:      p,
			Low:       p,
			Close:     types.NewClose(p),
			Interval:  types.Day,
			Timestamp: start.AddDate(0, 0, i),
		}
	}
	s, err := engine.NewSeries(candles)
	require.NoError(t, err)
	return s
}
