package engine

import (
	"context"
	"errors"
	"time"

	"vecbacktest/types"

	"github.com/shopspring/decimal"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// mockCandles returns daily bars starting at testStart with the given closes.
func mockCandles(closes ...float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		out[i] = types.Candle{
			Ticker:    "BTCUSD",
			Open:      p,
			High:      p,
			Low:       p,
			Close:     types.NewClose(p),
			Interval:  types.Day,
			Timestamp: testStart.AddDate(0, 0, i),
		}
	}
	return out
}

func mockSeries(closes ...float64) *Series {
	s, err := NewSeries(mockCandles(closes...))
	if err != nil {
		panic(err)
	}
	return s
}

func simConfig(capital, fee float64) *SimulationConfig {
	return NewSimulationConfig(decimal.NewFromFloat(capital), decimal.NewFromFloat(fee))
}

func dailyMetrics() *MetricsConfig {
	return NewMetricsConfig(365, SampleStdDev, 0)
}

// constantSource emits the same exposure on every bar.
type constantSource struct {
	name  string
	value float64
}

func (s constantSource) Name() string { return s.name }

func (s constantSource) GenerateSignal(_ context.Context, series *Series) (types.Signal, error) {
	return types.Constant(series.Len(), s.value), nil
}

// fixedSource returns a precomputed signal regardless of the series.
type fixedSource struct {
	signal types.Signal
	err    error
}

func (s fixedSource) Name() string { return "fixed" }

func (s fixedSource) GenerateSignal(context.Context, *Series) (types.Signal, error) {
	return s.signal, s.err
}

// blockingSource waits until ctx is cancelled.
type blockingSource struct {
	started chan struct{}
}

func (s blockingSource) Name() string { return "blocking" }

func (s blockingSource) GenerateSignal(ctx context.Context, _ *Series) (types.Signal, error) {
	close(s.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

var errSignalBoom = errors.New("boom")

// panickingSource slices past the end of an empty signal.
type panickingSource struct{}

func (panickingSource) Name() string { return "panicking" }

func (panickingSource) GenerateSignal(context.Context, *Series) (types.Signal, error) {
	var s types.Signal
	return s[:5], nil
}

type mockStore struct {
	candles []types.Candle
	err     error

	gotTicker   string
	gotInterval types.Interval
}

func (m *mockStore) GetCandles(_ context.Context, ticker string, interval types.Interval, _, _ time.Time) ([]types.Candle, error) {
	m.gotTicker = ticker
	m.gotInterval = interval
	return m.candles, m.err
}
