package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vecbacktest/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSource_GetCandles(t *testing.T) {
	src := NewCSVSource(writeCSV(t, hourlyCSV), DefaultColumns)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		end     time.Time
		wantLen int
	}{
		{name: "bounded", end: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), wantLen: 1},
		{name: "open ended", wantLen: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			candles, err := src.GetCandles(context.Background(), "btcusd", types.Day, start, tc.end)
			require.NoError(t, err)
			require.Len(t, candles, tc.wantLen)
			assert.Equal(t, start, candles[0].Timestamp)
			assert.Equal(t, "BTCUSD", candles[0].Ticker)
		})
	}
}

func TestCSVSource_Errors(t *testing.T) {
	src := NewCSVSource(writeCSV(t, hourlyCSV), DefaultColumns)
	far := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := src.GetCandles(context.Background(), "BTCUSD", types.Day, far, time.Time{})
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"), DefaultColumns).
		GetCandles(context.Background(), "BTCUSD", types.Day, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.GetCandles(ctx, "BTCUSD", types.Day, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, context.Canceled)
}
