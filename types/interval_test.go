package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	for code, want := range ConvertInterval {
		got, err := ParseInterval(code)
		require.NoError(t, err, code)
		assert.Equal(t, want, got)
	}

	_, err := ParseInterval("7D")
	assert.Error(t, err)
}

func TestInterval_Truncate(t *testing.T) {
	// Thursday afternoon.
	ts := time.Date(2024, 2, 15, 14, 47, 12, 0, time.UTC)

	tests := []struct {
		interval Interval
		want     time.Time
	}{
		{interval: OneMinute, want: time.Date(2024, 2, 15, 14, 47, 0, 0, time.UTC)},
		{interval: FifteenMinutes, want: time.Date(2024, 2, 15, 14, 45, 0, 0, time.UTC)},
		{interval: FourHours, want: time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)},
		{interval: Day, want: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
		{interval: Week, want: time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)},
		{interval: Month, want: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(string(tc.interval), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.interval.Truncate(ts))
		})
	}
}

func TestInterval_TruncateWeekOnSunday(t *testing.T) {
	sunday := time.Date(2024, 2, 18, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC), Week.Truncate(sunday))
}

func TestInterval_TruncateConvertsToUTC(t *testing.T) {
	tz := time.FixedZone("UTC+9", 9*3600)
	ts := time.Date(2024, 3, 1, 3, 0, 0, 0, tz) // 2024-02-29 18:00 UTC

	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), Day.Truncate(ts))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Month.Truncate(ts))
}

func TestAssetType_Market(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "crypto", want: "crypto"},
		{in: "STOCK", want: "us"},
		{in: "etf", want: "us"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			at, err := ParseAssetType(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, at.Market())
		})
	}

	_, err := ParseAssetType("bond")
	assert.Error(t, err)
}
