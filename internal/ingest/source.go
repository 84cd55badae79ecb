package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"vecbacktest/types"
)

var ErrNoRows = errors.New("no rows in requested range")

// CSVSource serves candles straight from a CSV export, resampled on every
// call. It holds a single instrument; the requested ticker only labels the
// returned candles.
type CSVSource struct {
	Path    string
	Columns Columns
}

func NewCSVSource(path string, cols Columns) *CSVSource {
	return &CSVSource{Path: path, Columns: cols}
}

// GetCandles returns the resampled candles whose bucket start lies in
// [start, end). A zero end means no upper bound.
func (s *CSVSource) GetCandles(ctx context.Context, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	candles, err := LoadCSV(f, strings.ToUpper(ticker), interval, s.Columns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	slog.Debug("csv resampled", "path", s.Path, "interval", interval, "candles", len(candles))

	out := candles[:0]
	for _, c := range candles {
		if c.Timestamp.Before(start) || (!end.IsZero() && !c.Timestamp.Before(end)) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s between %s and %s: %w", s.Path, start.Format(time.RFC3339), end.Format(time.RFC3339), ErrNoRows)
	}
	return out, nil
}
