// Package ingest turns raw OHLCV exports into candles ready for the engine:
// parsed, sorted, resampled to one bar per interval and free of gaps.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"vecbacktest/types"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingColumn = errors.New("missing csv column")
	ErrBadRow        = errors.New("malformed csv row")
)

// Columns maps candle fields to CSV header names. Volume and QuoteVolume may
// be left empty when the file has no such column.
type Columns struct {
	Date        string `yaml:"date"`
	Open        string `yaml:"open"`
	High        string `yaml:"high"`
	Low         string `yaml:"low"`
	Close       string `yaml:"close"`
	Volume      string `yaml:"volume"`
	QuoteVolume string `yaml:"quote_volume"`
}

// DefaultColumns matches the common BTC/USD exchange export.
var DefaultColumns = Columns{
	Date:        "Date",
	Open:        "Open",
	High:        "High",
	Low:         "Low",
	Close:       "Close",
	Volume:      "Volume BTC",
	QuoteVolume: "Volume USD",
}

// withDefaults fills unset names from DefaultColumns.
func (c Columns) withDefaults() Columns {
	if c.Date == "" {
		c.Date = DefaultColumns.Date
	}
	if c.Open == "" {
		c.Open = DefaultColumns.Open
	}
	if c.High == "" {
		c.High = DefaultColumns.High
	}
	if c.Low == "" {
		c.Low = DefaultColumns.Low
	}
	if c.Close == "" {
		c.Close = DefaultColumns.Close
	}
	return c
}

// Row is one parsed CSV line. Price fields are nullable; an empty cell or
// "NaN" reads as null.
type Row struct {
	Timestamp   time.Time
	Open        decimal.NullDecimal
	High        decimal.NullDecimal
	Low         decimal.NullDecimal
	Close       decimal.NullDecimal
	Volume      decimal.Decimal
	QuoteVolume decimal.Decimal
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ReadCSV parses every row of r and returns them sorted by timestamp.
// Timestamps without a zone are read as UTC.
func ReadCSV(r io.Reader, cols Columns) ([]Row, error) {
	cols = cols.withDefaults()

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	required := func(name string) (int, error) {
		i, ok := idx[name]
		if !ok {
			return 0, fmt.Errorf("%q: %w", name, ErrMissingColumn)
		}
		return i, nil
	}
	optional := func(name string) int {
		if i, ok := idx[name]; ok && name != "" {
			return i
		}
		return -1
	}

	var dateIdx, openIdx, highIdx, lowIdx, closeIdx int
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{cols.Date, &dateIdx},
		{cols.Open, &openIdx},
		{cols.High, &highIdx},
		{cols.Low, &lowIdx},
		{cols.Close, &closeIdx},
	} {
		if *f.dst, err = required(f.name); err != nil {
			return nil, err
		}
	}
	volIdx := optional(cols.Volume)
	quoteIdx := optional(cols.QuoteVolume)

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, ErrBadRow, err)
		}

		ts, err := parseTimestamp(record[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, ErrBadRow, err)
		}
		row := Row{Timestamp: ts}
		for _, f := range []struct {
			i   int
			dst *decimal.NullDecimal
		}{
			{openIdx, &row.Open},
			{highIdx, &row.High},
			{lowIdx, &row.Low},
			{closeIdx, &row.Close},
		} {
			if *f.dst, err = parsePrice(record[f.i]); err != nil {
				return nil, fmt.Errorf("line %d: %w: %w", line, ErrBadRow, err)
			}
		}
		if row.Volume, err = parseVolume(record, volIdx); err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, ErrBadRow, err)
		}
		if row.QuoteVolume, err = parseVolume(record, quoteIdx); err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, ErrBadRow, err)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
	return rows, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	// Unix epoch, seconds or milliseconds.
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func parsePrice(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func parseVolume(record []string, i int) (decimal.Decimal, error) {
	if i < 0 {
		return decimal.Zero, nil
	}
	v, err := parsePrice(record[i])
	if err != nil {
		return decimal.Zero, err
	}
	if v.Valid && v.Decimal.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative volume %s", v.Decimal)
	}
	return v.Decimal, nil
}

// LoadCSV reads r and resamples it to interval in one step.
func LoadCSV(r io.Reader, ticker string, interval types.Interval, cols Columns) ([]types.Candle, error) {
	rows, err := ReadCSV(r, cols)
	if err != nil {
		return nil, err
	}
	return Resample(rows, ticker, interval), nil
}
