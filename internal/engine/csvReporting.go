package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// writeCSVReports writes metrics.csv plus one <id>_equity.csv per successful
// strategy into dir.
func (e *Engine) writeCSVReports(dir string, result *BatchResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	if err := writeFile(filepath.Join(dir, "metrics.csv"), func(w io.Writer) error {
		return writeMetricsCSV(w, result)
	}); err != nil {
		return err
	}

	for _, entry := range result.Entries {
		if entry.Err != nil {
			continue
		}
		name, err := trajectoryFileName(entry.ID)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, name)
		if err := writeFile(path, func(w io.Writer) error {
			return writeTrajectoryCSV(w, entry.Run)
		}); err != nil {
			return err
		}
	}
	return nil
}

// trajectoryFileName refuses ids that would escape the report directory.
func trajectoryFileName(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || filepath.Base(id) != id {
		return "", fmt.Errorf("strategy id %q is not usable as a file name: %w", id, ErrInvalidConfig)
	}
	return id + "_equity.csv", nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	return write(f)
}

// writeMetricsCSV writes one row per strategy, failed ones included with
// their error in the last column.
func writeMetricsCSV(w io.Writer, result *BatchResult) error {
	cw := csv.NewWriter(w)

	header := []string{
		"strategy_id",
		"source",
		"total_return",
		"annualized_return",
		"annualized_volatility",
		"max_drawdown",
		"max_drawdown_days",
		"sharpe_ratio",
		"trades",
		"fee_drag",
		"error",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, entry := range result.Entries {
		record := []string{entry.ID, entry.Name}
		if entry.Err != nil {
			record = append(record, "", "", "", "", "", "", "", "", entry.Err.Error())
		} else {
			r := entry.Report
			record = append(record,
				formatFloat(r.TotalReturn),
				formatFloat(r.AnnualizedReturn),
				formatFloat(r.AnnualizedVolatility),
				formatFloat(r.MaxDrawdown),
				strconv.FormatInt(int64(r.MaxDrawdownDuration/(24*time.Hour)), 10),
				formatFloat(r.SharpeRatio),
				strconv.Itoa(r.TradeCount),
				formatFloat(r.TotalFees),
				"",
			)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// writeTrajectoryCSV writes the per-bar trajectory of a run. The undefined
// first return is left empty.
func writeTrajectoryCSV(w io.Writer, run *StrategyRun) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "return", "position", "trade", "strategy_return", "equity"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < run.Len(); i++ {
		ret := ""
		if !math.IsNaN(run.returns[i]) {
			ret = formatFloat(run.returns[i])
		}
		record := []string{
			run.timestamps[i].Format(time.RFC3339),
			ret,
			formatFloat(run.positions[i]),
			formatFloat(run.trades[i]),
			formatFloat(run.strategyReturns[i]),
			formatFloat(run.equity[i]),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
