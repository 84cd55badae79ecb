package engine

import (
	"fmt"
	"io"
	"math"
	"time"
)

func (e *Engine) printReport(result *BatchResult) {
	printReport(e.out, result)
}

func printReport(w io.Writer, result *BatchResult) {
	fmt.Fprintln(w, "===== Backtest Report =====")
	for _, entry := range result.Entries {
		fmt.Fprintf(w, "\n-- %s (%s) --\n", entry.ID, entry.Name)
		if entry.Err != nil {
			fmt.Fprintf(w, "FAILED:                %v\n", entry.Err)
			continue
		}
		r := entry.Report
		fmt.Fprintf(w, "Period:                %s -> %s (%d bars)\n",
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), r.Bars)
		fmt.Fprintf(w, "Final Equity:          %.2f\n", entry.Run.FinalEquity())
		fmt.Fprintf(w, "Total Return:          %s\n", formatPercent(r.TotalReturn))
		fmt.Fprintf(w, "Annualized Return:     %s\n", formatPercent(r.AnnualizedReturn))
		fmt.Fprintf(w, "Annualized Volatility: %s\n", formatPercent(r.AnnualizedVolatility))
		fmt.Fprintf(w, "Max Drawdown:          %s\n", formatPercent(r.MaxDrawdown))
		fmt.Fprintf(w, "Max Drawdown Days:     %d\n", r.MaxDrawdownDuration/(24*time.Hour))
		fmt.Fprintf(w, "Sharpe Ratio:          %s\n", formatRatio(r.SharpeRatio))
		fmt.Fprintf(w, "Trades:                %d\n", r.TradeCount)
		fmt.Fprintf(w, "Fee Drag:              %s\n", formatPercent(r.TotalFees))
	}
	fmt.Fprintln(w, "\n===========================")
}

func formatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func formatRatio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%.2f", v)
}
