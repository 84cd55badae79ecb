package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// BatchEntry is the outcome of one strategy. Exactly one of Err or
// (Run, Report) is set.
type BatchEntry struct {
	ID     string
	Name   string
	Run    *StrategyRun
	Report *MetricsReport
	Err    error
}

// BatchResult keeps the entries in the order the strategies were submitted.
type BatchResult struct {
	Entries []BatchEntry
	index   map[string]int
}

func (r *BatchResult) Get(id string) (BatchEntry, bool) {
	i, ok := r.index[id]
	if !ok {
		return BatchEntry{}, false
	}
	return r.Entries[i], true
}

// Reports returns the successful entries' metrics keyed by strategy ID.
func (r *BatchResult) Reports() map[string]MetricsReport {
	out := make(map[string]MetricsReport, len(r.Entries))
	for _, e := range r.Entries {
		if e.Err == nil {
			out[e.ID] = *e.Report
		}
	}
	return out
}

func (r *BatchResult) Failed() []BatchEntry {
	var out []BatchEntry
	for _, e := range r.Entries {
		if e.Err != nil {
			out = append(out, e)
		}
	}
	return out
}

type BatchRunner struct {
	simulation *SimulationConfig
	metrics    *MetricsConfig
	batch      *BatchConfig
	progressW  io.Writer
}

func NewBatchRunner(simulation *SimulationConfig, metrics *MetricsConfig, batch *BatchConfig) *BatchRunner {
	if batch == nil {
		batch = NewBatchConfig(1, false)
	}
	return &BatchRunner{
		simulation: simulation,
		metrics:    metrics,
		batch:      batch,
		progressW:  os.Stderr,
	}
}

// Run simulates every strategy against the same series. Problems with the
// shared inputs (series, configs, strategy identifiers) abort the batch; a
// failure inside one strategy is recorded on its entry and the others carry
// on. Cancelling ctx stops scheduling strategies that have not started yet.
func (b *BatchRunner) Run(ctx context.Context, series *Series, strategies []StrategySpec) (*BatchResult, error) {
	if series == nil {
		return nil, fmt.Errorf("nil series: %w", ErrDataIntegrity)
	}
	if err := b.simulation.validate(); err != nil {
		return nil, err
	}
	if err := b.metrics.validate(); err != nil {
		return nil, err
	}

	result := &BatchResult{
		Entries: make([]BatchEntry, len(strategies)),
		index:   make(map[string]int, len(strategies)),
	}
	for i, spec := range strategies {
		if spec.ID == "" {
			return nil, fmt.Errorf("strategy %d has an empty id: %w", i, ErrInvalidConfig)
		}
		if spec.Source == nil {
			return nil, fmt.Errorf("strategy %s has no signal source: %w", spec.ID, ErrInvalidConfig)
		}
		if _, dup := result.index[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate strategy id %q: %w", spec.ID, ErrInvalidConfig)
		}
		result.index[spec.ID] = i
		result.Entries[i] = BatchEntry{ID: spec.ID, Name: spec.Source.Name()}
	}

	bar := b.initProgressBar(len(strategies))
	slog.Info("backtest running", "strategies", len(strategies), "bars", series.Len(), "workers", b.batch.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.batch.workers)
	for i, spec := range strategies {
		i, spec := i, spec // per-iteration copies; go.mod targets go 1.21
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slog.Info("running strategy", "n", i+1, "of", len(strategies), "id", spec.ID, "source", spec.Source.Name())
			entry := &result.Entries[i]
			entry.Run, entry.Report, entry.Err = b.runOne(gctx, series, spec)
			if entry.Err != nil {
				slog.Warn("strategy failed", "id", spec.ID, "error", entry.Err)
			} else {
				slog.Info("strategy completed", "id", spec.ID, "final_equity", entry.Run.FinalEquity())
			}
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_ = bar.Finish()

	slog.Info("backtest finished", "strategies", len(strategies), "failed", len(result.Failed()))
	return result, nil
}

func (b *BatchRunner) runOne(ctx context.Context, series *Series, spec StrategySpec) (*StrategyRun, *MetricsReport, error) {
	signal, err := generateSignal(ctx, series, spec.Source)
	if err != nil {
		return nil, nil, &StrategyError{ID: spec.ID, Stage: StageSignal, Err: err}
	}
	run, err := Simulate(series, signal, b.simulation)
	if err != nil {
		return nil, nil, &StrategyError{ID: spec.ID, Stage: StageSimulate, Err: err}
	}
	report, err := ComputeMetrics(run, b.metrics)
	if err != nil {
		return nil, nil, &StrategyError{ID: spec.ID, Stage: StageMetrics, Err: err}
	}
	return run, &report, nil
}

// generateSignal turns a panic inside the source into an error so a broken
// plug-in only fails its own entry.
func generateSignal(ctx context.Context, series *Series, src SignalSource) (signal []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			signal = nil
			err = fmt.Errorf("%w: %v", ErrSignalPanic, r)
		}
	}()
	return src.GenerateSignal(ctx, series)
}

func (b *BatchRunner) initProgressBar(maxTicks int) *progressbar.ProgressBar {
	w := b.progressW
	if !b.batch.showProgress {
		w = io.Discard
	}
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting strategies..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
