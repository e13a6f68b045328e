package optimizer

import (
	"context"
	"errors"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"FVGBacktest/internal/backtest"
	"FVGBacktest/internal/model"
)

// ErrEmptyGrid is returned when either candidate list is empty.
var ErrEmptyGrid = errors.New("empty parameter grid")

// Grid returns the cross product of the candidate lists, RR-major.
func Grid(rr, stopMults []float64) []model.ParameterConfig {
	out := make([]model.ParameterConfig, 0, len(rr)*len(stopMults))
	for _, r := range rr {
		for _, m := range stopMults {
			out = append(out, model.ParameterConfig{RR: r, StopATRMult: m})
		}
	}
	return out
}

// Report holds every grid result in grid order plus the winner.
type Report struct {
	Results   []model.OptimizationResult
	Best      model.OptimizationResult
	BestIndex int
	Skips     map[backtest.SkipReason]int // skipped days per reason; identical across grid points
	Days      int
}

// Optimizer runs the day scheduler over all days for each grid point.
type Optimizer struct {
	Params  model.Params
	Mode    backtest.Mode
	Workers int // <= 0 means GOMAXPROCS
	Logger  *zap.Logger
}

// Run evaluates every combination. Grid points run concurrently but results
// are stored by grid position, so the report does not depend on scheduling.
func (o *Optimizer) Run(ctx context.Context, days []model.Day, rr, stopMults []float64) (*Report, error) {
	grid := Grid(rr, stopMults)
	if len(grid) == 0 {
		return nil, ErrEmptyGrid
	}
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := o.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	results := make([]model.OptimizationResult, len(grid))
	runs := make([]backtest.Run, len(grid))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for idx, pc := range grid {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run := backtest.RunDays(days, pc, o.Params, o.Mode)
			runs[idx] = run
			results[idx] = model.OptimizationResult{
				Config: pc,
				TotalR: run.TotalR(),
				Trades: run.Outcomes,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := SelectBest(results)
	report := &Report{
		Results:   results,
		BestIndex: best,
		Best:      results[best],
		Skips:     runs[0].Skips,
		Days:      len(days),
	}
	for idx, r := range results {
		logger.Debug("grid point evaluated",
			zap.Float64("rr", r.Config.RR),
			zap.Float64("stop_atr_mult", r.Config.StopATRMult),
			zap.Float64("total_r", r.TotalR),
			zap.Int("trades", r.TradeCount()),
			zap.Int("setups", runs[idx].Setups),
			zap.Int("rejected", runs[idx].Rejected))
	}
	logger.Info("optimization finished",
		zap.Int("combinations", len(grid)),
		zap.Int("days", len(days)),
		zap.Int("workers", workers),
		zap.String("mode", o.Mode.String()),
		zap.Float64("best_rr", report.Best.Config.RR),
		zap.Float64("best_stop_atr_mult", report.Best.Config.StopATRMult),
		zap.Float64("best_total_r", report.Best.TotalR),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

// SelectBest returns the index of the strictly greatest TotalR; the earliest
// wins ties. It returns -1 for an empty slice.
func SelectBest(results []model.OptimizationResult) int {
	best := -1
	for i, r := range results {
		if best < 0 || r.TotalR > results[best].TotalR {
			best = i
		}
	}
	return best
}
