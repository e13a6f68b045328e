package recorder

import (
	"errors"
	"time"

	"FVGBacktest/internal/model"
)

// ErrNoRuns is returned by Latest when nothing has been recorded yet.
var ErrNoRuns = errors.New("no recorded runs")

// RunRecord holds everything one optimization run produced.
type RunRecord struct {
	ID           string // assigned on record when empty
	StartedAt    time.Time
	Source       string
	Mode         string
	Days         int
	Capital      float64
	RiskFraction float64
	Results      []model.OptimizationResult
	BestIndex    int
	Projection   model.Projection
}

// Best returns the winning grid result.
func (r *RunRecord) Best() model.OptimizationResult {
	if r.BestIndex < 0 || r.BestIndex >= len(r.Results) {
		return model.OptimizationResult{}
	}
	return r.Results[r.BestIndex]
}

// RunSummary is the headline row of a recorded run.
type RunSummary struct {
	ID           string
	StartedAt    time.Time
	Mode         string
	Best         model.ParameterConfig
	BestTotalR   float64
	Trades       int
	FinalBalance float64
	NetProfit    float64
	WinRate      float64
	MaxDrawdown  float64
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordRun(run *RunRecord) (string, error)
	Latest() (*RunSummary, error)
	Close() error
}
