package backtest

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"FVGBacktest/internal/calculator"
	"FVGBacktest/internal/lifecycle"
	"FVGBacktest/internal/model"
	"FVGBacktest/internal/strategy"
)

// Mode selects how many trades a Day may produce.
type Mode int

const (
	// Single keeps the first filled trade of the Day and stops scanning.
	Single Mode = iota
	// Multi resumes scanning where each order resolved.
	Multi
)

func (m Mode) String() string {
	if m == Multi {
		return "multi"
	}
	return "single"
}

// ParseMode accepts "single" or "multi".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "":
		return Single, nil
	case "multi":
		return Multi, nil
	default:
		return Single, fmt.Errorf("unknown backtest mode %q", s)
	}
}

// SkipReason explains why a Day produced nothing. The empty value means the
// Day was scanned.
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipTooFewBars   SkipReason = "too_few_bars"
	SkipWarmup       SkipReason = "indicator_warmup"
	SkipNoRange      SkipReason = "no_opening_range"
	SkipExtremeRange SkipReason = "extreme_opening_range"
	SkipNoScanBars   SkipReason = "no_bars_after_range"
)

// DayResult is the output of scanning one Day.
type DayResult struct {
	Date     time.Time
	Outcomes []model.TradeOutcome
	Skip     SkipReason
	Setups   int // setups handed to the simulator
	Rejected int // patterns discarded by the cost filter
}

// RunDay scans one Day under one grid point. It only reads its inputs.
func RunDay(day model.Day, pc model.ParameterConfig, p model.Params, mode Mode) DayResult {
	res := DayResult{Date: day.Date}
	bars := day.Bars

	if len(bars) < p.MinDayBars {
		res.Skip = SkipTooFewBars
		return res
	}
	if atr := bars[0].ATR; math.IsNaN(atr) || atr == 0 {
		res.Skip = SkipWarmup
		return res
	}

	or, i, err := calculator.CalculateOpeningRange(bars, p.Session)
	switch {
	case errors.Is(err, calculator.ErrEmptyWindow):
		res.Skip = SkipNoRange
		return res
	case errors.Is(err, calculator.ErrNoBarsAfterWindow):
		res.Skip = SkipNoScanBars
		return res
	}
	if or.Extreme(p.ExtremeRangeMult) {
		res.Skip = SkipExtremeRange
		return res
	}

	for i < len(bars) {
		if i < 2 {
			i++
			continue
		}
		if model.TimeOfDay(bars[i].Time) > p.Session.EntryCutoff {
			break
		}

		setup, err := strategy.Detect(bars, i, or, pc, p)
		if err != nil {
			if errors.Is(err, strategy.ErrRiskTooSmall) {
				res.Rejected++
			}
			i++
			continue
		}

		res.Setups++
		r := lifecycle.Simulate(bars, setup, p)
		if r.Outcome != nil {
			o := *r.Outcome
			o.Date = day.Date
			res.Outcomes = append(res.Outcomes, o)
			if mode == Single {
				return res
			}
		}
		// re-entry resumes at the resolution bar; bars the order consumed are not rescanned
		if mode == Multi && r.Index > i {
			i = r.Index
			continue
		}
		i++
	}
	return res
}

// Run aggregates RunDay over many Days.
type Run struct {
	Outcomes []model.TradeOutcome
	Skips    map[SkipReason]int
	Setups   int
	Rejected int
}

// TotalR sums the r-multiples of all outcomes.
func (r Run) TotalR() float64 {
	var total float64
	for _, o := range r.Outcomes {
		total += o.RMultiple
	}
	return total
}

// RunDays scans days in the order given and concatenates their outcomes.
func RunDays(days []model.Day, pc model.ParameterConfig, p model.Params, mode Mode) Run {
	run := Run{Skips: make(map[SkipReason]int)}
	for _, d := range days {
		dr := RunDay(d, pc, p, mode)
		if dr.Skip != SkipNone {
			run.Skips[dr.Skip]++
			continue
		}
		run.Outcomes = append(run.Outcomes, dr.Outcomes...)
		run.Setups += dr.Setups
		run.Rejected += dr.Rejected
	}
	return run
}
