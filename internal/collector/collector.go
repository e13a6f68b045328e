package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"FVGBacktest/internal/calculator"
	"FVGBacktest/internal/model"
)

// Collector loads bars from a Source and turns them into eligible Days.
type Collector struct {
	Source Source
	Params model.Params
	Logger *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(src Source, p model.Params, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{Source: src, Params: p, Logger: logger}
}

// Collect loads the full series and prepares it for the backtest.
func (c *Collector) Collect(ctx context.Context) ([]model.Day, error) {
	start := time.Now()
	bars, err := c.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bars from %s: %w", c.Source.Name(), err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", c.Source.Name(), ErrNoBars)
	}
	days, err := Prepare(bars, c.Params)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("bars collected",
		zap.String("source", c.Source.Name()),
		zap.Int("bars", len(bars)),
		zap.Int("days", len(days)),
		zap.Duration("elapsed", time.Since(start)))
	return days, nil
}

// Prepare sorts bars by time, keeps the last of duplicate timestamps, computes
// indicators over the whole continuous series and splits it into calendar
// days, dropping days shorter than MinDayBars. The input is not modified.
func Prepare(bars []model.Bar, p model.Params) ([]model.Day, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	sorted := make([]model.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	dedup := sorted[:0]
	for _, b := range sorted {
		if n := len(dedup); n > 0 && dedup[n-1].Time.Equal(b.Time) {
			dedup[n-1] = b
			continue
		}
		dedup = append(dedup, b)
	}

	withInd, err := calculator.Apply(dedup, p.ATRPeriod, p.EMAPeriod)
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}

	var days []model.Day
	for lo := 0; lo < len(withInd); {
		y, m, d := withInd[lo].Time.Date()
		hi := lo + 1
		for hi < len(withInd) {
			y2, m2, d2 := withInd[hi].Time.Date()
			if y2 != y || m2 != m || d2 != d {
				break
			}
			hi++
		}
		if hi-lo >= p.MinDayBars {
			days = append(days, model.Day{
				Date: time.Date(y, m, d, 0, 0, 0, 0, withInd[lo].Time.Location()),
				Bars: withInd[lo:hi:hi],
			})
		}
		lo = hi
	}
	return days, nil
}
