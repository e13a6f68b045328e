package optimizer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"FVGBacktest/internal/backtest"
	"FVGBacktest/internal/model"
)

func tradingDay(date time.Time) model.Day {
	bars := make([]model.Bar, 60)
	for i := range bars {
		bars[i] = model.Bar{
			Time: date.Add(9*time.Hour + 30*time.Minute + time.Duration(i)*time.Minute),
			Open: 100, High: 100.5, Low: 99.5, Close: 100, ATR: 2, EMA: 100,
		}
	}
	bars[2].High, bars[2].Low = 101, 99
	set := func(i int, h, l, c float64) { bars[i].High, bars[i].Low, bars[i].Close = h, l, c }
	set(10, 100.8, 99.8, 100)
	set(12, 102, 101.2, 101.8)
	set(13, 101.5, 100.7, 100.9)
	set(14, 103, 102, 102.5)
	set(15, 105, 104, 104.5)
	return model.Day{Date: date, Bars: bars}
}

func days() []model.Day {
	d0 := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	return []model.Day{tradingDay(d0), tradingDay(d0.AddDate(0, 0, 1)), tradingDay(d0.AddDate(0, 0, 2))}
}

func TestGrid_Order(t *testing.T) {
	g := Grid([]float64{2, 3}, []float64{0.5, 1})
	want := []model.ParameterConfig{
		{RR: 2, StopATRMult: 0.5}, {RR: 2, StopATRMult: 1},
		{RR: 3, StopATRMult: 0.5}, {RR: 3, StopATRMult: 1},
	}
	if len(g) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(g))
	}
	for i := range want {
		if g[i] != want[i] {
			t.Errorf("point %d: expected %+v, got %+v", i, want[i], g[i])
		}
	}
}

func TestSelectBest_FirstSeenWinsTies(t *testing.T) {
	results := []model.OptimizationResult{
		{TotalR: 1}, {TotalR: 4}, {TotalR: 4}, {TotalR: -2},
	}
	if got := SelectBest(results); got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}
	if got := SelectBest(nil); got != -1 {
		t.Errorf("expected -1 for no results, got %d", got)
	}
}

func TestRun_PicksBestAndIsDeterministic(t *testing.T) {
	p := model.DefaultParams()
	rr := []float64{3, 2, 2.5}
	sm := []float64{0.5}

	var reports []*Report
	for _, workers := range []int{1, 8} {
		o := &Optimizer{Params: p, Mode: backtest.Multi, Workers: workers, Logger: zap.NewNop()}
		rep, err := o.Run(context.Background(), days(), rr, sm)
		if err != nil {
			t.Fatal(err)
		}
		reports = append(reports, rep)
	}

	rep := reports[0]
	if rep.Best.Config.RR != 2 || rep.BestIndex != 1 {
		t.Errorf("expected RR 2 to win, got %+v at %d", rep.Best.Config, rep.BestIndex)
	}
	if want := 3 * (2 - p.CommissionR); math.Abs(rep.Best.TotalR-want) > 1e-9 {
		t.Errorf("expected total R %.4f, got %.4f", want, rep.Best.TotalR)
	}
	for i := range rep.Results {
		a, b := rep.Results[i], reports[1].Results[i]
		if a.Config != b.Config || a.TotalR != b.TotalR || a.TradeCount() != b.TradeCount() {
			t.Errorf("result %d differs between worker counts: %+v vs %+v", i, a, b)
		}
	}
	if reports[1].BestIndex != rep.BestIndex {
		t.Error("winner depends on worker count")
	}
}

func TestRun_DoesNotMutateDays(t *testing.T) {
	in := days()
	before := in[0].Bars[12]
	o := &Optimizer{Params: model.DefaultParams(), Mode: backtest.Single}
	if _, err := o.Run(context.Background(), in, []float64{2}, []float64{0.5, 1}); err != nil {
		t.Fatal(err)
	}
	if in[0].Bars[12] != before {
		t.Error("input bars were mutated")
	}
}

func TestRun_EmptyGrid(t *testing.T) {
	o := &Optimizer{Params: model.DefaultParams()}
	if _, err := o.Run(context.Background(), days(), nil, []float64{1}); !errors.Is(err, ErrEmptyGrid) {
		t.Errorf("expected ErrEmptyGrid, got %v", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := &Optimizer{Params: model.DefaultParams(), Workers: 1}
	if _, err := o.Run(ctx, days(), []float64{2}, []float64{1}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
