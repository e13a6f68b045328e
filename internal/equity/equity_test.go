package equity

import (
	"errors"
	"math"
	"testing"

	"FVGBacktest/internal/model"
)

func TestProject_Compounding(t *testing.T) {
	proj := Project(10000, 0.01, []float64{2.0, -1.05, 2.0})
	want := []float64{10000, 10200, 10092.9, 10294.758}
	got := Balances(proj.Curve)
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("balance %d: expected %.6f, got %.6f", i, want[i], got[i])
		}
	}

	s := proj.Summary
	if s.NoTrades || s.Trades != 3 || s.Wins != 2 || s.Losses != 1 {
		t.Errorf("unexpected counts %+v", s)
	}
	if math.Abs(s.WinRate-2.0/3.0) > 1e-12 {
		t.Errorf("expected win rate 2/3, got %f", s.WinRate)
	}
	if math.Abs(s.NetProfit-294.758) > 1e-9 || math.Abs(s.Return-0.0294758) > 1e-12 {
		t.Errorf("unexpected profit %.6f / return %.6f", s.NetProfit, s.Return)
	}
	if math.Abs(s.ProfitFactor-4/1.05) > 1e-12 {
		t.Errorf("unexpected profit factor %f", s.ProfitFactor)
	}
	if math.Abs(s.MaxDrawdown-107.1/10200) > 1e-12 {
		t.Errorf("unexpected drawdown %f", s.MaxDrawdown)
	}
	if math.Abs(proj.Curve[2].Risk-102) > 1e-9 {
		t.Errorf("expected risk 102 on trade 2, got %f", proj.Curve[2].Risk)
	}
}

func TestProject_NoTrades(t *testing.T) {
	proj := Project(10000, 0.01, nil)
	s := proj.Summary
	if !s.NoTrades {
		t.Fatal("expected NoTrades")
	}
	if s.WinRate != 0 || s.AvgR != 0 || s.ProfitFactor != 0 || s.NetProfit != 0 {
		t.Errorf("expected zero statistics, got %+v", s)
	}
	if len(proj.Curve) != 1 || proj.Curve[0].Balance != 10000 {
		t.Errorf("expected a single starting point, got %+v", proj.Curve)
	}
}

func TestProject_ProfitFactorCap(t *testing.T) {
	if pf := Project(1000, 0.01, []float64{1, 2}).Summary.ProfitFactor; pf != profitFactorCap {
		t.Errorf("expected capped profit factor, got %f", pf)
	}
	if pf := Project(1000, 0.01, []float64{0}).Summary.ProfitFactor; pf != 0 {
		t.Errorf("expected zero profit factor for flat trades, got %f", pf)
	}
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	rs := []float64{1, -1}
	Project(1000, 0.02, rs)
	if rs[0] != 1 || rs[1] != -1 {
		t.Error("input mutated")
	}
}

func TestLotSize(t *testing.T) {
	c := model.Contract{TickSize: 0.01, TickValue: 1, VolumeStep: 0.01, VolumeMin: 0.01, VolumeMax: 100}
	tests := []struct {
		name     string
		risk     float64
		distance float64
		want     float64
	}{
		{"exact", 100, 2.5, 0.4},
		{"rounded to step", 100, 3, 0.33},
		{"clamped to max", 100000, 2.5, 100},
		{"clamped to min", 1, 10, 0.01},
	}
	for _, tt := range tests {
		got, err := LotSize(tt.risk, tt.distance, c)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: expected %.4f, got %.4f", tt.name, tt.want, got)
		}
	}
}

func TestLotSize_Invalid(t *testing.T) {
	if _, err := LotSize(100, 1, model.Contract{TickValue: 1}); !errors.Is(err, ErrInvalidContract) {
		t.Errorf("expected ErrInvalidContract, got %v", err)
	}
	c := model.Contract{TickSize: 0.01, TickValue: 1}
	if _, err := LotSize(100, 0, c); !errors.Is(err, ErrInvalidRisk) {
		t.Errorf("expected ErrInvalidRisk, got %v", err)
	}
}

func TestRiskAmount(t *testing.T) {
	if got := RiskAmount(10092.9, 0.01); got != 100.93 {
		t.Errorf("expected 100.93, got %f", got)
	}
}
