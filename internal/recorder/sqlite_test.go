package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"FVGBacktest/internal/model"
)

func sampleRun() *RunRecord {
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	trades := []model.TradeOutcome{
		{Date: day, Direction: model.Long, SetupIndex: 12, FillIndex: 13, ExitIndex: 15, Entry: 100.8, Stop: 98.8, Target: 104.8, ExitPrice: 104.8, Reason: model.ExitTarget, Breakeven: true, RMultiple: 1.95},
		{Date: day, Direction: model.Short, SetupIndex: 40, FillIndex: 41, ExitIndex: 44, Entry: 99, Stop: 101, Target: 95, ExitPrice: 101.5, Reason: model.ExitStop, RMultiple: -1.3},
	}
	return &RunRecord{
		StartedAt:    time.Unix(1741100000, 0),
		Source:       "mock",
		Mode:         "multi",
		Days:         1,
		Capital:      10000,
		RiskFraction: 0.01,
		Results: []model.OptimizationResult{
			{Config: model.ParameterConfig{RR: 2, StopATRMult: 0.5}, TotalR: 0.65, Trades: trades},
			{Config: model.ParameterConfig{RR: 3, StopATRMult: 0.5}, TotalR: -1},
		},
		BestIndex: 0,
		Projection: model.Projection{
			Curve:   []model.EquityPoint{{Balance: 10000}, {Trade: 1, Risk: 100, PnL: 195, Balance: 10195}, {Trade: 2, Risk: 101.95, PnL: -132.535, Balance: 10062.465}},
			Summary: model.Summary{FinalBalance: 10062.465, NetProfit: 62.465, WinRate: 0.5, MaxDrawdown: 0.013},
		},
	}
}

func TestSQLiteRecorder_RecordAndLatest(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Close()

	if _, err := rec.Latest(); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns on empty db, got %v", err)
	}

	run := sampleRun()
	id, err := rec.RecordRun(run)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" || run.ID != id {
		t.Fatalf("expected run ID to be assigned, got %q", id)
	}

	var n int
	for table, want := range map[string]int{"grid_results": 2, "trades": 2, "equity_points": 3} {
		if err := rec.db.QueryRow("SELECT count(*) FROM "+table+" WHERE run_id = ?", id).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != want {
			t.Errorf("%s: expected %d rows, got %d", table, want, n)
		}
	}

	later := sampleRun()
	later.StartedAt = run.StartedAt.Add(time.Hour)
	later.BestIndex = 1
	if _, err := rec.RecordRun(later); err != nil {
		t.Fatal(err)
	}
	s, err := rec.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != later.ID || s.Best.RR != 3 || s.Trades != 0 {
		t.Errorf("unexpected latest run %+v", s)
	}
}

func TestSQLiteRecorder_DuplicateIDRollsBack(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Close()

	run := sampleRun()
	if _, err := rec.RecordRun(run); err != nil {
		t.Fatal(err)
	}
	again := sampleRun()
	again.ID = run.ID
	if _, err := rec.RecordRun(again); err == nil {
		t.Fatal("expected duplicate run ID to fail")
	}
	var n int
	if err := rec.db.QueryRow("SELECT count(*) FROM trades").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("failed run must not leave rows behind, got %d trades", n)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	run := sampleRun()
	id, err := r.RecordRun(run)
	if err != nil || id == "" {
		t.Errorf("expected an ID, got %q %v", id, err)
	}
	if _, err := r.Latest(); !errors.Is(err, ErrNoRuns) {
		t.Errorf("expected ErrNoRuns, got %v", err)
	}
}
