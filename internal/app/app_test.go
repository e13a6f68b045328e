package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"FVGBacktest/internal/backtest"
	"FVGBacktest/internal/collector"
	"FVGBacktest/internal/config"
	"FVGBacktest/internal/model"
	"FVGBacktest/internal/notifier"
	"FVGBacktest/internal/optimizer"
	"FVGBacktest/internal/recorder"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := ProvideConfig(ConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

// flatSessions builds n days of 60 flat bars from 09:30; closes sit on
// their own average so no trend ever confirms.
func flatSessions(n int) []model.Bar {
	var bars []model.Bar
	start := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)
	for d := 0; d < n; d++ {
		day := start.AddDate(0, 0, d)
		for i := 0; i < 60; i++ {
			bars = append(bars, model.Bar{
				Time: day.Add(time.Duration(i) * time.Minute),
				Open: 100, High: 100.5, Low: 99.5, Close: 100,
			})
		}
	}
	return bars
}

func newTestRunner(t *testing.T, cfg *config.Config, src collector.Source, rec recorder.Recorder) *Runner {
	t.Helper()
	p, err := ProvideParams(cfg)
	if err != nil {
		t.Fatal(err)
	}
	logger := zap.NewNop()
	return NewRunner(cfg, ProvideCollector(src, p, logger), ProvideOptimizer(cfg, p, logger), rec, logger)
}

func TestRunner_NoTradesEndToEnd(t *testing.T) {
	cfg := defaultConfig(t)
	dir := t.TempDir()
	cfg.Output.TradesCSV = filepath.Join(dir, "trades.csv")
	cfg.Output.EquityCSV = filepath.Join(dir, "equity.csv")
	cfg.Database.SQLitePath = filepath.Join(dir, "runs.db")

	rec, cleanup := ProvideRecorder(cfg, zap.NewNop())
	defer cleanup()

	r := newTestRunner(t, cfg, &collector.MockSource{Bars: flatSessions(3)}, rec)
	rep, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Projection.Summary.NoTrades {
		t.Errorf("expected no trades, got %+v", rep.Projection.Summary)
	}
	if got := len(rep.Optimization.Results); got != 9 {
		t.Errorf("expected 9 grid results, got %d", got)
	}
	if rep.Optimization.Skips[backtest.SkipWarmup] != 1 {
		t.Errorf("expected the first day to be skipped for warmup, got %v", rep.Optimization.Skips)
	}
	if !strings.Contains(rep.Text, "No trades produced.") {
		t.Errorf("report missing no-trades notice:\n%s", rep.Text)
	}
	if rep.RunID == "" {
		t.Error("expected a run id")
	}

	sum, err := rec.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if sum.ID != rep.RunID || sum.Mode != "single" {
		t.Errorf("unexpected recorded summary %+v", sum)
	}

	data, err := os.ReadFile(cfg.Output.EquityCSV)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "trade,risk,pnl,balance\n0,0,0,10000\n" {
		t.Errorf("unexpected equity export %q", string(data))
	}
	if _, err := os.Stat(cfg.Output.TradesCSV); err != nil {
		t.Errorf("trades export missing: %v", err)
	}
}

func TestRunner_SourceErrors(t *testing.T) {
	cfg := defaultConfig(t)
	boom := errors.New("boom")
	r := newTestRunner(t, cfg, &collector.MockSource{Err: boom}, recorder.NewNoopRecorder())
	if _, err := r.RunReport(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped source error, got %v", err)
	}

	r = newTestRunner(t, cfg, &collector.MockSource{}, recorder.NewNoopRecorder())
	if _, err := r.Run(context.Background()); !errors.Is(err, collector.ErrNoBars) {
		t.Errorf("expected ErrNoBars, got %v", err)
	}
}

func TestRunner_FormatIncludesSizing(t *testing.T) {
	cfg := defaultConfig(t)
	r := newTestRunner(t, cfg, &collector.MockSource{}, recorder.NewNoopRecorder())
	best := model.OptimizationResult{
		Config: model.ParameterConfig{RR: 2, StopATRMult: 0.5},
		TotalR: 1.95,
		Trades: []model.TradeOutcome{{Entry: 100, Stop: 98, RMultiple: 1.95}},
	}
	opt := &optimizer.Report{Results: []model.OptimizationResult{best}, Best: best}
	proj := model.Projection{Summary: model.Summary{InitialCapital: 10000, FinalBalance: 10000, Trades: 1}}

	text := r.format(opt, proj)
	if !strings.Contains(text, "risk $100.00 = 0.50 lots at 2.00 pts") {
		t.Errorf("report missing sizing line:\n%s", text)
	}
}

func TestProvideSource(t *testing.T) {
	cases := map[string]string{
		config.SourceCSV:        "csv:",
		config.SourceHistData:   "histdata:",
		config.SourceParquet:    "parquet:",
		config.SourceClickHouse: "clickhouse:default.bars_m1",
	}
	for kind, prefix := range cases {
		cfg := defaultConfig(t)
		cfg.Data.Source = kind
		src, err := ProvideSource(cfg)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if !strings.HasPrefix(src.Name(), prefix) {
			t.Errorf("%s: unexpected source name %q", kind, src.Name())
		}
	}

	cfg := defaultConfig(t)
	cfg.Data.Source = "ftp"
	if _, err := ProvideSource(cfg); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestProvideNotifier(t *testing.T) {
	cfg := defaultConfig(t)
	if _, ok := ProvideNotifier(cfg, zap.NewNop()).(notifier.NoopNotifier); !ok {
		t.Error("expected noop notifier without credentials")
	}
	cfg.Telegram.BotToken, cfg.Telegram.ChatID = "token", "1"
	if _, ok := ProvideNotifier(cfg, zap.NewNop()).(*notifier.TelegramNotifier); !ok {
		t.Error("expected telegram notifier with credentials")
	}
}

func TestProvideRecorder_FallsBackToNoop(t *testing.T) {
	cfg := defaultConfig(t)
	if _, ok := mustRecorder(t, cfg).(*recorder.NoopRecorder); !ok {
		t.Error("expected noop recorder without a path")
	}
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "missing-dir", "runs.db")
	if _, ok := mustRecorder(t, cfg).(*recorder.NoopRecorder); !ok {
		t.Error("expected noop recorder when the database cannot be opened")
	}
}

func mustRecorder(t *testing.T, cfg *config.Config) recorder.Recorder {
	t.Helper()
	rec, cleanup := ProvideRecorder(cfg, zap.NewNop())
	t.Cleanup(cleanup)
	return rec
}

func TestProvideConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("account:\n  capital: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ProvideConfig(ConfigPath(path)); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}
