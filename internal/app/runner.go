package app

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"FVGBacktest/internal/collector"
	"FVGBacktest/internal/config"
	"FVGBacktest/internal/equity"
	"FVGBacktest/internal/model"
	"FVGBacktest/internal/notifier"
	"FVGBacktest/internal/optimizer"
	"FVGBacktest/internal/recorder"
)

// Report is the outcome of one pipeline pass.
type Report struct {
	RunID        string
	Optimization *optimizer.Report
	Projection   model.Projection
	Text         string
}

// Runner collects bars, optimizes, projects equity, records and exports.
// Every call rebuilds its state from the source.
type Runner struct {
	Config    *config.Config
	Collector *collector.Collector
	Optimizer *optimizer.Optimizer
	Recorder  recorder.Recorder
	Logger    *zap.Logger
}

func NewRunner(cfg *config.Config, col *collector.Collector, opt *optimizer.Optimizer, rec recorder.Recorder, logger *zap.Logger) *Runner {
	return &Runner{Config: cfg, Collector: col, Optimizer: opt, Recorder: rec, Logger: logger}
}

// Run executes one full pass.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	started := time.Now().UTC()
	days, err := r.Collector.Collect(ctx)
	if err != nil {
		return nil, err
	}

	cfg := r.Config
	opt, err := r.Optimizer.Run(ctx, days, cfg.Grid.RR, cfg.Grid.StopATRMultipliers)
	if err != nil {
		return nil, err
	}
	for reason, n := range opt.Skips {
		r.Logger.Debug("days skipped", zap.String("reason", string(reason)), zap.Int("days", n))
	}

	proj := equity.Project(cfg.Account.Capital, cfg.Account.RiskPerTrade, opt.Best.RMultiples())
	rep := &Report{Optimization: opt, Projection: proj}

	run := &recorder.RunRecord{
		StartedAt:    started,
		Source:       r.Collector.Source.Name(),
		Mode:         r.Optimizer.Mode.String(),
		Days:         len(days),
		Capital:      cfg.Account.Capital,
		RiskFraction: cfg.Account.RiskPerTrade,
		Results:      opt.Results,
		BestIndex:    opt.BestIndex,
		Projection:   proj,
	}
	if id, err := r.Recorder.RecordRun(run); err != nil {
		r.Logger.Error("record run", zap.Error(err))
	} else {
		rep.RunID = id
	}

	if err := r.export(opt.Best.Trades, proj.Curve); err != nil {
		r.Logger.Error("export results", zap.Error(err))
	}

	rep.Text = r.format(opt, proj)
	r.Logger.Info("run finished",
		zap.String("run_id", rep.RunID),
		zap.Int("trades", proj.Summary.Trades),
		zap.Float64("final_balance", proj.Summary.FinalBalance),
		zap.Duration("elapsed", time.Since(started)))
	return rep, nil
}

// RunReport runs the pipeline and returns only the report text.
func (r *Runner) RunReport(ctx context.Context) (string, error) {
	rep, err := r.Run(ctx)
	if err != nil {
		return "", err
	}
	return rep.Text, nil
}

func (r *Runner) format(opt *optimizer.Report, proj model.Projection) string {
	var b strings.Builder
	b.WriteString(notifier.FormatGrid(opt.Results))
	b.WriteString("\n")
	b.WriteString(notifier.FormatSummary(opt.Best, proj, r.Optimizer.Mode.String()))

	trades := opt.Best.Trades
	if len(trades) == 0 {
		return b.String()
	}
	last := trades[len(trades)-1]
	distance := math.Abs(last.Entry - last.Stop)
	risk := equity.RiskAmount(proj.Summary.FinalBalance, r.Config.Account.RiskPerTrade)
	lots, err := equity.LotSize(risk, distance, r.Config.Contract())
	if err != nil {
		r.Logger.Debug("skip sizing line", zap.Error(err))
		return b.String()
	}
	b.WriteString(notifier.FormatSizing(risk, lots, distance))
	return b.String()
}

func (r *Runner) export(trades []model.TradeOutcome, curve []model.EquityPoint) error {
	var errs []error
	if p := r.Config.Output.TradesCSV; p != "" {
		errs = append(errs, notifier.ExportFile(p, func(w io.Writer) error {
			return notifier.WriteTradesCSV(w, trades)
		}))
	}
	if p := r.Config.Output.EquityCSV; p != "" {
		errs = append(errs, notifier.ExportFile(p, func(w io.Writer) error {
			return notifier.WriteEquityCSV(w, curve)
		}))
	}
	return errors.Join(errs...)
}
