package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"FVGBacktest/internal/app"
	"FVGBacktest/internal/collector"
	"FVGBacktest/internal/notifier"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the YAML config")
	convert := flag.String("convert", "", "convert a raw HistData export to a clean CSV and exit")
	out := flag.String("out", "data/clean.csv", "output path for -convert")
	tz := flag.String("tz", "America/New_York", "session timezone for -convert")
	flag.Parse()

	if *convert != "" {
		if err := convertHistData(*convert, *out, *tz); err != nil {
			fmt.Fprintf(os.Stderr, "convert: %v\n", err)
			os.Exit(1)
		}
		return
	}

	os.Exit(run(cfgPath))
}

func run(cfgPath string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := InitializeApp(ctx, app.ConfigPath(cfgPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize app: %v\n", err)
		return 1
	}
	defer cleanup()

	if a.Config.Schedule.Cron == "" {
		return runOnce(ctx, a)
	}
	return watch(ctx, a)
}

func runOnce(ctx context.Context, a *app.App) int {
	rep, err := a.Runner.Run(ctx)
	if err != nil {
		a.Logger.Error("backtest failed", zap.Error(err))
		return 1
	}
	fmt.Print(rep.Text)
	return 0
}

func watch(ctx context.Context, a *app.App) int {
	log := a.Logger
	sched := a.Scheduler
	if err := sched.Register(a.Config.Schedule.Cron); err != nil {
		log.Error("register cron job", zap.Error(err))
		return 1
	}
	sched.Start()
	defer sched.Stop()

	if tn, ok := a.Notifier.(*notifier.TelegramNotifier); ok {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}
	if a.Config.Schedule.RunOnStart {
		log.Info("run_on_start enabled, executing backtest now")
		go sched.RunNow()
	}

	log.Info("fvgbt is running, press Ctrl+C to stop", zap.String("cron", a.Config.Schedule.Cron))
	<-ctx.Done()
	log.Info("shutdown signal received, stopping")
	return 0
}

// convertHistData rewrites a raw HistData export as a clean session-time CSV.
func convertHistData(in, out, tz string) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", tz, err)
	}
	src := &collector.HistDataSource{Path: in, Location: loc}
	bars, err := src.Load(context.Background())
	if err != nil {
		return err
	}
	if err := notifier.ExportFile(out, func(w io.Writer) error {
		return collector.WriteCSV(w, bars)
	}); err != nil {
		return err
	}
	fmt.Printf("wrote %d bars to %s\n", len(bars), out)
	return nil
}
