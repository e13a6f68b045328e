package app

import (
	"context"
	"fmt"

	"github.com/google/wire"
	"go.uber.org/zap"

	"FVGBacktest/internal/collector"
	"FVGBacktest/internal/config"
	"FVGBacktest/internal/logx"
	"FVGBacktest/internal/model"
	"FVGBacktest/internal/notifier"
	"FVGBacktest/internal/optimizer"
	"FVGBacktest/internal/recorder"
	"FVGBacktest/internal/scheduler"
)

// ConfigPath is the YAML file handed to ProvideConfig.
type ConfigPath string

// ProviderSet builds an App from a ConfigPath and a context.
var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideParams,
	ProvideSource,
	ProvideCollector,
	ProvideOptimizer,
	ProvideRecorder,
	ProvideNotifier,
	NewRunner,
	wire.Bind(new(scheduler.Runner), new(*Runner)),
	ProvideScheduler,
	wire.Struct(new(App), "*"),
)

// App is the assembled process.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Runner    *Runner
	Notifier  notifier.Notifier
	Scheduler *scheduler.Scheduler
}

// ProvideConfig loads and validates the configuration.
func ProvideConfig(path ConfigPath) (*config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProvideLogger builds the process logger; cleanup flushes it.
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := logx.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideParams(cfg *config.Config) (model.Params, error) {
	return cfg.Engine()
}

// ProvideSource picks the bar source named by data.source.
func ProvideSource(cfg *config.Config) (collector.Source, error) {
	switch cfg.Data.Source {
	case config.SourceCSV:
		return &collector.CSVSource{Path: cfg.Data.Path}, nil
	case config.SourceHistData:
		return &collector.HistDataSource{Path: cfg.Data.Path, Location: cfg.Location()}, nil
	case config.SourceParquet:
		return &collector.ParquetSource{Path: cfg.Data.Path, Location: cfg.Location()}, nil
	case config.SourceClickHouse:
		ch := cfg.Data.ClickHouse
		return &collector.ClickHouseSource{
			Config: collector.ClickHouseConfig{
				Addr:     ch.Addr,
				Database: ch.Database,
				Username: ch.Username,
				Password: ch.Password,
				Table:    ch.Table,
				Symbol:   cfg.Market.Symbol,
			},
			Location: cfg.Location(),
		}, nil
	default:
		return nil, fmt.Errorf("data source %q: %w", cfg.Data.Source, config.ErrInvalid)
	}
}

func ProvideCollector(src collector.Source, p model.Params, logger *zap.Logger) *collector.Collector {
	return collector.NewCollector(src, p, logger)
}

func ProvideOptimizer(cfg *config.Config, p model.Params, logger *zap.Logger) *optimizer.Optimizer {
	return &optimizer.Optimizer{
		Params:  p,
		Mode:    cfg.Mode(),
		Workers: cfg.Backtest.Workers,
		Logger:  logger,
	}
}

// ProvideRecorder opens SQLite when a path is configured. An unusable
// database degrades to the noop recorder rather than failing the run.
func ProvideRecorder(cfg *config.Config, logger *zap.Logger) (recorder.Recorder, func()) {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder(), func() {}
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
	if err != nil {
		logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder(), func() {}
	}
	return sr, func() {
		if err := sr.Close(); err != nil {
			logger.Error("close sqlite recorder", zap.Error(err))
		}
	}
}

// ProvideNotifier returns a Telegram notifier when both token and chat are set.
func ProvideNotifier(cfg *config.Config, logger *zap.Logger) notifier.Notifier {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
		return notifier.NoopNotifier{}
	}
	return notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Proxy, logger)
}

func ProvideScheduler(ctx context.Context, r scheduler.Runner, n notifier.Notifier, rec recorder.Recorder, logger *zap.Logger) *scheduler.Scheduler {
	return scheduler.NewScheduler(ctx, r, n, rec, logger)
}
