package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"FVGBacktest/internal/notifier"
	"FVGBacktest/internal/recorder"
)

// ErrBusy is returned by RunNow while a previous run is still in progress.
var ErrBusy = errors.New("a run is already in progress")

// Runner executes one full pipeline pass and returns the report text.
type Runner interface {
	RunReport(ctx context.Context) (string, error)
}

// Scheduler re-runs the pipeline on a cron schedule.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Notifier notifier.Notifier
	Recorder recorder.Recorder
	Logger   *zap.Logger
	Ctx      context.Context

	mu sync.Mutex
}

// NewScheduler creates a new Scheduler. Cron specs take a leading seconds field.
func NewScheduler(ctx context.Context, r Runner, n notifier.Notifier, rec recorder.Recorder, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   r,
		Notifier: n,
		Recorder: rec,
		Logger:   logger,
		Ctx:      ctx,
	}
}

// Register adds the backtest job under spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register backtest job: %w", err)
	}
	s.Logger.Info("backtest job registered", zap.String("cron", spec))
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunNow runs the pipeline once and delivers the report.
// Overlapping calls fail fast with ErrBusy.
func (s *Scheduler) RunNow() (string, error) {
	if !s.mu.TryLock() {
		return "", ErrBusy
	}
	defer s.mu.Unlock()

	s.Logger.Info("running backtest")
	text, err := s.Runner.RunReport(s.Ctx)
	if err != nil {
		s.Logger.Error("backtest run failed", zap.Error(err))
		s.trySend(fmt.Sprintf("Backtest failed: %v", err))
		return "", err
	}
	s.trySend(text)
	return text, nil
}

func (s *Scheduler) tick() {
	if _, err := s.RunNow(); errors.Is(err, ErrBusy) {
		s.Logger.Warn("skipping tick, previous run still in progress")
	}
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch command {
	case "/run":
		go func() {
			if _, err := s.RunNow(); errors.Is(err, ErrBusy) {
				s.trySend("A backtest is already running.")
			}
		}()
		return "Backtest started."
	case "/best":
		sum, err := s.Recorder.Latest()
		if errors.Is(err, recorder.ErrNoRuns) {
			return "No runs recorded yet."
		}
		if err != nil {
			s.Logger.Error("load latest run", zap.Error(err))
			return fmt.Sprintf("Could not load the latest run: %v", err)
		}
		return notifier.FormatRunSummary(sum)
	default:
		return "Commands:\n/run  re-run the backtest now\n/best latest recorded winner"
	}
}

type retrySender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

func (s *Scheduler) trySend(text string) {
	var err error
	if r, ok := s.Notifier.(retrySender); ok {
		err = r.SendWithRetry(s.Ctx, text, 3)
	} else {
		err = s.Notifier.Send(s.Ctx, text)
	}
	if err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}
