package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets report queries read while a watch-mode run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id             TEXT PRIMARY KEY,
			started_at     INTEGER NOT NULL,
			source         TEXT,
			mode           TEXT,
			days           INTEGER,
			capital        REAL,
			risk_fraction  REAL,
			best_rr        REAL,
			best_stop_mult REAL,
			best_total_r   REAL,
			trades         INTEGER,
			final_balance  REAL,
			net_profit     REAL,
			win_rate       REAL,
			max_drawdown   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS grid_results (
			run_id    TEXT NOT NULL,
			seq       INTEGER NOT NULL,
			rr        REAL,
			stop_mult REAL,
			total_r   REAL,
			trades    INTEGER,
			PRIMARY KEY (run_id, seq)
		)`,

		`CREATE TABLE IF NOT EXISTS trades (
			run_id      TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			day         TEXT,
			direction   TEXT,
			setup_index INTEGER,
			fill_index  INTEGER,
			exit_index  INTEGER,
			entry       REAL,
			stop        REAL,
			target      REAL,
			exit_price  REAL,
			reason      TEXT,
			breakeven   INTEGER,
			r_multiple  REAL,
			PRIMARY KEY (run_id, seq)
		)`,

		`CREATE TABLE IF NOT EXISTS equity_points (
			run_id  TEXT NOT NULL,
			trade   INTEGER NOT NULL,
			risk    REAL,
			pnl     REAL,
			balance REAL,
			PRIMARY KEY (run_id, trade)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes the run, its grid, the winner's trades and equity curve in
// one transaction and returns the run ID.
func (r *SQLiteRecorder) RecordRun(run *RunRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	best := run.Best()
	s := run.Projection.Summary
	if _, err := tx.Exec(`INSERT INTO runs
		(id, started_at, source, mode, days, capital, risk_fraction,
		 best_rr, best_stop_mult, best_total_r, trades,
		 final_balance, net_profit, win_rate, max_drawdown)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.Source, run.Mode, run.Days, run.Capital, run.RiskFraction,
		best.Config.RR, best.Config.StopATRMult, best.TotalR, best.TradeCount(),
		s.FinalBalance, s.NetProfit, s.WinRate, s.MaxDrawdown,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, g := range run.Results {
		if _, err := tx.Exec(`INSERT INTO grid_results
			(run_id, seq, rr, stop_mult, total_r, trades) VALUES (?,?,?,?,?,?)`,
			run.ID, i, g.Config.RR, g.Config.StopATRMult, g.TotalR, g.TradeCount(),
		); err != nil {
			return "", fmt.Errorf("insert grid result: %w", err)
		}
	}

	for i, t := range best.Trades {
		if _, err := tx.Exec(`INSERT INTO trades
			(run_id, seq, day, direction, setup_index, fill_index, exit_index,
			 entry, stop, target, exit_price, reason, breakeven, r_multiple)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			run.ID, i, t.Date.Format("2006-01-02"), t.Direction.String(),
			t.SetupIndex, t.FillIndex, t.ExitIndex,
			t.Entry, t.Stop, t.Target, t.ExitPrice, string(t.Reason), t.Breakeven, t.RMultiple,
		); err != nil {
			return "", fmt.Errorf("insert trade: %w", err)
		}
	}

	for _, p := range run.Projection.Curve {
		if _, err := tx.Exec(`INSERT INTO equity_points
			(run_id, trade, risk, pnl, balance) VALUES (?,?,?,?,?)`,
			run.ID, p.Trade, p.Risk, p.PnL, p.Balance,
		); err != nil {
			return "", fmt.Errorf("insert equity point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	r.logger.Info("run recorded",
		zap.String("run_id", run.ID),
		zap.Int("grid_points", len(run.Results)),
		zap.Int("trades", best.TradeCount()))
	return run.ID, nil
}

// Latest returns the most recently started run.
func (r *SQLiteRecorder) Latest() (*RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		s       RunSummary
		started int64
	)
	err := r.db.QueryRow(`SELECT id, started_at, mode, best_rr, best_stop_mult, best_total_r,
		trades, final_balance, net_profit, win_rate, max_drawdown
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(
		&s.ID, &started, &s.Mode, &s.Best.RR, &s.Best.StopATRMult, &s.BestTotalR,
		&s.Trades, &s.FinalBalance, &s.NetProfit, &s.WinRate, &s.MaxDrawdown)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	s.StartedAt = time.Unix(started, 0)
	return &s, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
