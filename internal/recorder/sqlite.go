package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists backtest runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers query while a scheduled run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id               TEXT PRIMARY KEY,
			timestamp        INTEGER NOT NULL,
			symbol           TEXT NOT NULL,
			strategy         TEXT,
			provider         TEXT,
			start_date       TEXT,
			end_date         TEXT,
			params           TEXT,
			bars             INTEGER,
			initial_balance  REAL,
			final_balance    REAL,
			total_return_pct REAL,
			winning_trades   INTEGER,
			losing_trades    INTEGER,
			sharpe_ratio     REAL,
			max_drawdown     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON backtest_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL REFERENCES backtest_runs(id),
			side              TEXT,
			bar_index         INTEGER,
			bar_time          INTEGER,
			price             REAL,
			shares            REAL,
			resulting_balance REAL,
			forced            INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run summary and its trades in one transaction.
func (r *SQLiteRecorder) RecordRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := run.Report
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO backtest_runs
		(id, timestamp, symbol, strategy, provider, start_date, end_date, params, bars,
		 initial_balance, final_balance, total_return_pct, winning_trades, losing_trades,
		 sharpe_ratio, max_drawdown)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, time.Now().Unix(), run.Symbol, run.Strategy, run.Provider,
		run.Start.Format("2006-01-02"), run.End.Format("2006-01-02"), run.Params, rep.Bars,
		rep.InitialBalance, rep.FinalBalance, rep.TotalReturnPct,
		rep.WinningTrades, rep.LosingTrades, rep.SharpeRatio, rep.MaxDrawdown,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, t := range rep.Trades {
		_, err = tx.Exec(`INSERT INTO trades
			(run_id, side, bar_index, bar_time, price, shares, resulting_balance, forced)
			VALUES (?,?,?,?,?,?,?,?)`,
			run.ID, string(t.Side), t.Index, t.Time.Unix(), t.Price, t.Shares, t.ResultingBalance, t.Forced,
		)
		if err != nil {
			return fmt.Errorf("insert trade: %w", err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns the latest runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT r.id, r.timestamp, r.symbol, r.strategy, r.final_balance,
			r.total_return_pct, r.sharpe_ratio, r.max_drawdown,
			(SELECT COUNT(*) FROM trades t WHERE t.run_id = r.id)
		FROM backtest_runs r
		ORDER BY r.timestamp DESC, r.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s  RunSummary
			ts int64
		)
		if err := rows.Scan(&s.ID, &ts, &s.Symbol, &s.Strategy, &s.FinalBalance,
			&s.TotalReturnPct, &s.SharpeRatio, &s.MaxDrawdown, &s.Trades); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.RecordedAt = time.Unix(ts, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}
