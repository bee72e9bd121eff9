package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"BreakoutScanner/internal/model"
)

// SQLiteRecorder persists scan runs to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

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
		`CREATE TABLE IF NOT EXISTS scan_runs (
			run_id                 TEXT PRIMARY KEY,
			started_at             INTEGER NOT NULL,
			finished_at            INTEGER NOT NULL,
			support_threshold      REAL,
			appreciation_threshold REAL,
			total                  INTEGER,
			matched                INTEGER,
			failed                 INTEGER,
			success_rate           REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS scan_matches (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id               TEXT NOT NULL,
			position             INTEGER NOT NULL,
			ticker               TEXT NOT NULL,
			lifetime_high        REAL,
			lifetime_high_at     INTEGER,
			pullback_low         REAL,
			pullback_low_at      INTEGER,
			appreciation_high    REAL,
			appreciation_high_at INTEGER,
			last_date            INTEGER,
			last_close           REAL,
			ma200                REAL,
			daily_rsi            REAL,
			from_high_pct        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_run ON scan_matches(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_ticker ON scan_matches(ticker)`,

		`CREATE TABLE IF NOT EXISTS scan_failures (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   TEXT NOT NULL,
			position INTEGER NOT NULL,
			ticker   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_run ON scan_failures(run_id)`,

		`CREATE TABLE IF NOT EXISTS scan_years (
			run_id TEXT NOT NULL,
			year   INTEGER NOT NULL,
			count  INTEGER NOT NULL,
			PRIMARY KEY (run_id, year)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan stores one run atomically.
func (r *SQLiteRecorder) RecordScan(sum *model.ScanSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// NULL success rate means the universe was empty.
	var rate sql.NullFloat64
	if v, ok := sum.SuccessRate(); ok {
		rate = sql.NullFloat64{Float64: v, Valid: true}
	}
	if _, err := tx.Exec(`INSERT INTO scan_runs
		(run_id, started_at, finished_at, support_threshold, appreciation_threshold,
		 total, matched, failed, success_rate)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		sum.RunID, sum.StartedAt.Unix(), sum.FinishedAt.Unix(),
		sum.SupportThreshold, sum.AppreciationThreshold,
		sum.Total, len(sum.Matches), len(sum.Failed), rate,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, m := range sum.Matches {
		if _, err := tx.Exec(`INSERT INTO scan_matches
			(run_id, position, ticker, lifetime_high, lifetime_high_at, pullback_low, pullback_low_at,
			 appreciation_high, appreciation_high_at, last_date, last_close, ma200, daily_rsi, from_high_pct)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			sum.RunID, i, m.Ticker,
			m.LifetimeHigh, m.LifetimeHighAt.Unix(),
			m.PullbackLow, m.PullbackLowAt.Unix(),
			m.AppreciationHigh, m.AppreciationHighAt.Unix(),
			m.LastDate.Unix(), m.LastClose, m.MA200, m.DailyRSI, m.FromHighPct,
		); err != nil {
			return fmt.Errorf("insert match %s: %w", m.Ticker, err)
		}
	}

	for i, ticker := range sum.Failed {
		if _, err := tx.Exec(`INSERT INTO scan_failures (run_id, position, ticker) VALUES (?,?,?)`,
			sum.RunID, i, ticker); err != nil {
			return fmt.Errorf("insert failure %s: %w", ticker, err)
		}
	}

	for _, year := range sum.Years() {
		if _, err := tx.Exec(`INSERT INTO scan_years (run_id, year, count) VALUES (?,?,?)`,
			sum.RunID, year, sum.YearCounts[year]); err != nil {
			return fmt.Errorf("insert year %d: %w", year, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
