package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/optimization"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// SQLiteRecorder persists search sessions and evaluations to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so reports can be queried while a search is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS search_sessions (
			id                TEXT PRIMARY KEY,
			started_at        INTEGER NOT NULL,
			finished_at       INTEGER,
			start_date        TEXT,
			end_date          TEXT,
			purchase_day      TEXT,
			weekly_budget     REAL,
			initial_cash      REAL,
			transaction_fee   REAL,
			expense_ratio     REAL,
			lower_bound       REAL,
			upper_bound       REAL,
			total_evaluations INTEGER,
			objective_calls   INTEGER,
			best_value        REAL,
			best_params       TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS evaluations (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id      TEXT NOT NULL,
			eval_index      INTEGER NOT NULL,
			timestamp       INTEGER NOT NULL,
			ef              REAL,
			f               REAL,
			n               REAL,
			g               REAL,
			eg              REAL,
			final_value     REAL,
			dca_final_value REAL,
			return_pct      REAL,
			dca_return_pct  REAL,
			excess_return   REAL,
			weeks           INTEGER,
			duration_ms     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_eval_session ON evaluations(session_id, final_value)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) StartSession(ctx context.Context, info optimization.SessionInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lower, upper := 0.0, 0.0
	if info.Bounds.Dim() > 0 {
		lower, upper = info.Bounds.Lower[0], info.Bounds.Upper[0]
	}
	cfg := info.Config

	_, err := r.db.ExecContext(ctx, `INSERT INTO search_sessions
		(id, started_at, start_date, end_date, purchase_day,
		 weekly_budget, initial_cash, transaction_fee, expense_ratio,
		 lower_bound, upper_bound)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		info.ID, info.StartedAt.Unix(),
		cfg.Start.Format(types.DateLayout), cfg.End.Format(types.DateLayout), cfg.Weekday.String(),
		cfg.WeeklyBudget, cfg.InitialCash, cfg.TransactionFee, cfg.AnnualExpenseRatio,
		lower, upper,
	)
	return err
}

func (r *SQLiteRecorder) RecordEvaluation(ctx context.Context, sessionID string, ev optimization.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := ev.Multipliers
	_, err := r.db.ExecContext(ctx, `INSERT INTO evaluations
		(session_id, eval_index, timestamp, ef, f, n, g, eg,
		 final_value, dca_final_value, return_pct, dca_return_pct, excess_return,
		 weeks, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sessionID, ev.Index, time.Now().Unix(),
		m[0], m[1], m[2], m[3], m[4],
		ev.FinalValue, ev.DCAFinalValue, ev.ReturnPct, ev.DCAReturnPct, ev.ExcessReturnPct,
		ev.Weeks, float64(ev.Duration.Microseconds())/1000,
	)
	return err
}

func (r *SQLiteRecorder) FinishSession(ctx context.Context, report *optimization.SearchReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `UPDATE search_sessions
		SET finished_at = ?, total_evaluations = ?, objective_calls = ?, best_value = ?, best_params = ?
		WHERE id = ?`,
		time.Now().Unix(), report.TotalEvaluations, report.ObjectiveCalls,
		report.BestValue, report.BestParams.String(), report.SessionID,
	)
	return err
}

// TopEvaluations returns the n best evaluations of a session, ranked by final
// value then evaluation order.
func (r *SQLiteRecorder) TopEvaluations(ctx context.Context, sessionID string, n int) ([]StoredEvaluation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT session_id, eval_index, ef, f, n, g, eg,
		final_value, dca_final_value, excess_return
		FROM evaluations WHERE session_id = ?
		ORDER BY final_value DESC, eval_index ASC LIMIT ?`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var out []StoredEvaluation
	for rows.Next() {
		var e StoredEvaluation
		m := &e.Multipliers
		if err := rows.Scan(&e.SessionID, &e.Index, &m[0], &m[1], &m[2], &m[3], &m[4],
			&e.FinalValue, &e.DCAFinalValue, &e.ExcessReturnPct); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
