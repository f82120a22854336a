package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/arogyamap/access-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the default
// backend so the CLI works without a database server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	mean_ratio   REAL,
	region_count INTEGER NOT NULL DEFAULT 0,
	warnings     TEXT,
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at  DATETIME
);

CREATE TABLE IF NOT EXISTS run_results (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	region   TEXT NOT NULL,
	tier     TEXT NOT NULL,
	metrics  TEXT NOT NULL,
	PRIMARY KEY (run_id, region)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		id, string(model.RunRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{ID: id, Status: model.RunRunning, StartedAt: now}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, run *model.Run) error {
	warningsJSON, err := json.Marshal(run.Warnings)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal warnings")
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, mean_ratio = ?, region_count = ?, warnings = ?, finished_at = ? WHERE id = ?`,
		string(model.RunCompleted), metricValue(run.MeanRatio), run.RegionCount, string(warningsJSON), now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", run.ID)
	}
	if err := checkRowsAffected(res, "run", run.ID); err != nil {
		return err
	}

	for _, cr := range run.Results {
		metricsJSON, err := json.Marshal(cr.RegionMetrics)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal metrics for %s", cr.Region)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO run_results (run_id, region, tier, metrics) VALUES (?, ?, ?, ?)`,
			run.ID, cr.Region, string(cr.Tier), string(metricsJSON),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert result for %s", cr.Region)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit tx")
	}
	run.Status = model.RunCompleted
	run.FinishedAt = now
	return nil
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		string(model.RunFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, mean_ratio, region_count, warnings, started_at, finished_at FROM runs WHERE id = ?`,
		runID,
	)
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT region, tier, metrics FROM run_results WHERE run_id = ? ORDER BY rowid`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load results for run %s", runID)
	}
	defer rows.Close()

	for rows.Next() {
		var region, tier, metricsJSON string
		if err := rows.Scan(&region, &tier, &metricsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result row")
		}
		var cr model.ClassifiedRegion
		if err := json.Unmarshal([]byte(metricsJSON), &cr.RegionMetrics); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal metrics for %s", region)
		}
		cr.Tier = model.AccessTier(tier)
		run.Results = append(run.Results, cr)
	}
	return run, eris.Wrap(rows.Err(), "sqlite: iterate result rows")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, mean_ratio, region_count, warnings, started_at, finished_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

// metricValue maps an undefined metric to NULL.
func metricValue(m model.Metric) any {
	v, ok := m.Value()
	if !ok {
		return nil
	}
	return v
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var meanRatio sql.NullFloat64
	var warningsJSON sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &r.Status, &meanRatio, &r.RegionCount, &warningsJSON, &r.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if meanRatio.Valid {
		r.MeanRatio = model.DefinedMetric(meanRatio.Float64)
	}
	if warningsJSON.Valid && warningsJSON.String != "" {
		if err := json.Unmarshal([]byte(warningsJSON.String), &r.Warnings); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal warnings")
		}
	}
	if finishedAt.Valid {
		r.FinishedAt = finishedAt.Time
	}
	return &r, nil
}
