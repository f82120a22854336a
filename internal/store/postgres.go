package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/arogyamap/access-cli/internal/db"
	"github.com/arogyamap/access-cli/internal/model"
)

// PostgresStore implements Store using pgxpool. It is the only backend that
// also holds dataset snapshots, in PostGIS geometry tables.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":   `INSERT INTO runs (id, status, started_at) VALUES ($1, $2, $3)`,
	"fail_run":     `UPDATE runs SET status = $1, finished_at = $2 WHERE id = $3`,
	"get_run":      `SELECT id, status, mean_ratio, region_count, warnings, started_at, finished_at FROM runs WHERE id = $1`,
	"get_results":  `SELECT region, tier, metrics FROM run_results WHERE run_id = $1 ORDER BY position`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access, such as the snapshot loader.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status       TEXT NOT NULL DEFAULT 'running',
	mean_ratio   DOUBLE PRECISION,
	region_count INTEGER NOT NULL DEFAULT 0,
	warnings     JSONB,
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS run_results (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	region   TEXT NOT NULL,
	tier     TEXT NOT NULL,
	metrics  JSONB NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (run_id, region)
);

CREATE TABLE IF NOT EXISTS facilities (
	id        TEXT PRIMARY KEY,
	name      TEXT,
	type      TEXT NOT NULL,
	district  TEXT,
	emergency TEXT NOT NULL DEFAULT 'unknown',
	geom      geometry(Point, 4326)
);

CREATE TABLE IF NOT EXISTS regions (
	name TEXT PRIMARY KEY,
	geom geometry(MultiPolygon, 4326) NOT NULL
);

CREATE TABLE IF NOT EXISTS roads (
	id       TEXT PRIMARY KEY,
	name     TEXT,
	category TEXT NOT NULL,
	geom     geometry(MultiLineString, 4326) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id);
CREATE INDEX IF NOT EXISTS idx_facilities_geom ON facilities USING GIST (geom);
CREATE INDEX IF NOT EXISTS idx_regions_geom ON regions USING GIST (geom);
CREATE INDEX IF NOT EXISTS idx_roads_geom ON roads USING GIST (geom);
CREATE INDEX IF NOT EXISTS idx_roads_category ON roads(category);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES ($1, $2, $3)`,
		id, string(model.RunRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &model.Run{ID: id, Status: model.RunRunning, StartedAt: now}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, run *model.Run) error {
	warningsJSON, err := json.Marshal(run.Warnings)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal warnings")
	}
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE runs SET status = $1, mean_ratio = $2, region_count = $3, warnings = $4, finished_at = $5 WHERE id = $6`,
		string(model.RunCompleted), metricValue(run.MeanRatio), run.RegionCount, warningsJSON, now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", run.ID)
	}

	for i, cr := range run.Results {
		metricsJSON, err := json.Marshal(cr.RegionMetrics)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal metrics for %s", cr.Region)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO run_results (run_id, region, tier, metrics, position) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (run_id, region) DO UPDATE SET tier = EXCLUDED.tier, metrics = EXCLUDED.metrics, position = EXCLUDED.position`,
			run.ID, cr.Region, string(cr.Tier), metricsJSON, i,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert result for %s", cr.Region)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit tx")
	}
	run.Status = model.RunCompleted
	run.FinishedAt = now
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, finished_at = $2 WHERE id = $3`,
		string(model.RunFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, mean_ratio, region_count, warnings, started_at, finished_at FROM runs WHERE id = $1`,
		runID,
	)
	run, err := scanPGRun(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT region, tier, metrics FROM run_results WHERE run_id = $1 ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load results for run %s", runID)
	}
	defer rows.Close()

	for rows.Next() {
		var region, tier string
		var metricsJSON []byte
		if err := rows.Scan(&region, &tier, &metricsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result row")
		}
		var cr model.ClassifiedRegion
		if err := json.Unmarshal(metricsJSON, &cr.RegionMetrics); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal metrics for %s", region)
		}
		cr.Tier = model.AccessTier(tier)
		run.Results = append(run.Results, cr)
	}
	return run, eris.Wrap(rows.Err(), "postgres: iterate result rows")
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, mean_ratio, region_count, warnings, started_at, finished_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $1`
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` ORDER BY started_at DESC LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPGRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPGRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var meanRatio *float64
	var warningsJSON []byte
	var finishedAt *time.Time

	err := row.Scan(&r.ID, &r.Status, &meanRatio, &r.RegionCount, &warningsJSON, &r.StartedAt, &finishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	if meanRatio != nil {
		r.MeanRatio = model.DefinedMetric(*meanRatio)
	}
	if len(warningsJSON) > 0 {
		if err := json.Unmarshal(warningsJSON, &r.Warnings); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal warnings")
		}
	}
	if finishedAt != nil {
		r.FinishedAt = *finishedAt
	}
	return &r, nil
}
