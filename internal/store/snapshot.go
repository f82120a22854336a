package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/arogyamap/access-cli/internal/db"
	"github.com/arogyamap/access-cli/internal/ingest"
	"github.com/arogyamap/access-cli/internal/model"
)

const snapshotBatchSize = 50000

// LoadFacilities writes the facility snapshot. Geometries are written as
// EWKB, which the PostGIS geometry type accepts in binary COPY. Incremental
// mode upserts on id instead of truncating.
func (s *PostgresStore) LoadFacilities(ctx context.Context, facilities []model.Facility, incremental bool) (int64, error) {
	rows := make([][]any, 0, len(facilities))
	for _, f := range facilities {
		ewkb, err := ingest.EncodeEWKB(f.Location)
		if err != nil {
			return 0, eris.Wrapf(err, "store: encode facility %s", f.ID)
		}
		rows = append(rows, []any{f.ID, f.Name, f.Type, f.District, string(f.Emergency), ewkb})
	}
	return s.loadSnapshot(ctx, "facilities",
		[]string{"id", "name", "type", "district", "emergency", "geom"},
		[]string{"id"}, rows, incremental)
}

// LoadRegions writes the region snapshot.
func (s *PostgresStore) LoadRegions(ctx context.Context, regions []model.Region, incremental bool) (int64, error) {
	rows := make([][]any, 0, len(regions))
	for _, r := range regions {
		ewkb, err := ingest.EncodeEWKB(r.Boundary)
		if err != nil {
			return 0, eris.Wrapf(err, "store: encode region %s", r.Name)
		}
		rows = append(rows, []any{r.Name, ewkb})
	}
	return s.loadSnapshot(ctx, "regions", []string{"name", "geom"}, []string{"name"}, rows, incremental)
}

// LoadRoads writes the road snapshot.
func (s *PostgresStore) LoadRoads(ctx context.Context, roads []model.RoadSegment, incremental bool) (int64, error) {
	rows := make([][]any, 0, len(roads))
	for _, r := range roads {
		ewkb, err := ingest.EncodeEWKB(r.Geometry)
		if err != nil {
			return 0, eris.Wrapf(err, "store: encode road %s", r.ID)
		}
		rows = append(rows, []any{r.ID, r.Name, r.Category, ewkb})
	}
	return s.loadSnapshot(ctx, "roads",
		[]string{"id", "name", "category", "geom"}, []string{"id"}, rows, incremental)
}

// loadSnapshot replaces or upserts a snapshot table. The full reload
// truncates first so a partial load never mixes with stale rows; the
// incremental path upserts on the key columns and leaves absent rows alone.
func (s *PostgresStore) loadSnapshot(ctx context.Context, table string, columns, keys []string, rows [][]any, incremental bool) (int64, error) {
	log := zap.L().With(
		zap.String("component", "store.snapshot"),
		zap.String("table", table),
		zap.Int("total_rows", len(rows)),
		zap.Bool("incremental", incremental),
	)

	if incremental {
		n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
			Table:        table,
			Columns:      columns,
			ConflictKeys: keys,
		}, rows)
		if err != nil {
			return 0, eris.Wrapf(err, "store: upsert %s", table)
		}
		log.Debug("snapshot upserted", zap.Int64("rows", n))
		return n, nil
	}

	if _, err := s.pool.Exec(ctx, "TRUNCATE "+table); err != nil {
		return 0, eris.Wrapf(err, "store: truncate %s", table)
	}

	var total int64
	for i := 0; i < len(rows); i += snapshotBatchSize {
		end := i + snapshotBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := db.CopyFrom(ctx, s.pool, table, columns, rows[i:end])
		if err != nil {
			return total, eris.Wrapf(err, "store: load %s (batch %d-%d)", table, i, end)
		}
		total += n
		log.Debug("batch loaded", zap.Int("batch_start", i), zap.Int64("batch_rows", n))
	}
	return total, nil
}

// SnapshotCounts reports how many rows each snapshot table holds.
func (s *PostgresStore) SnapshotCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, 3)
	for _, table := range []string{"facilities", "regions", "roads"} {
		var n int64
		if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
			return nil, eris.Wrapf(err, "store: count %s", table)
		}
		counts[table] = n
	}
	return counts, nil
}
