package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sealane-data/aistrace/internal/aismodel"
)

// Store is the persistence surface the scheduler drives: read the raw
// position stream per vessel, write back trajectories/stops/cellstrings in
// batch-scoped transactions, and track batch-run bookkeeping.
type Store interface {
	ListMMSIs(ctx context.Context) ([]uint32, error)
	PointsForMMSI(ctx context.Context, mmsi uint32) ([]aismodel.AisPoint, error)

	BeginBatch(ctx context.Context, kind string) (BatchTx, error)

	ListAreaPolygons(ctx context.Context) ([]aismodel.AreaPolygon, error)
	UpsertAreaPolygon(ctx context.Context, name string, polygon []aismodel.Point) (int64, error)
	InsertAreaCellString(ctx context.Context, areaID int64, zoom int, mode string, cs aismodel.CellString) error
}

// BatchTx scopes one commit boundary: a segmenter or rasterizer batch
// writes everything through it, then Commit or Rollback once.
type BatchTx interface {
	InsertTrajectories(trajs []aismodel.Trajectory) error
	InsertStops(stops []aismodel.Stop) error
	InsertCellString(target aismodel.Target, sourceID int64, zoom int, cs aismodel.CellString) error
	Commit(mmsiCount int) error
	Rollback() error
}

// SQLiteStore implements Store over a *DB.
type SQLiteStore struct {
	db *DB
}

func NewSQLiteStore(db *DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) ListMMSIs(ctx context.Context) ([]uint32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT mmsi FROM ais_points ORDER BY mmsi`)
	if err != nil {
		return nil, fmt.Errorf("list mmsis: %w", err)
	}
	defer rows.Close()

	var out []uint32
	for rows.Next() {
		var mmsi uint32
		if err := rows.Scan(&mmsi); err != nil {
			return nil, fmt.Errorf("scan mmsi: %w", err)
		}
		out = append(out, mmsi)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PointsForMMSI(ctx context.Context, mmsi uint32) ([]aismodel.AisPoint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT lon, lat, t, sog FROM ais_points WHERE mmsi = ? ORDER BY t ASC`, mmsi)
	if err != nil {
		return nil, fmt.Errorf("points for mmsi %d: %w", mmsi, err)
	}
	defer rows.Close()

	var out []aismodel.AisPoint
	for rows.Next() {
		var lon, lat, t float64
		var sog sql.NullFloat64
		if err := rows.Scan(&lon, &lat, &t, &sog); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		p := aismodel.AisPoint{MMSI: mmsi, X: lon, Y: lat, T: t}
		if sog.Valid {
			v := sog.Float64
			p.SOG = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListAreaPolygons(ctx context.Context) ([]aismodel.AreaPolygon, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, polygon_json FROM area_polygons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list area polygons: %w", err)
	}
	defer rows.Close()

	var out []aismodel.AreaPolygon
	for rows.Next() {
		var id int64
		var name, polyJSON string
		if err := rows.Scan(&id, &name, &polyJSON); err != nil {
			return nil, fmt.Errorf("scan area polygon: %w", err)
		}
		var points []aismodel.Point
		if err := json.Unmarshal([]byte(polyJSON), &points); err != nil {
			return nil, fmt.Errorf("decode area polygon %d: %w", id, err)
		}
		out = append(out, aismodel.AreaPolygon{ID: id, Name: name, Polygon: points})
	}
	return out, rows.Err()
}

// UpsertAreaPolygon inserts or replaces a named benchmark polygon, keyed
// by name, and returns its row id.
func (s *SQLiteStore) UpsertAreaPolygon(ctx context.Context, name string, polygon []aismodel.Point) (int64, error) {
	polyJSON, err := json.Marshal(polygon)
	if err != nil {
		return 0, fmt.Errorf("encode area polygon: %w", err)
	}

	var existingID int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM area_polygons WHERE name = ?`, name).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		res, err := s.db.ExecContext(ctx, `INSERT INTO area_polygons (name, polygon_json) VALUES (?, ?)`, name, string(polyJSON))
		if err != nil {
			return 0, fmt.Errorf("insert area polygon %q: %w", name, err)
		}
		return res.LastInsertId()
	case err != nil:
		return 0, fmt.Errorf("lookup area polygon %q: %w", name, err)
	default:
		if _, err := s.db.ExecContext(ctx, `UPDATE area_polygons SET polygon_json = ? WHERE id = ?`, string(polyJSON), existingID); err != nil {
			return 0, fmt.Errorf("update area polygon %q: %w", name, err)
		}
		return existingID, nil
	}
}

func (s *SQLiteStore) InsertAreaCellString(ctx context.Context, areaID int64, zoom int, mode string, cs aismodel.CellString) error {
	cellsJSON, err := json.Marshal(cs.Cells)
	if err != nil {
		return fmt.Errorf("encode cells: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO area_cellstrings (area_polygon_id, zoom, mode, cells_json, unique_cells, cell_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, areaID, zoom, mode, string(cellsJSON), cs.UniqueCells, len(cs.Cells))
	if err != nil {
		return fmt.Errorf("insert area cellstring: %w", err)
	}
	return nil
}

func (s *SQLiteStore) BeginBatch(ctx context.Context, kind string) (BatchTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch tx: %w", err)
	}
	runID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO batch_runs (id, kind, started_at, status) VALUES (?, ?, unixepoch(), 'running')
	`, runID, kind); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("insert batch run: %w", err)
	}
	return &sqliteBatchTx{ctx: ctx, tx: tx, runID: runID}, nil
}

type sqliteBatchTx struct {
	ctx   context.Context
	tx    *sql.Tx
	runID string
}

func (b *sqliteBatchTx) InsertTrajectories(trajs []aismodel.Trajectory) error {
	for _, t := range trajs {
		polyJSON, err := json.Marshal(t.Polyline)
		if err != nil {
			return fmt.Errorf("encode polyline: %w", err)
		}
		if _, err := b.tx.ExecContext(b.ctx, `
			INSERT INTO trajectories (mmsi, t_start, t_end, polyline_json, batch_run_id) VALUES (?, ?, ?, ?, ?)
		`, t.MMSI, t.TStart, t.TEnd, string(polyJSON), b.runID); err != nil {
			return fmt.Errorf("insert trajectory: %w", err)
		}
	}
	return nil
}

func (b *sqliteBatchTx) InsertStops(stops []aismodel.Stop) error {
	for _, s := range stops {
		polyJSON, err := json.Marshal(s.Polygon)
		if err != nil {
			return fmt.Errorf("encode stop polygon: %w", err)
		}
		if _, err := b.tx.ExecContext(b.ctx, `
			INSERT INTO stops (mmsi, t_start, t_end, polygon_json, batch_run_id) VALUES (?, ?, ?, ?, ?)
		`, s.MMSI, s.TStart, s.TEnd, string(polyJSON), b.runID); err != nil {
			return fmt.Errorf("insert stop: %w", err)
		}
	}
	return nil
}

func (b *sqliteBatchTx) InsertCellString(target aismodel.Target, sourceID int64, zoom int, cs aismodel.CellString) error {
	cellsJSON, err := json.Marshal(cs.Cells)
	if err != nil {
		return fmt.Errorf("encode cells: %w", err)
	}
	_, err = b.tx.ExecContext(b.ctx, `
		INSERT INTO cellstrings (target, source_id, zoom, cells_json, unique_cells, batch_run_id) VALUES (?, ?, ?, ?, ?, ?)
	`, target.String(), sourceID, zoom, string(cellsJSON), cs.UniqueCells, b.runID)
	if err != nil {
		return fmt.Errorf("insert cellstring: %w", err)
	}
	return nil
}

func (b *sqliteBatchTx) Commit(mmsiCount int) error {
	if _, err := b.tx.ExecContext(b.ctx, `
		UPDATE batch_runs SET finished_at = unixepoch(), mmsi_count = ?, status = 'completed' WHERE id = ?
	`, mmsiCount, b.runID); err != nil {
		b.tx.Rollback()
		return fmt.Errorf("finalize batch run: %w", err)
	}
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (b *sqliteBatchTx) Rollback() error {
	return b.tx.Rollback()
}
