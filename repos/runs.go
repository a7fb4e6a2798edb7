package repos

import (
	"context"
	"fmt"
	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"resilience-distances/report"
	"time"
)

type Run struct {
	Id             uuid.UUID
	Job            string
	POIs           string
	Areas          string
	Output         string
	NumPOIs        int
	SearchDistance float64
	POICount       int
	AreaCount      int
	Unmapped       int
	CreatedAt      time.Time
}

// RunArea is one area of a run as stored. Node and Mean are nil for areas
// that were not mapped to the network.
type RunArea struct {
	Code      string
	Node      *string
	Geo       orb.Point
	Mean      *float64
	Distances []float64
	POIs      []string
}

func NewRunId() (uuid.UUID, error) {
	return uuid.NewV4()
}

// SaveRun inserts the run, its areas and the per-rank distances in one
// transaction.
func (r *Repo) SaveRun(ctx context.Context, run Run, rows []report.Row) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO distance_runs
			(id, job, pois, areas, output, num_pois, search_distance,
			 poi_count, area_count, unmapped)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		run.Id, run.Job, run.POIs, run.Areas, run.Output, run.NumPOIs, run.SearchDistance,
		run.POICount, run.AreaCount, run.Unmapped,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		node, mean := areaValues(row)
		batch.Queue(`
			INSERT INTO run_areas (run_id, area_code, node, geo, mean_distance)
			VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 27700), $6)
		`, run.Id, row.Area.Code, node, row.Area.X, row.Area.Y, mean)
	}
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < len(rows); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert area %s: %w", rows[i].Area.Code, err)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"area_poi_distances"},
		[]string{"run_id", "area_code", "rank", "distance", "poi"},
		pgx.CopyFromRows(distanceRows(run.Id, rows)),
	)
	if err != nil {
		return fmt.Errorf("copy distances: %w", err)
	}

	return tx.Commit(ctx)
}

func areaValues(row report.Row) (*string, *float64) {
	if !row.Mapped() {
		return nil, nil
	}
	node := row.Node
	mean := row.Mean
	return &node, &mean
}

// distanceRows flattens the mapped rows into one record per rank, skipping
// empty slots.
func distanceRows(runId uuid.UUID, rows []report.Row) [][]any {
	var out [][]any
	for _, row := range rows {
		if !row.Mapped() {
			continue
		}
		for i, d := range row.Distances {
			if row.POIs[i] == "" {
				continue
			}
			out = append(out, []any{runId, row.Area.Code, i + 1, d, row.POIs[i]})
		}
	}
	return out
}

const runColumns = `
	id, job, pois, areas, output, num_pois, search_distance,
	poi_count, area_count, unmapped, created_at
`

func scanRun(row pgx.Row) (Run, error) {
	var run Run
	err := row.Scan(
		&run.Id, &run.Job, &run.POIs, &run.Areas, &run.Output, &run.NumPOIs, &run.SearchDistance,
		&run.POICount, &run.AreaCount, &run.Unmapped, &run.CreatedAt,
	)
	return run, err
}

func (r *Repo) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	run, err := scanRun(r.db.QueryRow(ctx, `SELECT `+runColumns+` FROM distance_runs WHERE id = $1`, id))
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

func (r *Repo) RunExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM distance_runs WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// ListRuns returns the runs newest first.
func (r *Repo) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := r.db.Query(ctx, `SELECT `+runColumns+` FROM distance_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *Repo) ListRunAreas(ctx context.Context, id uuid.UUID) ([]RunArea, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.area_code,
		       a.node,
		       ST_AsBinary(a.geo),
		       a.mean_distance,
		       array_agg(d.distance ORDER BY d.rank) FILTER (WHERE d.rank IS NOT NULL),
		       array_agg(d.poi ORDER BY d.rank) FILTER (WHERE d.rank IS NOT NULL)
		FROM run_areas a
		LEFT JOIN area_poi_distances d
		  ON d.run_id = a.run_id AND d.area_code = a.area_code
		WHERE a.run_id = $1
		GROUP BY a.area_code, a.node, a.geo, a.mean_distance
		ORDER BY a.area_code
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []RunArea
	for rows.Next() {
		var a RunArea
		err := rows.Scan(&a.Code, &a.Node, ewkb.Scanner(&a.Geo), &a.Mean, &a.Distances, &a.POIs)
		if err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}
