package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"sensor_telemetry/internal/models"
)

type SeriesSQLite struct {
	db *sql.DB
}

func NewSeriesSQLite(db *sql.DB) *SeriesSQLite {
	return &SeriesSQLite{db: db}
}

var _ SeriesRepo = (*SeriesSQLite)(nil)

const (
	insertPointSQL = `INSERT INTO series_points (bucket, measurement, field, ts, value) VALUES (?, ?, ?, ?, ?)`

	selectPointsSQL = `SELECT bucket, measurement, field, ts, value FROM series_points`

	deleteRangeSQL = `DELETE FROM series_points WHERE bucket = ? AND measurement = ? AND ts >= ? AND ts <= ?`
)

// toNanos and fromNanos keep the exact instant; equality on ts is an exact timestamp match.
func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

// Write stores points in one transaction. Callers batch large series.
func (r *SeriesSQLite) Write(ctx context.Context, points []models.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertPointSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.Bucket, p.Measurement, p.Field, toNanos(p.Time), p.Value); err != nil {
			return fmt.Errorf("insert %s/%s/%s: %w", p.Bucket, p.Measurement, p.Field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write: %w", err)
	}
	return nil
}

// Query returns the points of one field, ascending by time. Zero From/To are open bounds.
func (r *SeriesSQLite) Query(ctx context.Context, q models.SeriesQuery) ([]models.SeriesPoint, error) {
	conds := []string{"bucket = ?", "measurement = ?"}
	args := []any{q.Bucket, q.Measurement}

	if q.Field != "" {
		conds = append(conds, "field = ?")
		args = append(args, q.Field)
	}
	if !q.From.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, toNanos(q.From))
	}
	if !q.To.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, toNanos(q.To))
	}

	query := selectPointsSQL + " WHERE " + strings.Join(conds, " AND ") + " ORDER BY ts ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s/%s: %w", q.Bucket, q.Measurement, err)
	}
	defer rows.Close()

	out := make([]models.SeriesPoint, 0, 256)
	for rows.Next() {
		var (
			p  models.SeriesPoint
			ts int64
		)
		if err := rows.Scan(&p.Bucket, &p.Measurement, &p.Field, &ts, &p.Value); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		p.Time = fromNanos(ts)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points: %w", err)
	}
	return out, nil
}

// DeleteRange removes every field of a measurement within [from, to].
func (r *SeriesSQLite) DeleteRange(ctx context.Context, bucket, measurement string, from, to time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteRangeSQL, bucket, measurement, toNanos(from), toNanos(to))
	if err != nil {
		return 0, fmt.Errorf("delete %s/%s: %w", bucket, measurement, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
