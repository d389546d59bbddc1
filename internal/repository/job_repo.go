package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sensor_telemetry/internal/models"

	"github.com/google/uuid"
)

type JobEventSQLite struct {
	db *sql.DB
}

func NewJobEventSQLite(db *sql.DB) *JobEventSQLite { return &JobEventSQLite{db: db} }

var _ JobEventRepo = (*JobEventSQLite)(nil)

const (
	insertJobEventSQL = `
		INSERT INTO job_events (id, job_id, occurred_at, stage, progress, message, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	selectJobEventsSQL = `SELECT id, job_id, occurred_at, stage, progress, message, meta FROM job_events`
)

// Append inserts a new event. If EventID or OccurredAt are empty, they're set.
func (r *JobEventSQLite) Append(ctx context.Context, e models.JobEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	// marshal metadata if present
	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, insertJobEventSQL,
		e.EventID,
		e.JobID,
		toNanos(e.OccurredAt),
		strings.ToUpper(strings.TrimSpace(e.Stage)),
		e.Progress,
		e.Message,
		metaPtr,
	)
	if err != nil {
		return fmt.Errorf("insert job event: %w", err)
	}
	return nil
}

// List returns events filtered by [from, to] (inclusive), job and/or stage, ordered ASC.
func (r *JobEventSQLite) List(ctx context.Context, from, to time.Time, jobID, stage string) ([]models.JobEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, toNanos(from))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, toNanos(to))
	}
	if jobID = strings.TrimSpace(jobID); jobID != "" {
		conds = append(conds, "job_id = ?")
		args = append(args, jobID)
	}
	if stage = strings.ToUpper(strings.TrimSpace(stage)); stage != "" {
		conds = append(conds, "stage = ?")
		args = append(args, stage)
	}

	q := selectJobEventsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query job events: %w", err)
	}
	defer rows.Close()

	out := make([]models.JobEvent, 0, 64)
	for rows.Next() {
		ev, err := scanJobEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job events: %w", err)
	}
	return out, nil
}

// Latest returns the newest event of a job, or of any job when jobID is empty.
// Returns (nil, nil) if there is none.
func (r *JobEventSQLite) Latest(ctx context.Context, jobID string) (*models.JobEvent, error) {
	q := selectJobEventsSQL
	var args []any
	if jobID != "" {
		q += " WHERE job_id = ?"
		args = append(args, jobID)
	}
	q += " ORDER BY occurred_at DESC LIMIT 1"

	ev, err := scanJobEvent(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobEvent(row rowScanner) (models.JobEvent, error) {
	var (
		ev      models.JobEvent
		ts      int64
		metaStr sql.NullString
	)
	if err := row.Scan(&ev.EventID, &ev.JobID, &ts, &ev.Stage, &ev.Progress, &ev.Message, &metaStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ev, err
		}
		return ev, fmt.Errorf("scan job event: %w", err)
	}
	ev.OccurredAt = fromNanos(ts)

	if metaStr.Valid && metaStr.String != "" {
		var v any
		if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
			ev.Metadata = v
		} else {
			ev.Metadata = metaStr.String // keep raw if malformed
		}
	}
	return ev, nil
}
