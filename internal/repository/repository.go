package repository

import (
	"context"
	"database/sql"
	"time"

	"sensor_telemetry/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// SeriesRepo stores time series points grouped by bucket, measurement and field.
type SeriesRepo interface {
	Write(ctx context.Context, points []models.SeriesPoint) error
	Query(ctx context.Context, q models.SeriesQuery) ([]models.SeriesPoint, error)
	DeleteRange(ctx context.Context, bucket, measurement string, from, to time.Time) (int64, error)
}

// JobEventRepo is the append-only progress log of augmentation jobs.
type JobEventRepo interface {
	Append(ctx context.Context, e models.JobEvent) error
	List(ctx context.Context, from, to time.Time, jobID, stage string) ([]models.JobEvent, error)
	Latest(ctx context.Context, jobID string) (*models.JobEvent, error)
}

type Repository struct {
	Series    SeriesRepo
	JobEvents JobEventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Series:    NewSeriesSQLite(db),
		JobEvents: NewJobEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
