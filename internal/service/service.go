package service

import (
	"context"
	"time"

	"sensor_telemetry/internal/config"
	"sensor_telemetry/internal/live"
	"sensor_telemetry/internal/logger"
	"sensor_telemetry/internal/models"
	"sensor_telemetry/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Ingest turns broker messages into stored points and live updates.
type Ingest interface {
	HandleMessage(ctx context.Context, topic string, payload []byte) error
}

// Monitoring exposes the live view (latest readings, devices, broker status).
type Monitoring interface {
	Snapshot() live.Snapshot
	Device(port int) models.DeviceInfo
}

// History reads stored series.
type History interface {
	Temperature(ctx context.Context, q HistoryQuery) ([]models.DataPoint, error)
	Vibration(ctx context.Context, q HistoryQuery) ([]models.VibrationRow, error)
}

// Augmentation controls the synthetic data job.
type Augmentation interface {
	Start(ctx context.Context, p JobParams) (string, error)
	Stop(ctx context.Context) error
	Progress(ctx context.Context) (*models.JobEvent, error)
	RunJob(ctx context.Context, p JobParams) (string, error)
}

// Scheduler starts augmentation jobs periodically.
// Stop via context cancellation in main() for graceful shutdown.
type Scheduler interface {
	Run(ctx context.Context, interval time.Duration)
}

// JobLog exposes the augmentation progress log with filtering access.
type JobLog interface {
	List(ctx context.Context, f JobFilter) ([]models.JobEvent, error)
}

// Anomaly compares a model prediction with the measured values.
type Anomaly interface {
	Detect(prediction, actual SensorValues) AnomalyResult
}

// Service aggregates all sub-services.
type Service struct {
	Ingest
	Monitoring
	History
	Augmentation
	Scheduler
	JobLog
	Anomaly
	Authorization
}

// Deps carries the runtime collaborators that are not repositories.
type Deps struct {
	Config  *config.Config
	Tracker *live.Tracker
	Hub     *live.Hub
	Log     *logger.Logger
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	cfg := deps.Config
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}

	augmentation := NewAugmentationService(repos.Series, repos.JobEvents, cfg.Augment, log)
	return &Service{
		Ingest:        NewIngestService(repos.Series, deps.Tracker, deps.Hub, cfg.MQTT, log),
		Monitoring:    NewMonitoringService(deps.Tracker),
		History:       NewHistoryService(repos.Series),
		Augmentation:  augmentation,
		Scheduler:     NewSchedulerService(augmentation, log),
		JobLog:        NewJobLogService(repos.JobEvents),
		Anomaly:       NewAnomalyService(cfg.Anomaly),
		Authorization: NewAuthService(repos.Auth, cfg.Auth),
	}
}
