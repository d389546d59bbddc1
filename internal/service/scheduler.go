package service

import (
	"context"
	"errors"
	"time"

	"sensor_telemetry/internal/logger"
)

// SchedulerService starts an augmentation job over the default window on every tick.
type SchedulerService struct {
	aug Augmentation
	log *logger.Logger
}

func NewSchedulerService(aug Augmentation, log *logger.Logger) *SchedulerService {
	if log == nil {
		log = logger.Nop()
	}
	return &SchedulerService{aug: aug, log: log}
}

// Run ticks at the given interval until ctx is canceled. A non-positive interval
// disables scheduling. Ticks that find a job in flight are skipped.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			id, err := s.aug.Start(ctx, JobParams{})
			switch {
			case errors.Is(err, ErrJobRunning):
				s.log.Infow("augment_schedule_skipped", "reason", "job running")
			case err != nil:
				s.log.Errorw("augment_schedule_failed", "error", err)
			default:
				s.log.Infow("augment_scheduled", "job_id", id)
			}
		}
	}
}
