package service

import (
	"context"
	"strings"

	"sensor_telemetry/internal/models"
	"sensor_telemetry/internal/repository"
)

type JobLogService struct {
	events repository.JobEventRepo
}

func NewJobLogService(events repository.JobEventRepo) *JobLogService {
	return &JobLogService{events: events}
}

// normalizeStage trims spaces and uppercases the stage filter.
func normalizeStage(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f JobFilter) (JobFilter, error) {
	out := JobFilter{
		From:  normalizeToUTC(f.From),
		To:    normalizeToUTC(f.To),
		JobID: strings.TrimSpace(f.JobID),
		Stage: normalizeStage(f.Stage),
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return JobFilter{}, errInvalidTimeRange
	}
	return out, nil
}

func (s *JobLogService) List(ctx context.Context, f JobFilter) ([]models.JobEvent, error) {
	f, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, f.From, f.To, f.JobID, f.Stage)
}
