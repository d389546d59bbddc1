package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sensor_telemetry/internal/models"
	"sensor_telemetry/internal/repository"
)

var (
	ErrInvalidBucket    = errors.New("bucket must be raw or augmented")
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
)

type HistoryService struct {
	series repository.SeriesRepo
}

func NewHistoryService(series repository.SeriesRepo) *HistoryService {
	return &HistoryService{series: series}
}

func normalizeHistoryQuery(q HistoryQuery) (HistoryQuery, error) {
	if q.Bucket == "" {
		q.Bucket = models.BucketRaw
	}
	if q.Bucket != models.BucketRaw && q.Bucket != models.BucketAugmented {
		return q, fmt.Errorf("%w: %q", ErrInvalidBucket, q.Bucket)
	}
	q.From = normalizeToUTC(q.From)
	q.To = normalizeToUTC(q.To)
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return q, errInvalidTimeRange
	}
	return q, nil
}

// Temperature returns the temperature series of a bucket, ascending.
func (s *HistoryService) Temperature(ctx context.Context, q HistoryQuery) ([]models.DataPoint, error) {
	q, err := normalizeHistoryQuery(q)
	if err != nil {
		return nil, err
	}
	points, err := s.series.Query(ctx, models.SeriesQuery{
		Bucket:      q.Bucket,
		Measurement: models.MeasurementTemperature,
		Field:       models.FieldValue,
		From:        q.From,
		To:          q.To,
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.DataPoint, 0, len(points))
	for _, p := range points {
		v := p.Value
		out = append(out, models.DataPoint{Time: p.Time, Value: &v})
	}
	return out, nil
}

// Vibration returns one row per instant with every vibration field recorded then.
func (s *HistoryService) Vibration(ctx context.Context, q HistoryQuery) ([]models.VibrationRow, error) {
	q, err := normalizeHistoryQuery(q)
	if err != nil {
		return nil, err
	}
	points, err := s.series.Query(ctx, models.SeriesQuery{
		Bucket:      q.Bucket,
		Measurement: models.MeasurementVibration,
		From:        q.From,
		To:          q.To,
	})
	if err != nil {
		return nil, err
	}
	return mergeVibrationRows(points), nil
}

// mergeVibrationRows relies on points being ordered by time.
func mergeVibrationRows(points []models.SeriesPoint) []models.VibrationRow {
	rows := make([]models.VibrationRow, 0, len(points)/len(models.VibrationFields)+1)
	var last time.Time
	for _, p := range points {
		if len(rows) == 0 || !p.Time.Equal(last) {
			rows = append(rows, models.VibrationRow{Time: p.Time})
			last = p.Time
		}
		row := &rows[len(rows)-1]
		v := p.Value
		switch p.Field {
		case models.FieldVRMS:
			row.VRMS = &v
		case models.FieldAPeak:
			row.APeak = &v
		case models.FieldARMS:
			row.ARMS = &v
		case models.FieldCrest:
			row.Crest = &v
		case models.FieldTemperature:
			row.Temperature = &v
		}
	}
	return rows
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
