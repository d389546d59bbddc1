package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"sensor_telemetry/internal/models"
)

// memSeriesRepo is an in-memory repository.SeriesRepo.
type memSeriesRepo struct {
	mu       sync.Mutex
	points   []models.SeriesPoint
	writes   int
	queries  []models.SeriesQuery
	writeErr error
	queryErr error

	// blockWrite, when set, is waited on before every Write
	blockWrite chan struct{}
}

func (m *memSeriesRepo) Write(ctx context.Context, points []models.SeriesPoint) error {
	if m.blockWrite != nil {
		select {
		case <-m.blockWrite:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if len(points) == 0 {
		return nil
	}
	m.writes++
	m.points = append(m.points, points...)
	return nil
}

func (m *memSeriesRepo) Query(_ context.Context, q models.SeriesQuery) ([]models.SeriesPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []models.SeriesPoint
	for _, p := range m.points {
		if p.Bucket != q.Bucket || p.Measurement != q.Measurement {
			continue
		}
		if q.Field != "" && p.Field != q.Field {
			continue
		}
		if !q.From.IsZero() && p.Time.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && p.Time.After(q.To) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (m *memSeriesRepo) DeleteRange(_ context.Context, bucket, measurement string, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.points[:0]
	var n int64
	for _, p := range m.points {
		if p.Bucket == bucket && p.Measurement == measurement && !p.Time.Before(from) && !p.Time.After(to) {
			n++
			continue
		}
		kept = append(kept, p)
	}
	m.points = kept
	return n, nil
}

func (m *memSeriesRepo) count(bucket, measurement, field string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.points {
		if p.Bucket == bucket && (measurement == "" || p.Measurement == measurement) && (field == "" || p.Field == field) {
			n++
		}
	}
	return n
}

// memJobEventRepo is an in-memory repository.JobEventRepo that also records the
// arguments of the last List call.
type memJobEventRepo struct {
	mu        sync.Mutex
	events    []models.JobEvent
	appendErr error
	listErr   error

	listCalls int
	gotFrom   time.Time
	gotTo     time.Time
	gotJobID  string
	gotStage  string
}

func (m *memJobEventRepo) Append(_ context.Context, e models.JobEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.events = append(m.events, e)
	return nil
}

func (m *memJobEventRepo) List(_ context.Context, from, to time.Time, jobID, stage string) ([]models.JobEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	m.gotFrom, m.gotTo, m.gotJobID, m.gotStage = from, to, jobID, stage
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.JobEvent
	for _, e := range m.events {
		if jobID != "" && e.JobID != jobID {
			continue
		}
		if stage != "" && e.Stage != stage {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memJobEventRepo) Latest(_ context.Context, jobID string) (*models.JobEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		if jobID == "" || m.events[i].JobID == jobID {
			e := m.events[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (m *memJobEventRepo) stages(jobID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		if e.JobID == jobID {
			out = append(out, e.Stage)
		}
	}
	return out
}

func fixedZone(name string, offsetSec int) *time.Location {
	return time.FixedZone(name, offsetSec)
}

func mustTimeIn(loc *time.Location, y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, loc)
}

func ptr(v float64) *float64 { return &v }
