package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"sensor_telemetry/internal/augment"
	"sensor_telemetry/internal/config"
	"sensor_telemetry/internal/logger"
	"sensor_telemetry/internal/models"
	"sensor_telemetry/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrJobRunning   = errors.New("an augmentation job is already running")
	ErrNoJobRunning = errors.New("no augmentation job is running")
)

// second PCG word, so that one user-facing seed fills both halves of the state
const pcgStream = 0x9e3779b97f4a7c15

// progress reported with each stage
var stageProgress = map[string]int{
	models.StageStart:               0,
	models.StageCopyTemperature:     10,
	models.StageCopyVibration:       30,
	models.StageAugmentTemperature:  60,
	models.StageTemperatureComplete: 70,
	models.StageAugmentVibration:    75,
	models.StageVibrationComplete:   95,
	models.StageComplete:            100,
}

type runningJob struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// AugmentationService copies the raw window, augments it and writes the result to the
// augmented bucket, logging every stage. At most one job runs at a time.
type AugmentationService struct {
	series    repository.SeriesRepo
	events    repository.JobEventRepo
	cfg       config.AugmentConfig
	log       *logger.Logger
	now       func() time.Time
	newSource func(seed uint64) augment.Source

	mu      sync.Mutex
	running *runningJob
}

func NewAugmentationService(series repository.SeriesRepo, events repository.JobEventRepo, cfg config.AugmentConfig, log *logger.Logger) *AugmentationService {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	return &AugmentationService{
		series: series,
		events: events,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		newSource: func(seed uint64) augment.Source {
			return rand.New(rand.NewPCG(seed, seed^pcgStream))
		},
	}
}

// Start launches a job in the background and returns its id.
func (s *AugmentationService) Start(_ context.Context, p JobParams) (string, error) {
	jobCtx, cancel := context.WithCancel(context.Background())
	job, err := s.acquire(cancel)
	if err != nil {
		cancel()
		return "", err
	}

	go func() {
		defer s.release(job)
		if err := s.run(jobCtx, job.id, p); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Errorw("augment_job_failed", "job_id", job.id, "error", err)
		}
	}()
	return job.id, nil
}

// RunJob runs a job to completion on the caller's goroutine.
func (s *AugmentationService) RunJob(ctx context.Context, p JobParams) (string, error) {
	jobCtx, cancel := context.WithCancel(ctx)
	job, err := s.acquire(cancel)
	if err != nil {
		cancel()
		return "", err
	}
	defer s.release(job)
	return job.id, s.run(jobCtx, job.id, p)
}

// Stop cancels the running job and waits until it has logged STOPPED or ctx ends.
func (s *AugmentationService) Stop(ctx context.Context) error {
	s.mu.Lock()
	job := s.running
	s.mu.Unlock()
	if job == nil {
		return ErrNoJobRunning
	}

	job.cancel()
	select {
	case <-job.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Progress returns the most recent event of any job, nil when none ever ran.
func (s *AugmentationService) Progress(ctx context.Context) (*models.JobEvent, error) {
	return s.events.Latest(ctx, "")
}

// Running reports the id of the job in flight, if any.
func (s *AugmentationService) Running() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running == nil {
		return "", false
	}
	return s.running.id, true
}

func (s *AugmentationService) acquire(cancel context.CancelFunc) (*runningJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running != nil {
		return nil, ErrJobRunning
	}
	s.running = &runningJob{id: uuid.NewString(), cancel: cancel, done: make(chan struct{})}
	return s.running, nil
}

func (s *AugmentationService) release(job *runningJob) {
	job.cancel()
	s.mu.Lock()
	if s.running == job {
		s.running = nil
	}
	s.mu.Unlock()
	close(job.done)
}

// jobWindow is the resolved input of one run.
type jobWindow struct {
	from, to time.Time
	seed     uint64
}

func (s *AugmentationService) resolve(p JobParams) (jobWindow, error) {
	now := s.now().UTC()
	w := jobWindow{from: normalizeToUTC(p.From), to: normalizeToUTC(p.To), seed: p.Seed}
	if w.to.IsZero() {
		w.to = now
	}
	if w.from.IsZero() {
		w.from = w.to.Add(-s.cfg.Lookback)
	}
	if !w.from.Before(w.to) {
		return w, errInvalidTimeRange
	}
	if w.seed == 0 {
		w.seed = s.cfg.Seed
	}
	if w.seed == 0 {
		w.seed = uint64(now.UnixNano())
	}
	return w, nil
}

func (s *AugmentationService) run(ctx context.Context, jobID string, p JobParams) error {
	// terminal events must be logged even after a stop
	logCtx := context.WithoutCancel(ctx)

	w, err := s.resolve(p)
	if err != nil {
		s.emit(logCtx, jobID, models.StageError, 0, err.Error(), nil)
		return err
	}

	s.emit(ctx, jobID, models.StageStart, stageProgress[models.StageStart], "augmentation started", map[string]any{
		"from": w.from,
		"to":   w.to,
		"seed": w.seed,
	})

	err = s.execute(ctx, jobID, w)
	switch {
	case err == nil:
		s.emit(logCtx, jobID, models.StageComplete, stageProgress[models.StageComplete], "augmentation complete", nil)
	case errors.Is(err, context.Canceled):
		s.emit(logCtx, jobID, models.StageStopped, s.lastProgress(logCtx, jobID), "augmentation stopped", nil)
	default:
		s.emit(logCtx, jobID, models.StageError, s.lastProgress(logCtx, jobID), err.Error(), nil)
	}
	return err
}

func (s *AugmentationService) execute(ctx context.Context, jobID string, w jobWindow) error {
	s.emit(ctx, jobID, models.StageCopyTemperature, stageProgress[models.StageCopyTemperature], "loading raw temperature", nil)
	rawTemp, err := s.series.Query(ctx, models.SeriesQuery{
		Bucket:      models.BucketRaw,
		Measurement: models.MeasurementTemperature,
		Field:       models.FieldValue,
		From:        w.from,
		To:          w.to,
	})
	if err != nil {
		return fmt.Errorf("load raw temperature: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.emit(ctx, jobID, models.StageCopyVibration, stageProgress[models.StageCopyVibration], "loading raw vibration",
		map[string]any{"temperature_points": len(rawTemp)})
	rawVib, err := s.series.Query(ctx, models.SeriesQuery{
		Bucket:      models.BucketRaw,
		Measurement: models.MeasurementVibration,
		From:        w.from,
		To:          w.to,
	})
	if err != nil {
		return fmt.Errorf("load raw vibration: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// a rerun over the same window replaces the previous output
	for _, m := range []string{models.MeasurementTemperature, models.MeasurementVibration} {
		if _, err := s.series.DeleteRange(ctx, models.BucketAugmented, m, w.from, w.to); err != nil {
			return fmt.Errorf("clear augmented %s: %w", m, err)
		}
	}

	aug := augment.New(s.cfg.Params, s.newSource(w.seed))

	s.emit(ctx, jobID, models.StageAugmentTemperature, stageProgress[models.StageAugmentTemperature], "augmenting temperature", nil)
	temp := aug.Augment(toAugmentPoints(rawTemp), augment.Temperature)
	written, err := s.writeSeries(ctx, models.MeasurementTemperature, models.FieldValue, temp)
	if err != nil {
		return err
	}
	s.emit(ctx, jobID, models.StageTemperatureComplete, stageProgress[models.StageTemperatureComplete], "temperature written",
		map[string]any{"points": written})

	s.emit(ctx, jobID, models.StageAugmentVibration, stageProgress[models.StageAugmentVibration], "augmenting vibration",
		map[string]any{"vibration_points": len(rawVib)})
	vib := aug.AugmentVibration(groupByField(rawVib), temp)
	written = 0
	for _, field := range vibrationWriteOrder(vib) {
		n, err := s.writeSeries(ctx, models.MeasurementVibration, field, vib[field])
		if err != nil {
			return err
		}
		written += n
	}
	s.emit(ctx, jobID, models.StageVibrationComplete, stageProgress[models.StageVibrationComplete], "vibration written",
		map[string]any{"points": written})
	return nil
}

// writeSeries stores the non-gap points in batches and returns how many were written.
func (s *AugmentationService) writeSeries(ctx context.Context, measurement, field string, pts []augment.Point) (int, error) {
	batch := make([]models.SeriesPoint, 0, s.cfg.BatchSize)
	written := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.series.Write(ctx, batch); err != nil {
			return fmt.Errorf("write augmented %s.%s: %w", measurement, field, err)
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, p := range pts {
		if p.Value == nil {
			continue
		}
		batch = append(batch, models.SeriesPoint{
			Bucket:      models.BucketAugmented,
			Measurement: measurement,
			Field:       field,
			Time:        p.Time,
			Value:       *p.Value,
		})
		if len(batch) == s.cfg.BatchSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}
	return written, nil
}

func (s *AugmentationService) emit(ctx context.Context, jobID, stage string, progress int, msg string, meta map[string]any) {
	e := models.JobEvent{
		JobID:      jobID,
		OccurredAt: s.now().UTC(),
		Stage:      stage,
		Progress:   progress,
		Message:    msg,
	}
	if meta != nil {
		e.Metadata = meta
	}
	if err := s.events.Append(ctx, e); err != nil {
		s.log.Warnw("augment_event_not_logged", "job_id", jobID, "stage", stage, "error", err)
		return
	}
	s.log.Infow("augment_stage", "job_id", jobID, "stage", stage, "progress", progress)
}

// lastProgress is the progress of the job's latest event, so STOPPED and ERROR keep it.
func (s *AugmentationService) lastProgress(ctx context.Context, jobID string) int {
	e, err := s.events.Latest(ctx, jobID)
	if err != nil || e == nil {
		return 0
	}
	return e.Progress
}

func toAugmentPoints(points []models.SeriesPoint) []augment.Point {
	out := make([]augment.Point, len(points))
	for i, p := range points {
		v := p.Value
		out[i] = augment.Point{Time: p.Time, Value: &v}
	}
	return out
}

func groupByField(points []models.SeriesPoint) augment.VibrationSeries {
	out := make(augment.VibrationSeries)
	for _, p := range points {
		v := p.Value
		out[p.Field] = append(out[p.Field], augment.Point{Time: p.Time, Value: &v})
	}
	return out
}

// vibrationWriteOrder lists the known fields first, then anything else by name.
func vibrationWriteOrder(series augment.VibrationSeries) []string {
	order := make([]string, 0, len(series))
	known := make(map[string]bool, len(models.VibrationFields))
	for _, f := range models.VibrationFields {
		known[f] = true
		if _, ok := series[f]; ok {
			order = append(order, f)
		}
	}
	var extra []string
	for f := range series {
		if !known[f] {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}
