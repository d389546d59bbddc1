package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sensor_telemetry/internal/config"
	"sensor_telemetry/internal/iolink"
	"sensor_telemetry/internal/live"
	"sensor_telemetry/internal/logger"
	"sensor_telemetry/internal/models"
	"sensor_telemetry/internal/repository"
	"sensor_telemetry/internal/vvb001"
)

var (
	ErrUnknownTopic = errors.New("no sensor is mapped to this topic")
	ErrDecode       = errors.New("cannot decode sensor data")
)

type sensorKind int

const (
	sensorTemperature sensorKind = iota
	sensorVibration
)

type route struct {
	kind sensorKind
	port int
}

// IngestService decodes master messages for the configured topics.
type IngestService struct {
	series  repository.SeriesRepo
	tracker *live.Tracker
	hub     *live.Hub
	log     *logger.Logger
	routes  map[string]route
	now     func() time.Time
}

func NewIngestService(series repository.SeriesRepo, tracker *live.Tracker, hub *live.Hub, cfg config.MQTTConfig, log *logger.Logger) *IngestService {
	if tracker == nil {
		tracker = live.NewTracker(time.Now())
	}
	if hub == nil {
		hub = live.NewHub(0)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &IngestService{
		series:  series,
		tracker: tracker,
		hub:     hub,
		log:     log,
		routes: map[string]route{
			cfg.TemperatureTopic: {kind: sensorTemperature, port: cfg.TemperaturePort},
			cfg.VibrationTopic:   {kind: sensorVibration, port: cfg.VibrationPort},
		},
		now: time.Now,
	}
}

// HandleMessage processes one broker message. Messages without process data
// for the topic's port are ignored.
func (s *IngestService) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	r, ok := s.routes[topic]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}

	env, err := iolink.ParseEnvelope(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	now := s.now().UTC()

	if info, ok := env.DeviceInfo(r.port, now); ok {
		s.tracker.SetDevice(info)
		s.hub.Publish(live.Message{Kind: live.KindDevice, Data: info})
	}

	pd, ok := env.ProcessData(r.port)
	if !ok {
		s.log.Debugw("ingest_no_process_data", "topic", topic, "port", r.port)
		return nil
	}

	switch r.kind {
	case sensorVibration:
		return s.handleVibration(ctx, r.port, pd, now)
	default:
		return s.handleTemperature(ctx, r.port, pd, now)
	}
}

func (s *IngestService) handleTemperature(ctx context.Context, port int, hexData string, now time.Time) error {
	v, err := iolink.DecodeTemperature(hexData)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	reading := models.TemperatureReading{Time: now, Temperature: v, Port: port}
	s.tracker.SetTemperature(reading)
	s.hub.Publish(live.Message{Kind: live.KindTemperature, Data: reading})

	err = s.series.Write(ctx, []models.SeriesPoint{{
		Bucket:      models.BucketRaw,
		Measurement: models.MeasurementTemperature,
		Field:       models.FieldValue,
		Time:        now,
		Value:       v,
	}})
	if err != nil {
		return fmt.Errorf("store temperature: %w", err)
	}
	return nil
}

func (s *IngestService) handleVibration(ctx context.Context, port int, frame string, now time.Time) error {
	r, err := vvb001.Decode(frame)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	reading := vibrationReading(r, port, now)
	s.tracker.SetVibration(reading)
	s.hub.Publish(live.Message{Kind: live.KindVibration, Data: reading})

	points := make([]models.SeriesPoint, 0, len(models.VibrationFields))
	for _, f := range vibrationFields(r) {
		if f.field.Value == nil {
			continue
		}
		points = append(points, models.SeriesPoint{
			Bucket:      models.BucketRaw,
			Measurement: models.MeasurementVibration,
			Field:       f.name,
			Time:        now,
			Value:       *f.field.Value,
		})
	}
	if err := s.series.Write(ctx, points); err != nil {
		return fmt.Errorf("store vibration: %w", err)
	}
	return nil
}

type namedField struct {
	name  string
	field vvb001.Field
}

func vibrationFields(r *vvb001.Reading) []namedField {
	return []namedField{
		{models.FieldVRMS, r.VRMS},
		{models.FieldAPeak, r.APeak},
		{models.FieldARMS, r.ARMS},
		{models.FieldCrest, r.Crest},
		{models.FieldTemperature, r.Temperature},
	}
}

func vibrationReading(r *vvb001.Reading, port int, now time.Time) models.VibrationReading {
	out := models.VibrationReading{
		Time:         now,
		Port:         port,
		VRMS:         r.VRMS.Value,
		APeak:        r.APeak.Value,
		ARMS:         r.ARMS.Value,
		Temperature:  r.Temperature.Value,
		Crest:        r.Crest.Value,
		DeviceStatus: r.DeviceStatus.String(),
		Out1:         r.Out1,
		Out2:         r.Out2,
		Raw:          make(map[string]int16, 5),
	}
	for _, f := range vibrationFields(r) {
		out.Raw[f.name] = f.field.Raw
		if !f.field.Valid() {
			if out.Sentinels == nil {
				out.Sentinels = make(map[string]string)
			}
			out.Sentinels[f.name] = f.field.Sentinel.String()
		}
	}
	return out
}
