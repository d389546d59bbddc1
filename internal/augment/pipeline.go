package augment

import (
	"time"
)

// Kind selects the noise level and wave amplitude for a series.
type Kind int

const (
	Temperature Kind = iota
	Vibration
)

func (k Kind) String() string {
	switch k {
	case Temperature:
		return "temperature"
	case Vibration:
		return "vibration"
	default:
		return "unknown"
	}
}

// Point is one sample of a series. A nil Value is a gap in the recording.
type Point struct {
	Time  time.Time
	Value *float64
}

// Vibration fields that receive their own wave and noise.
const (
	FieldVRMS        = "v_rms"
	FieldAPeak       = "a_peak"
	FieldARMS        = "a_rms"
	FieldCrest       = "crest"
	FieldTemperature = "temperature"
)

// PerturbedVibrationFields lists the vibration fields augmented independently, in processing order.
var PerturbedVibrationFields = []string{FieldVRMS, FieldAPeak, FieldARMS, FieldCrest}

// VibrationSeries holds one ascending series per vibration field.
type VibrationSeries map[string][]Point

// KindParams is the per-kind configuration.
type KindParams struct {
	NoiseStdDev float64    `mapstructure:"noise_std_dev" yaml:"noise_std_dev" json:"noise_std_dev"`
	Wave        WaveParams `mapstructure:"wave" yaml:"wave" json:"wave"`
}

// Config carries the parameters of both kinds.
type Config struct {
	Temperature KindParams `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
	Vibration   KindParams `mapstructure:"vibration" yaml:"vibration" json:"vibration"`
}

// DefaultConfig returns the stock augmentation parameters.
func DefaultConfig() Config {
	duration := Range{Min: 15, Max: 40}
	interval := Range{Min: 0.5, Max: 3.0}
	const probability = 0.3

	return Config{
		Temperature: KindParams{
			NoiseStdDev: 0.3,
			Wave: WaveParams{
				Amplitude:          Range{Min: 3.0, Max: 8.0},
				DurationMinutes:    duration,
				IntervalHours:      interval,
				TriggerProbability: probability,
			},
		},
		Vibration: KindParams{
			NoiseStdDev: 0.05,
			Wave: WaveParams{
				Amplitude:          Range{Min: 0.3, Max: 1.2},
				DurationMinutes:    duration,
				IntervalHours:      interval,
				TriggerProbability: probability,
			},
		},
	}
}

func (c Config) params(kind Kind) KindParams {
	if kind == Vibration {
		return c.Vibration
	}
	return c.Temperature
}

// Augmenter runs the pipeline. All draws of all series come from the same Source,
// so a seeded source makes a whole run reproducible.
type Augmenter struct {
	cfg Config
	src Source
}

func New(cfg Config, src Source) *Augmenter {
	return &Augmenter{cfg: cfg, src: src}
}

// Augment returns a new series of the same length: value + wave + noise for every
// present value, gaps copied through untouched. The input must be ascending by time.
func (a *Augmenter) Augment(series []Point, kind Kind) []Point {
	p := a.cfg.params(kind)
	gen := NewWaveGenerator(a.src, p.Wave)

	out := make([]Point, len(series))
	for i, pt := range series {
		out[i] = Point{Time: pt.Time}
		if pt.Value == nil {
			continue
		}
		v := *pt.Value + gen.Next(pt.Time) + a.src.NormFloat64()*p.NoiseStdDev
		out[i].Value = &v
	}
	return out
}

// AugmentVibration augments every perturbed field independently and rewrites the
// temperature field from augmentedTemperature, matched on the exact timestamp. Samples
// with no exact match keep the temperature the vibration sensor reported.
//
// augmentedTemperature must be complete before this is called.
func (a *Augmenter) AugmentVibration(series VibrationSeries, augmentedTemperature []Point) VibrationSeries {
	out := make(VibrationSeries, len(series))
	for _, field := range PerturbedVibrationFields {
		if pts, ok := series[field]; ok {
			out[field] = a.Augment(pts, Vibration)
		}
	}
	if pts, ok := series[FieldTemperature]; ok {
		out[FieldTemperature] = AlignTemperature(pts, IndexByTime(augmentedTemperature))
	}
	// fields this pipeline does not know about pass through
	for field, pts := range series {
		if _, done := out[field]; !done {
			out[field] = append([]Point(nil), pts...)
		}
	}
	return out
}

// TimeIndex is a read-only lookup of values keyed by exact instant.
type TimeIndex map[int64]float64

// IndexByTime builds a TimeIndex from a series. Gaps are not indexed; for duplicate
// timestamps the last value wins.
func IndexByTime(series []Point) TimeIndex {
	idx := make(TimeIndex, len(series))
	for _, pt := range series {
		if pt.Value != nil {
			idx[pt.Time.UnixNano()] = *pt.Value
		}
	}
	return idx
}

// AlignTemperature replaces each present value with the indexed one at the same instant.
func AlignTemperature(series []Point, idx TimeIndex) []Point {
	out := make([]Point, len(series))
	for i, pt := range series {
		out[i] = pt
		if pt.Value == nil {
			continue
		}
		if v, ok := idx[pt.Time.UnixNano()]; ok {
			out[i].Value = &v
		}
	}
	return out
}
