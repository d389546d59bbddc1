// Package augment produces synthetic training series by layering episodic half-sine
// disturbances and gaussian noise on top of recorded sensor series.
package augment

import (
	"math"
	"time"
)

// Source is the random stream every draw of a run comes from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	NormFloat64() float64
}

// Range is a closed interval a value is drawn uniformly from.
type Range struct {
	Min float64 `mapstructure:"min" yaml:"min" json:"min"`
	Max float64 `mapstructure:"max" yaml:"max" json:"max"`
}

func (r Range) sample(src Source) float64 {
	return r.Min + (r.Max-r.Min)*src.Float64()
}

// WaveParams configures one generator.
type WaveParams struct {
	Amplitude          Range   `mapstructure:"amplitude" yaml:"amplitude" json:"amplitude"`                               // signal units
	DurationMinutes    Range   `mapstructure:"duration_minutes" yaml:"duration_minutes" json:"duration_minutes"`          // length of one wave
	IntervalHours      Range   `mapstructure:"interval_hours" yaml:"interval_hours" json:"interval_hours"`                // gap from one wave start to the next decision point
	TriggerProbability float64 `mapstructure:"trigger_probability" yaml:"trigger_probability" json:"trigger_probability"` // chance a decision point starts a wave
}

const (
	jitterMin = 0.9
	jitterMax = 1.1
)

// waveState is replaced wholesale whenever a new wave starts.
type waveState struct {
	start        time.Time
	amplitude    float64
	direction    float64
	duration     time.Duration
	nextInterval time.Duration
}

// WaveGenerator emits one perturbation per timestamp. Timestamps must be fed in
// chronological order; a generator belongs to exactly one series.
type WaveGenerator struct {
	src    Source
	params WaveParams
	state  *waveState
}

func NewWaveGenerator(src Source, params WaveParams) *WaveGenerator {
	return &WaveGenerator{src: src, params: params}
}

// Next returns the offset to add to the value observed at ts.
//
// A decision point is the first call, or any call where the time since the last wave
// start has reached the interval sampled with that wave. A failed trigger draw keeps the
// old schedule, so every following call stays a decision point until one succeeds.
func (g *WaveGenerator) Next(ts time.Time) float64 {
	if g.state == nil || ts.Sub(g.state.start) >= g.state.nextInterval {
		if g.src.Float64() < g.params.TriggerProbability {
			g.state = g.newWave(ts)
		}
	}
	if g.state == nil {
		return 0
	}

	elapsed := ts.Sub(g.state.start)
	if elapsed < 0 || elapsed >= g.state.duration {
		return 0
	}

	progress := elapsed.Seconds() / g.state.duration.Seconds()
	jitter := Range{Min: jitterMin, Max: jitterMax}.sample(g.src)
	return g.state.amplitude * g.state.direction * math.Sin(math.Pi*progress) * jitter
}

// newWave draws amplitude, direction, duration and the interval to the next decision point, in that order.
func (g *WaveGenerator) newWave(ts time.Time) *waveState {
	amplitude := g.params.Amplitude.sample(g.src)

	direction := -1.0
	if g.src.Float64() < 0.5 {
		direction = 1.0
	}

	minutes := g.params.DurationMinutes.sample(g.src)
	hours := g.params.IntervalHours.sample(g.src)

	return &waveState{
		start:        ts,
		amplitude:    amplitude,
		direction:    direction,
		duration:     time.Duration(minutes * float64(time.Minute)),
		nextInterval: time.Duration(hours * float64(time.Hour)),
	}
}
