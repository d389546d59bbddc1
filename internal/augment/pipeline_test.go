package augment

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func minuteSeries(n int, base float64) []Point {
	out := make([]Point, n)
	for i := range out {
		out[i] = Point{Time: t0.Add(time.Duration(i) * time.Minute), Value: f(base + float64(i%7)*0.1)}
	}
	return out
}

func values(series []Point) []*float64 {
	out := make([]*float64, len(series))
	for i, p := range series {
		out[i] = p.Value
	}
	return out
}

func disabledConfig() Config {
	cfg := DefaultConfig()
	cfg.Temperature.NoiseStdDev = 0
	cfg.Temperature.Wave.TriggerProbability = 0
	cfg.Vibration.NoiseStdDev = 0
	cfg.Vibration.Wave.TriggerProbability = 0
	return cfg
}

func TestAugment_IdentityWhenDisabled(t *testing.T) {
	t.Parallel()

	in := []Point{
		{Time: t0, Value: f(20.0)},
		{Time: t0.Add(time.Minute), Value: f(20.1)},
		{Time: t0.Add(2 * time.Minute), Value: f(20.0)},
	}

	a := New(disabledConfig(), rand.New(rand.NewPCG(11, 12)))
	out := a.Augment(in, Temperature)

	require.Len(t, out, len(in))
	for i := range in {
		require.True(t, in[i].Time.Equal(out[i].Time))
		require.Equal(t, *in[i].Value, *out[i].Value)
	}
}

func TestAugment_DeterministicUnderSeed(t *testing.T) {
	t.Parallel()

	in := minuteSeries(5*24*60, 21.5)

	run := func() []*float64 {
		a := New(DefaultConfig(), rand.New(rand.NewPCG(42, 1042)))
		return values(a.Augment(in, Temperature))
	}

	first, second := run(), run()
	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, *first[i], *second[i], "index %d", i)
	}

	other := values(New(DefaultConfig(), rand.New(rand.NewPCG(43, 1043))).Augment(in, Temperature))
	var differs bool
	for i := range first {
		if *first[i] != *other[i] {
			differs = true
			break
		}
	}
	require.True(t, differs, "a different seed should change the output")
}

func TestAugment_AddsNoiseAndWaves(t *testing.T) {
	t.Parallel()

	in := minuteSeries(3*24*60, 30)
	a := New(DefaultConfig(), rand.New(rand.NewPCG(5, 6)))
	out := a.Augment(in, Temperature)

	var maxDelta float64
	for i := range in {
		d := *out[i].Value - *in[i].Value
		if d < 0 {
			d = -d
		}
		if d > maxDelta {
			maxDelta = d
		}
	}
	// 3 days at 0.3 probability per decision point fires waves of at least 3 °C
	require.Greater(t, maxDelta, 2.0)
}

func TestAugment_GapsPassThroughWithoutDraws(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{norms: []float64{1, 1, 1}}
	cfg := disabledConfig()
	cfg.Temperature.NoiseStdDev = 0.5
	a := New(cfg, src)

	in := []Point{
		{Time: t0, Value: f(10)},
		{Time: t0.Add(time.Minute)},
		{Time: t0.Add(2 * time.Minute), Value: f(12)},
	}
	out := a.Augment(in, Temperature)

	require.Equal(t, 10.5, *out[0].Value)
	require.Nil(t, out[1].Value)
	require.Equal(t, 12.5, *out[2].Value)
	require.Equal(t, 2, src.ni, "gap must not consume a noise draw")
	require.Equal(t, 2, src.fi, "gap must not reach the wave generator")
}

func TestAugment_KeepsDuplicateTimestamps(t *testing.T) {
	t.Parallel()

	in := []Point{
		{Time: t0, Value: f(1)},
		{Time: t0, Value: f(2)},
		{Time: t0.Add(time.Second), Value: f(3)},
	}
	out := New(disabledConfig(), rand.New(rand.NewPCG(1, 1))).Augment(in, Vibration)
	require.Len(t, out, 3)
	require.Equal(t, 1.0, *out[0].Value)
	require.Equal(t, 2.0, *out[1].Value)
}

func TestAugment_NoiseLevelFollowsKind(t *testing.T) {
	t.Parallel()

	cfg := disabledConfig()
	cfg.Temperature.NoiseStdDev = 0.3
	cfg.Vibration.NoiseStdDev = 0.05

	in := []Point{{Time: t0, Value: f(0)}}

	temp := New(cfg, &scriptedSource{norms: []float64{1}}).Augment(in, Temperature)
	vib := New(cfg, &scriptedSource{norms: []float64{1}}).Augment(in, Vibration)

	require.InDelta(t, 0.3, *temp[0].Value, 1e-12)
	require.InDelta(t, 0.05, *vib[0].Value, 1e-12)
}

func TestAugmentVibration_TemperatureFromAugmentedSeries(t *testing.T) {
	t.Parallel()

	ts := []time.Time{t0, t0.Add(time.Minute), t0.Add(2 * time.Minute)}

	augmentedTemp := []Point{
		{Time: ts[0], Value: f(55.5)},
		// ts[1] has no exact counterpart; a near one must not be used
		{Time: ts[1].Add(time.Millisecond), Value: f(99)},
		{Time: ts[2], Value: f(57.25)},
	}
	vib := VibrationSeries{
		FieldVRMS: {
			{Time: ts[0], Value: f(0.01)},
			{Time: ts[1], Value: f(0.02)},
			{Time: ts[2], Value: f(0.03)},
		},
		FieldTemperature: {
			{Time: ts[0], Value: f(30.0)},
			{Time: ts[1], Value: f(30.1)},
			{Time: ts[2].In(time.FixedZone("KST", 9*3600)), Value: f(30.2)},
		},
	}

	out := New(disabledConfig(), rand.New(rand.NewPCG(9, 9))).AugmentVibration(vib, augmentedTemp)

	temps := out[FieldTemperature]
	require.Len(t, temps, 3)
	require.Equal(t, 55.5, *temps[0].Value)
	require.Equal(t, 30.1, *temps[1].Value)
	require.Equal(t, 57.25, *temps[2].Value, "same instant in another zone is an exact match")

	require.Equal(t, 0.02, *out[FieldVRMS][1].Value)
	require.NotContains(t, out, FieldCrest)
}

func TestAugmentVibration_FieldsAreIndependent(t *testing.T) {
	t.Parallel()

	base := minuteSeries(2*24*60, 1.0)
	vib := VibrationSeries{
		FieldVRMS:  base,
		FieldAPeak: base,
		FieldARMS:  base,
		FieldCrest: base,
	}

	out := New(DefaultConfig(), rand.New(rand.NewPCG(77, 78))).AugmentVibration(vib, nil)

	require.Len(t, out, 4)
	same := true
	for i := range base {
		if *out[FieldVRMS][i].Value != *out[FieldCrest][i].Value {
			same = false
			break
		}
	}
	require.False(t, same, "each field draws its own waves and noise")

	// input series are not modified in place
	require.Equal(t, 1.0, *base[0].Value)
}

func TestAugmentVibration_Deterministic(t *testing.T) {
	t.Parallel()

	temp := minuteSeries(600, 40)
	vib := VibrationSeries{
		FieldVRMS:        minuteSeries(600, 0.002),
		FieldAPeak:       minuteSeries(600, 3),
		FieldARMS:        minuteSeries(600, 1),
		FieldCrest:       minuteSeries(600, 3.5),
		FieldTemperature: minuteSeries(600, 39),
	}

	run := func() VibrationSeries {
		a := New(DefaultConfig(), rand.New(rand.NewPCG(2024, 1)))
		augmented := a.Augment(temp, Temperature)
		return a.AugmentVibration(vib, augmented)
	}

	first, second := run(), run()
	for field, pts := range first {
		for i := range pts {
			require.Equal(t, *pts[i].Value, *second[field][i].Value, "%s[%d]", field, i)
		}
	}
}
