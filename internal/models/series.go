package models

import "time"

// Buckets separate recorded telemetry from synthetic series.
const (
	BucketRaw       = "raw"
	BucketAugmented = "augmented"
)

// Measurements and their fields.
const (
	MeasurementTemperature = "temperature"
	MeasurementVibration   = "vibration"

	FieldValue       = "value"
	FieldVRMS        = "v_rms"
	FieldAPeak       = "a_peak"
	FieldARMS        = "a_rms"
	FieldCrest       = "crest"
	FieldTemperature = "temperature"
)

// VibrationFields lists every stored field of the vibration measurement.
var VibrationFields = []string{FieldVRMS, FieldAPeak, FieldARMS, FieldCrest, FieldTemperature}

// SeriesPoint is one stored sample.
type SeriesPoint struct {
	Bucket      string    `json:"bucket"`
	Measurement string    `json:"measurement"`
	Field       string    `json:"field"`
	Time        time.Time `json:"time"`
	Value       float64   `json:"value"`
}

// SeriesQuery selects one field of one measurement over [From, To]. Zero bounds are open.
type SeriesQuery struct {
	Bucket      string
	Measurement string
	Field       string
	From        time.Time
	To          time.Time
}

// DataPoint is a (time, value) pair as served by the history API.
type DataPoint struct {
	Time  time.Time `json:"time"`
	Value *float64  `json:"value"`
}

// VibrationRow merges the vibration fields recorded at one instant.
type VibrationRow struct {
	Time        time.Time `json:"time"`
	VRMS        *float64  `json:"v_rms"`
	APeak       *float64  `json:"a_peak"`
	ARMS        *float64  `json:"a_rms"`
	Crest       *float64  `json:"crest"`
	Temperature *float64  `json:"temperature"`
}
