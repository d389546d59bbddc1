package service

import "time"

// JobParams selects the raw window an augmentation job reads. Zero values
// fall back to [now-lookback, now] and the configured seed.
type JobParams struct {
	From time.Time
	To   time.Time
	Seed uint64
}

// JobFilter supports job log filtering by time range, job and stage.
type JobFilter struct {
	From  time.Time // inclusive; zero means no lower bound
	To    time.Time // inclusive; zero means no upper bound
	JobID string
	Stage string // "", "START", "COPY_TEMP", ..., "COMPLETE", "STOPPED", "ERROR"
}

// HistoryQuery selects a bucket and an inclusive time range.
type HistoryQuery struct {
	Bucket string
	From   time.Time
	To     time.Time
}

// SensorValues is one temperature/vibration pair, predicted or measured.
type SensorValues struct {
	Temperature float64 `json:"temperature"`
	Vibration   float64 `json:"vibration"`
}
