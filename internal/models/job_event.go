package models

import "time"

// Augmentation job stages, in the order a successful run reports them.
const (
	StageStart               = "START"
	StageCopyTemperature     = "COPY_TEMP"
	StageCopyVibration       = "COPY_VIB"
	StageAugmentTemperature  = "AUGMENT_TEMP"
	StageTemperatureComplete = "AUGMENT_TEMP_COMPLETE"
	StageAugmentVibration    = "AUGMENT_VIB"
	StageVibrationComplete   = "AUGMENT_VIB_COMPLETE"
	StageComplete            = "COMPLETE"
	StageStopped             = "STOPPED"
	StageError               = "ERROR"
)

// JobEvent is a single progress entry of an augmentation job.
type JobEvent struct {
	EventID    string    `json:"event_id"`
	JobID      string    `json:"job_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Stage      string    `json:"stage"`    // START | COPY_TEMP | ... | COMPLETE | STOPPED | ERROR
	Progress   int       `json:"progress"` // 0..100
	Message    string    `json:"message"`  // human-readable
	Metadata   any       `json:"metadata,omitempty"`
}

// Terminal reports whether the job has finished, one way or another.
func (e JobEvent) Terminal() bool {
	switch e.Stage {
	case StageComplete, StageStopped, StageError:
		return true
	default:
		return false
	}
}
