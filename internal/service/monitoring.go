package service

import (
	"time"

	"sensor_telemetry/internal/live"
	"sensor_telemetry/internal/models"
)

type MonitoringService struct {
	tracker *live.Tracker
}

func NewMonitoringService(tracker *live.Tracker) *MonitoringService {
	if tracker == nil {
		tracker = live.NewTracker(time.Now())
	}
	return &MonitoringService{tracker: tracker}
}

// Snapshot returns the latest readings and broker status.
func (s *MonitoringService) Snapshot() live.Snapshot {
	return s.tracker.Snapshot()
}

// Device returns what is known about the device on port. An unseen port is
// reported as disconnected rather than as an error.
func (s *MonitoringService) Device(port int) models.DeviceInfo {
	if d, ok := s.tracker.Device(port); ok {
		return d
	}
	return models.DeviceInfo{Port: port, Connected: false}
}
