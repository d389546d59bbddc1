// Package live holds the most recent sensor state and fans new readings out to
// streaming clients.
package live

import (
	"sort"
	"sync"
	"time"

	"sensor_telemetry/internal/models"
)

// Snapshot is a point-in-time copy of the live state.
// It is a value type and stays valid after the lock is released.
type Snapshot struct {
	Temperature   *models.TemperatureReading `json:"temperature"`
	Vibration     *models.VibrationReading   `json:"vibration"`
	Devices       []models.DeviceInfo        `json:"devices"`
	MQTTConnected bool                       `json:"mqtt_connected"`
	StartTime     time.Time                  `json:"start_time"`
	Now           time.Time                  `json:"now"`
}

// Uptime returns how long the service has been running.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker keeps the latest readings behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	startTime     time.Time
	temperature   *models.TemperatureReading
	vibration     *models.VibrationReading
	devices       map[int]models.DeviceInfo
	mqttConnected bool
}

// NewTracker creates a Tracker that reports uptime from startTime.
func NewTracker(startTime time.Time) *Tracker {
	return &Tracker{
		startTime: startTime,
		devices:   make(map[int]models.DeviceInfo),
	}
}

// SetTemperature records the latest temperature sample.
func (t *Tracker) SetTemperature(r models.TemperatureReading) {
	t.mu.Lock()
	t.temperature = &r
	t.mu.Unlock()
}

// SetVibration records the latest vibration sample.
func (t *Tracker) SetVibration(r models.VibrationReading) {
	t.mu.Lock()
	t.vibration = &r
	t.mu.Unlock()
}

// SetDevice stores identification for the device on info.Port.
// Fields missing from info keep their previous value.
func (t *Tracker) SetDevice(info models.DeviceInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.devices[info.Port]
	if ok {
		info = mergeDevice(prev, info)
	}
	t.devices[info.Port] = info
}

// SetMQTTConnected sets the broker connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.mqttConnected = connected
	t.mu.Unlock()
}

// Device returns the known identification for a port.
func (t *Tracker) Device(port int) (models.DeviceInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.devices[port]
	return d, ok
}

// Snapshot returns a copy of the live state. Now is set at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := Snapshot{
		MQTTConnected: t.mqttConnected,
		StartTime:     t.startTime,
		Devices:       make([]models.DeviceInfo, 0, len(t.devices)),
	}
	if t.temperature != nil {
		r := *t.temperature
		s.Temperature = &r
	}
	if t.vibration != nil {
		r := *t.vibration
		s.Vibration = &r
	}
	for _, d := range t.devices {
		s.Devices = append(s.Devices, d)
	}
	t.mu.RUnlock()

	sort.Slice(s.Devices, func(i, j int) bool { return s.Devices[i].Port < s.Devices[j].Port })
	s.Now = time.Now()
	return s
}

func mergeDevice(prev, next models.DeviceInfo) models.DeviceInfo {
	keep := func(dst *string, old string) {
		if *dst == "" {
			*dst = old
		}
	}
	keep(&next.DeviceID, prev.DeviceID)
	keep(&next.VendorID, prev.VendorID)
	keep(&next.ProductName, prev.ProductName)
	keep(&next.SerialNumber, prev.SerialNumber)
	keep(&next.FirmwareVersion, prev.FirmwareVersion)
	keep(&next.DeviceName, prev.DeviceName)
	keep(&next.Source, prev.Source)
	next.Connected = next.Connected || prev.Connected
	if next.LastUpdated.IsZero() {
		next.LastUpdated = prev.LastUpdated
	}
	return next
}
