package models

import "time"

// TemperatureReading is a live sample from the temperature probe.
type TemperatureReading struct {
	Time        time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Port        int       `json:"port"`
}

// VibrationReading is a live sample from the VVB001. Fields carrying a sentinel are
// null and their tag is listed in Sentinels.
type VibrationReading struct {
	Time         time.Time         `json:"timestamp"`
	Port         int               `json:"port"`
	VRMS         *float64          `json:"v_rms"`
	APeak        *float64          `json:"a_peak"`
	ARMS         *float64          `json:"a_rms"`
	Temperature  *float64          `json:"temperature"`
	Crest        *float64          `json:"crest"`
	DeviceStatus string            `json:"device_status"`
	Out1         bool              `json:"out1"`
	Out2         bool              `json:"out2"`
	Raw          map[string]int16  `json:"raw"`
	Sentinels    map[string]string `json:"sentinels,omitempty"`
}

// DeviceInfo is the IO-Link identification of the device on one master port.
type DeviceInfo struct {
	Port            int       `json:"port"`
	Connected       bool      `json:"connected"`
	DeviceID        string    `json:"device_id,omitempty"`
	VendorID        string    `json:"vendor_id,omitempty"`
	ProductName     string    `json:"product_name,omitempty"`
	SerialNumber    string    `json:"serial_number,omitempty"`
	FirmwareVersion string    `json:"firmware_version,omitempty"`
	DeviceName      string    `json:"device_name,omitempty"`
	LastUpdated     time.Time `json:"last_updated,omitempty"`
	Source          string    `json:"source,omitempty"`
}
