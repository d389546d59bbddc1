// Package iolink reads the JSON messages an IO-Link master publishes over MQTT.
//
// A message carries a payload map keyed by data path, e.g.
//
//	{"code":"event","data":{"payload":{
//	    "/iolinkmaster/port[1]/iolinkdevice/pdin":{"code":200,"data":"0110"}}}}
package iolink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sensor_telemetry/internal/models"
)

var (
	ErrNoPayload     = errors.New("iolink: message has no data payload")
	ErrEmptyHex      = errors.New("iolink: empty process data")
	errNotAnEnvelope = errors.New("iolink: message is not a JSON object")
)

// temperature process data is an integer in tenths of a degree
const temperatureScaleC = 10.0

// Entry is one payload value as published by the master.
type Entry struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

// Envelope is a decoded master message.
type Envelope struct {
	Code    string
	Payload map[string]Entry
}

type rawEnvelope struct {
	Code string `json:"code"`
	Data struct {
		Payload map[string]json.RawMessage `json:"payload"`
	} `json:"data"`
}

// ParseEnvelope decodes a master message. Payload values that are not {code,data}
// objects are kept with the raw value as Data.
func ParseEnvelope(msg []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotAnEnvelope
	}

	var raw rawEnvelope
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("iolink: unmarshal message: %w", err)
	}
	if len(raw.Data.Payload) == 0 {
		return nil, ErrNoPayload
	}

	env := &Envelope{Code: raw.Code, Payload: make(map[string]Entry, len(raw.Data.Payload))}
	for path, v := range raw.Data.Payload {
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil || e.Data == nil {
			e = Entry{Data: v}
		}
		env.Payload[path] = e
	}
	return env, nil
}

// ProcessDataPath is the payload key holding the process data input of a port.
func ProcessDataPath(port int) string {
	return fmt.Sprintf("/iolinkmaster/port[%d]/iolinkdevice/pdin", port)
}

// ProcessData returns the hex process data of a port, if the message carries it.
func (e *Envelope) ProcessData(port int) (string, bool) {
	entry, ok := e.Payload[ProcessDataPath(port)]
	if !ok {
		return "", false
	}
	s, ok := entry.String()
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// String returns Data as text. JSON strings are unquoted, numbers are kept as written.
func (en Entry) String() (string, bool) {
	if len(en.Data) == 0 || string(en.Data) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(en.Data, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(en.Data, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// DecodeTemperature converts the probe's hex process data to °C ("0110" -> 27.2).
func DecodeTemperature(hexData string) (float64, error) {
	hexData = strings.TrimSpace(hexData)
	if hexData == "" {
		return 0, ErrEmptyHex
	}
	v, err := strconv.ParseInt(hexData, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("iolink: parse temperature %q: %w", hexData, err)
	}
	return float64(v) / temperatureScaleC, nil
}

// identification suffixes, lower-cased
const (
	keyDeviceID        = "deviceid"
	keyVendorID        = "vendorid"
	keyProductName     = "productname"
	keySerialNumber    = "serialnumber"
	keyFirmwareVersion = "firmwareversion"
	keyDeviceName      = "devicename"
)

// DeviceInfo collects the identification values the master published for a port.
// The second result is false when the message says nothing about the device.
func (e *Envelope) DeviceInfo(port int, now time.Time) (models.DeviceInfo, bool) {
	prefix := fmt.Sprintf("/iolinkmaster/port[%d]/iolinkdevice/", port)
	info := models.DeviceInfo{Port: port, Source: "mqtt"}

	for path, entry := range e.Payload {
		lower := strings.ToLower(path)
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		val, ok := entry.String()
		if !ok || val == "" {
			continue
		}
		switch strings.TrimPrefix(lower, prefix) {
		case keyDeviceID:
			info.DeviceID = val
		case keyVendorID:
			info.VendorID = val
		case keyProductName:
			info.ProductName = val
		case keySerialNumber:
			info.SerialNumber = val
		case keyFirmwareVersion:
			info.FirmwareVersion = val
		case keyDeviceName:
			info.DeviceName = val
		}
	}

	info.Connected = info.DeviceID != "" || info.VendorID != "" || info.ProductName != "" ||
		info.SerialNumber != "" || info.FirmwareVersion != ""
	if !info.Connected && info.DeviceName == "" {
		return models.DeviceInfo{}, false
	}
	info.LastUpdated = now.UTC()
	return info, true
}
