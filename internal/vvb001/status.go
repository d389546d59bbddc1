package vvb001

import "fmt"

// Sentinel tags a raw process value that carries a reserved meaning instead of a measurement.
type Sentinel uint8

const (
	SentinelNone Sentinel = iota
	SentinelOverflow
	SentinelUnderflow
	SentinelNoData
	SentinelInvalid
)

// Reserved raw int16 values defined by the VVB001 process data profile.
const (
	rawOverflow  int16 = 32760
	rawUnderflow int16 = -32760
	rawNoData    int16 = 32764
	rawInvalid   int16 = -32768
)

var sentinelTags = map[Sentinel]string{
	SentinelNone:      "",
	SentinelOverflow:  "OL",
	SentinelUnderflow: "UL",
	SentinelNoData:    "NoData",
	SentinelInvalid:   "Invalid",
}

// resolveSentinel maps a raw value to its sentinel, or SentinelNone for a real measurement.
func resolveSentinel(raw int16) Sentinel {
	switch raw {
	case rawOverflow:
		return SentinelOverflow
	case rawUnderflow:
		return SentinelUnderflow
	case rawNoData:
		return SentinelNoData
	case rawInvalid:
		return SentinelInvalid
	default:
		return SentinelNone
	}
}

// String returns the diagnostic tag ("OL", "UL", "NoData", "Invalid"), empty for SentinelNone.
func (s Sentinel) String() string {
	return sentinelTags[s]
}

// MarshalText encodes the sentinel as its tag so JSON output reads "OL" rather than 1.
func (s Sentinel) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DeviceStatus is the 3-bit device status carried in bits 4..6 of the status byte.
type DeviceStatus uint8

const (
	StatusOK DeviceStatus = iota
	StatusMaintenanceRequired
	StatusOutOfSpecification
	StatusFunctionCheck
	StatusOffline
	StatusDeviceNotAvailable
	StatusNoDataAvailable
	StatusCyclicDataNotAvailable
)

var deviceStatusNames = [...]string{
	StatusOK:                     "OK",
	StatusMaintenanceRequired:    "Maintenance required",
	StatusOutOfSpecification:     "Out of specification",
	StatusFunctionCheck:          "Function check",
	StatusOffline:                "Offline",
	StatusDeviceNotAvailable:     "Device not available",
	StatusNoDataAvailable:        "No data available",
	StatusCyclicDataNotAvailable: "Cyclic data not available",
}

// Known reports whether the status is one of the eight defined table entries.
func (d DeviceStatus) Known() bool {
	return int(d) < len(deviceStatusNames)
}

func (d DeviceStatus) String() string {
	if !d.Known() {
		return fmt.Sprintf("Unknown(%d)", uint8(d))
	}
	return deviceStatusNames[d]
}

func (d DeviceStatus) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
