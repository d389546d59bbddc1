// Package vvb001 decodes the 20-byte cyclic process data frame of the ifm VVB001 vibration sensor.
//
// Frame layout (big-endian, signed 16-bit values):
//
//	[0:2]   v-RMS        x 0.0001 m/s
//	[4:6]   a-Peak       x 0.1 m/s²
//	[8:10]  a-RMS        x 0.1 m/s²
//	[10]    status byte  bits 4..6 device status, bit 0 OUT1, bit 1 OUT2
//	[12:14] temperature  x 0.1 °C
//	[16:18] crest factor x 0.1
package vvb001

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// FrameHexLen is the length of a frame in hex characters.
	FrameHexLen = 40
	frameLen    = FrameHexLen / 2

	statusByteOffset = 10
	deviceStatusMask = 0x07
	out1Bit          = 0x01
	out2Bit          = 0x02
)

// ErrInvalidLength is returned when the hex frame is not exactly FrameHexLen characters long.
var ErrInvalidLength = errors.New("vvb001: invalid frame length")

// DecodeError wraps a failure that happened while converting the frame into bytes.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("vvb001: decode frame: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// Field is one decoded process value. Value is nil when Raw is a sentinel.
type Field struct {
	Raw      int16    `json:"raw"`
	Value    *float64 `json:"value"`
	Sentinel Sentinel `json:"sentinel,omitempty"`
}

// Valid reports whether the field holds a real measurement.
func (f Field) Valid() bool { return f.Value != nil }

// Reading is the decoded content of one frame.
type Reading struct {
	VRMS         Field        `json:"v_rms"`
	APeak        Field        `json:"a_peak"`
	ARMS         Field        `json:"a_rms"`
	Temperature  Field        `json:"temperature"`
	Crest        Field        `json:"crest"`
	DeviceStatus DeviceStatus `json:"device_status"`
	Out1         bool         `json:"out1"`
	Out2         bool         `json:"out2"`
	StatusByte   byte         `json:"status_byte"`
}

// fieldLayout describes where a value sits in the frame and how it is scaled.
// Scaling divides so that e.g. raw 1000 / 10000 is exactly 0.1.
type fieldLayout struct {
	offset  int
	divisor float64
}

var (
	layoutVRMS        = fieldLayout{offset: 0, divisor: 10000}
	layoutAPeak       = fieldLayout{offset: 4, divisor: 10}
	layoutARMS        = fieldLayout{offset: 8, divisor: 10}
	layoutTemperature = fieldLayout{offset: 12, divisor: 10}
	layoutCrest       = fieldLayout{offset: 16, divisor: 10}
)

// Decode parses a 40-character hex frame. It never returns a partial reading.
func Decode(frame string) (*Reading, error) {
	if len(frame) != FrameHexLen {
		return nil, fmt.Errorf("%w: got %d characters, want %d", ErrInvalidLength, len(frame), FrameHexLen)
	}

	buf, err := hex.DecodeString(frame)
	if err != nil {
		return nil, &DecodeError{Cause: err}
	}
	if len(buf) != frameLen {
		return nil, &DecodeError{Cause: fmt.Errorf("decoded %d bytes, want %d", len(buf), frameLen)}
	}

	status := buf[statusByteOffset]
	return &Reading{
		VRMS:         extract(buf, layoutVRMS),
		APeak:        extract(buf, layoutAPeak),
		ARMS:         extract(buf, layoutARMS),
		Temperature:  extract(buf, layoutTemperature),
		Crest:        extract(buf, layoutCrest),
		DeviceStatus: DeviceStatus((status >> 4) & deviceStatusMask),
		Out1:         status&out1Bit != 0,
		Out2:         status&out2Bit != 0,
		StatusByte:   status,
	}, nil
}

func extract(buf []byte, l fieldLayout) Field {
	raw := int16(binary.BigEndian.Uint16(buf[l.offset : l.offset+2]))
	f := Field{Raw: raw, Sentinel: resolveSentinel(raw)}
	if f.Sentinel == SentinelNone {
		v := float64(raw) / l.divisor
		f.Value = &v
	}
	return f
}
