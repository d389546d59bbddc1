package service

import (
	"fmt"
	"math"

	"sensor_telemetry/internal/config"
)

// Anomaly types.
const (
	AnomalyNone            = ""
	AnomalyTemperatureOnly = "temperature_only"
	AnomalyVibrationOnly   = "vibration_only"
	AnomalyBoth            = "both"
)

// SensorDeviation is how far one measured value is from its prediction.
type SensorDeviation struct {
	Predicted float64 `json:"predicted"`
	Actual    float64 `json:"actual"`
	Absolute  float64 `json:"absolute"`
	Relative  float64 `json:"relative"`
	Anomalous bool    `json:"anomalous"`
}

// AnomalyResult is the verdict for one prediction/measurement pair.
type AnomalyResult struct {
	IsAnomaly   bool            `json:"is_anomaly"`
	Type        string          `json:"anomaly_type,omitempty"`
	Reason      string          `json:"reason"`
	Temperature SensorDeviation `json:"temperature"`
	Vibration   SensorDeviation `json:"vibration"`
}

// AnomalyService flags a sensor when its relative AND absolute deviation
// both reach their thresholds.
type AnomalyService struct {
	cfg config.AnomalyConfig
}

func NewAnomalyService(cfg config.AnomalyConfig) *AnomalyService {
	return &AnomalyService{cfg: cfg}
}

func (s *AnomalyService) Detect(prediction, actual SensorValues) AnomalyResult {
	temp := deviation(prediction.Temperature, actual.Temperature, s.cfg.RelativeThreshold, s.cfg.TemperatureAbs)
	vib := deviation(prediction.Vibration, actual.Vibration, s.cfg.RelativeThreshold, s.cfg.VibrationAbs)

	res := AnomalyResult{Temperature: temp, Vibration: vib}
	switch {
	case temp.Anomalous && vib.Anomalous:
		res.IsAnomaly, res.Type = true, AnomalyBoth
		res.Reason = fmt.Sprintf("both sensors deviate (temperature %.2f °C, vibration %.2f)", temp.Absolute, vib.Absolute)
	case temp.Anomalous:
		res.IsAnomaly, res.Type = true, AnomalyTemperatureOnly
		res.Reason = fmt.Sprintf("temperature deviates (predicted %.2f °C, actual %.2f °C)", temp.Predicted, temp.Actual)
	case vib.Anomalous:
		res.IsAnomaly, res.Type = true, AnomalyVibrationOnly
		res.Reason = fmt.Sprintf("vibration deviates (predicted %.2f, actual %.2f)", vib.Predicted, vib.Actual)
	default:
		res.Reason = "both sensors within expected range"
	}
	return res
}

// deviation treats the relative error as 0 when actual is 0.
func deviation(predicted, actual, relThreshold, absThreshold float64) SensorDeviation {
	d := SensorDeviation{Predicted: predicted, Actual: actual, Absolute: math.Abs(predicted - actual)}
	if actual != 0 {
		d.Relative = d.Absolute / math.Abs(actual)
	}
	d.Anomalous = d.Relative >= relThreshold && d.Absolute >= absThreshold
	return d
}
