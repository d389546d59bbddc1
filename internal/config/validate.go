package config

import (
	"errors"
	"fmt"
	"strings"

	"sensor_telemetry/internal/augment"
	"sensor_telemetry/internal/logger"
)

var (
	errPortRequired       = errors.New("port must be provided")
	errDBPathRequired     = errors.New("db.path must be provided")
	errSigningKeyRequired = errors.New("auth.signing_key must be provided")
	errBrokerRequired     = errors.New("mqtt.broker must be provided")
)

// Validate checks cfg for values the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errPortRequired
	}
	switch strings.ToLower(c.LogFormat) {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		return fmt.Errorf("log_format %q: want %q or %q", c.LogFormat, logger.FormatConsole, logger.FormatJSON)
	}
	if c.DB.Path == "" {
		return errDBPathRequired
	}
	if c.Auth.SigningKey == "" {
		return errSigningKeyRequired
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}

	if c.MQTT.Broker == "" {
		return errBrokerRequired
	}
	if c.MQTT.TemperaturePort <= 0 || c.MQTT.VibrationPort <= 0 {
		return fmt.Errorf("mqtt ports must be positive, got %d and %d", c.MQTT.TemperaturePort, c.MQTT.VibrationPort)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}

	if c.Augment.Lookback <= 0 {
		return fmt.Errorf("augment.lookback must be positive, got %s", c.Augment.Lookback)
	}
	if c.Augment.BatchSize <= 0 {
		return fmt.Errorf("augment.batch_size must be positive, got %d", c.Augment.BatchSize)
	}
	if c.Augment.ScheduleInterval < 0 {
		return fmt.Errorf("augment.schedule_interval must not be negative, got %s", c.Augment.ScheduleInterval)
	}
	if err := validateKind("augment.temperature", c.Augment.Params.Temperature); err != nil {
		return err
	}
	if err := validateKind("augment.vibration", c.Augment.Params.Vibration); err != nil {
		return err
	}

	if c.Anomaly.RelativeThreshold < 0 || c.Anomaly.TemperatureAbs < 0 || c.Anomaly.VibrationAbs < 0 {
		return errors.New("anomaly thresholds must not be negative")
	}
	return nil
}

func validateKind(prefix string, p augment.KindParams) error {
	if p.NoiseStdDev < 0 {
		return fmt.Errorf("%s.noise_std_dev must not be negative", prefix)
	}
	for name, r := range map[string]augment.Range{
		"amplitude":        p.Wave.Amplitude,
		"duration_minutes": p.Wave.DurationMinutes,
		"interval_hours":   p.Wave.IntervalHours,
	} {
		if r.Min > r.Max {
			return fmt.Errorf("%s.wave.%s: min %.3f > max %.3f", prefix, name, r.Min, r.Max)
		}
	}
	if p.Wave.DurationMinutes.Min <= 0 || p.Wave.IntervalHours.Min <= 0 {
		return fmt.Errorf("%s.wave: duration and interval must be positive", prefix)
	}
	if p.Wave.TriggerProbability < 0 || p.Wave.TriggerProbability > 1 {
		return fmt.Errorf("%s.wave.trigger_probability must be within [0,1]", prefix)
	}
	return nil
}
