// Package config loads service settings from defaults, an optional YAML file
// and TELEMETRY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sensor_telemetry/internal/augment"
	"sensor_telemetry/internal/logger"
)

const (
	// DefaultPath is where `config init` writes and where the server looks first.
	DefaultPath = "configs/config.yml"

	// EnvPrefix prefixes every environment override, e.g. TELEMETRY_MQTT_BROKER.
	EnvPrefix = "TELEMETRY"

	// DefaultSigningKey is a placeholder; deployments are expected to override it.
	DefaultSigningKey = "change-me"

	filePermissions = 0o600
)

// Config is the full service configuration.
type Config struct {
	Port      string        `mapstructure:"port" yaml:"port"`
	LogLevel  string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string        `mapstructure:"log_format" yaml:"log_format"`
	DB        DBConfig      `mapstructure:"db" yaml:"db"`
	Auth      AuthConfig    `mapstructure:"auth" yaml:"auth"`
	MQTT      MQTTConfig    `mapstructure:"mqtt" yaml:"mqtt"`
	Augment   AugmentConfig `mapstructure:"augment" yaml:"augment"`
	Anomaly   AnomalyConfig `mapstructure:"anomaly" yaml:"anomaly"`
}

type DBConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key" yaml:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

// MQTTConfig names the broker and the topic/port pair of each sensor.
type MQTTConfig struct {
	Broker           string `mapstructure:"broker" yaml:"broker"`
	ClientID         string `mapstructure:"client_id" yaml:"client_id"`
	TemperatureTopic string `mapstructure:"temperature_topic" yaml:"temperature_topic"`
	TemperaturePort  int    `mapstructure:"temperature_port" yaml:"temperature_port"`
	VibrationTopic   string `mapstructure:"vibration_topic" yaml:"vibration_topic"`
	VibrationPort    int    `mapstructure:"vibration_port" yaml:"vibration_port"`
	QoS              byte   `mapstructure:"qos" yaml:"qos"`
}

// AugmentConfig drives the augmentation job. Seed 0 picks a seed per run.
type AugmentConfig struct {
	Lookback         time.Duration  `mapstructure:"lookback" yaml:"lookback"`
	Seed             uint64         `mapstructure:"seed" yaml:"seed"`
	BatchSize        int            `mapstructure:"batch_size" yaml:"batch_size"`
	ScheduleInterval time.Duration  `mapstructure:"schedule_interval" yaml:"schedule_interval"`
	Params           augment.Config `mapstructure:",squash" yaml:",inline"`
}

type AnomalyConfig struct {
	RelativeThreshold float64 `mapstructure:"relative_threshold" yaml:"relative_threshold"`
	TemperatureAbs    float64 `mapstructure:"temperature_abs" yaml:"temperature_abs"`
	VibrationAbs      float64 `mapstructure:"vibration_abs" yaml:"vibration_abs"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Port:      "5005",
		LogLevel:  logger.InfoLevel,
		LogFormat: logger.FormatConsole,
		DB:        DBConfig{Path: "telemetry.db"},
		Auth:      AuthConfig{SigningKey: DefaultSigningKey, TokenTTL: time.Hour},
		MQTT: MQTTConfig{
			Broker:           "tcp://192.168.1.86:1883",
			ClientID:         "sensor-telemetry",
			TemperatureTopic: "temp001",
			TemperaturePort:  1,
			VibrationTopic:   "vib001",
			VibrationPort:    2,
		},
		Augment: AugmentConfig{
			Lookback:  7 * 24 * time.Hour,
			BatchSize: 1000,
			Params:    augment.DefaultConfig(),
		},
		Anomaly: AnomalyConfig{
			RelativeThreshold: 0.2,
			TemperatureAbs:    5.0,
			VibrationAbs:      2.0,
		},
	}
}

// Load builds the configuration. An empty path looks for configs/config.yml and
// falls back to defaults when it does not exist; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		v.AddConfigPath(filepath.Dir(DefaultPath))
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("port", d.Port)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("db.path", d.DB.Path)
	v.SetDefault("auth.signing_key", d.Auth.SigningKey)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)

	v.SetDefault("mqtt.broker", d.MQTT.Broker)
	v.SetDefault("mqtt.client_id", d.MQTT.ClientID)
	v.SetDefault("mqtt.temperature_topic", d.MQTT.TemperatureTopic)
	v.SetDefault("mqtt.temperature_port", d.MQTT.TemperaturePort)
	v.SetDefault("mqtt.vibration_topic", d.MQTT.VibrationTopic)
	v.SetDefault("mqtt.vibration_port", d.MQTT.VibrationPort)
	v.SetDefault("mqtt.qos", d.MQTT.QoS)

	v.SetDefault("augment.lookback", d.Augment.Lookback)
	v.SetDefault("augment.seed", d.Augment.Seed)
	v.SetDefault("augment.batch_size", d.Augment.BatchSize)
	v.SetDefault("augment.schedule_interval", d.Augment.ScheduleInterval)
	setKindDefaults(v, "augment.temperature", d.Augment.Params.Temperature)
	setKindDefaults(v, "augment.vibration", d.Augment.Params.Vibration)

	v.SetDefault("anomaly.relative_threshold", d.Anomaly.RelativeThreshold)
	v.SetDefault("anomaly.temperature_abs", d.Anomaly.TemperatureAbs)
	v.SetDefault("anomaly.vibration_abs", d.Anomaly.VibrationAbs)
}

func setKindDefaults(v *viper.Viper, prefix string, p augment.KindParams) {
	v.SetDefault(prefix+".noise_std_dev", p.NoiseStdDev)
	setRangeDefaults(v, prefix+".wave.amplitude", p.Wave.Amplitude)
	setRangeDefaults(v, prefix+".wave.duration_minutes", p.Wave.DurationMinutes)
	setRangeDefaults(v, prefix+".wave.interval_hours", p.Wave.IntervalHours)
	v.SetDefault(prefix+".wave.trigger_probability", p.Wave.TriggerProbability)
}

func setRangeDefaults(v *viper.Viper, prefix string, r augment.Range) {
	v.SetDefault(prefix+".min", r.Min)
	v.SetDefault(prefix+".max", r.Max)
}

// Save writes cfg as YAML, creating the parent directory when needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is not set")
	}
	if path == "" {
		path = DefaultPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(filepath.Clean(path), data, filePermissions); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
