// services/sensor/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sensorcode-go/drivers/vcnl4040"
	"sensorcode-go/services/sensor"
)

type Config struct {
	Sensors []SensorConfig `yaml:"sensors"`
}

// ---- SENSOR ----

type SensorConfig struct {
	ID      string `yaml:"id"`
	Bus     string `yaml:"bus"`
	Retries int    `yaml:"retries"`

	InterruptPin *int `yaml:"interrupt_pin"`

	PollIntervalMs int  `yaml:"poll_interval_ms"`
	DisablePolling bool `yaml:"disable_polling"`
	FilterSize     int  `yaml:"filter_size"`

	AmbientLight AmbientConfig   `yaml:"ambient_light"`
	Proximity    ProximityConfig `yaml:"proximity"`

	LogSamples bool `yaml:"log_samples"`
}

type AmbientConfig struct {
	Enabled            bool   `yaml:"enabled"`
	IntegrationMs      int    `yaml:"integration_ms"`
	InterruptTolerance uint16 `yaml:"interrupt_tolerance"`
	Persistence        int    `yaml:"persistence"`
}

type ProximityConfig struct {
	Enabled      bool `yaml:"enabled"`
	Integration  int  `yaml:"integration"` // pulse multiple: 1..8
	LEDCurrentMa int  `yaml:"led_current_ma"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

var validIntegrationMs = map[int]bool{0: true, 80: true, 160: true, 320: true, 640: true}

var psIntegration = map[int]vcnl4040.PSIntegration{
	0: vcnl4040.PSIntegration1T,
	1: vcnl4040.PSIntegration1T,
	2: vcnl4040.PSIntegration2T,
	3: vcnl4040.PSIntegration3T,
	4: vcnl4040.PSIntegration4T,
	8: vcnl4040.PSIntegration8T,
}

// Validate checks configuration correctness.
// It performs declarative validation only and MUST NOT mutate cfg.
func Validate(cfg *Config) error {
	if len(cfg.Sensors) == 0 {
		return fmt.Errorf("no sensors configured")
	}
	seen := map[string]bool{}
	for _, s := range cfg.Sensors {
		if s.ID == "" {
			return fmt.Errorf("sensor with empty id")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate sensor id %q", s.ID)
		}
		seen[s.ID] = true

		if s.Bus == "" {
			return fmt.Errorf("sensor %q: bus is required", s.ID)
		}
		if !s.AmbientLight.Enabled && !s.Proximity.Enabled {
			return fmt.Errorf("sensor %q: no channel enabled", s.ID)
		}
		if s.DisablePolling && s.InterruptPin == nil {
			return fmt.Errorf("sensor %q: polling disabled without an interrupt pin", s.ID)
		}
		if !validIntegrationMs[s.AmbientLight.IntegrationMs] {
			return fmt.Errorf("sensor %q: integration_ms must be 80, 160, 320 or 640", s.ID)
		}
		if s.AmbientLight.InterruptTolerance > 0 && s.InterruptPin == nil {
			return fmt.Errorf("sensor %q: interrupt_tolerance requires interrupt_pin", s.ID)
		}
		if _, ok := psIntegration[s.Proximity.Integration]; !ok {
			return fmt.Errorf("sensor %q: proximity integration must be 1, 2, 3, 4 or 8", s.ID)
		}
	}
	return nil
}

// Options converts one sensor entry into session options. Call only
// after Validate().
func (s SensorConfig) Options() sensor.Options {
	return sensor.Options{
		ID:             s.ID,
		BusID:          s.Bus,
		Retries:        s.Retries,
		InterruptPin:   s.InterruptPin,
		PollInterval:   time.Duration(s.PollIntervalMs) * time.Millisecond,
		DisablePolling: s.DisablePolling,
		FilterSize:     s.FilterSize,
		AmbientLight: sensor.AmbientOptions{
			Enabled:            s.AmbientLight.Enabled,
			Integration:        time.Duration(s.AmbientLight.IntegrationMs) * time.Millisecond,
			InterruptTolerance: s.AmbientLight.InterruptTolerance,
			Persistence:        s.AmbientLight.Persistence,
		},
		Proximity: sensor.ProximityOptions{
			Enabled:     s.Proximity.Enabled,
			Integration: psIntegration[s.Proximity.Integration],
			LEDCurrent:  s.Proximity.LEDCurrentMa,
		},
		LogSamples: s.LogSamples,
	}
}
