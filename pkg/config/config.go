package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the rover configuration.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Motor     MotorConfig     `yaml:"motor"`
	Policy    PolicyConfig    `yaml:"policy"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sensors   SensorsConfig   `yaml:"sensors"`
	Mock      MockConfig      `yaml:"mock"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Log       LogConfig       `yaml:"log"`
}

// SerialConfig contains the bridge MCU serial port configuration.
type SerialConfig struct {
	Port     string        `yaml:"port"`
	BaudRate int           `yaml:"baud_rate"`
	Stale    time.Duration `yaml:"stale"` // Readings older than this are rejected
}

// MotorConfig contains the motor ramp tuning. Read-only after construction.
type MotorConfig struct {
	AccelTime      time.Duration `yaml:"accel_time"`
	DecelTimeLeft  time.Duration `yaml:"decel_time_left"`
	DecelTimeRight time.Duration `yaml:"decel_time_right"`
	LeftDuty       uint8         `yaml:"left_duty"`  // Percent, 0-100
	RightDuty      uint8         `yaml:"right_duty"` // Percent, 0-100
}

// PolicyConfig contains the control policy thresholds and hold times.
type PolicyConfig struct {
	NoBattery       uint16        `yaml:"no_battery"`     // mV
	BatteryLow      uint16        `yaml:"battery_low"`    // mV
	DistanceClose   uint16        `yaml:"distance_close"` // cm
	DistanceSamples int           `yaml:"distance_samples"`
	ForwardHold     time.Duration `yaml:"forward_hold"`
	LeftHold        time.Duration `yaml:"left_hold"`
	RightHold       time.Duration `yaml:"right_hold"`
}

// SchedulerConfig contains the scheduler loop parameters.
type SchedulerConfig struct {
	IdlePeriod    time.Duration `yaml:"idle_period"`
	QueueCapacity int           `yaml:"queue_capacity"`
}

// SensorsConfig contains the polling period of each sensor.
type SensorsConfig struct {
	ColorPeriod    time.Duration `yaml:"color_period"`
	DistancePeriod time.Duration `yaml:"distance_period"`
	BatteryPeriod  time.Duration `yaml:"battery_period"`
}

// MockConfig contains simulated rover configuration.
type MockConfig struct {
	StartDistance uint16        `yaml:"start_distance"` // cm
	Speed         float64       `yaml:"speed"`          // cm/s at full duty
	ColorPattern  []string      `yaml:"color_pattern"`  // Floor colors, cycled
	ColorPeriod   time.Duration `yaml:"color_period"`   // Time each floor color stays visible
	Battery       uint16        `yaml:"battery"`        // Starting voltage, mV
	Drain         float64       `yaml:"drain"`          // mV per second
	NoiseLevel    float64       `yaml:"noise_level"`    // Amplitude of sensor noise
}

// TelemetryConfig contains the simulator trace settings.
type TelemetryConfig struct {
	Window         time.Duration `yaml:"window"`          // Trace history kept for display
	Period         time.Duration `yaml:"period"`          // Trace sampling period
	AverageSamples int           `yaml:"average_samples"` // Moving average length (0 = disabled)
	MinSpan        time.Duration `yaml:"min_span"`        // Shorter motion spans are not marked
}

// MonitorConfig contains the status monitor settings.
type MonitorConfig struct {
	Addr string `yaml:"addr"` // HTTP listen address; empty disables the monitor
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
			Stale:    time.Second,
		},
		Motor: MotorConfig{
			AccelTime:      500 * time.Millisecond,
			DecelTimeLeft:  1000 * time.Millisecond,
			DecelTimeRight: 500 * time.Millisecond,
			LeftDuty:       87,
			RightDuty:      81,
		},
		Policy: PolicyConfig{
			NoBattery:       200,
			BatteryLow:      3200,
			DistanceClose:   7,
			DistanceSamples: 3,
			ForwardHold:     600 * time.Millisecond,
			LeftHold:        180 * time.Millisecond,
			RightHold:       160 * time.Millisecond,
		},
		Scheduler: SchedulerConfig{
			IdlePeriod:    100 * time.Millisecond,
			QueueCapacity: 4,
		},
		Sensors: SensorsConfig{
			ColorPeriod:    100 * time.Millisecond,
			DistancePeriod: 100 * time.Millisecond,
			BatteryPeriod:  200 * time.Millisecond,
		},
		Mock: MockConfig{
			StartDistance: 60,
			Speed:         20,
			ColorPattern:  []string{"white", "magenta", "white", "red", "white", "blue"},
			ColorPeriod:   2 * time.Second,
			Battery:       4100,
			Drain:         1,
			NoiseLevel:    0.02,
		},
		Telemetry: TelemetryConfig{
			Window:         20 * time.Second,
			Period:         50 * time.Millisecond,
			AverageSamples: 0,
			MinSpan:        100 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Motor.LeftDuty > 100 || c.Motor.RightDuty > 100 {
		return fmt.Errorf("motor duty out of range: left %d%%, right %d%% (max 100%%)", c.Motor.LeftDuty, c.Motor.RightDuty)
	}
	if c.Policy.NoBattery >= c.Policy.BatteryLow {
		return fmt.Errorf("policy no_battery (%d mV) must be below battery_low (%d mV)", c.Policy.NoBattery, c.Policy.BatteryLow)
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"motor.accel_time", c.Motor.AccelTime},
		{"motor.decel_time_left", c.Motor.DecelTimeLeft},
		{"motor.decel_time_right", c.Motor.DecelTimeRight},
		{"policy.forward_hold", c.Policy.ForwardHold},
		{"policy.left_hold", c.Policy.LeftHold},
		{"policy.right_hold", c.Policy.RightHold},
		{"scheduler.idle_period", c.Scheduler.IdlePeriod},
		{"sensors.color_period", c.Sensors.ColorPeriod},
		{"sensors.distance_period", c.Sensors.DistancePeriod},
		{"sensors.battery_period", c.Sensors.BatteryPeriod},
		{"serial.stale", c.Serial.Stale},
	}
	for _, f := range durations {
		if f.d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", f.name, f.d)
		}
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.Stale == 0 {
		c.Serial.Stale = def.Serial.Stale
	}

	if c.Motor.AccelTime == 0 {
		c.Motor.AccelTime = def.Motor.AccelTime
	}
	if c.Motor.DecelTimeLeft == 0 {
		c.Motor.DecelTimeLeft = def.Motor.DecelTimeLeft
	}
	if c.Motor.DecelTimeRight == 0 {
		c.Motor.DecelTimeRight = def.Motor.DecelTimeRight
	}
	if c.Motor.LeftDuty == 0 {
		c.Motor.LeftDuty = def.Motor.LeftDuty
	}
	if c.Motor.RightDuty == 0 {
		c.Motor.RightDuty = def.Motor.RightDuty
	}

	if c.Policy.NoBattery == 0 {
		c.Policy.NoBattery = def.Policy.NoBattery
	}
	if c.Policy.BatteryLow == 0 {
		c.Policy.BatteryLow = def.Policy.BatteryLow
	}
	if c.Policy.DistanceClose == 0 {
		c.Policy.DistanceClose = def.Policy.DistanceClose
	}
	if c.Policy.DistanceSamples <= 0 {
		c.Policy.DistanceSamples = def.Policy.DistanceSamples
	}
	if c.Policy.ForwardHold == 0 {
		c.Policy.ForwardHold = def.Policy.ForwardHold
	}
	if c.Policy.LeftHold == 0 {
		c.Policy.LeftHold = def.Policy.LeftHold
	}
	if c.Policy.RightHold == 0 {
		c.Policy.RightHold = def.Policy.RightHold
	}

	if c.Scheduler.IdlePeriod == 0 {
		c.Scheduler.IdlePeriod = def.Scheduler.IdlePeriod
	}
	if c.Scheduler.QueueCapacity <= 0 {
		c.Scheduler.QueueCapacity = def.Scheduler.QueueCapacity
	}

	if c.Sensors.ColorPeriod == 0 {
		c.Sensors.ColorPeriod = def.Sensors.ColorPeriod
	}
	if c.Sensors.DistancePeriod == 0 {
		c.Sensors.DistancePeriod = def.Sensors.DistancePeriod
	}
	if c.Sensors.BatteryPeriod == 0 {
		c.Sensors.BatteryPeriod = def.Sensors.BatteryPeriod
	}

	if c.Mock.StartDistance == 0 {
		c.Mock.StartDistance = def.Mock.StartDistance
	}
	if c.Mock.Speed == 0 {
		c.Mock.Speed = def.Mock.Speed
	}
	if len(c.Mock.ColorPattern) == 0 {
		c.Mock.ColorPattern = def.Mock.ColorPattern
	}
	if c.Mock.ColorPeriod == 0 {
		c.Mock.ColorPeriod = def.Mock.ColorPeriod
	}
	if c.Mock.Battery == 0 {
		c.Mock.Battery = def.Mock.Battery
	}

	if c.Telemetry.Window == 0 {
		c.Telemetry.Window = def.Telemetry.Window
	}
	if c.Telemetry.Period == 0 {
		c.Telemetry.Period = def.Telemetry.Period
	}
	if c.Telemetry.AverageSamples < 0 {
		c.Telemetry.AverageSamples = def.Telemetry.AverageSamples
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
