package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 500*time.Millisecond, cfg.Motor.AccelTime)
	assert.Equal(t, 1000*time.Millisecond, cfg.Motor.DecelTimeLeft)
	assert.Equal(t, 500*time.Millisecond, cfg.Motor.DecelTimeRight)
	assert.Equal(t, uint8(87), cfg.Motor.LeftDuty)
	assert.Equal(t, uint8(81), cfg.Motor.RightDuty)
	assert.Equal(t, uint16(200), cfg.Policy.NoBattery)
	assert.Equal(t, uint16(3200), cfg.Policy.BatteryLow)
	assert.Equal(t, uint16(7), cfg.Policy.DistanceClose)
	assert.Equal(t, 3, cfg.Policy.DistanceSamples)
	assert.Equal(t, 600*time.Millisecond, cfg.Policy.ForwardHold)
	assert.Equal(t, 180*time.Millisecond, cfg.Policy.LeftHold)
	assert.Equal(t, 160*time.Millisecond, cfg.Policy.RightHold)
	assert.Equal(t, 100*time.Millisecond, cfg.Scheduler.IdlePeriod)
	assert.Equal(t, 4, cfg.Scheduler.QueueCapacity)
	assert.Equal(t, 200*time.Millisecond, cfg.Sensors.BatteryPeriod)
	assert.Equal(t, 20*time.Second, cfg.Telemetry.Window)
	assert.Equal(t, 50*time.Millisecond, cfg.Telemetry.Period)
	assert.Empty(t, cfg.Monitor.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB1"
  baud_rate: 57600

motor:
  accel_time: 300ms
  decel_time_left: 800ms
  decel_time_right: 400ms
  left_duty: 90
  right_duty: 85

policy:
  battery_low: 3400
  distance_close: 10
  distance_samples: 5
  forward_hold: 1s

scheduler:
  idle_period: 50ms
  queue_capacity: 8

mock:
  color_pattern: [red, blue]

telemetry:
  window: 5s
  average_samples: 4

monitor:
  addr: ":8080"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.BaudRate)
	assert.Equal(t, 300*time.Millisecond, cfg.Motor.AccelTime)
	assert.Equal(t, 800*time.Millisecond, cfg.Motor.DecelTimeLeft)
	assert.Equal(t, 400*time.Millisecond, cfg.Motor.DecelTimeRight)
	assert.Equal(t, uint8(90), cfg.Motor.LeftDuty)
	assert.Equal(t, uint8(85), cfg.Motor.RightDuty)
	assert.Equal(t, uint16(3400), cfg.Policy.BatteryLow)
	assert.Equal(t, uint16(10), cfg.Policy.DistanceClose)
	assert.Equal(t, 5, cfg.Policy.DistanceSamples)
	assert.Equal(t, time.Second, cfg.Policy.ForwardHold)
	assert.Equal(t, 50*time.Millisecond, cfg.Scheduler.IdlePeriod)
	assert.Equal(t, 8, cfg.Scheduler.QueueCapacity)
	assert.Equal(t, []string{"red", "blue"}, cfg.Mock.ColorPattern)
	assert.Equal(t, 5*time.Second, cfg.Telemetry.Window)
	assert.Equal(t, 4, cfg.Telemetry.AverageSamples)
	assert.Equal(t, 50*time.Millisecond, cfg.Telemetry.Period) // default
	assert.Equal(t, ":8080", cfg.Monitor.Addr)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Motor.AccelTime)      // default
	assert.Equal(t, uint16(3200), cfg.Policy.BatteryLow)            // default
	assert.Equal(t, 100*time.Millisecond, cfg.Scheduler.IdlePeriod) // default
	assert.Equal(t, "info", cfg.Log.Level)                          // default
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"duty above 100", "motor:\n  left_duty: 120\n"},
		{"battery thresholds inverted", "policy:\n  no_battery: 3500\n  battery_low: 3200\n"},
		{"negative accel time", "motor:\n  accel_time: -500ms\n"},
		{"negative decel time", "motor:\n  decel_time_right: -1s\n"},
		{"negative hold", "policy:\n  left_hold: -180ms\n"},
		{"negative idle period", "scheduler:\n  idle_period: -100ms\n"},
		{"negative sensor period", "sensors:\n  color_period: -10ms\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
			require.NoError(t, err)
			defer os.Remove(tmpfile.Name())

			_, err = tmpfile.WriteString(tt.yaml)
			require.NoError(t, err)
			require.NoError(t, tmpfile.Close())

			cfg, err := Load(tmpfile.Name())
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Motor.AccelTime = 250 * time.Millisecond
	cfg.Policy.DistanceClose = 12

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, 250*time.Millisecond, loaded.Motor.AccelTime)
	assert.Equal(t, uint16(12), loaded.Policy.DistanceClose)
}
