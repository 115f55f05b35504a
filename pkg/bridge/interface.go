// Package bridge connects the rover core to the sensor and motor hardware,
// either through the bridge MCU over a serial line or a simulation.
package bridge

import (
	"github.com/itohio/gorover/pkg/motor"
	"github.com/itohio/gorover/pkg/rover"
	"github.com/itohio/gorover/pkg/sensor"
)

// Device defines the interface for rover hardware (real or simulated).
type Device interface {
	Connect() error
	Close() error
	IsConnected() bool

	sensor.ColorSensor
	sensor.RangeSensor
	sensor.VoltageSensor
	motor.PWM
	rover.Indicator
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
