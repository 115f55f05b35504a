// Package sensor defines the events sensor producers push to the rover and
// the workers that poll the sensors.
package sensor

import (
	"fmt"

	"github.com/itohio/gorover/pkg/color"
)

// Event is a single sensor reading. It is one of ColorEvent, DistanceEvent
// or VoltageEvent.
type Event interface {
	fmt.Stringer
	sensorEvent()
}

// ColorEvent carries a classified floor color.
type ColorEvent struct {
	Color color.Color
}

// DistanceEvent carries an ultrasonic range reading in centimeters.
type DistanceEvent struct {
	Centimeters uint16
}

// VoltageEvent carries a battery voltage reading in millivolts.
type VoltageEvent struct {
	Millivolts uint16
}

func (ColorEvent) sensorEvent()    {}
func (DistanceEvent) sensorEvent() {}
func (VoltageEvent) sensorEvent()  {}

func (e ColorEvent) String() string    { return "color(" + e.Color.String() + ")" }
func (e DistanceEvent) String() string { return fmt.Sprintf("distance(%dcm)", e.Centimeters) }
func (e VoltageEvent) String() string  { return fmt.Sprintf("voltage(%dmV)", e.Millivolts) }

// NewQueue creates the bounded queue shared by all producers. The rover loop
// is its only consumer.
func NewQueue(capacity int) chan Event {
	if capacity <= 0 {
		capacity = 1
	}
	return make(chan Event, capacity)
}
