package sensor

import (
	"context"
	"errors"

	"github.com/itohio/gorover/pkg/color"
)

// ErrNoNewData is returned by a source that has nothing new since its last
// read. Pollers skip the tick without logging a failure.
var ErrNoNewData = errors.New("no new reading since last read")

// ColorSensor reads the four raw optical channels.
type ColorSensor interface {
	ReadColor(ctx context.Context) (color.RawSample, error)
}

// RangeSensor reads the distance to the nearest obstacle in centimeters.
type RangeSensor interface {
	ReadDistance(ctx context.Context) (uint16, error)
}

// VoltageSensor reads the battery voltage in millivolts.
type VoltageSensor interface {
	ReadVoltage(ctx context.Context) (uint16, error)
}
