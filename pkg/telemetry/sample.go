// Package telemetry records a time-windowed trace of the rover for display.
package telemetry

import (
	"context"
	"time"

	"github.com/itohio/gorover/pkg/motor"
)

// Sample is one point of the trace.
type Sample struct {
	Timestamp time.Time
	Distance  float64 // cm
	Voltage   float64 // mV
	Duties    motor.Duties
	Motor     motor.State
	Direction motor.Direction
}

// Wheels returns the signed duty of each wheel in percent, positive forward.
func (s Sample) Wheels() (left, right float64) {
	left = float64(s.Duties[motor.Left1]) - float64(s.Duties[motor.Left2])
	right = float64(s.Duties[motor.Right1]) - float64(s.Duties[motor.Right2])
	return left, right
}

// Probe captures the current rover state.
type Probe interface {
	Sample() Sample
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func() Sample

func (f ProbeFunc) Sample() Sample { return f() }

// Converter transforms one sample stream into another.
type Converter func(in <-chan Sample) <-chan Sample

// Record samples the probe every period until ctx is done, then closes the
// returned channel. Samples are dropped when the consumer falls behind.
func Record(ctx context.Context, probe Probe, period time.Duration, bufSize int) <-chan Sample {
	if bufSize <= 0 {
		bufSize = 100
	}
	out := make(chan Sample, bufSize)

	go func() {
		defer close(out)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case out <- probe.Sample():
				default:
					// Channel full, skip
				}
			}
		}
	}()

	return out
}

// NewAveragingConverter smooths distance and voltage over the last
// windowSize samples. Every input produces one output carrying the latest
// timestamp, duties and motor state.
func NewAveragingConverter(windowSize int, bufSize int) Converter {
	if windowSize <= 0 {
		windowSize = 1
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			buffer := make([]Sample, 0, windowSize)
			for s := range in {
				buffer = append(buffer, s)
				if len(buffer) > windowSize {
					buffer = buffer[1:]
				}
				out <- average(buffer)
			}
		}()

		return out
	}
}

// average returns the last sample with distance and voltage averaged.
func average(samples []Sample) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sumDistance, sumVoltage float64
	for _, s := range samples {
		sumDistance += s.Distance
		sumVoltage += s.Voltage
	}

	n := float64(len(samples))
	avg := samples[len(samples)-1]
	avg.Distance = sumDistance / n
	avg.Voltage = sumVoltage / n
	return avg
}
