package control

import (
	"testing"
	"time"

	"github.com/itohio/gorover/pkg/color"
	"github.com/itohio/gorover/pkg/config"
	"github.com/itohio/gorover/pkg/motor"
	"github.com/itohio/gorover/pkg/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPolicy() *Policy {
	return New(config.Default().Policy)
}

// newNormal returns a policy that has seen enough far samples to unblock.
func newNormal(t *testing.T) *Policy {
	t.Helper()
	p := newPolicy()
	for i := 0; i < 3; i++ {
		_, ok := p.Process(sensor.DistanceEvent{Centimeters: 50})
		require.False(t, ok)
	}
	require.Equal(t, Normal, p.State())
	return p
}

func noCommand(t *testing.T, p *Policy, ev sensor.Event) {
	t.Helper()
	cmd, ok := p.Process(ev)
	assert.False(t, ok, "unexpected command %v for %v", cmd, ev)
}

func command(t *testing.T, p *Policy, ev sensor.Event) motor.Command {
	t.Helper()
	cmd, ok := p.Process(ev)
	require.True(t, ok, "expected a command for %v", ev)
	return cmd
}

func TestNew_StartsBlocked(t *testing.T) {
	p := newPolicy()
	assert.Equal(t, Blocked, p.State())
	assert.Equal(t, 0, p.Debounce())
}

func TestPolicy_UnblocksAfterFarSamples(t *testing.T) {
	p := newPolicy()

	noCommand(t, p, sensor.DistanceEvent{Centimeters: 20})
	noCommand(t, p, sensor.DistanceEvent{Centimeters: 20})
	assert.Equal(t, 2, p.Debounce())

	// Exactly at the threshold does not count as far.
	noCommand(t, p, sensor.DistanceEvent{Centimeters: 7})
	assert.Equal(t, 0, p.Debounce())
	assert.Equal(t, Blocked, p.State())

	for i := 0; i < 3; i++ {
		noCommand(t, p, sensor.DistanceEvent{Centimeters: 8})
	}
	assert.Equal(t, Normal, p.State())
	assert.Equal(t, 0, p.Debounce())
}

func TestPolicy_BlocksAfterCloseSamples(t *testing.T) {
	p := newNormal(t)

	noCommand(t, p, sensor.DistanceEvent{Centimeters: 6})
	noCommand(t, p, sensor.DistanceEvent{Centimeters: 3})
	assert.Equal(t, motor.EmergencyStop(), command(t, p, sensor.DistanceEvent{Centimeters: 0}))
	assert.Equal(t, Blocked, p.State())
	assert.Equal(t, 0, p.Debounce())
}

func TestPolicy_CloseSamplesInterruptedByFar(t *testing.T) {
	p := newNormal(t)

	noCommand(t, p, sensor.DistanceEvent{Centimeters: 5})
	noCommand(t, p, sensor.DistanceEvent{Centimeters: 5})
	noCommand(t, p, sensor.DistanceEvent{Centimeters: 30})

	assert.Equal(t, 0, p.Debounce())
	assert.Equal(t, Normal, p.State())
}

func TestPolicy_DebounceStaysInRange(t *testing.T) {
	p := newPolicy()
	cfg := config.Default().Policy

	distances := []uint16{1, 20, 20, 3, 50, 50, 50, 2, 2, 9, 1, 1, 1, 80, 80, 6}
	for _, d := range distances {
		p.Process(sensor.DistanceEvent{Centimeters: d})
		assert.GreaterOrEqual(t, p.Debounce(), 0)
		assert.LessOrEqual(t, p.Debounce(), cfg.DistanceSamples)
	}
}

func TestPolicy_BatteryLow(t *testing.T) {
	tests := []struct {
		name  string
		start func(t *testing.T) *Policy
	}{
		{"from normal", newNormal},
		{"from blocked", func(t *testing.T) *Policy { return newPolicy() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.start(t)
			p.Process(sensor.DistanceEvent{Centimeters: 50})

			assert.Equal(t, motor.EmergencyStop(), command(t, p, sensor.VoltageEvent{Millivolts: 3000}))
			assert.Equal(t, BatteryLow, p.State())
			assert.Equal(t, 0, p.Debounce())
		})
	}
}

func TestPolicy_VoltageThresholds(t *testing.T) {
	tests := []struct {
		mv      uint16
		lowBatt bool
	}{
		{0, false},    // no battery connected
		{199, false},  // below no-battery threshold
		{200, true},   // lower bound inclusive
		{3199, true},  // just below low threshold
		{3200, false}, // upper bound exclusive
		{4100, false}, // healthy
	}

	for _, tt := range tests {
		p := newNormal(t)
		_, ok := p.Process(sensor.VoltageEvent{Millivolts: tt.mv})
		assert.Equal(t, tt.lowBatt, ok, "%d mV", tt.mv)
		if tt.lowBatt {
			assert.Equal(t, BatteryLow, p.State(), "%d mV", tt.mv)
		} else {
			assert.Equal(t, Normal, p.State(), "%d mV", tt.mv)
		}
	}
}

func TestPolicy_BatteryLowExit(t *testing.T) {
	tests := []struct {
		mv   uint16
		exit bool
	}{
		{199, true},
		{200, false},
		{3000, false},
		{3200, false}, // inclusive upper bound keeps it latched
		{3201, true},
	}

	for _, tt := range tests {
		p := newPolicy()
		command(t, p, sensor.VoltageEvent{Millivolts: 3000})
		require.Equal(t, BatteryLow, p.State())

		noCommand(t, p, sensor.VoltageEvent{Millivolts: tt.mv})
		if tt.exit {
			assert.Equal(t, Blocked, p.State(), "%d mV", tt.mv)
		} else {
			assert.Equal(t, BatteryLow, p.State(), "%d mV", tt.mv)
		}
	}
}

func TestPolicy_BatteryLowIgnoresOtherEvents(t *testing.T) {
	p := newPolicy()
	command(t, p, sensor.VoltageEvent{Millivolts: 3000})

	for i := 0; i < 5; i++ {
		noCommand(t, p, sensor.DistanceEvent{Centimeters: 80})
	}
	noCommand(t, p, sensor.ColorEvent{Color: color.Magenta})
	assert.Equal(t, BatteryLow, p.State())
	assert.Equal(t, 0, p.Debounce())
}

func TestPolicy_ColorsIgnoredWhileBlocked(t *testing.T) {
	p := newPolicy()

	for _, c := range color.All() {
		noCommand(t, p, sensor.ColorEvent{Color: c})
	}
}

func TestPolicy_ColorCommands(t *testing.T) {
	forward := motor.Forward(600 * time.Millisecond)
	left := motor.Left(180 * time.Millisecond)
	right := motor.Right(160 * time.Millisecond)

	p := newNormal(t)
	assert.Equal(t, forward, command(t, p, sensor.ColorEvent{Color: color.Magenta}))
	assert.Equal(t, left, command(t, p, sensor.ColorEvent{Color: color.Red}))
	assert.Equal(t, forward, command(t, p, sensor.ColorEvent{Color: color.Red}))
	assert.Equal(t, left, command(t, p, sensor.ColorEvent{Color: color.Orange}))
	assert.Equal(t, forward, command(t, p, sensor.ColorEvent{Color: color.Blue}))
	assert.Equal(t, right, command(t, p, sensor.ColorEvent{Color: color.Blue}))
	assert.Equal(t, forward, command(t, p, sensor.ColorEvent{Color: color.Red}))
	assert.Equal(t, right, command(t, p, sensor.ColorEvent{Color: color.Blue}))

	// Magenta clears the alternation memory.
	assert.Equal(t, forward, command(t, p, sensor.ColorEvent{Color: color.Magenta}))
	assert.Equal(t, left, command(t, p, sensor.ColorEvent{Color: color.Orange}))

	for _, c := range []color.Color{color.Black, color.Green, color.Cyan, color.Yellow, color.White, color.Unknown} {
		noCommand(t, p, sensor.ColorEvent{Color: c})
	}
}

func TestPolicy_UnblockClearsAlternation(t *testing.T) {
	p := newNormal(t)
	assert.Equal(t, motor.KindLeft, command(t, p, sensor.ColorEvent{Color: color.Red}).Kind)

	for i := 0; i < 3; i++ {
		p.Process(sensor.DistanceEvent{Centimeters: 2})
	}
	require.Equal(t, Blocked, p.State())
	for i := 0; i < 3; i++ {
		p.Process(sensor.DistanceEvent{Centimeters: 40})
	}
	require.Equal(t, Normal, p.State())

	assert.Equal(t, motor.KindLeft, command(t, p, sensor.ColorEvent{Color: color.Red}).Kind)
}
