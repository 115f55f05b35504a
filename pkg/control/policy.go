// Package control decides motion commands from sensor events.
package control

import (
	"github.com/itohio/gorover/internal/log"
	"github.com/itohio/gorover/pkg/color"
	"github.com/itohio/gorover/pkg/config"
	"github.com/itohio/gorover/pkg/motor"
	"github.com/itohio/gorover/pkg/sensor"
)

// State is the robot-level control state.
type State uint8

const (
	Normal State = iota
	Blocked
	BatteryLow
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case Blocked:
		return "blocked"
	case BatteryLow:
		return "battery-low"
	default:
		return "invalid"
	}
}

// Policy is the control state machine. It starts Blocked and only starts
// reacting to colors once the path ahead has been clear for a few samples.
// A Policy is not safe for concurrent use.
type Policy struct {
	cfg config.PolicyConfig

	state State
	// Consecutive qualifying distance samples: close ones while Normal,
	// far ones while Blocked. Always within [0, DistanceSamples].
	debounce int
	// Set after a turn so the next turn color yields a forward step first.
	lastTurn bool
}

// New creates a policy in the Blocked state.
func New(cfg config.PolicyConfig) *Policy {
	return &Policy{cfg: cfg, state: Blocked}
}

// State returns the current control state.
func (p *Policy) State() State {
	return p.state
}

// Debounce returns the distance debounce counter.
func (p *Policy) Debounce() int {
	return p.debounce
}

// Process consumes one sensor event and returns the motion command it
// triggers, if any.
func (p *Policy) Process(ev sensor.Event) (motor.Command, bool) {
	from := p.state
	cmd, ok := p.process(ev)
	if p.state != from {
		log.Info("control state changed", "from", from, "to", p.state, "event", ev)
	}
	return cmd, ok
}

func (p *Policy) process(ev sensor.Event) (motor.Command, bool) {
	switch e := ev.(type) {
	case sensor.VoltageEvent:
		return p.voltage(e.Millivolts)
	case sensor.DistanceEvent:
		return p.distance(e.Centimeters)
	case sensor.ColorEvent:
		return p.color(e.Color)
	}
	return motor.Command{}, false
}

func (p *Policy) voltage(mv uint16) (motor.Command, bool) {
	if p.state == BatteryLow {
		// Disconnected, faulty or recharged; wait for a clear path again.
		if mv < p.cfg.NoBattery || mv > p.cfg.BatteryLow {
			p.state = Blocked
			p.debounce = 0
		}
		return motor.Command{}, false
	}

	if mv >= p.cfg.NoBattery && mv < p.cfg.BatteryLow {
		p.state = BatteryLow
		p.debounce = 0
		return motor.EmergencyStop(), true
	}
	return motor.Command{}, false
}

func (p *Policy) distance(cm uint16) (motor.Command, bool) {
	switch p.state {
	case Normal:
		if !p.count(cm < p.cfg.DistanceClose) {
			return motor.Command{}, false
		}
		p.state = Blocked
		return motor.EmergencyStop(), true

	case Blocked:
		if p.count(cm > p.cfg.DistanceClose) {
			p.state = Normal
			p.lastTurn = false
		}
	}
	return motor.Command{}, false
}

// count updates the debounce counter and reports whether it reached the
// configured number of samples, resetting it if so.
func (p *Policy) count(qualifies bool) bool {
	if !qualifies {
		p.debounce = 0
		return false
	}
	p.debounce = min(p.debounce+1, p.cfg.DistanceSamples)
	if p.debounce < p.cfg.DistanceSamples {
		return false
	}
	p.debounce = 0
	return true
}

func (p *Policy) color(c color.Color) (motor.Command, bool) {
	if p.state != Normal {
		return motor.Command{}, false
	}

	switch c {
	case color.Magenta:
		p.lastTurn = false
		return motor.Forward(p.cfg.ForwardHold), true
	case color.Red, color.Orange:
		return p.turn(motor.Left(p.cfg.LeftHold)), true
	case color.Blue:
		return p.turn(motor.Right(p.cfg.RightHold)), true
	}
	return motor.Command{}, false
}

// turn alternates between the turn and a forward step so a turn color that
// stays in view does not spin the rover in place.
func (p *Policy) turn(cmd motor.Command) motor.Command {
	if p.lastTurn {
		p.lastTurn = false
		return motor.Forward(p.cfg.ForwardHold)
	}
	p.lastTurn = true
	return cmd
}
