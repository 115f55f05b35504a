// Package motor sequences motion commands into timed motor duty ramps.
package motor

import (
	"fmt"
	"time"
)

// Kind identifies a motion command.
type Kind uint8

const (
	KindForward Kind = iota
	KindBackwards
	KindLeft
	KindRight
	KindStop
	KindEmergencyStop
)

func (k Kind) String() string {
	switch k {
	case KindForward:
		return "forward"
	case KindBackwards:
		return "backwards"
	case KindLeft:
		return "left"
	case KindRight:
		return "right"
	case KindStop:
		return "stop"
	case KindEmergencyStop:
		return "emergency-stop"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Command is a motion command. Hold is how long to keep moving once the
// acceleration ramp completes; it is only meaningful for movement commands.
type Command struct {
	Kind Kind
	Hold time.Duration
}

// Forward drives forward for hold after accelerating.
func Forward(hold time.Duration) Command { return Command{Kind: KindForward, Hold: hold} }

// Backwards drives backwards for hold after accelerating.
func Backwards(hold time.Duration) Command { return Command{Kind: KindBackwards, Hold: hold} }

// Left spins left for hold after accelerating.
func Left(hold time.Duration) Command { return Command{Kind: KindLeft, Hold: hold} }

// Right spins right for hold after accelerating.
func Right(hold time.Duration) Command { return Command{Kind: KindRight, Hold: hold} }

// Stop requests a graceful deceleration.
func Stop() Command { return Command{Kind: KindStop} }

// EmergencyStop cuts all motors immediately, without a ramp.
func EmergencyStop() Command { return Command{Kind: KindEmergencyStop} }

// IsMovement reports whether the command starts a movement.
func (c Command) IsMovement() bool {
	_, ok := c.Direction()
	return ok
}

// Direction returns the direction a movement command drives in.
func (c Command) Direction() (Direction, bool) {
	switch c.Kind {
	case KindForward:
		return DirForward, true
	case KindBackwards:
		return DirBackwards, true
	case KindLeft:
		return DirLeft, true
	case KindRight:
		return DirRight, true
	default:
		return DirNone, false
	}
}

func (c Command) String() string {
	if c.IsMovement() {
		return fmt.Sprintf("%s(%s)", c.Kind, c.Hold)
	}
	return c.Kind.String()
}

// Direction is the direction of a movement.
type Direction uint8

const (
	DirNone Direction = iota
	DirForward
	DirBackwards
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirForward:
		return "forward"
	case DirBackwards:
		return "backwards"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "none"
	}
}
