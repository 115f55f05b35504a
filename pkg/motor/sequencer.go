package motor

import (
	"errors"
	"time"

	"github.com/itohio/gorover/internal/log"
)

// ErrBusy is returned by Accept when the sequencer cannot take the command
// in its current state. The caller drops the command; the next sensor
// sample will produce a fresh one.
var ErrBusy = errors.New("motor sequencer busy")

// State is the sequencer state.
type State uint8

const (
	Stopped State = iota
	WaitAccel
	Moving
	WaitDecel
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case WaitAccel:
		return "wait-accel"
	case Moving:
		return "moving"
	case WaitDecel:
		return "wait-decel"
	default:
		return "invalid"
	}
}

// Sequencer turns motion commands into timed motor transitions. It never
// sleeps: Advance reports how long the caller should wait before calling it
// again. A Sequencer is not safe for concurrent use.
type Sequencer struct {
	motor   Motor
	state   State
	dir     Direction
	pending Command
	queued  bool
}

// NewSequencer creates a stopped sequencer driving m.
func NewSequencer(m Motor) *Sequencer {
	return &Sequencer{motor: m, state: Stopped}
}

// State returns the current state.
func (s *Sequencer) State() State {
	return s.state
}

// Direction returns the direction of the current movement, or DirNone.
func (s *Sequencer) Direction() Direction {
	return s.dir
}

// Pending returns the command waiting to be processed, if any.
func (s *Sequencer) Pending() (Command, bool) {
	return s.pending, s.queued
}

// Accept admits a command. EmergencyStop always succeeds and replaces any
// pending command. Movement commands are admitted only while Stopped with
// nothing pending; Stop only while Moving.
func (s *Sequencer) Accept(cmd Command) error {
	if cmd.Kind == KindEmergencyStop {
		s.pending, s.queued = cmd, true
		return nil
	}

	switch s.state {
	case Stopped:
		if s.queued {
			return ErrBusy
		}
		s.pending, s.queued = cmd, true
		return nil
	case Moving:
		if cmd.Kind != KindStop {
			return ErrBusy
		}
		s.pending, s.queued = cmd, true
		return nil
	default:
		return ErrBusy
	}
}

// Advance performs the next transition and returns the delay after which it
// must be called again. Zero means there is nothing to wait for.
// A pending EmergencyStop is handled first in every state and preempts a
// running deceleration as well.
func (s *Sequencer) Advance() time.Duration {
	from := s.state
	delay := s.advance()
	if from != s.state || delay > 0 {
		log.Debug("motor transition", "from", from, "to", s.state, "dir", s.dir, "delay", delay)
	}
	return delay
}

func (s *Sequencer) advance() time.Duration {
	if s.queued && s.pending.Kind == KindEmergencyStop {
		s.emergencyStop()
		return 0
	}

	switch s.state {
	case Stopped:
		if !s.queued {
			return 0
		}
		dir, ok := s.pending.Direction()
		if !ok {
			// Stop while already stopped
			s.clear()
			return 0
		}
		s.state = WaitAccel
		s.dir = dir
		return s.accelerate(dir)

	case WaitAccel:
		if dir, ok := s.pending.Direction(); s.queued && ok && dir == s.dir {
			s.state = Moving
			return s.pending.Hold
		}
		log.Info("no movement command after acceleration, stopping motors", "dir", s.dir, "pending", s.queued)
		return s.decelerate()

	case Moving:
		return s.decelerate()

	case WaitDecel:
		s.clear()
		s.state = Stopped
		s.dir = DirNone
		return 0
	}
	return 0
}

func (s *Sequencer) accelerate(dir Direction) time.Duration {
	switch dir {
	case DirForward:
		return s.motor.Forward()
	case DirBackwards:
		return s.motor.Backwards()
	case DirLeft:
		return s.motor.Left()
	default:
		return s.motor.Right()
	}
}

func (s *Sequencer) decelerate() time.Duration {
	s.state = WaitDecel
	return s.motor.Stop()
}

func (s *Sequencer) emergencyStop() {
	s.motor.EmergencyStop()
	s.clear()
	s.state = Stopped
	s.dir = DirNone
}

func (s *Sequencer) clear() {
	s.pending, s.queued = Command{}, false
}
