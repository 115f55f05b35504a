// Package rover runs the scheduling loop that feeds sensor events through the
// control policy into the motor sequencer.
package rover

import (
	"context"
	"time"

	"github.com/itohio/gorover/internal/log"
	"github.com/itohio/gorover/pkg/color"
	"github.com/itohio/gorover/pkg/config"
	"github.com/itohio/gorover/pkg/control"
	"github.com/itohio/gorover/pkg/motor"
	"github.com/itohio/gorover/pkg/sensor"
)

// Indicator renders the last classified color. Fire and forget.
type Indicator interface {
	Show(c color.Color)
}

// Status is a snapshot of the loop's view of the rover.
type Status struct {
	Control   control.State
	Motor     motor.State
	Direction motor.Direction
	Color     color.Color
	Distance  uint16 // cm
	Voltage   uint16 // mV
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

// Loop is the single consumer of the sensor queue. It exclusively owns the
// policy and the sequencer and is the only place time is read.
type Loop struct {
	events    <-chan sensor.Event
	policy    *control.Policy
	seq       *motor.Sequencer
	indicator Indicator
	idle      time.Duration
	now       func() time.Time

	// Absolute time of the next Advance; zero when none is armed.
	deadline time.Time

	status    Status
	reported  Status
	callbacks []func(Status)
}

// New creates a loop consuming events.
func New(events <-chan sensor.Event, policy *control.Policy, seq *motor.Sequencer, indicator Indicator, cfg config.SchedulerConfig, opts ...Option) *Loop {
	idle := cfg.IdlePeriod
	if idle <= 0 {
		idle = 100 * time.Millisecond
	}

	l := &Loop{
		events:    events,
		policy:    policy,
		seq:       seq,
		indicator: indicator,
		idle:      idle,
		now:       time.Now,
		status:    Status{Color: color.Unknown},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.status.Control = policy.State()
	l.status.Motor = seq.State()
	l.reported = l.status
	return l
}

// OnUpdate registers a callback invoked from the loop goroutine whenever the
// status changes. Register callbacks before calling Run.
func (l *Loop) OnUpdate(cb func(Status)) {
	l.callbacks = append(l.callbacks, cb)
}

// Status returns the current status. Only safe to call from the loop
// goroutine or when the loop is not running.
func (l *Loop) Status() Status {
	return l.status
}

// Run processes events and sequencer deadlines until ctx is cancelled or
// the event queue is closed. On exit the motors are emergency stopped.
func (l *Loop) Run(ctx context.Context) error {
	log.Info("starting main loop", "idle", l.idle)

	timer := time.NewTimer(l.wait(l.now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case ev, ok := <-l.events:
			if !ok {
				l.shutdown()
				return nil
			}
			l.dispatch(ev)
		case <-timer.C:
		}

		now := l.now()
		l.tick(now)
		l.update()
		timer.Reset(l.wait(now))
	}
}

// dispatch feeds one event to the indicator and the policy and submits the
// resulting command. Busy commands are dropped.
func (l *Loop) dispatch(ev sensor.Event) {
	switch e := ev.(type) {
	case sensor.ColorEvent:
		if l.indicator != nil {
			l.indicator.Show(e.Color)
		}
		l.status.Color = e.Color
	case sensor.DistanceEvent:
		l.status.Distance = e.Centimeters
	case sensor.VoltageEvent:
		l.status.Voltage = e.Millivolts
	}

	cmd, ok := l.policy.Process(ev)
	if !ok {
		return
	}
	if err := l.seq.Accept(cmd); err != nil {
		log.Debug("motion command dropped", "cmd", cmd, "state", l.seq.State(), "err", err)
		return
	}
	log.Debug("motion command accepted", "cmd", cmd, "state", l.seq.State())

	if cmd.Kind == motor.KindEmergencyStop {
		// Do not wait out the current ramp or hold.
		l.deadline = time.Time{}
	}
}

// tick advances the sequencer if no deadline is armed or it has passed.
func (l *Loop) tick(now time.Time) {
	if !l.deadline.IsZero() && now.Before(l.deadline) {
		return
	}

	delay := l.seq.Advance()
	if delay > 0 {
		l.deadline = now.Add(delay)
	} else {
		l.deadline = time.Time{}
	}
}

// wait returns how long to block before the next tick. Deadlines are
// absolute, so time spent handling early events is not counted twice.
func (l *Loop) wait(now time.Time) time.Duration {
	if l.deadline.IsZero() {
		return l.idle
	}
	return max(l.deadline.Sub(now), 0)
}

func (l *Loop) update() {
	l.status.Control = l.policy.State()
	l.status.Motor = l.seq.State()
	l.status.Direction = l.seq.Direction()
	if l.status == l.reported {
		return
	}
	l.reported = l.status
	for _, cb := range l.callbacks {
		cb(l.status)
	}
}

func (l *Loop) shutdown() {
	log.Info("stopping main loop, emergency stopping motors")
	// EmergencyStop is always accepted.
	_ = l.seq.Accept(motor.EmergencyStop())
	l.seq.Advance()
	l.deadline = time.Time{}
	l.update()
}
