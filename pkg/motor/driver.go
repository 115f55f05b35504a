package motor

import (
	"time"

	"github.com/itohio/gorover/internal/log"
	"github.com/itohio/gorover/pkg/config"
)

// Channel is one of the four H-bridge PWM inputs.
type Channel uint8

const (
	Left1 Channel = iota
	Left2
	Right1
	Right2
)

func (c Channel) String() string {
	switch c {
	case Left1:
		return "left-1"
	case Left2:
		return "left-2"
	case Right1:
		return "right-1"
	case Right2:
		return "right-2"
	default:
		return "invalid"
	}
}

// Duties holds the last commanded duty of each channel in percent, indexed
// by Channel.
type Duties [4]uint8

// PWM is the hardware duty primitive. Fade starts a linear ramp that the
// hardware completes on its own.
type PWM interface {
	SetDuty(ch Channel, pct uint8) error
	Fade(ch Channel, from, to uint8, d time.Duration) error
}

// Motor is the actuator capability the Sequencer drives. Every call except
// EmergencyStop returns the duration of the ramp it started.
type Motor interface {
	Forward() time.Duration
	Backwards() time.Duration
	Left() time.Duration
	Right() time.Duration
	Stop() time.Duration
	EmergencyStop()
}

var _ Motor = (*Driver)(nil)

// Driver implements Motor on top of four PWM channels and tracks the duty
// each channel was last commanded to.
type Driver struct {
	pwm    PWM
	cfg    config.MotorConfig
	duties Duties
}

// NewDriver creates a driver and zeroes all channels.
func NewDriver(pwm PWM, cfg config.MotorConfig) *Driver {
	d := &Driver{pwm: pwm, cfg: cfg}
	for ch := Left1; ch <= Right2; ch++ {
		d.set(ch, 0)
	}
	return d
}

// Duties returns the recorded duty of every channel.
func (d *Driver) Duties() Duties {
	return d.duties
}

// Forward drives both wheels forward.
func (d *Driver) Forward() time.Duration {
	return d.accelerate(Left1, Right1)
}

// Backwards drives both wheels backwards.
func (d *Driver) Backwards() time.Duration {
	return d.accelerate(Left2, Right2)
}

// Left spins in place: left wheel backwards, right wheel forward.
func (d *Driver) Left() time.Duration {
	return d.accelerate(Left2, Right1)
}

// Right spins in place: left wheel forward, right wheel backwards.
func (d *Driver) Right() time.Duration {
	return d.accelerate(Left1, Right2)
}

// Stop ramps every running channel down to zero using its side's
// deceleration time.
func (d *Driver) Stop() time.Duration {
	for ch := Left1; ch <= Right2; ch++ {
		if d.duties[ch] == 0 {
			continue
		}
		decel := d.cfg.DecelTimeRight
		if ch == Left1 || ch == Left2 {
			decel = d.cfg.DecelTimeLeft
		}
		d.fade(ch, d.duties[ch], 0, decel)
	}
	return max(d.cfg.DecelTimeLeft, d.cfg.DecelTimeRight)
}

// EmergencyStop zeroes every channel without ramping.
func (d *Driver) EmergencyStop() {
	for ch := Left1; ch <= Right2; ch++ {
		d.set(ch, 0)
	}
}

// accelerate ramps the left and right channels to their target duty and
// forces the opposite pair to zero.
func (d *Driver) accelerate(left, right Channel) time.Duration {
	d.set(opposite(left), 0)
	d.set(opposite(right), 0)
	d.fade(left, d.duties[left], d.cfg.LeftDuty, d.cfg.AccelTime)
	d.fade(right, d.duties[right], d.cfg.RightDuty, d.cfg.AccelTime)
	return d.cfg.AccelTime
}

func opposite(ch Channel) Channel {
	switch ch {
	case Left1:
		return Left2
	case Left2:
		return Left1
	case Right1:
		return Right2
	default:
		return Right1
	}
}

// Hardware faults belong to the PWM layer; the bookkeeping still follows the
// command so the next ramp starts from the intended value.
func (d *Driver) set(ch Channel, pct uint8) {
	if err := d.pwm.SetDuty(ch, pct); err != nil {
		log.Error("failed to set motor duty", "channel", ch, "duty", pct, "err", err)
	}
	d.duties[ch] = pct
}

func (d *Driver) fade(ch Channel, from, to uint8, dur time.Duration) {
	if err := d.pwm.Fade(ch, from, to, dur); err != nil {
		log.Error("failed to start motor fade", "channel", ch, "from", from, "to", to, "err", err)
	}
	d.duties[ch] = to
}
