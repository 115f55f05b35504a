//go:build tinygo

package main

import (
	"machine"
	"time"
)

const numChannels = 4

type pwmGroup interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

type motorChannel struct {
	pwm pwmGroup
	ch  uint8

	duty     uint8
	from, to uint8
	start    time.Time
	duration time.Duration
	fading   bool
}

// Indexed as on the host: left-1, left-2, right-1, right-2.
var motors [numChannels]motorChannel

func configureMotors() {
	groups := [numChannels]pwmGroup{machine.TCC0, machine.TCC0, machine.TCC1, machine.TCC1}
	pins := [numChannels]machine.Pin{PIN_LEFT1, PIN_LEFT2, PIN_RIGHT1, PIN_RIGHT2}

	config := machine.PWMConfig{Period: uint64(time.Second / PWM_FREQUENCY)}
	for _, g := range []pwmGroup{machine.TCC0, machine.TCC1} {
		if err := g.Configure(config); err != nil {
			println("could not configure PWM:", err.Error())
		}
	}

	for i := range motors {
		ch, err := groups[i].Channel(pins[i])
		if err != nil {
			println("could not get PWM channel", i, err.Error())
			continue
		}
		motors[i] = motorChannel{pwm: groups[i], ch: ch}
		setDuty(i, 0)
	}
}

func setDuty(i int, duty uint8) {
	m := &motors[i]
	m.duty = duty
	if m.pwm != nil {
		m.pwm.Set(m.ch, m.pwm.Top()*uint32(duty)/100)
	}
}

// startFade ramps channel i from one duty to another. A zero duration sets
// the target immediately.
func startFade(i int, from, to uint8, duration time.Duration) {
	m := &motors[i]
	if duration <= 0 {
		m.fading = false
		setDuty(i, to)
		return
	}
	m.from, m.to = from, to
	m.start = time.Now()
	m.duration = duration
	m.fading = true
	setDuty(i, from)
}

func updateFades(now time.Time) {
	for i := range motors {
		m := &motors[i]
		if !m.fading {
			continue
		}

		elapsed := now.Sub(m.start)
		if elapsed >= m.duration {
			m.fading = false
			setDuty(i, m.to)
			continue
		}

		span := int32(m.to) - int32(m.from)
		duty := int32(m.from) + span*int32(elapsed/time.Millisecond)/int32(m.duration/time.Millisecond)
		setDuty(i, uint8(duty))
	}
}
