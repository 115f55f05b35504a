package sensor

import (
	"context"
	"errors"
	"time"

	"github.com/itohio/gorover/internal/log"
	"github.com/itohio/gorover/pkg/color"
)

// Poller reads one sensor at a fixed period and pushes the result into the
// rover queue.
type Poller struct {
	name   string
	period time.Duration
	read   func(ctx context.Context) (Event, error)
}

// NewColorPoller polls a color sensor and pushes classified colors.
func NewColorPoller(src ColorSensor, period time.Duration) *Poller {
	return &Poller{
		name:   "color",
		period: period,
		read: func(ctx context.Context) (Event, error) {
			s, err := src.ReadColor(ctx)
			if err != nil {
				return nil, err
			}
			c := color.Classify(s)
			if log.DebugEnabled() {
				n, _ := color.Normalize(s)
				log.Debug("color measurement", "raw", s, "normalized", n, "color", c)
			}
			return ColorEvent{Color: c}, nil
		},
	}
}

// NewDistancePoller polls a range sensor.
func NewDistancePoller(src RangeSensor, period time.Duration) *Poller {
	return &Poller{
		name:   "distance",
		period: period,
		read: func(ctx context.Context) (Event, error) {
			d, err := src.ReadDistance(ctx)
			if err != nil {
				return nil, err
			}
			return DistanceEvent{Centimeters: d}, nil
		},
	}
}

// NewVoltagePoller polls the battery voltage.
func NewVoltagePoller(src VoltageSensor, period time.Duration) *Poller {
	return &Poller{
		name:   "battery",
		period: period,
		read: func(ctx context.Context) (Event, error) {
			v, err := src.ReadVoltage(ctx)
			if err != nil {
				return nil, err
			}
			return VoltageEvent{Millivolts: v}, nil
		},
	}
}

// Name returns the poller name used in logs.
func (p *Poller) Name() string {
	return p.name
}

// Run polls until ctx is done. Sends block while the queue is full, so a
// slow consumer suspends the poller rather than losing readings.
func (p *Poller) Run(ctx context.Context, out chan<- Event) {
	log.Info("starting sensor poller", "sensor", p.name, "period", p.period)

	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		ev, err := p.read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, ErrNoNewData) {
				log.Debug("no new sensor reading", "sensor", p.name)
			} else {
				log.Warn("sensor read failed", "sensor", p.name, "err", err)
			}
		} else {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
