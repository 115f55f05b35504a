// Package runner wires a bridge device to the rover core: sensor pollers feed
// the loop, which drives the device's motors and indicator.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/itohio/gorover/internal/log"
	"github.com/itohio/gorover/pkg/bridge"
	"github.com/itohio/gorover/pkg/config"
	"github.com/itohio/gorover/pkg/control"
	"github.com/itohio/gorover/pkg/motor"
	"github.com/itohio/gorover/pkg/rover"
	"github.com/itohio/gorover/pkg/sensor"
	"go.uber.org/multierr"
)

// Chain is one run of the rover against a device. A Chain can be run once.
type Chain struct {
	id        string
	cfg       *config.Config
	device    bridge.Device
	opts      []rover.Option
	callbacks []func(rover.Status)
}

// New creates a chain for the device. Nothing touches the hardware until Run.
func New(cfg *config.Config, device bridge.Device, opts ...rover.Option) *Chain {
	return &Chain{
		id:     uuid.New().String(),
		cfg:    cfg,
		device: device,
		opts:   opts,
	}
}

// ID returns the run id. Every log record of the run carries it.
func (c *Chain) ID() string {
	return c.id
}

// OnUpdate registers a status callback. It is called from the loop
// goroutine, so UI callers must hop to their own thread. Register callbacks
// before calling Run.
func (c *Chain) OnUpdate(cb func(rover.Status)) {
	c.callbacks = append(c.callbacks, cb)
}

// Run connects the device and runs the rover until ctx is cancelled.
// The motors are emergency stopped before the device is closed.
func (c *Chain) Run(ctx context.Context) (err error) {
	logger := log.With("run", c.id)
	logger.Info("starting rover", "device", fmt.Sprintf("%T", c.device))

	if err := c.device.Connect(); err != nil {
		return fmt.Errorf("failed to connect device: %w", err)
	}
	defer func() {
		err = multierr.Append(err, c.device.Close())
	}()

	queue := sensor.NewQueue(c.cfg.Scheduler.QueueCapacity)

	driver := motor.NewDriver(c.device, c.cfg.Motor)
	loop := rover.New(
		queue,
		control.New(c.cfg.Policy),
		motor.NewSequencer(driver),
		c.device,
		c.cfg.Scheduler,
		c.opts...,
	)
	for _, cb := range c.callbacks {
		loop.OnUpdate(cb)
	}

	pollers := []*sensor.Poller{
		sensor.NewColorPoller(c.device, c.cfg.Sensors.ColorPeriod),
		sensor.NewDistancePoller(c.device, c.cfg.Sensors.DistancePeriod),
		sensor.NewVoltagePoller(c.device, c.cfg.Sensors.BatteryPeriod),
	}

	// Pollers outlive the loop until it has stopped the motors.
	pollCtx, stopPollers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, p := range pollers {
		wg.Add(1)
		go func(p *sensor.Poller) {
			defer wg.Done()
			p.Run(pollCtx, queue)
		}(p)
	}

	loopErr := loop.Run(ctx)

	stopPollers()
	wg.Wait()
	logger.Info("rover stopped", "duties", driver.Duties())

	if errors.Is(loopErr, context.Canceled) {
		loopErr = nil
	}
	return loopErr
}
