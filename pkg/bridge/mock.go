package bridge

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/gorover/internal/log"
	"github.com/itohio/gorover/pkg/color"
	"github.com/itohio/gorover/pkg/config"
	"github.com/itohio/gorover/pkg/motor"
)

const (
	// simulationStep is how often the mock integrates rover motion.
	simulationStep = 20 * time.Millisecond
	// turnArc is how far a wheel travels in a spin before the rover faces a
	// fresh direction with the obstacle back at its starting distance.
	turnArc = 5.0 // cm
	// maxRange is the furthest distance the simulated range sensor reports.
	maxRange = 400.0 // cm
)

// Raw readings the simulated color sensor returns for each floor color.
var floorSamples = map[color.Color]color.RawSample{
	color.Black:   {Red: 10, Green: 10, Blue: 10, Clear: 50},
	color.Blue:    {Red: 60, Green: 60, Blue: 200, Clear: 600},
	color.Red:     {Red: 300, Green: 212, Blue: 157, Clear: 700},
	color.Magenta: {Red: 300, Green: 60, Blue: 200, Clear: 700},
	color.Green:   {Red: 60, Green: 300, Blue: 40, Clear: 600},
	color.Cyan:    {Red: 60, Green: 300, Blue: 200, Clear: 700},
	color.Yellow:  {Red: 300, Green: 300, Blue: 40, Clear: 800},
	color.White:   {Red: 300, Green: 300, Blue: 200, Clear: 900},
	color.Orange:  {Red: 300, Green: 212, Blue: 134, Clear: 700},
	color.Unknown: {Red: 200, Green: 50, Blue: 40, Clear: 500},
}

// fade is a linear duty ramp on one channel.
type fade struct {
	from, to uint8
	start    time.Time
	duration time.Duration
}

func (f fade) at(now time.Time) float64 {
	elapsed := now.Sub(f.start)
	if f.duration <= 0 || elapsed >= f.duration {
		return float64(f.to)
	}
	if elapsed <= 0 {
		return float64(f.from)
	}
	k := elapsed.Seconds() / f.duration.Seconds()
	return float64(f.from) + (float64(f.to)-float64(f.from))*k
}

// Mock simulates the rover for testing and development. Driving forward
// closes in on an obstacle, spinning in place faces a new direction, the
// floor color cycles through a pattern and the battery slowly drains.
type Mock struct {
	cfg *config.MockConfig
	now func() time.Time

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	done      chan struct{}

	// Simulation state
	pattern   []color.Color
	startTime time.Time
	lastStep  time.Time
	fades     [4]fade
	distance  float64 // cm
	spun      float64 // wheel travel since the last new heading, cm
	indicator color.Color
}

// NewMock creates a new simulated rover.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}

	pattern := make([]color.Color, 0, len(cfg.ColorPattern))
	for _, name := range cfg.ColorPattern {
		c, err := color.Parse(name)
		if err != nil {
			log.Warn("ignoring mock floor color", "err", err)
			continue
		}
		pattern = append(pattern, c)
	}
	if len(pattern) == 0 {
		pattern = append(pattern, color.White)
	}

	return &Mock{
		cfg:       cfg,
		now:       time.Now,
		pattern:   pattern,
		indicator: color.Black,
	}
}

// Connect starts the simulation.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.connected = true
	m.done = make(chan struct{})
	m.reset(m.now())

	go m.simulate(m.ctx, m.done)

	return nil
}

// reset must be called with m.mu held.
func (m *Mock) reset(now time.Time) {
	m.startTime = now
	m.lastStep = now
	m.fades = [4]fade{}
	m.distance = float64(m.cfg.StartDistance)
	m.spun = 0
}

// Close stops the simulation.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}

	m.cancel()
	m.connected = false
	done := m.done
	m.mu.Unlock()

	<-done
	return nil
}

// IsConnected returns whether the simulation is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// simulate integrates rover motion until ctx is cancelled.
func (m *Mock) simulate(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(simulationStep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			m.step(m.now())
			m.mu.Unlock()
		}
	}
}

// step advances the simulation to now. Must be called with m.mu held.
func (m *Mock) step(now time.Time) {
	dt := now.Sub(m.lastStep).Seconds()
	m.lastStep = now
	if dt <= 0 {
		return
	}

	left := (m.fades[motor.Left1].at(now) - m.fades[motor.Left2].at(now)) / 100
	right := (m.fades[motor.Right1].at(now) - m.fades[motor.Right2].at(now)) / 100

	forward := (left + right) / 2 * m.cfg.Speed
	spin := math.Abs(left-right) / 2 * m.cfg.Speed

	m.distance = math.Max(0, math.Min(maxRange, m.distance-forward*dt))

	if spin > 0 {
		m.spun += spin * dt
		if m.spun >= turnArc {
			m.distance = float64(m.cfg.StartDistance)
			m.spun = 0
		}
	}
}

// noise returns a deterministic pseudo-random value in [-NoiseLevel, NoiseLevel].
func (m *Mock) noise(elapsed time.Duration, phase float64) float64 {
	t := float64(elapsed.Nanoseconds())
	return (math.Sin(t*0.001+phase) + math.Cos(t*0.0013+phase)) * m.cfg.NoiseLevel * 0.5
}

// Floor returns the floor color currently under the sensor.
func (m *Mock) Floor() color.Color {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.floor(m.now())
}

func (m *Mock) floor(now time.Time) color.Color {
	if m.cfg.ColorPeriod <= 0 {
		return m.pattern[0]
	}
	i := int(now.Sub(m.startTime) / m.cfg.ColorPeriod)
	return m.pattern[i%len(m.pattern)]
}

// ReadColor returns a noisy raw reading of the current floor color.
func (m *Mock) ReadColor(ctx context.Context) (color.RawSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return color.RawSample{}, ErrNotConnected
	}

	now := m.now()
	elapsed := now.Sub(m.startTime)
	s := floorSamples[m.floor(now)]

	jitter := func(v uint16, phase float64) uint16 {
		return uint16(math.Max(0, math.Round(float64(v)*(1+m.noise(elapsed, phase)))))
	}

	return color.RawSample{
		Red:   jitter(s.Red, 0),
		Green: jitter(s.Green, 1),
		Blue:  jitter(s.Blue, 2),
		Clear: jitter(s.Clear, 3),
	}, nil
}

// ReadDistance returns the simulated obstacle distance in centimeters.
func (m *Mock) ReadDistance(ctx context.Context) (uint16, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return 0, ErrNotConnected
	}

	d := m.distance * (1 + m.noise(m.now().Sub(m.startTime), 4))
	return uint16(math.Max(0, math.Round(d))), nil
}

// ReadVoltage returns the simulated battery voltage in millivolts.
func (m *Mock) ReadVoltage(ctx context.Context) (uint16, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return 0, ErrNotConnected
	}

	elapsed := m.now().Sub(m.startTime)
	v := float64(m.cfg.Battery) - m.cfg.Drain*elapsed.Seconds()
	v *= 1 + m.noise(elapsed, 5)
	return uint16(math.Max(0, math.Round(v))), nil
}

// SetDuty sets a channel duty immediately.
func (m *Mock) SetDuty(ch motor.Channel, pct uint8) error {
	return m.Fade(ch, pct, pct, 0)
}

// Fade starts a linear duty ramp on a channel.
func (m *Mock) Fade(ch motor.Channel, from, to uint8, dur time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}
	if int(ch) >= len(m.fades) {
		return fmt.Errorf("invalid channel %d", ch)
	}

	now := m.now()
	m.step(now)
	m.fades[ch] = fade{from: from, to: to, start: now, duration: dur}
	return nil
}

// Duties returns the effective duty of every channel right now.
func (m *Mock) Duties() motor.Duties {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	var d motor.Duties
	for i, f := range m.fades {
		d[i] = uint8(math.Round(f.at(now)))
	}
	return d
}

// Distance returns the true obstacle distance without sensor noise.
func (m *Mock) Distance() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.distance
}

// Show records the indicator color.
func (m *Mock) Show(c color.Color) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indicator = c
}

// Indicator returns the color the indicator currently shows.
func (m *Mock) Indicator() color.Color {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indicator
}
