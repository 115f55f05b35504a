package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/gorover/internal/log"
	"github.com/itohio/gorover/pkg/color"
	"github.com/itohio/gorover/pkg/motor"
	"github.com/itohio/gorover/pkg/sensor"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the bridge firmware UART baud rate.
	DefaultBaudRate = 115200
	// DefaultStale is how old a reading may get before reads fail.
	DefaultStale = time.Second
)

var (
	// ErrNotConnected is returned by reads and writes before Connect.
	ErrNotConnected = errors.New("not connected")
	// ErrNoData is returned when the bridge has not reported a sensor yet.
	ErrNoData = errors.New("no reading received yet")
	// ErrStale is returned when the last reading is too old to act on.
	ErrStale = errors.New("reading is stale")
	// ErrNoNewData is returned when the latest reading was already read.
	ErrNoNewData = sensor.ErrNoNewData
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// reading is a parsed line from the bridge.
type reading struct {
	kind  byte // 'C', 'D' or 'V'
	color color.RawSample
	value uint16
}

// stamped is a cached reading. Each reading is handed out at most once.
type stamped[T any] struct {
	value T
	at    time.Time
	taken bool
}

// Serial talks to the bridge MCU. The bridge streams sensor readings as
// text lines; Serial caches the latest of each and forwards motor and
// indicator commands. A cached reading is returned by one read only, so a
// slow or stalled bridge never repeats a sample.
//
// Inbound:  C,red,green,blue,clear | D,cm | V,mv
// Outbound: P,channel,duty | F,channel,from,to,ms | L,r,g,b
type Serial struct {
	port     string
	baudRate int
	stale    time.Duration
	now      func() time.Time

	conn      io.ReadWriteCloser
	mu        sync.RWMutex
	wmu       sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	done      chan struct{}

	color    stamped[color.RawSample]
	distance stamped[uint16]
	voltage  stamped[uint16]
}

// NewSerial creates a bridge connection for the specified port.
func NewSerial(port string, baudRate int, stale time.Duration) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if stale == 0 {
		stale = DefaultStale
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		stale:    stale,
		now:      time.Now,
	}
}

// Connect opens the serial port and starts reading sensor lines.
func (d *Serial) Connect() error {
	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}
	if err := d.attach(port); err != nil {
		port.Close()
		return err
	}
	log.Info("connected to bridge", "port", d.port, "baud", d.baudRate)
	return nil
}

// attach starts the reader on an already open connection.
func (d *Serial) attach(conn io.ReadWriteCloser) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.conn = conn
	d.connected = true
	d.done = make(chan struct{})
	d.color = stamped[color.RawSample]{}
	d.distance = stamped[uint16]{}
	d.voltage = stamped[uint16]{}

	go d.readLines(d.ctx, conn, d.done)

	return nil
}

// Close closes the connection and waits for the reader to stop.
func (d *Serial) Close() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()
	err := d.conn.Close()
	d.conn = nil
	d.connected = false
	done := d.done
	d.mu.Unlock()

	<-done

	if err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", d.port, err)
	}
	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// ReadColor returns the latest color sensor reading.
func (d *Serial) ReadColor(ctx context.Context) (color.RawSample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return take(d, &d.color)
}

// ReadDistance returns the latest range reading in centimeters.
func (d *Serial) ReadDistance(ctx context.Context) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return take(d, &d.distance)
}

// ReadVoltage returns the latest battery voltage in millivolts.
func (d *Serial) ReadVoltage(ctx context.Context) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return take(d, &d.voltage)
}

// take returns an unread, fresh reading and marks it read.
// It must be called with d.mu held for writing.
func take[T any](d *Serial, s *stamped[T]) (T, error) {
	var zero T
	if !d.connected {
		return zero, ErrNotConnected
	}
	if s.at.IsZero() {
		return zero, ErrNoData
	}
	if age := d.now().Sub(s.at); age > d.stale {
		return zero, fmt.Errorf("%w: %s old", ErrStale, age.Round(time.Millisecond))
	}
	if s.taken {
		return zero, ErrNoNewData
	}
	s.taken = true
	return s.value, nil
}

// SetDuty sets a motor channel duty immediately.
func (d *Serial) SetDuty(ch motor.Channel, pct uint8) error {
	return d.send(fmt.Sprintf("P,%d,%d\n", ch, pct))
}

// Fade starts a linear duty ramp on the bridge.
func (d *Serial) Fade(ch motor.Channel, from, to uint8, dur time.Duration) error {
	return d.send(fmt.Sprintf("F,%d,%d,%d,%d\n", ch, from, to, dur.Milliseconds()))
}

// Show renders a color on the status LED.
func (d *Serial) Show(c color.Color) {
	rgb := c.RGB()
	if err := d.send(fmt.Sprintf("L,%d,%d,%d\n", rgb.R, rgb.G, rgb.B)); err != nil {
		log.Warn("failed to update indicator", "color", c, "err", err)
	}
}

func (d *Serial) send(cmd string) error {
	d.mu.RLock()
	conn, connected := d.conn, d.connected
	d.mu.RUnlock()

	if !connected {
		return ErrNotConnected
	}

	d.wmu.Lock()
	defer d.wmu.Unlock()
	if _, err := io.WriteString(conn, cmd); err != nil {
		return fmt.Errorf("failed to send %q: %w", strings.TrimSpace(cmd), err)
	}
	return nil
}

// readLines reads lines from the bridge and caches the parsed readings.
func (d *Serial) readLines(ctx context.Context, conn io.Reader, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in bridge reader", "panic", r)
		}
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		r, err := parseLine(line)
		if err != nil {
			log.Warn("failed to parse bridge line", "line", line, "err", err)
			continue
		}
		d.store(r)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Error("error reading from bridge", "port", d.port, "err", err)
	}
}

func (d *Serial) store(r reading) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	switch r.kind {
	case 'C':
		d.color = stamped[color.RawSample]{value: r.color, at: now}
	case 'D':
		d.distance = stamped[uint16]{value: r.value, at: now}
	case 'V':
		d.voltage = stamped[uint16]{value: r.value, at: now}
	}
}

// parseLine parses a bridge line.
// Examples: "C,200,50,40,500", "D,12", "V,3900"
func parseLine(line string) (reading, error) {
	parts := strings.Split(line, ",")

	want := map[string]int{"C": 5, "D": 2, "V": 2}[parts[0]]
	if want == 0 {
		return reading{}, fmt.Errorf("unknown line kind %q", parts[0])
	}
	if len(parts) != want {
		return reading{}, fmt.Errorf("invalid line format: expected %d comma-separated values, got %d", want, len(parts))
	}

	values := make([]uint16, 0, 4)
	for _, p := range parts[1:] {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
		if err != nil {
			return reading{}, fmt.Errorf("invalid value %q: %w", p, err)
		}
		values = append(values, uint16(v))
	}

	r := reading{kind: parts[0][0]}
	if r.kind == 'C' {
		r.color = color.RawSample{Red: values[0], Green: values[1], Blue: values[2], Clear: values[3]}
	} else {
		r.value = values[0]
	}
	return r, nil
}
