package telemetry

import (
	"sync"
	"time"

	"github.com/itohio/gorover/pkg/config"
	"github.com/itohio/gorover/pkg/motor"
)

// Span is a stretch of samples during which the motors were running in one
// direction.
type Span struct {
	Direction  motor.Direction
	StartIndex int // Start sample index in buffer
	EndIndex   int // End sample index in buffer (updated while the span continues)
	StartTime  time.Time
	EndTime    time.Time
}

// Duration returns how long the span lasted so far.
func (s Span) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Recorder keeps the samples within a time window, the closing speed between
// consecutive samples and the motion spans.
//
// Speeds correspond to sample pairs: speed[i] is the rate the obstacle
// distance shrank from sample[i] to sample[i+1], so n samples have n-1 speeds.
type Recorder struct {
	mu      sync.RWMutex
	samples []Sample
	speeds  []float64 // cm/s, positive when approaching
	spans   []Span

	callbacks []func(samples []Sample, speeds []float64, spans []Span)
	cbMu      sync.RWMutex

	window  time.Duration
	minSpan time.Duration

	// Set once the input closes; no callbacks after that.
	shutdown bool
}

// NewRecorder creates a recorder.
func NewRecorder(cfg config.TelemetryConfig) *Recorder {
	return &Recorder{
		window:  cfg.Window,
		minSpan: cfg.MinSpan,
	}
}

// Process consumes samples until the input closes.
func (r *Recorder) Process(input <-chan Sample) {
	for s := range input {
		r.Add(s)
	}
	r.mu.Lock()
	r.shutdown = true
	r.mu.Unlock()
}

// Reset clears the buffers and re-enables callbacks for a new run.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = nil
	r.speeds = nil
	r.spans = nil
	r.shutdown = false
}

// Add appends a sample, drops samples that left the window and updates the
// speeds and spans.
func (r *Recorder) Add(s Sample) {
	r.mu.Lock()

	r.samples = append(r.samples, s)
	r.trim(s.Timestamp.Add(-r.window))

	if n := len(r.samples); n >= 2 {
		prev, curr := r.samples[n-2], r.samples[n-1]
		if dt := curr.Timestamp.Sub(prev.Timestamp).Seconds(); dt > 0 {
			r.speeds = append(r.speeds, (prev.Distance-curr.Distance)/dt)
		} else {
			r.speeds = append(r.speeds, 0)
		}
	}

	r.updateSpans()

	notify := !r.shutdown
	r.mu.Unlock()

	if notify {
		r.notifyCallbacks()
	}
}

// trim removes samples at or before cutoff. Must be called with r.mu held.
func (r *Recorder) trim(cutoff time.Time) {
	cut := 0
	for cut < len(r.samples)-1 && !r.samples[cut].Timestamp.After(cutoff) {
		cut++
	}
	if cut == 0 {
		return
	}

	r.samples = r.samples[cut:]
	if cut <= len(r.speeds) {
		r.speeds = r.speeds[cut:]
	} else {
		r.speeds = r.speeds[:0]
	}

	valid := r.spans[:0]
	for _, sp := range r.spans {
		sp.StartIndex -= cut
		sp.EndIndex -= cut
		if sp.EndIndex < 0 {
			continue
		}
		if sp.StartIndex < 0 {
			sp.StartIndex = 0
			sp.StartTime = r.samples[0].Timestamp
		}
		valid = append(valid, sp)
	}
	r.spans = valid
}

// updateSpans extends or opens a span for the newest sample. Must be called
// with r.mu held.
func (r *Recorder) updateSpans() {
	last := len(r.samples) - 1
	s := r.samples[last]

	if s.Motor != motor.Stopped && s.Direction != motor.DirNone {
		if n := len(r.spans); n > 0 && r.spans[n-1].EndIndex == last-1 && r.spans[n-1].Direction == s.Direction {
			r.spans[n-1].EndIndex = last
			r.spans[n-1].EndTime = s.Timestamp
		} else {
			r.spans = append(r.spans, Span{
				Direction:  s.Direction,
				StartIndex: last,
				EndIndex:   last,
				StartTime:  s.Timestamp,
				EndTime:    s.Timestamp,
			})
		}
	}

	// Drop finished spans too short to show.
	valid := r.spans[:0]
	for i, sp := range r.spans {
		open := i == len(r.spans)-1 && sp.EndIndex == last
		if open || sp.Duration() >= r.minSpan {
			valid = append(valid, sp)
		}
	}
	r.spans = valid
}

// Samples returns a copy of the current samples buffer.
func (r *Recorder) Samples() []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Sample(nil), r.samples...)
}

// Speeds returns a copy of the closing speeds.
func (r *Recorder) Speeds() []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]float64(nil), r.speeds...)
}

// Spans returns a copy of the motion spans within the window.
func (r *Recorder) Spans() []Span {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Span(nil), r.spans...)
}

// OnUpdate registers a callback invoked after every added sample.
// The callback receives copies and should return quickly.
func (r *Recorder) OnUpdate(callback func(samples []Sample, speeds []float64, spans []Span)) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}

func (r *Recorder) notifyCallbacks() {
	samples, speeds, spans := r.Samples(), r.Speeds(), r.Spans()

	r.cbMu.RLock()
	callbacks := append(([]func([]Sample, []float64, []Span))(nil), r.callbacks...)
	r.cbMu.RUnlock()

	for _, cb := range callbacks {
		cb(samples, speeds, spans)
	}
}
