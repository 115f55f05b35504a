// Package scope provides an oscilloscope-style Fyne widget for the rover
// telemetry trace.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gorover/pkg/config"
	"github.com/itohio/gorover/pkg/telemetry"
)

// ScopeWidget displays obstacle distance, closing speed and motion spans.
type ScopeWidget struct {
	widget.BaseWidget

	cfg config.TelemetryConfig

	// Data (protected by mu)
	mu      sync.RWMutex
	samples []telemetry.Sample
	speeds  []float64
	spans   []telemetry.Span
	voltage float64

	// Display buffers (reused for downsampling)
	displaySamples []telemetry.Sample
	displaySpeeds  []float64

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg config.TelemetryConfig) *ScopeWidget {
	s := &ScopeWidget{
		cfg:              cfg,
		displaySamples:   make([]telemetry.Sample, 0, 1000),
		displaySpeeds:    make([]float64, 0, 1000),
		maxDisplayPoints: 1000,
	}
	s.ExtendBaseWidget(s)
	s.updateAutoScale()
	s.Refresh()
	return s
}

// UpdateData replaces the displayed trace. Call it on the Fyne thread.
func (s *ScopeWidget) UpdateData(samples []telemetry.Sample, speeds []float64, spans []telemetry.Span) {
	s.mu.Lock()

	s.displaySamples = telemetry.Downsample(s.displaySamples, samples, s.maxDisplayPoints)
	s.displaySpeeds = telemetry.Downsample(s.displaySpeeds, speeds, s.maxDisplayPoints)

	s.samples = samples
	s.speeds = speeds
	s.spans = spans
	s.voltage = 0
	if len(samples) > 0 {
		s.voltage = samples[len(samples)-1].Voltage
	}

	s.updateAutoScale()

	s.mu.Unlock()

	// Refresh outside the lock; the renderer takes a read lock.
	s.Refresh()
}

// updateAutoScale calculates the axis ranges from the current data.
// Must be called with s.mu held.
func (s *ScopeWidget) updateAutoScale() {
	if len(s.displaySamples) == 0 {
		now := time.Now()
		s.yMin, s.yMax = 0, 100
		s.xMin, s.xMax = now, now.Add(s.cfg.Window)
		return
	}

	s.yMin, s.yMax = 0, s.displaySamples[0].Distance
	for _, sample := range s.displaySamples {
		s.yMin = min(s.yMin, sample.Distance)
		s.yMax = max(s.yMax, sample.Distance)
	}
	for _, speed := range s.displaySpeeds {
		s.yMin = min(s.yMin, speed)
		s.yMax = max(s.yMax, speed)
	}

	// Add 10% margin
	span := s.yMax - s.yMin
	if span == 0 {
		span = 1
	}
	s.yMin -= span * 0.1
	s.yMax += span * 0.1

	s.xMin = s.displaySamples[0].Timestamp
	s.xMax = s.displaySamples[len(s.displaySamples)-1].Timestamp
	if s.xMax.Sub(s.xMin) < s.cfg.Window {
		s.xMax = s.xMin.Add(s.cfg.Window)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	background := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &scopeRenderer{
		scope:      s,
		background: background,
		objects:    []fyne.CanvasObject{background},
	}
}
