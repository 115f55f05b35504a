package scope

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/itohio/gorover/pkg/config"
	"github.com/itohio/gorover/pkg/motor"
	"github.com/itohio/gorover/pkg/telemetry"
	"github.com/stretchr/testify/assert"
)

func TestScopeWidget_AutoScale(t *testing.T) {
	test.NewTempApp(t)

	s := New(config.TelemetryConfig{Window: 10 * time.Second})
	assert.Equal(t, 0.0, s.yMin)
	assert.Equal(t, 100.0, s.yMax)

	t0 := time.Unix(1000, 0)
	samples := []telemetry.Sample{
		{Timestamp: t0, Distance: 60},
		{Timestamp: t0.Add(time.Second), Distance: 40},
		{Timestamp: t0.Add(2 * time.Second), Distance: 20},
	}
	s.UpdateData(samples, []float64{20, 20}, nil)

	// Range 0..60 with 10% margin.
	assert.InDelta(t, -6.0, s.yMin, 1e-9)
	assert.InDelta(t, 66.0, s.yMax, 1e-9)
	assert.Equal(t, t0, s.xMin)
	assert.Equal(t, t0.Add(10*time.Second), s.xMax, "short traces span the full window")

	s.UpdateData(samples, []float64{-30, 20}, nil)
	assert.InDelta(t, -39.0, s.yMin, 1e-9)
	assert.InDelta(t, 69.0, s.yMax, 1e-9)
}

func TestScopeWidget_Render(t *testing.T) {
	test.NewTempApp(t)

	s := New(config.TelemetryConfig{Window: time.Second})
	w := test.NewWindow(s)
	defer w.Close()
	w.Resize(fyne.NewSize(600, 400))
	s.Resize(fyne.NewSize(600, 400))

	t0 := time.Unix(1000, 0)
	samples := []telemetry.Sample{
		{Timestamp: t0, Distance: 60, Voltage: 4000},
		{Timestamp: t0.Add(100 * time.Millisecond), Distance: 58, Voltage: 4000, Motor: motor.Moving, Direction: motor.DirForward},
		{Timestamp: t0.Add(200 * time.Millisecond), Distance: 56, Voltage: 3990, Motor: motor.Moving, Direction: motor.DirForward},
	}
	spans := []telemetry.Span{{
		Direction:  motor.DirForward,
		StartIndex: 1,
		EndIndex:   2,
		StartTime:  samples[1].Timestamp,
		EndTime:    samples[2].Timestamp,
	}}
	s.UpdateData(samples, []float64{20, 20}, spans)

	r := test.WidgetRenderer(s)
	assert.Greater(t, len(r.Objects()), 1, "grid, traces and span markers are drawn")
}

func TestDirectionLabel(t *testing.T) {
	assert.NotEmpty(t, directionLabel(motor.DirForward))
	assert.NotEqual(t, directionLabel(motor.DirLeft), directionLabel(motor.DirRight))
	assert.Empty(t, directionLabel(motor.DirNone))
}
