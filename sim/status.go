package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gorover/pkg/color"
	"github.com/itohio/gorover/pkg/motor"
	"github.com/itohio/gorover/pkg/rover"
	"github.com/itohio/gorover/pkg/telemetry"
)

// statusPanel shows the indicator LED, the state machines and the duties.
type statusPanel struct {
	container fyne.CanvasObject

	indicator *canvas.Rectangle
	color     *widget.Label
	control   *widget.Label
	motor     *widget.Label
	distance  *widget.Label
	voltage   *widget.Label
	duties    [4]*widget.ProgressBar
}

func newStatusPanel() *statusPanel {
	p := &statusPanel{
		indicator: canvas.NewRectangle(color.Unknown.RGB()),
		color:     widget.NewLabel(color.Unknown.String()),
		control:   widget.NewLabel("-"),
		motor:     widget.NewLabel("-"),
		distance:  widget.NewLabel("-"),
		voltage:   widget.NewLabel("-"),
	}
	p.indicator.SetMinSize(fyne.NewSize(48, 48))
	p.indicator.CornerRadius = 24

	form := widget.NewForm(
		widget.NewFormItem("Color", p.color),
		widget.NewFormItem("Control", p.control),
		widget.NewFormItem("Motor", p.motor),
		widget.NewFormItem("Distance", p.distance),
		widget.NewFormItem("Battery", p.voltage),
	)
	for ch := motor.Left1; ch <= motor.Right2; ch++ {
		bar := widget.NewProgressBar()
		bar.Max = 100
		p.duties[ch] = bar
		form.Append(ch.String(), bar)
	}

	p.container = container.NewVBox(container.NewCenter(p.indicator), form)
	return p
}

// showStatus renders a loop status. Call it on the Fyne thread.
func (p *statusPanel) showStatus(st rover.Status) {
	p.indicator.FillColor = st.Color.RGB()
	p.indicator.Refresh()
	p.color.SetText(st.Color.String())
	p.control.SetText(st.Control.String())
	p.motor.SetText(fmt.Sprintf("%s %s", st.Motor, st.Direction))
	p.distance.SetText(fmt.Sprintf("%d cm", st.Distance))
	p.voltage.SetText(fmt.Sprintf("%d mV", st.Voltage))
}

// showSample renders the duties of a telemetry sample. Call it on the Fyne thread.
func (p *statusPanel) showSample(s telemetry.Sample) {
	for ch, bar := range p.duties {
		bar.SetValue(float64(s.Duties[ch]))
	}
}
