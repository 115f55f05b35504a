package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/gorover/pkg/motor"
	"github.com/itohio/gorover/pkg/telemetry"
)

var (
	gridColor     = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor    = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	distanceColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	speedColor    = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	spanColor     = color.RGBA{R: 0, G: 100, B: 200, A: 255}
	voltageColor  = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	background *canvas.Rectangle
	objects    []fyne.CanvasObject
	lastSize   fyne.Size
}

// plot maps data coordinates to widget coordinates.
type plot struct {
	x, y, width, height float32
	yMin, yMax          float64
	xMin, xMax          time.Time
}

func (p plot) pos(t time.Time, v float64) fyne.Position {
	x := p.x + float32(t.Sub(p.xMin).Seconds()/p.xMax.Sub(p.xMin).Seconds())*p.width
	y := p.y + p.height - float32((v-p.yMin)/(p.yMax-p.yMin))*p.height
	return fyne.NewPos(x, y)
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh redraws the trace.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	speeds := r.scope.displaySpeeds
	spans := r.scope.spans
	all := r.scope.samples
	voltage := r.scope.voltage
	p := plot{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.background}

	const (
		marginLeft   = 60
		marginRight  = 20
		marginTop    = 20
		marginBottom = 40
	)
	p.x, p.y = marginLeft, marginTop
	p.width = size.Width - marginLeft - marginRight
	p.height = size.Height - marginTop - marginBottom

	r.drawGrid(p)

	if len(samples) > 1 {
		points := make([]fyne.Position, 0, len(samples))
		for _, s := range samples {
			points = append(points, p.pos(s.Timestamp, s.Distance))
		}
		r.drawLine(points, distanceColor, 1.5)
	}

	// Speeds sit between the samples they were derived from.
	if len(speeds) > 0 && len(samples) > 1 {
		points := make([]fyne.Position, 0, len(speeds))
		for i, v := range speeds {
			if i+1 >= len(samples) {
				break
			}
			mid := samples[i].Timestamp.Add(samples[i+1].Timestamp.Sub(samples[i].Timestamp) / 2)
			points = append(points, p.pos(mid, v))
		}
		r.drawLine(points, speedColor, 2.5)
	}

	r.drawSpans(p, spans, all)

	if voltage > 0 {
		text := canvas.NewText(fmt.Sprintf("%.0f mV", voltage), voltageColor)
		text.TextSize = 11
		text.Move(fyne.NewPos(p.x+10, p.y+10))
		r.objects = append(r.objects, text)
	}
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(p plot) {
	const numHLines = 8
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.height/numHLines
		r.objects = append(r.objects, newLine(gridColor, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.width, y)))

		value := p.yMax - float64(i)*(p.yMax-p.yMin)/numHLines
		text := canvas.NewText(fmt.Sprintf("%.0f", value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	const numVLines = 10
	window := p.xMax.Sub(p.xMin)
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.width/numVLines
		r.objects = append(r.objects, newLine(gridColor, 1, fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.height)))

		offset := window * time.Duration(i) / numVLines
		text := canvas.NewText(fmt.Sprintf("%.1fs", offset.Seconds()), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.y+p.height+5))
		r.objects = append(r.objects, text)
	}
}

// drawSpans marks each motion span with start and end lines and its direction.
func (r *scopeRenderer) drawSpans(p plot, spans []telemetry.Span, samples []telemetry.Sample) {
	for _, sp := range spans {
		if sp.StartIndex < 0 || sp.EndIndex >= len(samples) {
			continue
		}

		start := p.pos(sp.StartTime, p.yMax)
		end := p.pos(sp.EndTime, p.yMax)
		bottom := p.y + p.height

		r.objects = append(r.objects,
			newLine(spanColor, 1, start, fyne.NewPos(start.X, bottom)),
			newLine(spanColor, 1, end, fyne.NewPos(end.X, bottom)),
		)

		text := canvas.NewText(directionLabel(sp.Direction), distanceColor)
		text.TextSize = 12
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos((start.X+end.X)/2-30, p.y+2))
		r.objects = append(r.objects, text)
	}
}

func (r *scopeRenderer) drawLine(points []fyne.Position, c color.Color, width float32) {
	for i := range len(points) - 1 {
		r.objects = append(r.objects, newLine(c, width, points[i], points[i+1]))
	}
}

func newLine(c color.Color, width float32, from, to fyne.Position) *canvas.Line {
	line := canvas.NewLine(c)
	line.Position1 = from
	line.Position2 = to
	line.StrokeWidth = width
	return line
}

func directionLabel(d motor.Direction) string {
	switch d {
	case motor.DirForward:
		return "↑"
	case motor.DirBackwards:
		return "↓"
	case motor.DirLeft:
		return "↺"
	case motor.DirRight:
		return "↻"
	}
	return ""
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}
