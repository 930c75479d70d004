package render

import (
	"fmt"
	"image/color"

	"gridplayer/models"
)

// Recorder is a Surface that records each call as a line of text, in order. It is useful
// for comparing renders and for hosts that want to log what a frame would draw.
type Recorder struct {
	Calls       []string
	SliderValue int
	SliderMin   int
	SliderMax   int
	Marker      [2]float64
	Presented   int

	// OnSliderValue, if set, is called from SetSliderValue. Tests use it to imitate hosts
	// whose widgets call back into the player when set.
	OnSliderValue func(i int)
}

var _ Surface = (*Recorder)(nil)

func (rec *Recorder) record(format string, args ...interface{}) {
	rec.Calls = append(rec.Calls, fmt.Sprintf(format, args...))
}

// Reset forgets all recorded calls.
func (rec *Recorder) Reset() {
	rec.Calls = nil
}

func (rec *Recorder) Clear() { rec.record("clear") }

func (rec *Recorder) DrawHeatmap(grid [][]float64) { rec.record("heatmap %v", grid) }

func (rec *Recorder) DrawLabel(at models.Position, text string) {
	rec.record("label %v %s", at, text)
}

func (rec *Recorder) DrawArrow(x, y, dx, dy float64) {
	rec.record("arrow %.3f %.3f %.3f %.3f", x, y, dx, dy)
}

func (rec *Recorder) DrawTraceLine(points []models.Position, c color.Color) {
	r, g, b, a := c.RGBA()
	rec.record("trace %v rgba(%d,%d,%d,%d)", points, r>>8, g>>8, b>>8, a>>8)
}

func (rec *Recorder) SetMarkerCenter(x, y float64) {
	rec.Marker = [2]float64{x, y}
	rec.record("marker %.1f %.1f", x, y)
}

func (rec *Recorder) SetSliderRange(min, max int) {
	rec.SliderMin, rec.SliderMax = min, max
	rec.record("slider range %d %d", min, max)
}

func (rec *Recorder) SetSliderValue(i int) {
	rec.SliderValue = i
	rec.record("slider %d", i)
	if rec.OnSliderValue != nil {
		rec.OnSliderValue(i)
	}
}

func (rec *Recorder) Present() {
	rec.Presented++
	rec.record("present")
}
