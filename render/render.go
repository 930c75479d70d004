// render draws a single frame onto a Surface. It holds no state of its own: the same
// frame, endpoints, arrow map and outcome always produce the same sequence of draw calls.
package render

import (
	"image/color"

	"gridplayer/models"
)

// Surface is implemented by each host (image, browser, terminal). Coordinates are in grid
// units with cell (x, y) centered at (x, y), x rightward and y downward.
type Surface interface {
	// Clear discards everything drawn since the last Clear.
	Clear()
	DrawHeatmap(grid [][]float64)
	// DrawLabel centers text in the cell at the given position.
	DrawLabel(at models.Position, text string)
	// DrawArrow draws an arrow from tail (x, y) along (dx, dy).
	DrawArrow(x, y, dx, dy float64)
	DrawTraceLine(points []models.Position, c color.Color)
	SetMarkerCenter(x, y float64)
	SetSliderRange(min, max int)
	// SetSliderValue moves the slider without notifying its change handler.
	SetSliderValue(i int)
	// Present makes everything drawn since the last Clear visible.
	Present()
}

// ArrowScale shrinks a policy direction to fit inside its cell.
const ArrowScale = 0.25

var (
	SuccessColor color.Color = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	FailureColor color.Color = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// TraceColor returns green for a successful run and red otherwise.
func TraceColor(success bool) color.Color {
	if success {
		return SuccessColor
	}
	return FailureColor
}

// ArrowTail returns the tail and scaled vector of the arrow for the cell centered at (x, y).
// The tail sits scale*(dx, dy) behind the center so the arrowhead lands near the center.
func ArrowTail(x, y, dx, dy, scale float64) (tx, ty, sdx, sdy float64) {
	sdx, sdy = dx*scale, dy*scale
	return x - sdx, y - sdy, sdx, sdy
}

// Render draws the frame in layering order: heat map, start/goal labels, one policy arrow per
// cell except the goal, then the trace. The marker and slider belong to the caller.
func Render(
	s Surface,
	frame *models.Frame,
	start models.Position,
	goal models.Position,
	arrows models.ArrowMap,
	success bool,
) {
	s.Clear()
	s.DrawHeatmap(frame.Heatmap)
	s.DrawLabel(start, "S")
	s.DrawLabel(goal, "G")

	models.VisitCells(frame.Policy, func(pos models.Position, action int) {
		if pos == goal {
			return
		}
		dx, dy := arrows(action)
		s.DrawArrow(ArrowTail(float64(pos.X), float64(pos.Y), dx, dy, ArrowScale))
	})

	s.DrawTraceLine(frame.Trace, TraceColor(success))
}
