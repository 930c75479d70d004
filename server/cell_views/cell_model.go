// cell_views contains views derived from the Board view-model, and the surface
// producing the snapshots from which boards are converted.
package cell_views

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"gridplayer/models"
	"gridplayer/render"
)

// CellDim is the height and width of a grid cell in pixels.
const CellDim = 60

// Cell is a grid cell with everything a view needs to draw it, oriented in the svg
// coordinate system such that [0][0] is the cell printed at top left. As a rule of thumb,
// Cell fields should be immediately usable as view parameters.
type Cell struct {
	X, Y int
	// PX, PY is the top left corner, CX, CY the center, in pixels.
	PX, PY, CX, CY int
	Value          float64
	Fill           string
	// Label is "S", "G" or empty.
	Label               string
	PolicyArrowRotation int
	// PolicyArrowScale is the length of the policy direction; zero hides the arrow.
	PolicyArrowScale float64
}

// ArrowTransform is the svg transform of the cell's upward arrow glyph.
func (cell Cell) ArrowTransform() string {
	return fmt.Sprintf("rotate(%d) scale(%.2f)", cell.PolicyArrowRotation, cell.PolicyArrowScale)
}

// Board is the view-model of one presented frame.
type Board struct {
	// Cells is row-major: Cells[y][x].
	Cells         [][]Cell
	Width, Height int
	TracePoints   string
	TraceStroke   string
	MarkerX       int
	MarkerY       int
	Index         int
	First, Last   int
	// Min and Max are the extent of the heat map.
	Min, Max float64
}

// Convert transforms a surface snapshot into a Board. Arrows are assigned to the cell
// their head lands in, which is the cell they were drawn for.
func Convert(snap *Snapshot) *Board {
	height := len(snap.Heatmap)
	width := 0
	if height > 0 {
		width = len(snap.Heatmap[0])
	}

	board := &Board{
		Cells:       make([][]Cell, height),
		Width:       width * CellDim,
		Height:      height * CellDim,
		TracePoints: tracePoints(snap.Trace),
		TraceStroke: getStroke(snap.TraceColor),
		MarkerX:     toPixel(snap.MarkerX),
		MarkerY:     toPixel(snap.MarkerY),
		Index:       snap.SliderValue,
		First:       snap.SliderMin,
		Last:        snap.SliderMax,
	}
	board.Min, board.Max = models.Extent(snap.Heatmap)

	for row := range board.Cells {
		board.Cells[row] = make([]Cell, width)
	}
	models.VisitCells(snap.Heatmap, func(pos models.Position, val float64) {
		board.Cells[pos.Y][pos.X] = Cell{
			X:     pos.X,
			Y:     pos.Y,
			PX:    pos.X * CellDim,
			PY:    pos.Y * CellDim,
			CX:    toPixel(float64(pos.X)),
			CY:    toPixel(float64(pos.Y)),
			Value: val,
			Fill:  getRGBFill(val, board.Min, board.Max),
			Label: snap.Labels[pos],
		}
	})

	for _, arrow := range snap.Arrows {
		head := models.Position{
			X: int(math.Round(arrow.X + arrow.DX)),
			Y: int(math.Round(arrow.Y + arrow.DY)),
		}
		if !head.IsInside(height, width) {
			continue
		}
		cell := &board.Cells[head.Y][head.X]
		cell.PolicyArrowRotation = getDegrees(arrow.DX, arrow.DY)
		cell.PolicyArrowScale = getScale(arrow.DX, arrow.DY)
	}
	return board
}

// toPixel maps a grid coordinate, cell centers being integral, to its svg pixel.
func toPixel(v float64) int {
	return int(math.Round(v*CellDim)) + CellDim/2
}

func tracePoints(trace []models.Position) string {
	points := make([]string, len(trace))
	for i, p := range trace {
		points[i] = fmt.Sprintf("%d,%d", toPixel(float64(p.X)), toPixel(float64(p.Y)))
	}
	return strings.Join(points, " ")
}

// getScale returns the length of the drawn arrow relative to a unit policy direction.
func getScale(dx, dy float64) float64 {
	return math.Hypot(dx, dy) / render.ArrowScale
}

// getDegrees converts the dx and dy components in grid space (dy downward) into the degrees passed
// to svg's rotate() transform function for an upward arrow rune. Degrees are wrt vertical.
func getDegrees(dx, dy float64) int {
	if dx == 0 && dy == 0 {
		return 0
	}
	rad := math.Atan2(-dy, dx)
	deg := rad * 180 / math.Pi
	// deg is correct in cartesian space, but must be subtracted from 90 for rotation in svg coors
	return int(math.Round(90 - deg))
}

// Returns an RGB value defined by where val lies along the number line between minVal and maxVal.
// Hot cells are red and cold cells blue.
func getRGBFill(val, minVal, maxVal float64) string {
	redPct := 0
	if maxVal > minVal {
		redPct = int(math.Round(100 * (val - minVal) / (maxVal - minVal)))
	}
	return fmt.Sprintf("rgb(%d%%,0%%,%d%%)", redPct, 100-redPct)
}

func getStroke(c color.Color) string {
	if c == nil {
		return "none"
	}
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("rgb(%d,%d,%d)", r>>8, g>>8, b>>8)
}
