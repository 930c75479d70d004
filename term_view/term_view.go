// term_view hosts the player in a terminal. Each grid cell is a few columns of the screen
// whose background is the heat value; the policy arrow, the start/goal labels and the marker
// are its glyph. A control bar with the frame slider sits under the grid.
package term_view

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"gridplayer/models"
	"gridplayer/player"
	"gridplayer/render"

	"github.com/gdamore/tcell/v2"
)

const (
	// Screen columns per grid cell; the glyph is centered.
	cellWidth = 3
	// Columns of the slider track when the grid is narrower.
	minTrackWidth = 20
	markerGlyph   = '@'
	helpText      = "←/→ [ ] step  p/P play  space stop  q quit"
)

// Surface is the terminal host's render.Surface. Draw calls are collected between Clear
// and Present; Present repaints the whole screen from them.
type Surface struct {
	mu     sync.Mutex
	screen tcell.Screen
	// panel offsets the control bar from its place under the grid, in cells.
	panel image.Point

	heatmap    [][]float64
	labels     map[models.Position]string
	glyphs     map[models.Position]rune
	trace      map[models.Position]bool
	traceColor tcell.Color
	marker     models.Position

	sliderMin, sliderMax, sliderValue int
	status                            string
}

var _ render.Surface = (*Surface)(nil)

func NewSurface(screen tcell.Screen, panel image.Point) *Surface {
	return &Surface{
		screen: screen,
		panel:  panel,
	}
}

func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heatmap = nil
	s.labels = map[models.Position]string{}
	s.glyphs = map[models.Position]rune{}
	s.trace = map[models.Position]bool{}
}

func (s *Surface) DrawHeatmap(grid [][]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heatmap = grid
}

func (s *Surface) DrawLabel(at models.Position, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[at] = text
}

// DrawArrow shows the arrow as a glyph in the cell holding its head.
func (s *Surface) DrawArrow(x, y, dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	head := models.Position{
		X: int(math.Round(x + dx)),
		Y: int(math.Round(y + dy)),
	}
	s.glyphs[head] = models.ArrowGlyph(dx, dy)
}

// DrawTraceLine colors the glyphs of the cells the trace passes through.
func (s *Surface) DrawTraceLine(points []models.Position, c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pt := range points {
		s.trace[pt] = true
	}
	s.traceColor = toTcell(c)
}

func (s *Surface) SetMarkerCenter(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = models.Position{X: int(math.Round(x)), Y: int(math.Round(y))}
}

func (s *Surface) SetSliderRange(min, max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sliderMin, s.sliderMax = min, max
}

// SetSliderValue moves the thumb. The slider only reports changes from mouse clicks,
// so this never echoes back to the player.
func (s *Surface) SetSliderValue(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sliderValue = i
}

func (s *Surface) Present() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paint()
}

// ShowState reports the player's state in the control bar. It can be passed to
// player.WithStateHook.
func (s *Surface) ShowState(state player.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = "stopped"
	if state.Running {
		s.status = "playing " + state.Direction.String()
	}
	s.paint()
}

// SliderValueAt returns the slider value under screen cell (x, y), if the cell is on the track.
func (s *Surface) SliderValueAt(x, y int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	left, row, width := s.track()
	if y != row || x < left || x >= left+width {
		return 0, false
	}
	span := s.sliderMax - s.sliderMin
	if span <= 0 || width == 1 {
		return s.sliderMin, true
	}
	return s.sliderMin + int(math.Round(float64((x-left)*span)/float64(width-1))), true
}

func (s *Surface) dims() (height, width int) {
	height = len(s.heatmap)
	if height > 0 {
		width = len(s.heatmap[0])
	}
	return
}

// track returns the slider's leftmost column, its row and its width in columns.
func (s *Surface) track() (left, row, width int) {
	height, gridWidth := s.dims()
	width = gridWidth * cellWidth
	if width < minTrackWidth {
		width = minTrackWidth
	}
	return s.panel.X + 1, height + 1 + s.panel.Y, width
}

// paint redraws the screen from the collected draw calls. Callers hold mu.
func (s *Surface) paint() {
	s.screen.Clear()

	lo, hi := models.Extent(s.heatmap)
	models.VisitCells(s.heatmap, func(pos models.Position, val float64) {
		style := tcell.StyleDefault.
			Background(heatColor(val, lo, hi)).
			Foreground(tcell.ColorWhite)
		glyph, ok := s.glyphs[pos]
		if !ok {
			glyph = ' '
		}
		if s.trace[pos] {
			style = style.Foreground(s.traceColor).Bold(true)
		}
		if label, ok := s.labels[pos]; ok && label != "" {
			glyph = []rune(label)[0]
			style = style.Bold(true)
		}
		if pos == s.marker {
			glyph = markerGlyph
			style = style.Foreground(tcell.ColorYellow).Bold(true)
		}

		x := pos.X * cellWidth
		for i := 0; i < cellWidth; i++ {
			s.screen.SetContent(x+i, pos.Y, ' ', nil, style)
		}
		s.screen.SetContent(x+cellWidth/2, pos.Y, glyph, nil, style)
	})

	s.paintControls()
	s.screen.Show()
}

// paintControls draws the slider track and the frame counter, with help beneath.
func (s *Surface) paintControls() {
	left, row, width := s.track()
	plain := tcell.StyleDefault

	s.screen.SetContent(left-1, row, '[', nil, plain)
	thumb := 0
	if span := s.sliderMax - s.sliderMin; span > 0 {
		thumb = int(math.Round(float64((s.sliderValue-s.sliderMin)*(width-1)) / float64(span)))
	}
	for i := 0; i < width; i++ {
		glyph := '─'
		if i == thumb {
			glyph = '█'
		}
		s.screen.SetContent(left+i, row, glyph, nil, plain)
	}
	s.screen.SetContent(left+width, row, ']', nil, plain)

	label := fmt.Sprintf(" frame %d / %d", s.sliderValue, s.sliderMax)
	if s.status != "" {
		label += "  " + s.status
	}
	drawText(s.screen, left+width+1, row, label, plain)
	drawText(s.screen, left-1, row+1, helpText, plain.Dim(true))
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

// heatColor maps a value onto blue (low) through red (high) within [lo, hi].
// A flat heat map is all blue.
func heatColor(val, lo, hi float64) tcell.Color {
	t := 0.0
	if hi > lo {
		t = (val - lo) / (hi - lo)
	}
	return tcell.NewRGBColor(int32(math.Round(255*t)), 0, int32(math.Round(255*(1-t))))
}

func toTcell(c color.Color) tcell.Color {
	if c == nil {
		return tcell.ColorDefault
	}
	r, g, b, _ := c.RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
}
