// plot_view renders frames to images with gonum/plot: a color-mapped heat map with a
// colorbar legend, S/G labels, policy arrows, the trace, and the agent marker.
package plot_view

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"gridplayer/models"
	"gridplayer/render"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	// Number of discrete colors in the heat map palette.
	paletteSize = 64
	labelSize   = 15
	markerSize  = 6
)

// Surface accumulates what the renderer draws and lays it out as a plot on demand.
// Nothing is retained across Clear, so the same frame always yields the same image.
type Surface struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	// OnPresent, if set, is called each time the player presents a finished frame.
	OnPresent func(*Surface)

	grid       [][]float64
	labels     plotter.XYLabels
	arrows     []arrow
	trace      plotter.XYs
	traceColor color.Color
	marker     *plotter.XY

	sliderMin, sliderMax, slider int
}

var _ render.Surface = (*Surface)(nil)

type arrow struct {
	x, y, dx, dy float64
}

// NewSurface returns a surface producing width x height images.
func NewSurface(title string, width, height vg.Length) *Surface {
	return &Surface{
		Title:  title,
		Width:  width,
		Height: height,
	}
}

func (s *Surface) Clear() {
	s.grid = nil
	s.labels = plotter.XYLabels{}
	s.arrows = nil
	s.trace = nil
	s.traceColor = nil
	s.marker = nil
}

func (s *Surface) DrawHeatmap(grid [][]float64) {
	s.grid = grid
}

func (s *Surface) DrawLabel(at models.Position, text string) {
	s.labels.XYs = append(s.labels.XYs, plotter.XY{X: float64(at.X), Y: float64(at.Y)})
	s.labels.Labels = append(s.labels.Labels, text)
}

func (s *Surface) DrawArrow(x, y, dx, dy float64) {
	s.arrows = append(s.arrows, arrow{x: x, y: y, dx: dx, dy: dy})
}

func (s *Surface) DrawTraceLine(points []models.Position, c color.Color) {
	s.trace = make(plotter.XYs, len(points))
	for i, p := range points {
		s.trace[i] = plotter.XY{X: float64(p.X), Y: float64(p.Y)}
	}
	s.traceColor = c
}

func (s *Surface) SetMarkerCenter(x, y float64) {
	s.marker = &plotter.XY{X: x, Y: y}
}

func (s *Surface) SetSliderRange(min, max int) {
	s.sliderMin, s.sliderMax = min, max
}

func (s *Surface) SetSliderValue(i int) {
	s.slider = i
}

func (s *Surface) Present() {
	if s.OnPresent != nil {
		s.OnPresent(s)
	}
}

// Image draws the current frame and returns it.
func (s *Surface) Image() (image.Image, error) {
	canvas, err := s.draw()
	if err != nil {
		return nil, err
	}
	return canvas.Image(), nil
}

// WritePNG draws the current frame as a PNG.
func (s *Surface) WritePNG(w io.Writer) error {
	canvas, err := s.draw()
	if err != nil {
		return err
	}
	_, err = vgimg.PngCanvas{Canvas: canvas}.WriteTo(w)
	return err
}

// draw lays out the heat-map plot and, to its right, a colorbar plot sharing its color map.
func (s *Surface) draw() (*vgimg.Canvas, error) {
	if len(s.grid) == 0 {
		return nil, fmt.Errorf("nothing to draw: no heat map")
	}

	colors := s.colorMap()
	frame, err := s.framePlot(colors)
	if err != nil {
		return nil, err
	}

	legend := plot.New()
	legend.Add(&plotter.ColorBar{ColorMap: colors, Vertical: true})
	legend.HideX()
	legend.Y.Padding = 0
	legend.Title.Text = "value"

	canvas := vgimg.New(s.Width, s.Height)
	dc := draw.New(canvas)
	legendWidth := s.Width / 8
	frame.Draw(draw.Crop(dc, 0, -legendWidth, 0, 0))
	legend.Draw(draw.Crop(dc, s.Width-legendWidth, 0, 0, 0))
	return canvas, nil
}

func (s *Surface) colorMap() palette.ColorMap {
	colors := moreland.ExtendedBlackBody()
	min, max := models.Extent(s.grid)
	if max <= min {
		max = min + 1
	}
	colors.SetMax(max)
	colors.SetMin(min)
	return colors
}

func (s *Surface) framePlot(colors palette.ColorMap) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s frame %d/%d", s.Title, s.slider, s.sliderMax)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	// Row 0 is drawn on top, as in the grids themselves.
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	heat := plotter.NewHeatMap(heatGrid(s.grid), colors.Palette(paletteSize))
	heat.Min, heat.Max = colors.Min(), colors.Max()
	p.Add(heat)

	if len(s.labels.Labels) > 0 {
		labels, err := plotter.NewLabels(s.labels)
		if err != nil {
			return nil, err
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].XAlign = draw.XCenter
			labels.TextStyle[i].YAlign = draw.YCenter
			labels.TextStyle[i].Font.Size = vg.Points(labelSize)
		}
		p.Add(labels)
	}

	p.Add(&arrowPlotter{
		arrows: s.arrows,
		style: draw.LineStyle{
			Color: color.Black,
			Width: vg.Points(1),
		},
		head: vg.Points(5),
	})

	if len(s.trace) > 1 {
		line, err := plotter.NewLine(s.trace)
		if err != nil {
			return nil, err
		}
		line.Color = s.traceColor
		line.Width = vg.Points(2)
		p.Add(line)
	}

	if s.marker != nil {
		marker, err := plotter.NewScatter(plotter.XYs{*s.marker})
		if err != nil {
			return nil, err
		}
		marker.GlyphStyle.Shape = draw.CircleGlyph{}
		marker.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
		marker.GlyphStyle.Radius = vg.Points(markerSize)
		p.Add(marker)
	}

	return p, nil
}

// heatGrid adapts a row-major grid to plotter.GridXYZ with cell (col, row) centered at (col, row).
type heatGrid [][]float64

func (g heatGrid) Dims() (c, r int) { return len(g[0]), len(g) }
func (g heatGrid) Z(c, r int) float64 { return g[r][c] }
func (g heatGrid) X(c int) float64    { return float64(c) }
func (g heatGrid) Y(r int) float64    { return float64(r) }

// arrowPlotter draws policy arrows as a shaft with a filled triangular head.
type arrowPlotter struct {
	arrows []arrow
	style  draw.LineStyle
	head   vg.Length
}

func (ap *arrowPlotter) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, a := range ap.arrows {
		x0, y0 := trX(a.x), trY(a.y)
		x1, y1 := trX(a.x+a.dx), trY(a.y+a.dy)
		if x0 == x1 && y0 == y1 {
			continue
		}
		c.StrokeLine2(ap.style, x0, y0, x1, y1)

		ang := math.Atan2(float64(y1-y0), float64(x1-x0))
		left := ang + 5*math.Pi/6
		right := ang - 5*math.Pi/6
		c.FillPolygon(ap.style.Color, []vg.Point{
			{X: x1, Y: y1},
			{X: x1 + ap.head*vg.Length(math.Cos(left)), Y: y1 + ap.head*vg.Length(math.Sin(left))},
			{X: x1 + ap.head*vg.Length(math.Cos(right)), Y: y1 + ap.head*vg.Length(math.Sin(right))},
		})
	}
}
