package cell_views

import (
	"image/color"
	"sync"

	"gridplayer/models"
	"gridplayer/render"
)

// Arrow is a policy arrow as drawn: its tail and its vector, in grid units.
type Arrow struct {
	X, Y, DX, DY float64
}

// Snapshot is everything drawn on a WebSurface between a Clear and a Present.
// Snapshots are never modified once presented.
type Snapshot struct {
	Heatmap          [][]float64
	Labels           map[models.Position]string
	Arrows           []Arrow
	Trace            []models.Position
	TraceColor       color.Color
	MarkerX, MarkerY float64
	SliderMin        int
	SliderMax        int
	SliderValue      int
}

// WebSurface is the browser host's render.Surface. Each Present publishes a snapshot;
// publication never blocks the player, and a snapshot not yet consumed is replaced by
// the newer one, since each snapshot fully specifies the page.
type WebSurface struct {
	mu        sync.Mutex
	pending   Snapshot
	last      *Snapshot
	snapshots chan *Snapshot
}

var _ render.Surface = (*WebSurface)(nil)

func NewWebSurface() *WebSurface {
	return &WebSurface{
		snapshots: make(chan *Snapshot, 1),
	}
}

// Snapshots returns the channel of presented snapshots.
func (ws *WebSurface) Snapshots() <-chan *Snapshot {
	return ws.snapshots
}

// Last returns the most recently presented snapshot, or nil if there is none.
func (ws *WebSurface) Last() *Snapshot {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.last
}

func (ws *WebSurface) Clear() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.pending = Snapshot{
		SliderMin:   ws.pending.SliderMin,
		SliderMax:   ws.pending.SliderMax,
		SliderValue: ws.pending.SliderValue,
		MarkerX:     ws.pending.MarkerX,
		MarkerY:     ws.pending.MarkerY,
	}
}

func (ws *WebSurface) DrawHeatmap(grid [][]float64) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.pending.Heatmap = grid
}

func (ws *WebSurface) DrawLabel(at models.Position, text string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.pending.Labels == nil {
		ws.pending.Labels = map[models.Position]string{}
	}
	ws.pending.Labels[at] = text
}

func (ws *WebSurface) DrawArrow(x, y, dx, dy float64) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.pending.Arrows = append(ws.pending.Arrows, Arrow{X: x, Y: y, DX: dx, DY: dy})
}

func (ws *WebSurface) DrawTraceLine(points []models.Position, c color.Color) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.pending.Trace = append([]models.Position(nil), points...)
	ws.pending.TraceColor = c
}

func (ws *WebSurface) SetMarkerCenter(x, y float64) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.pending.MarkerX, ws.pending.MarkerY = x, y
}

func (ws *WebSurface) SetSliderRange(min, max int) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.pending.SliderMin, ws.pending.SliderMax = min, max
}

// SetSliderValue only records the value; the page's slider is moved by the next publication,
// which does not fire the page's input handler.
func (ws *WebSurface) SetSliderValue(i int) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.pending.SliderValue = i
}

func (ws *WebSurface) Present() {
	ws.mu.Lock()
	snap := ws.pending
	snap.Arrows = append([]Arrow(nil), ws.pending.Arrows...)
	labels := make(map[models.Position]string, len(ws.pending.Labels))
	for pos, text := range ws.pending.Labels {
		labels[pos] = text
	}
	snap.Labels = labels
	ws.last = &snap
	ws.mu.Unlock()

	// Latest wins: drop an unconsumed snapshot in favor of this one.
	select {
	case <-ws.snapshots:
	default:
	}
	select {
	case ws.snapshots <- &snap:
	default:
	}
}
