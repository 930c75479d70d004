package cell_views

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"gridplayer/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// ValueSurface shows the heat map as a surface over the grid, drawn in isometric projection.
type ValueSurface struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewValueSurface(
	done <-chan struct{},
	boards <-chan *Board,
) (vs *ValueSurface) {
	vs = &ValueSurface{id: "valuesurface"}
	vs.updates = channerics.Convert(done, boards, vs.onUpdate)
	return
}

func (vs *ValueSurface) Updates() <-chan []fastview.EleUpdate {
	return vs.updates
}

const (
	// Pixels per x or y unit.
	xyscale float64 = CellDim
	// Pixels spanned by the heat map's extent, from its min to its max.
	zscale float64 = CellDim * 1.5
	// Elevation of the x and y axes above the horizontal.
	axisAngle = math.Pi / 6
)

var sinAxis, cosAxis = math.Sin(axisAngle), math.Cos(axisAngle)

type vertex struct {
	X, Y float64
}

// isometric projects grid point (x, y) at height z, normalized to [0,1], onto the page.
func isometric(x, y, z float64) vertex {
	return vertex{
		X: (x - y) * cosAxis * xyscale,
		Y: (x+y)*sinAxis*xyscale - z*zscale,
	}
}

// facet is the quadrilateral spanned by the projections of four adjacent cells.
type facet struct {
	Id      string
	Fill    string
	corners [4]vertex
}

// Points formats the corners for the svg-polygon 'points' attribute, truncated to whole pixels.
func (f *facet) Points() string {
	parts := make([]string, len(f.corners))
	for i, v := range f.corners {
		parts[i] = fmt.Sprintf("%d,%d", int(v.X), int(v.Y))
	}
	return strings.Join(parts, " ")
}

// bounds is the bounding box of the vertices seen so far.
type bounds struct {
	min, max vertex
}

func emptyBounds() bounds {
	return bounds{
		min: vertex{X: math.MaxFloat64, Y: math.MaxFloat64},
		max: vertex{X: -math.MaxFloat64, Y: -math.MaxFloat64},
	}
}

func (b *bounds) extend(v vertex) {
	b.min.X, b.min.Y = math.Min(b.min.X, v.X), math.Min(b.min.Y, v.Y)
	b.max.X, b.max.Y = math.Max(b.max.X, v.X), math.Max(b.max.Y, v.Y)
}

// facets returns the surface in painting order, back to front, and the group transform
// fitting it into the view.
func (vs *ValueSurface) facets(board *Board) (facets []*facet, transform string) {
	norm := func(v float64) float64 {
		if board.Max <= board.Min {
			return 0
		}
		return (v - board.Min) / (board.Max - board.Min)
	}

	box := emptyBounds()
	cells := board.Cells
	for ri := 0; ri+1 < len(cells); ri++ {
		for ci := 0; ci+1 < len(cells[ri]); ci++ {
			// Bottom left, top left, top right, bottom right.
			quad := [4]Cell{cells[ri+1][ci], cells[ri][ci], cells[ri][ci+1], cells[ri+1][ci+1]}
			f := &facet{Id: fmt.Sprintf("%d-%d-value-polygon", ci, ri)}
			sum := 0.0
			for i, cell := range quad {
				f.corners[i] = isometric(float64(cell.X), float64(cell.Y), norm(cell.Value))
				box.extend(f.corners[i])
				sum += cell.Value
			}
			// Shaded by the mean of its corners.
			f.Fill = getRGBFill(sum/float64(len(quad)), board.Min, board.Max)
			facets = append(facets, f)
		}
	}
	if len(facets) == 0 {
		return nil, "translate(0 0)"
	}

	// Shift the surface into view, shrinking it to the grid's footprint if it is larger.
	scale := math.Min(
		math.Min(
			float64(board.Width)/(box.max.X-box.min.X),
			float64(board.Height+int(zscale))/(box.max.Y-box.min.Y),
		),
		1.0,
	)
	transform = fmt.Sprintf("scale(%f) translate(%d %d)", scale, int(-box.min.X), int(-box.min.Y))
	return
}

// onUpdate reshapes and recolors every facet, then refits the group.
func (vs *ValueSurface) onUpdate(board *Board) (ops []fastview.EleUpdate) {
	facets, transform := vs.facets(board)
	for _, f := range facets {
		ops = append(ops, fastview.EleUpdate{
			EleId: f.Id,
			Ops: []fastview.Op{
				{Key: "points", Value: f.Points()},
				{Key: "fill", Value: f.Fill},
			},
		})
	}

	ops = append(ops, fastview.EleUpdate{
		EleId: vs.id + "-group",
		Ops: []fastview.Op{
			{
				Key:   "transform",
				Value: transform,
			},
		},
	})
	return
}

// Parse defines the svg of the surface's facets. Later facets hide earlier ones, which
// is what makes the polygons read as a surface.
func (vs *ValueSurface) Parse(t *template.Template) (name string, err error) {
	name = vs.id
	funcs := template.FuncMap{
		"surfaceFacets": func(board *Board) []*facet {
			facets, _ := vs.facets(board)
			return facets
		},
		"surfaceTransform": func(board *Board) string {
			_, transform := vs.facets(board)
			return transform
		},
	}
	_, err = t.Funcs(funcs).Parse(
		`{{ define "` + name + `" }}
		<div style="padding:20px;">
			<svg id="` + vs.id + `" xmlns='http://www.w3.org/2000/svg'
				width="{{ add .Width 1 }}px"
				height="{{ add .Height ` + fmt.Sprintf("%d", int(zscale)) + ` }}px"
				style="stroke: lightgrey; stroke-opacity: 1.0; stroke-width: 1;">
				<g id="` + vs.id + `-group" transform="{{ surfaceTransform . }}">
				{{ range $facet := surfaceFacets . }}
					<polygon id="{{ $facet.Id }}"
						fill="{{ $facet.Fill }}" fill-opacity="1.0"
						points="{{ $facet.Points }}" />
				{{ end }}
				</g>
			</svg>
		</div>
		{{ end }}`)
	return
}
