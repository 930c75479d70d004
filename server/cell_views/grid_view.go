package cell_views

import (
	"fmt"
	"html/template"
	"strconv"

	"gridplayer/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// GridView is the main board: heat-map cells, start and goal labels, policy arrows,
// the trace, and the agent marker.
type GridView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewGridView(
	done <-chan struct{},
	boards <-chan *Board,
) (gv *GridView) {
	gv = &GridView{id: "grid"}
	gv.updates = channerics.Convert(done, boards, gv.onUpdate)
	return
}

func (gv *GridView) Updates() <-chan []fastview.EleUpdate {
	return gv.updates
}

// Returns the set of view updates needed for the view to reflect the board.
func (gv *GridView) onUpdate(board *Board) (ops []fastview.EleUpdate) {
	for _, row := range board.Cells {
		for _, cell := range row {
			ops = append(ops,
				fastview.EleUpdate{
					EleId: fmt.Sprintf("%d-%d-cell", cell.X, cell.Y),
					Ops: []fastview.Op{
						{Key: "fill", Value: cell.Fill},
					},
				},
				fastview.EleUpdate{
					EleId: fmt.Sprintf("%d-%d-label", cell.X, cell.Y),
					Ops: []fastview.Op{
						{Key: "textContent", Value: cell.Label},
					},
				},
				fastview.EleUpdate{
					EleId: fmt.Sprintf("%d-%d-policy-arrow", cell.X, cell.Y),
					Ops: []fastview.Op{
						{Key: "transform", Value: cell.ArrowTransform()},
					},
				})
		}
	}

	ops = append(ops,
		fastview.EleUpdate{
			EleId: gv.id + "-trace",
			Ops: []fastview.Op{
				{Key: "points", Value: board.TracePoints},
				{Key: "stroke", Value: board.TraceStroke},
			},
		},
		fastview.EleUpdate{
			EleId: gv.id + "-marker",
			Ops: []fastview.Op{
				{Key: "cx", Value: strconv.Itoa(board.MarkerX)},
				{Key: "cy", Value: strconv.Itoa(board.MarkerY)},
			},
		})
	return
}

// Parse defines the grid's svg, drawn from the board passed to the template.
func (gv *GridView) Parse(
	t *template.Template,
) (name string, err error) {
	name = gv.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div id="` + gv.id + `-view" style="padding:20px;">
			{{ $half := ` + strconv.Itoa(CellDim/2) + ` }}
			<svg id="` + gv.id + `" xmlns='http://www.w3.org/2000/svg'
				width="{{ add .Width 1 }}px"
				height="{{ add .Height 1 }}px"
				style="shape-rendering: crispEdges;">
				{{ range $row := .Cells }}
					{{ range $cell := $row }}
					<g>
						<rect id="{{$cell.X}}-{{$cell.Y}}-cell"
							x="{{ $cell.PX }}"
							y="{{ $cell.PY }}"
							width="` + strconv.Itoa(CellDim) + `"
							height="` + strconv.Itoa(CellDim) + `"
							fill="{{ $cell.Fill }}"
							stroke="black"
							stroke-width="1"/>
						<text id="{{$cell.X}}-{{$cell.Y}}-label"
							x="{{ add $cell.PX 4 }}"
							y="{{ add $cell.PY 4 }}"
							fill="white" font-weight="bold"
							dominant-baseline="hanging" text-anchor="start"
							>{{ $cell.Label }}</text>
						<g transform="translate({{ $cell.CX }}, {{ $cell.CY }})">
							<text id="{{$cell.X}}-{{$cell.Y}}-policy-arrow"
							fill="white" font-size="24"
							dominant-baseline="central" text-anchor="middle"
							transform="{{ $cell.ArrowTransform }}"
							>&uarr;</text>
						</g>
					</g>
					{{ end }}
				{{ end }}
				<polyline id="` + gv.id + `-trace"
					points="{{ .TracePoints }}"
					stroke="{{ .TraceStroke }}" stroke-width="3" fill="none"/>
				<circle id="` + gv.id + `-marker"
					cx="{{ .MarkerX }}" cy="{{ .MarkerY }}" r="{{ div $half 3 }}"
					fill="red" stroke="white" stroke-width="2"/>
			</svg>
		</div>
		{{ end }}`)
	return
}

// TemplateFuncs are the integer helpers the views' templates use. Pages parsing the views
// must add them to the parent template.
var TemplateFuncs = template.FuncMap{
	"add":  func(i, j int) int { return i + j },
	"sub":  func(i, j int) int { return i - j },
	"mult": func(i, j int) int { return i * j },
	"div":  func(i, j int) int { return i / j },
}
