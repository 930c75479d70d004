package root_view

import (
	"fmt"
	"html/template"
	"strconv"

	"gridplayer/server/cell_views"
	"gridplayer/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// ControlBar holds the step and play buttons, the frame slider, the frame counter,
// and a link to the current frame as an image.
type ControlBar struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewControlBar(
	done <-chan struct{},
	boards <-chan *cell_views.Board,
) (cb *ControlBar) {
	cb = &ControlBar{id: "controls"}
	cb.updates = channerics.Convert(done, boards, cb.onUpdate)
	return
}

func (cb *ControlBar) Updates() <-chan []fastview.EleUpdate {
	return cb.updates
}

func frameLabel(board *cell_views.Board) string {
	return fmt.Sprintf("frame %d / %d", board.Index, board.Last)
}

func framePath(board *cell_views.Board) string {
	return fmt.Sprintf("/frames/%d.png", board.Index)
}

// The slider is moved by setting its value property, which does not fire its input
// handler, so these updates are never echoed back as slider events.
func (cb *ControlBar) onUpdate(board *cell_views.Board) []fastview.EleUpdate {
	return []fastview.EleUpdate{
		{
			EleId: cb.id + "-slider",
			Ops: []fastview.Op{
				{Key: "min", Value: strconv.Itoa(board.First)},
				{Key: "max", Value: strconv.Itoa(board.Last)},
				{Key: "value", Value: strconv.Itoa(board.Index)},
			},
		},
		{
			EleId: cb.id + "-label",
			Ops: []fastview.Op{
				{Key: "textContent", Value: frameLabel(board)},
			},
		},
		{
			EleId: cb.id + "-png",
			Ops: []fastview.Op{
				{Key: "href", Value: framePath(board)},
			},
		},
	}
}

// Parse defines the control bar. Its buttons and slider post input messages through
// the page's post() function.
func (cb *ControlBar) Parse(
	t *template.Template,
) (name string, err error) {
	name = cb.id
	addedMap := template.FuncMap{
		"frameLabel": frameLabel,
		"framePath":  framePath,
	}
	_, err = t.Funcs(addedMap).Parse(
		`{{ define "` + name + `" }}
		<div id="` + cb.id + `" style="display:flex; gap:8px; align-items:center;">
			<button id="` + cb.id + `-step-backward" title="step backward" onclick="post({kind: 'step_backward'})">&#x23EE;</button>
			<button id="` + cb.id + `-play-backward" title="play backward" onclick="post({kind: 'play_backward'})">&#x25C0;</button>
			<button id="` + cb.id + `-stop" title="stop" onclick="post({kind: 'stop'})">&#x23F9;</button>
			<button id="` + cb.id + `-play-forward" title="play forward" onclick="post({kind: 'play_forward'})">&#x25B6;</button>
			<button id="` + cb.id + `-step-forward" title="step forward" onclick="post({kind: 'step_forward'})">&#x23ED;</button>
			<input id="` + cb.id + `-slider" type="range" step="1"
				min="{{ .First }}" max="{{ .Last }}" value="{{ .Index }}"
				oninput="post({kind: 'slider', value: parseInt(this.value, 10)})"/>
			<span id="` + cb.id + `-label">{{ frameLabel . }}</span>
			<a id="` + cb.id + `-png" href="{{ framePath . }}" target="_blank">png</a>
		</div>
		{{ end }}`)
	return
}
