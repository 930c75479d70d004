package root_view

import (
	"context"
	"fmt"
	"html/template"
	"image"
	"time"

	"gridplayer/server/cell_views"
	"gridplayer/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// The window within which ele-updates are coalesced before being sent.
const batchRate = time.Millisecond * 20

// RootView is the main page's index.html, which is the container for all the
// view components, the wiring for their channels, etc.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
	// panel positions the control bar; the zero point leaves it in the page flow.
	panel image.Point
}

// NewRootView creates the main page and the views it contains, all fed from the
// snapshots the web surface presents. The views run until ctx is cancelled.
func NewRootView(
	ctx context.Context,
	snapshots <-chan *cell_views.Snapshot,
	panel image.Point,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[*cell_views.Snapshot, *cell_views.Board]().
		WithContext(ctx).
		WithModel(snapshots, cell_views.Convert).
		WithView(func(
			done <-chan struct{},
			boards <-chan *cell_views.Board) fastview.ViewComponent {
			return NewControlBar(done, boards)
		}).
		WithView(func(
			done <-chan struct{},
			boards <-chan *cell_views.Board) fastview.ViewComponent {
			return cell_views.NewGridView(done, boards)
		}).
		WithView(func(
			done <-chan struct{},
			boards <-chan *cell_views.Board) fastview.ViewComponent {
			return cell_views.NewValueSurface(done, boards)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return &RootView{
		views:   views,
		updates: fanIn(ctx.Done(), views),
		panel:   panel,
	}, nil
}

// Updates returns the main ele-update channel for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the main page's template, with websocket bootstrap code, and returns its name.
// It also sets up the func-map that the child components depend on. The page is executed
// with the *cell_views.Board of the current frame.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(cell_views.TemplateFuncs)

	viewTemplates := []string{}
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			return "", parseErr
		}
		viewTemplates = append(viewTemplates, tname)
	}

	// The control bar leads, the remaining views are laid out side by side.
	panelStyle := ""
	if rv.panel != (image.Point{}) {
		panelStyle = fmt.Sprintf("position:fixed; left:%dpx; top:%dpx; z-index:1;", rv.panel.X, rv.panel.Y)
	}
	body := `<div id="panel" style="padding:10px; background:white; ` + panelStyle + `">{{ template "` + viewTemplates[0] + `" . }}</div>`
	body += `<div style="display:flex; flex-wrap:wrap;">`
	for _, tname := range viewTemplates[1:] {
		body += `{{ template "` + tname + `" . }}`
	}
	body += `</div>`

	// The main template bootstraps the rest: sets up client websocket and updates, aggregates views.
	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<!--This is the client bootstrap code by which the server pushes new data to the view via websocket,
			and by which the page posts its input back.-->
			<script>
				const scheme = location.protocol === "https:" ? "wss://" : "ws://";
				const ws = new WebSocket(scheme + location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened");
				};

				// Listen for errors
				ws.onerror = function (event) {
					console.log("WebSocket error: ", event);
				};

				// When the server pushes view updates, find these eles and update them.
				// textContent and value are properties; everything else is an attribute.
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data);
					for (const update of items) {
						const ele = document.getElementById(update.EleId);
						if (!ele) {
							continue;
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent" || op.Key === "value") {
								ele[op.Key] = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value);
							}
						}
					}
				};

				// post sends an input message: a kind, plus a key or slider value.
				function post(msg) {
					if (ws.readyState === WebSocket.OPEN) {
						ws.send(JSON.stringify(msg));
					}
				}

				const keyNames = {"ArrowLeft": "left", "ArrowRight": "right"};
				document.addEventListener("keydown", function (event) {
					if (event.repeat && !(event.key in keyNames)) {
						return;
					}
					if (event.key in keyNames) {
						// The slider would otherwise also step when focused.
						event.preventDefault();
						post({kind: "key", key: keyNames[event.key]});
						return;
					}
					post({kind: "key", key: event.key});
				});
			</script>
		</head>
		<body>
		` + body + `
		</body></html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}

// fanIn aggregates the views' ele-update channels into a single, batched channel.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		batchRate)
}

// batchify coalesces updates, over-writing previously received values for the same ele-id,
// and sends at most one batch per rate. Receiving never waits on the consumer, so only the
// latest values for each element are ever sent and nothing is lost: pending updates are
// flushed as soon as the rate and the consumer allow, including after the source closes.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		pending := newBatch()
		ready := true
		ticks := channerics.NewTicker(done, rate)
		for source != nil || pending.Len() > 0 {
			// A nil channel disables its case: only offer a batch when there is one to send.
			var out chan<- []fastview.EleUpdate
			var batch []fastview.EleUpdate
			if ready && pending.Len() > 0 {
				out = output
				batch = pending.Values()
			}

			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					source = nil
					break
				}
				for _, update := range updates {
					pending.Put(update)
				}
			case <-ticks:
				ready = true
			case out <- batch:
				pending = newBatch()
				ready = false
			}
		}
	}()

	return output
}

// batch is the set of pending updates, keyed by ele-id, in first-received order.
type batch struct {
	order   []string
	updates map[string]fastview.EleUpdate
}

func newBatch() *batch {
	return &batch{updates: map[string]fastview.EleUpdate{}}
}

func (b *batch) Put(update fastview.EleUpdate) {
	if _, ok := b.updates[update.EleId]; !ok {
		b.order = append(b.order, update.EleId)
	}
	b.updates[update.EleId] = update
}

func (b *batch) Len() int {
	return len(b.order)
}

func (b *batch) Values() []fastview.EleUpdate {
	values := make([]fastview.EleUpdate, len(b.order))
	for i, id := range b.order {
		values[i] = b.updates[id]
	}
	return values
}
