package root_view

import (
	"context"
	"html/template"
	"image"
	"strconv"
	"strings"
	"testing"
	"time"

	"gridplayer/models"
	"gridplayer/render"
	"gridplayer/server/cell_views"
	"gridplayer/server/fastview"

	. "github.com/smartystreets/goconvey/convey"
)

func update(id, value string) fastview.EleUpdate {
	return fastview.EleUpdate{EleId: id, Ops: []fastview.Op{{Key: "textContent", Value: value}}}
}

// drain collects batches until the output closes.
func drain(t *testing.T, output <-chan []fastview.EleUpdate) (batches [][]fastview.EleUpdate) {
	timeout := time.After(5 * time.Second)
	for {
		select {
		case batch, ok := <-output:
			if !ok {
				return
			}
			batches = append(batches, batch)
		case <-timeout:
			t.Fatal("timed out draining batches")
			return
		}
	}
}

func TestBatchify(t *testing.T) {
	Convey("When updates arrive faster than the batch rate", t, func() {
		source := make(chan []fastview.EleUpdate)
		output := batchify(nil, source, 20*time.Millisecond)

		go func() {
			defer close(source)
			for i := 0; i < 100; i++ {
				source <- []fastview.EleUpdate{update("a", strconv.Itoa(i))}
			}
		}()
		batches := drain(t, output)

		Convey("They are coalesced, and the latest value is always sent", func() {
			So(len(batches), ShouldBeGreaterThan, 0)
			So(len(batches), ShouldBeLessThan, 100)
			last := batches[len(batches)-1]
			So(len(last), ShouldEqual, 1)
			So(last[0], ShouldResemble, update("a", "99"))
		})
	})

	Convey("When updates arrive while the consumer is away", t, func() {
		source := make(chan []fastview.EleUpdate)
		output := batchify(nil, source, time.Millisecond)

		source <- []fastview.EleUpdate{update("a", "1"), update("b", "1")}
		source <- []fastview.EleUpdate{update("c", "1"), update("a", "2")}
		close(source)
		batches := drain(t, output)

		Convey("A single batch holds the latest per element, in first-received order", func() {
			So(batches, ShouldResemble, [][]fastview.EleUpdate{
				{update("a", "2"), update("b", "1"), update("c", "1")},
			})
		})
	})

	Convey("When done is closed the output closes", t, func() {
		done := make(chan struct{})
		output := batchify(done, make(chan []fastview.EleUpdate), time.Millisecond)
		close(done)
		So(drain(t, output), ShouldBeEmpty)
	})
}

func testSnapshot(ws *cell_views.WebSurface) *cell_views.Snapshot {
	frame := &models.Frame{
		Heatmap: [][]float64{{0, 1}, {2, 3}},
		Policy:  [][]int{{3, 1}, {0, 0}},
		Marker:  models.Position{X: 1, Y: 1},
		Trace:   []models.Position{{X: 0, Y: 0}, {X: 1, Y: 1}},
	}
	ws.SetSliderRange(0, 6)
	render.Render(ws, frame, models.Position{X: 0, Y: 0}, models.Position{X: 1, Y: 0}, models.CardinalArrows.Map(), false)
	ws.SetMarkerCenter(1, 1)
	ws.SetSliderValue(3)
	ws.Present()
	return ws.Last()
}

func TestRootView(t *testing.T) {
	Convey("Given a root view over a web surface", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ws := cell_views.NewWebSurface()
		rv, err := NewRootView(ctx, ws.Snapshots(), image.Point{X: 15, Y: 25})
		So(err, ShouldBeNil)

		Convey("A presented frame reaches the page as updates for every view", func() {
			testSnapshot(ws)

			seen := map[string]fastview.EleUpdate{}
			timeout := time.After(5 * time.Second)
			for seen["controls-label"].EleId == "" || seen["grid-marker"].EleId == "" || seen["valuesurface-group"].EleId == "" {
				select {
				case batch := <-rv.Updates():
					for _, update := range batch {
						seen[update.EleId] = update
					}
				case <-timeout:
					t.Fatal("timed out awaiting updates")
				}
			}
			So(seen["controls-label"].Ops[0].Value, ShouldEqual, "frame 3 / 6")
			So(seen["controls-png"].Ops[0].Value, ShouldEqual, "/frames/3.png")
			So(seen["controls-slider"].Ops, ShouldContain, fastview.Op{Key: "value", Value: "3"})
		})

		Convey("The page renders every view from the current board", func() {
			board := cell_views.Convert(testSnapshot(ws))

			tmpl := template.New("index.html")
			name, err := rv.Parse(tmpl)
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "mainpage")

			var sb strings.Builder
			So(tmpl.ExecuteTemplate(&sb, name, board), ShouldBeNil)
			page := sb.String()
			So(page, ShouldContainSubstring, `id="controls-slider"`)
			So(page, ShouldContainSubstring, `id="grid"`)
			So(page, ShouldContainSubstring, `id="valuesurface"`)
			So(page, ShouldContainSubstring, "frame 3 / 6")
			So(page, ShouldContainSubstring, "left:15px; top:25px;")
		})
	})
}
