package fastview

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
)

// labelView publishes one text update per view-model.
type labelView struct {
	id      string
	updates <-chan []EleUpdate
}

func newLabelView(id string) ViewBuilderFunc[string] {
	return func(done <-chan struct{}, labels <-chan string) ViewComponent {
		view := &labelView{id: id}
		out := make(chan []EleUpdate)
		go func() {
			defer close(out)
			for label := range labels {
				select {
				case out <- []EleUpdate{{EleId: id, Ops: []Op{{Key: "textContent", Value: label}}}}:
				case <-done:
					return
				}
			}
		}()
		view.updates = out
		return view
	}
}

func (lv *labelView) Updates() <-chan []EleUpdate { return lv.updates }

func (lv *labelView) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "` + lv.id + `" }}<span id="` + lv.id + `">{{ . }}</span>{{ end }}`)
	return lv.id, err
}

func TestViewBuilder(t *testing.T) {
	Convey("When a builder has no views or model", t, func() {
		_, err := NewViewBuilder[int, string]().Build()
		So(err, ShouldEqual, ErrNoViews)

		_, err = NewViewBuilder[int, string]().WithView(newLabelView("a")).Build()
		So(err, ShouldEqual, ErrNoModel)
	})

	Convey("When views are built over a model", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		source := make(chan int)
		views, err := NewViewBuilder[int, string]().
			WithContext(ctx).
			WithModel(source, func(i int) string { return fmt.Sprintf("frame %d", i) }).
			WithView(newLabelView("first")).
			WithView(newLabelView("second")).
			Build()
		So(err, ShouldBeNil)
		So(len(views), ShouldEqual, 2)

		Convey("Every view receives every converted item", func() {
			go func() {
				source <- 3
				source <- 4
			}()

			for _, want := range []string{"frame 3", "frame 4"} {
				// The broadcast delivers to each view before the next item.
				got := map[string]string{}
				for _, view := range views {
					select {
					case updates := <-view.Updates():
						got[updates[0].EleId] = updates[0].Ops[0].Value
					case <-time.After(time.Second):
						t.Fatal("timed out awaiting update")
					}
				}
				So(got, ShouldResemble, map[string]string{"first": want, "second": want})
			}
		})

		Convey("Views parse into the parent template", func() {
			tmpl := template.New("page")
			name, err := views[0].Parse(tmpl)
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "first")

			var sb strings.Builder
			So(tmpl.ExecuteTemplate(&sb, name, "hello"), ShouldBeNil)
			So(sb.String(), ShouldEqual, `<span id="first">hello</span>`)
		})
	})
}

type testInput struct {
	Kind  string `json:"kind"`
	Value int    `json:"value"`
}

func TestClient(t *testing.T) {
	Convey("When a page connects over a websocket", t, func() {
		updates := make(chan []EleUpdate)
		inputs := make(chan testInput, 4)
		syncErrs := make(chan error, 1)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cli, err := NewClient[[]EleUpdate, testInput](updates, inputs, w, r)
			if err != nil {
				syncErrs <- err
				return
			}
			syncErrs <- cli.Sync()
		}))
		defer srv.Close()

		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		// Reading also answers the server's pings.
		received := make(chan []EleUpdate, 4)
		go func() {
			defer close(received)
			for {
				var batch []EleUpdate
				if conn.ReadJSON(&batch) != nil {
					return
				}
				received <- batch
			}
		}()

		Convey("Published updates arrive in order", func() {
			first := []EleUpdate{{EleId: "a", Ops: []Op{{Key: "x", Value: "1"}}}}
			second := []EleUpdate{{EleId: "b", Ops: []Op{{Key: "textContent", Value: "two"}}}}
			updates <- first
			updates <- second

			for _, want := range [][]EleUpdate{first, second} {
				select {
				case got := <-received:
					So(got, ShouldResemble, want)
				case <-time.After(time.Second):
					t.Fatal("timed out awaiting update")
				}
			}
		})

		Convey("Page messages are decoded as inputs, skipping malformed ones", func() {
			So(conn.WriteMessage(websocket.TextMessage, []byte(`{"kind": `)), ShouldBeNil)
			So(conn.WriteJSON(testInput{Kind: "slider", Value: 3}), ShouldBeNil)

			select {
			case got := <-inputs:
				So(got, ShouldResemble, testInput{Kind: "slider", Value: 3})
			case <-time.After(time.Second):
				t.Fatal("timed out awaiting input")
			}
		})

		Convey("An orderly close by the page ends the sync without error", func() {
			So(conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")), ShouldBeNil)

			select {
			case err := <-syncErrs:
				So(err, ShouldBeNil)
			case <-time.After(2 * time.Second):
				t.Fatal("timed out awaiting sync exit")
			}
		})
	})
}
