package player

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"gridplayer/models"
	"gridplayer/render"

	. "github.com/smartystreets/goconvey/convey"
)

func testFrames(n, height, width int) []models.Frame {
	frames := make([]models.Frame, n)
	var trace []models.Position
	for i := range frames {
		heatmap := make([][]float64, height)
		policy := make([][]int, height)
		for r := 0; r < height; r++ {
			heatmap[r] = make([]float64, width)
			policy[r] = make([]int, width)
			for c := 0; c < width; c++ {
				heatmap[r][c] = float64(i*100 + r*width + c)
				policy[r][c] = (r + c + i) % 4
			}
		}
		marker := models.Position{X: i % width, Y: i % height}
		trace = append(trace, marker)
		frames[i] = models.Frame{
			Heatmap: heatmap,
			Policy:  policy,
			Marker:  marker,
			Trace:   append([]models.Position(nil), trace...),
		}
	}
	return frames
}

// noTicks never ticks; tests drive Tick by hand.
func noTicks(<-chan struct{}, time.Duration) <-chan struct{} { return nil }

func newTestPlayer(n int, opts ...Option) (*Player, *render.Recorder, *bytes.Buffer) {
	rec := &render.Recorder{}
	logs := &bytes.Buffer{}
	opts = append([]Option{
		WithTicker(noTicks),
		WithLogger(log.New(logs, "", 0)),
	}, opts...)
	p, err := New(
		testFrames(n, 7, 10),
		models.Position{X: 0, Y: 3},
		models.Position{X: 7, Y: 3},
		models.CardinalArrows.Map(),
		rec,
		opts...)
	So(err, ShouldBeNil)
	return p, rec, logs
}

func TestNew(t *testing.T) {
	Convey("When a player is constructed", t, func() {
		Convey("It starts idle on frame zero, heading forward", func() {
			p, rec, _ := newTestPlayer(10)
			So(p.State(), ShouldResemble, State{Index: 0, Direction: Forward, Running: false})
			So(rec.SliderMin, ShouldEqual, 0)
			So(rec.SliderMax, ShouldEqual, 9)
			So(rec.SliderValue, ShouldEqual, 0)
			So(rec.Presented, ShouldEqual, 1)
		})

		Convey("An empty frame sequence fails validation", func() {
			_, err := New(nil, models.Position{}, models.Position{}, models.CardinalArrows.Map(), &render.Recorder{})
			So(errors.Is(err, models.ErrNoFrames), ShouldBeTrue)
		})

		Convey("A frame whose policy has a ragged row fails validation", func() {
			frames := testFrames(1, 7, 10)
			frames[0].Policy[2] = frames[0].Policy[2][:4]
			_, err := New(frames, models.Position{}, models.Position{}, models.CardinalArrows.Map(), &render.Recorder{})
			So(errors.Is(err, models.ErrRaggedGrid), ShouldBeTrue)
		})

		Convey("A missing surface or arrow map is rejected", func() {
			frames := testFrames(2, 7, 10)
			_, err := New(frames, models.Position{}, models.Position{}, models.CardinalArrows.Map(), nil)
			So(err, ShouldEqual, ErrNoSurface)
			_, err = New(frames, models.Position{}, models.Position{}, nil, &render.Recorder{})
			So(err, ShouldEqual, ErrNoArrowMap)
		})
	})
}

func TestStepping(t *testing.T) {
	Convey("When stepping through ten frames", t, func() {
		p, rec, _ := newTestPlayer(10)

		Convey("N-1 forward steps reach the last frame and one more is a no-op", func() {
			for i := 0; i < 9; i++ {
				p.StepForward()
			}
			So(p.State().Index, ShouldEqual, 9)
			presented := rec.Presented

			p.StepForward()
			So(p.State().Index, ShouldEqual, 9)
			So(rec.SliderValue, ShouldEqual, 9)
			// The exhausted step still redraws.
			So(rec.Presented, ShouldEqual, presented+1)
		})

		Convey("Stepping backward from the middle stops at zero without wrapping", func() {
			p.JumpTo(5)
			for i := 0; i < 5; i++ {
				p.StepBackward()
			}
			So(p.State().Index, ShouldEqual, 0)
			So(p.State().Direction, ShouldEqual, Backward)

			p.StepBackward()
			So(p.State().Index, ShouldEqual, 0)
		})

		Convey("At either end the opposite direction moves", func() {
			p.StepBackward()
			So(p.State().Index, ShouldEqual, 0)
			p.StepForward()
			So(p.State().Index, ShouldEqual, 1)

			p.JumpTo(9)
			p.StepBackward()
			So(p.State().Index, ShouldEqual, 8)
		})

		Convey("Each step draws the frame at the new index", func() {
			p.StepForward()
			p.StepForward()
			So(rec.Marker, ShouldResemble, [2]float64{2, 2})
			So(rec.SliderValue, ShouldEqual, 2)
		})
	})

	Convey("A single frame never moves", t, func() {
		p, _, _ := newTestPlayer(1)
		p.StepForward()
		So(p.State().Index, ShouldEqual, 0)
		p.StepBackward()
		So(p.State().Index, ShouldEqual, 0)
	})
}

func TestJumpTo(t *testing.T) {
	Convey("When the slider jumps", t, func() {
		p, rec, _ := newTestPlayer(10)

		Convey("Any index in range is shown and reported by the slider", func() {
			for i := 0; i < 10; i++ {
				p.OnSliderChanged(i)
				So(p.State().Index, ShouldEqual, i)
				So(rec.SliderValue, ShouldEqual, i)
			}
		})

		Convey("Out of range indices are clamped", func() {
			p.OnSliderChanged(42)
			So(p.State().Index, ShouldEqual, 9)
			So(rec.SliderValue, ShouldEqual, 9)
			p.OnSliderChanged(-3)
			So(p.State().Index, ShouldEqual, 0)
			So(rec.SliderValue, ShouldEqual, 0)
		})

		Convey("The direction is kept", func() {
			p.StepBackward()
			p.JumpTo(4)
			So(p.State().Direction, ShouldEqual, Backward)
		})
	})
}

func TestInputs(t *testing.T) {
	Convey("When inputs arrive from the keyboard and buttons", t, func() {
		p, _, logs := newTestPlayer(10)

		Convey("Arrow keys step", func() {
			p.OnKeyPress(KeyRight)
			p.OnKeyPress(KeyRight)
			p.OnKeyPress(KeyLeft)
			So(p.State().Index, ShouldEqual, 1)
			So(p.State().Direction, ShouldEqual, Backward)
		})

		Convey("Buttons step", func() {
			p.OnStepForwardClicked()
			p.OnStepForwardClicked()
			p.OnStepBackwardClicked()
			So(p.State().Index, ShouldEqual, 1)
		})

		Convey("Unknown keys are logged and ignored", func() {
			p.OnKeyPress("x")
			So(p.State(), ShouldResemble, State{Index: 0, Direction: Forward})
			So(logs.String(), ShouldContainSubstring, `unknown key "x"`)
		})
	})

	Convey("When the host's slider echoes programmatic changes", t, func() {
		var p *Player
		rec := &render.Recorder{}
		echoes := 0
		rec.OnSliderValue = func(i int) {
			if p != nil {
				echoes++
				p.OnSliderChanged(i + 1)
			}
		}
		logs := &bytes.Buffer{}
		var err error
		p, err = New(testFrames(10, 7, 10), models.Position{}, models.Position{X: 9, Y: 6},
			models.CardinalArrows.Map(), rec, WithTicker(noTicks), WithLogger(log.New(logs, "", 0)))
		So(err, ShouldBeNil)

		p.StepForward()
		Convey("The echo is dropped instead of cycling", func() {
			So(echoes, ShouldEqual, 1)
			So(p.State().Index, ShouldEqual, 1)
			So(logs.String(), ShouldContainSubstring, "dropped slider(2)")
		})
	})
}

func TestPlay(t *testing.T) {
	Convey("When playing with a hand-driven ticker", t, func() {
		p, rec, _ := newTestPlayer(10)
		var states []State
		p.onChange = func(s State) { states = append(states, s) }

		Convey("Play from the start advances N-1 times and stops itself at the end", func() {
			p.StartPlay()
			So(p.State().Running, ShouldBeTrue)

			moves, ticks := 0, 0
			for p.State().Running && ticks < 100 {
				before := p.State().Index
				p.Tick()
				ticks++
				if p.State().Index != before {
					moves++
				}
			}
			So(moves, ShouldEqual, 9)
			So(p.State(), ShouldResemble, State{Index: 9, Direction: Forward, Running: false})
			So(rec.SliderValue, ShouldEqual, 9)
			So(states[len(states)-1].Running, ShouldBeFalse)
		})

		Convey("Play backward stops at zero", func() {
			p.JumpTo(6)
			p.PlayBackward()
			for i := 0; i < 20; i++ {
				p.Tick()
			}
			So(p.State(), ShouldResemble, State{Index: 0, Direction: Backward, Running: false})
		})

		Convey("Starting while playing is a no-op", func() {
			p.StartPlay()
			p.Tick()
			p.StartPlay()
			So(p.State().Running, ShouldBeTrue)
			So(p.State().Index, ShouldEqual, 1)
		})

		Convey("Stop halts ticks and repeated stops are harmless", func() {
			p.StartPlay()
			p.Tick()
			p.StopPlay()
			p.StopPlay()
			p.Tick()
			So(p.State(), ShouldResemble, State{Index: 1, Direction: Forward, Running: false})
			So(p.ticks, ShouldBeNil)
		})

		Convey("A manual step into an exhausted end stops play", func() {
			p.JumpTo(9)
			p.StartPlay()
			p.StepForward()
			So(p.State().Running, ShouldBeFalse)
			So(p.State().Index, ShouldEqual, 9)
		})
	})

	Convey("When play is stopped, the tick source is cancelled", t, func() {
		var done <-chan struct{}
		p, _, _ := newTestPlayer(10, WithTicker(func(d <-chan struct{}, _ time.Duration) <-chan struct{} {
			done = d
			return nil
		}))
		p.StartPlay()
		So(done, ShouldNotBeNil)
		p.StopPlay()
		select {
		case <-done:
		default:
			t.Fatal("tick source still live after stop")
		}
	})
}

func TestRun(t *testing.T) {
	Convey("When the event loop runs with a real ticker", t, func() {
		stopped := make(chan State, 1)
		rec := &render.Recorder{}
		p, err := New(testFrames(10, 7, 10), models.Position{}, models.Position{X: 9, Y: 6},
			models.CardinalArrows.Map(), rec,
			WithInterval(time.Millisecond),
			WithLogger(log.New(&bytes.Buffer{}, "", 0)),
			WithStateHook(func(s State) {
				if !s.Running && s.Index == 9 {
					select {
					case stopped <- s:
					default:
					}
				}
			}))
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events := make(chan Event)
		result := make(chan error, 1)
		go func() { result <- p.Run(ctx, events) }()

		events <- Event{Kind: PlayForwardClicked}

		var last State
		select {
		case last = <-stopped:
		case <-time.After(5 * time.Second):
			t.Fatal("play never reached the last frame")
		}
		cancel()
		So(<-result, ShouldBeNil)

		Convey("Play ends on the last frame, stopped", func() {
			So(last, ShouldResemble, State{Index: 9, Direction: Forward, Running: false})
			So(p.State(), ShouldResemble, last)
			So(rec.SliderValue, ShouldEqual, 9)
		})
	})

	Convey("When the event channel closes, Run returns", t, func() {
		p, _, _ := newTestPlayer(3)
		events := make(chan Event, 2)
		events <- Event{Kind: StepForwardClicked}
		events <- SliderEvent(2)
		close(events)
		So(p.Run(context.Background(), events), ShouldBeNil)
		So(p.State().Index, ShouldEqual, 2)
	})
}

func TestEventKinds(t *testing.T) {
	Convey("Event kinds round trip through their names", t, func() {
		for kind := range kindNames {
			parsed, ok := ParseEventKind(kind.String())
			So(ok, ShouldBeTrue)
			So(parsed, ShouldEqual, kind)
		}
		_, ok := ParseEventKind("bogus")
		So(ok, ShouldBeFalse)
	})
}
