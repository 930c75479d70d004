// player implements the frame-navigation controller: it owns the index of the displayed
// frame, the direction of travel, and whether auto-play is running. Keyboard, the step
// buttons, the slider and the play ticker all funnel into the same few transitions, and
// every transition re-renders through a render.Surface so the view, the slider and the
// index never disagree.
package player

import (
	"context"
	"errors"
	"log"
	"time"

	"gridplayer/models"
	"gridplayer/render"

	channerics "github.com/niceyeti/channerics/channels"
)

// Direction of travel for single steps and auto-play.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// State is the navigation state. Index is always within [0, N-1].
type State struct {
	Index     int
	Direction Direction
	Running   bool
}

// TickerFunc returns a channel that receives once per interval until done is closed.
type TickerFunc func(done <-chan struct{}, interval time.Duration) <-chan struct{}

// DefaultInterval is the auto-play cadence when none is configured.
const DefaultInterval = 200 * time.Millisecond

var (
	// ErrNoSurface is returned by New when no surface is given to render onto.
	ErrNoSurface error = errors.New("no surface to render onto")
	// ErrNoArrowMap is returned by New when the policy arrow mapping is missing.
	ErrNoArrowMap error = errors.New("no arrow mapping for policy indices")
)

// Player is the navigation controller. It is not safe for concurrent use: all of its
// methods must be called from one goroutine, normally the one executing Run.
type Player struct {
	frames  []models.Frame
	start   models.Position
	goal    models.Position
	arrows  models.ArrowMap
	success bool
	surface render.Surface

	logger    *log.Logger
	interval  time.Duration
	newTicker TickerFunc
	onChange  func(State)

	state State
	// ticks is non-nil only while playing; stopTicks releases the goroutine feeding it.
	ticks     <-chan struct{}
	stopTicks context.CancelFunc
	// rendering guards against hosts whose widgets call back into the player while
	// being updated, which would otherwise loop.
	rendering bool
}

// Option configures a Player.
type Option func(*Player)

// WithInterval sets the auto-play cadence.
func WithInterval(interval time.Duration) Option {
	return func(p *Player) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTicker replaces the auto-play tick source.
func WithTicker(newTicker TickerFunc) Option {
	return func(p *Player) {
		if newTicker != nil {
			p.newTicker = newTicker
		}
	}
}

// WithSuccess sets whether the recorded run reached the goal, which colors the trace.
func WithSuccess(success bool) Option {
	return func(p *Player) {
		p.success = success
	}
}

// WithStateHook registers a function called with the new state after every transition,
// e.g. so a host can show whether play is running.
func WithStateHook(onChange func(State)) Option {
	return func(p *Player) {
		p.onChange = onChange
	}
}

// New validates the frames and returns an idle player showing frame 0. Malformed or empty
// frame sequences are rejected here, so a Player never holds data the renderer can't draw.
func New(
	frames []models.Frame,
	start models.Position,
	goal models.Position,
	arrows models.ArrowMap,
	surface render.Surface,
	opts ...Option,
) (*Player, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}
	if arrows == nil {
		return nil, ErrNoArrowMap
	}
	if _, _, err := models.ValidateFrames(frames, start, goal); err != nil {
		return nil, err
	}

	p := &Player{
		frames:    append([]models.Frame(nil), frames...),
		start:     start,
		goal:      goal,
		arrows:    arrows,
		surface:   surface,
		logger:    log.Default(),
		interval:  DefaultInterval,
		newTicker: ChannericsTicker,
		state:     State{Index: 0, Direction: Forward},
	}
	for _, opt := range opts {
		opt(p)
	}

	surface.SetSliderRange(0, p.max())
	p.render()
	return p, nil
}

// FromEpisode is New for a loaded episode.
func FromEpisode(ep *models.Episode, surface render.Surface, opts ...Option) (*Player, error) {
	arrows := ep.Arrows
	if len(arrows) == 0 {
		arrows = models.CardinalArrows
	}
	opts = append([]Option{WithSuccess(ep.Success)}, opts...)
	return New(ep.Frames, ep.Start, ep.Goal, arrows.Map(), surface, opts...)
}

// State returns a copy of the current navigation state.
func (p *Player) State() State {
	return p.state
}

// Len returns the number of frames.
func (p *Player) Len() int {
	return len(p.frames)
}

func (p *Player) max() int {
	return len(p.frames) - 1
}

// StepForward sets the direction forward and takes one bounded step.
func (p *Player) StepForward() {
	p.state.Direction = Forward
	p.stepAndRender()
}

// StepBackward sets the direction backward and takes one bounded step.
func (p *Player) StepBackward() {
	p.state.Direction = Backward
	p.stepAndRender()
}

// stepAndRender is a manual step: at an exhausted end the index holds, any play stops,
// and the unchanged frame is drawn again so every view agrees with the index.
func (p *Player) stepAndRender() {
	if !p.step() {
		p.StopPlay()
	}
	p.render()
}

// step moves the index by one in the current direction unless the sequence is exhausted
// in that direction. Returns whether the index moved.
func (p *Player) step() bool {
	i, last := p.state.Index, p.max()
	forward := p.state.Direction == Forward
	switch {
	case 0 < i && i < last && forward:
		i++
	case 0 < i && i < last:
		i--
	case i == 0 && forward && last > 0:
		i++
	case i == last && !forward && last > 0:
		i--
	default:
		return false
	}
	p.state.Index = i
	return true
}

// JumpTo shows frame i, clamped into range. The direction is unchanged.
func (p *Player) JumpTo(i int) {
	p.state.Index = clamp(i, 0, p.max())
	p.render()
}

// StartPlay begins auto-advancing in the current direction. No-op if already playing.
func (p *Player) StartPlay() {
	if p.state.Running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.state.Running = true
	p.stopTicks = cancel
	p.ticks = p.newTicker(ctx.Done(), p.interval)
	p.notify()
}

// PlayForward sets the direction forward and starts play.
func (p *Player) PlayForward() {
	p.play(Forward)
}

// PlayBackward sets the direction backward and starts play.
func (p *Player) PlayBackward() {
	p.play(Backward)
}

// play turns a running play around, or starts one.
func (p *Player) play(direction Direction) {
	p.state.Direction = direction
	if p.state.Running {
		p.notify()
		return
	}
	p.StartPlay()
}

// StopPlay halts auto-play. The tick source is cancelled and detached, so no tick that
// is pending or yet to come can produce another transition. No-op when idle.
func (p *Player) StopPlay() {
	if p.stopTicks != nil {
		p.stopTicks()
		p.stopTicks = nil
	}
	p.ticks = nil
	if p.state.Running {
		p.state.Running = false
		p.notify()
	}
}

// Tick is one auto-play step. Play ends the first time the index can't move, so it
// always halts at the end it is heading toward and never wraps.
func (p *Player) Tick() {
	if !p.state.Running {
		return
	}
	if !p.step() {
		p.StopPlay()
		return
	}
	p.render()
}

// Refresh redraws the current frame without changing state.
func (p *Player) Refresh() {
	p.render()
}

// OnKeyPress handles a keyboard key: left steps backward, right steps forward.
// Other keys are reported and ignored.
func (p *Player) OnKeyPress(key string) {
	p.Handle(KeyEvent(key))
}

func (p *Player) OnStepBackwardClicked() {
	p.Handle(Event{Kind: StepBackwardClicked})
}

func (p *Player) OnStepForwardClicked() {
	p.Handle(Event{Kind: StepForwardClicked})
}

func (p *Player) OnSliderChanged(value int) {
	p.Handle(SliderEvent(value))
}

// Handle translates one input event into exactly one transition. Events that arrive while
// the player is itself updating the surface are echoes of that update and are dropped.
func (p *Player) Handle(ev Event) {
	if p.rendering {
		p.logger.Printf("player: dropped %v received while rendering", ev)
		return
	}

	switch ev.Kind {
	case KeyPressed:
		switch ev.Key {
		case KeyLeft:
			p.StepBackward()
		case KeyRight:
			p.StepForward()
		default:
			p.logger.Printf("player: unknown key %q", ev.Key)
		}
	case StepBackwardClicked:
		p.StepBackward()
	case StepForwardClicked:
		p.StepForward()
	case SliderChanged:
		p.JumpTo(ev.Value)
	case PlayForwardClicked:
		p.PlayForward()
	case PlayBackwardClicked:
		p.PlayBackward()
	case StopClicked:
		p.StopPlay()
	case Refreshed:
		p.Refresh()
	default:
		p.logger.Printf("player: unknown event %v", ev)
	}
}

// Run is the player's event loop. Input events and play ticks are handled one at a time
// on the calling goroutine until ctx is cancelled or events is closed; play is stopped on
// return. Run returns nil on graceful shutdown.
func (p *Player) Run(ctx context.Context, events <-chan Event) error {
	defer p.StopPlay()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.Handle(ev)
		case _, ok := <-p.ticks:
			if !ok {
				p.ticks = nil
				continue
			}
			p.Tick()
		}
	}
}

// render draws the current frame and synchronizes the marker and the slider. The slider
// is set silently; a host widget echoing the change back is caught by Handle.
func (p *Player) render() {
	p.rendering = true
	defer func() { p.rendering = false }()

	frame := &p.frames[p.state.Index]
	render.Render(p.surface, frame, p.start, p.goal, p.arrows, p.success)
	p.surface.SetMarkerCenter(float64(frame.Marker.X), float64(frame.Marker.Y))
	p.surface.SetSliderValue(p.state.Index)
	p.surface.Present()
	p.notify()
}

func (p *Player) notify() {
	if p.onChange != nil {
		p.onChange(p.state)
	}
}

// ChannericsTicker is the default TickerFunc, driven by a channerics ticker.
func ChannericsTicker(done <-chan struct{}, interval time.Duration) <-chan struct{} {
	ticks := make(chan struct{})
	go func() {
		defer close(ticks)
		for range channerics.NewTicker(done, interval) {
			select {
			case ticks <- struct{}{}:
			case <-done:
				return
			}
		}
	}()
	return ticks
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
