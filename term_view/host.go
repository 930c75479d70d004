package term_view

import (
	"context"
	"log"

	"gridplayer/player"

	"github.com/gdamore/tcell/v2"
)

// Terminal events awaiting translation.
const eventBacklog = 100

// Host feeds terminal input to the player: the arrow keys step, '[' and ']' are the step
// buttons, 'p' and 'P' play forward and backward, space stops, and a click on the slider
// jumps to the frame under it. 'q' or Esc quits.
type Host struct {
	screen  tcell.Screen
	surface *Surface
	events  chan player.Event
}

func NewHost(screen tcell.Screen, surface *Surface) *Host {
	return &Host{
		screen:  screen,
		surface: surface,
		events:  make(chan player.Event),
	}
}

// Events returns the player events read from the terminal. It is closed when Run returns.
func (host *Host) Events() <-chan player.Event {
	return host.events
}

// Run polls the screen until the user quits or ctx is cancelled. The screen must already
// be initialized; finalizing it is left to the caller.
func (host *Host) Run(ctx context.Context) error {
	defer close(host.events)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	host.screen.EnableMouse()
	polled := make(chan tcell.Event, eventBacklog)
	go func() {
		for {
			ev := host.screen.PollEvent()
			if ev == nil {
				// The screen was finalized.
				return
			}
			select {
			case polled <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-polled:
			if isQuit(ev) {
				return nil
			}
			pev, ok := host.translate(ev)
			if !ok {
				continue
			}
			select {
			case host.events <- pev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func isQuit(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return key.Rune() == 'q'
	}
	return false
}

// translate maps a terminal event to a player event, if it is one.
func (host *Host) translate(ev tcell.Event) (player.Event, bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyLeft:
			return player.KeyEvent(player.KeyLeft), true
		case tcell.KeyRight:
			return player.KeyEvent(player.KeyRight), true
		case tcell.KeyRune:
			return runeEvent(ev.Rune()), true
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			return player.Event{}, false
		}
		x, y := ev.Position()
		if value, ok := host.surface.SliderValueAt(x, y); ok {
			return player.SliderEvent(value), true
		}
	case *tcell.EventResize:
		host.screen.Sync()
		return player.Event{Kind: player.Refreshed}, true
	default:
		log.Printf("term_view: ignoring %T", ev)
	}
	return player.Event{}, false
}

// runeEvent maps the control keys; any other key goes to the player as a key press.
func runeEvent(r rune) player.Event {
	switch r {
	case '[':
		return player.Event{Kind: player.StepBackwardClicked}
	case ']':
		return player.Event{Kind: player.StepForwardClicked}
	case 'p':
		return player.Event{Kind: player.PlayForwardClicked}
	case 'P':
		return player.Event{Kind: player.PlayBackwardClicked}
	case ' ':
		return player.Event{Kind: player.StopClicked}
	}
	return player.KeyEvent(string(r))
}
