package player

import "fmt"

// EventKind enumerates the inputs a host can feed the player: keyboard, the two step
// buttons, the slider, the play/stop controls, and a refresh request from a host whose view
// was (re)attached and needs the current frame drawn.
type EventKind int

const (
	KeyPressed EventKind = iota
	StepBackwardClicked
	StepForwardClicked
	SliderChanged
	PlayForwardClicked
	PlayBackwardClicked
	StopClicked
	Refreshed
)

var kindNames = map[EventKind]string{
	KeyPressed:          "key",
	StepBackwardClicked: "step_backward",
	StepForwardClicked:  "step_forward",
	SliderChanged:       "slider",
	PlayForwardClicked:  "play_forward",
	PlayBackwardClicked: "play_backward",
	StopClicked:         "stop",
	Refreshed:           "refresh",
}

func (kind EventKind) String() string {
	if name, ok := kindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(kind))
}

// ParseEventKind returns the kind whose String() is name.
func ParseEventKind(name string) (EventKind, bool) {
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind, true
		}
	}
	return 0, false
}

// Event is a single input. Key is set for KeyPressed, Value for SliderChanged.
type Event struct {
	Kind  EventKind
	Key   string
	Value int
}

// Key names understood by OnKeyPress. Hosts translate their native key codes to these.
const (
	KeyLeft  = "left"
	KeyRight = "right"
)

func KeyEvent(key string) Event { return Event{Kind: KeyPressed, Key: key} }

func SliderEvent(value int) Event { return Event{Kind: SliderChanged, Value: value} }

func (ev Event) String() string {
	switch ev.Kind {
	case KeyPressed:
		return fmt.Sprintf("%v(%q)", ev.Kind, ev.Key)
	case SliderChanged:
		return fmt.Sprintf("%v(%d)", ev.Kind, ev.Value)
	}
	return ev.Kind.String()
}
