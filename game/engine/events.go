package engine

// EventType names a simulation event
type EventType string

const (
	EventLevelActivated EventType = "level_activated"
	EventLevelCompleted EventType = "level_completed"
	EventLevelAdvanced  EventType = "level_advanced"
	EventGestureIgnored EventType = "gesture_ignored"
	EventMoveStarted    EventType = "move_started"
	EventMoveStopped    EventType = "move_stopped"
	EventTileBroken     EventType = "tile_broken"
	EventReplayState    EventType = "replay_state"
	EventRewindStep     EventType = "rewind_step"
	EventSkipRequested  EventType = "skip_requested"
	EventAdShown        EventType = "ad_shown"
	EventPauseChanged   EventType = "pause_changed"
	EventProgressReset  EventType = "progress_reset"
	EventPieceReplaced  EventType = "piece_replaced"
)

// Event is emitted by the simulation as it runs. Fields not relevant to the
// event type are left zero.
type Event struct {
	Type      EventType `json:"type"`
	Level     int       `json:"level"`
	Position  *Vec2     `json:"position,omitempty"`
	Direction string    `json:"direction,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Count     int       `json:"count,omitempty"`
}

// Observer receives simulation events on the simulation thread
type Observer interface {
	OnEvent(ev Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ev Event)

func (f ObserverFunc) OnEvent(ev Event) { f(ev) }

type observers []Observer

func (o observers) OnEvent(ev Event) {
	for _, obs := range o {
		obs.OnEvent(ev)
	}
}

// Observers fans events out to every non-nil observer
func Observers(list ...Observer) Observer {
	var out observers
	for _, o := range list {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func emit(o Observer, ev Event) {
	if o != nil {
		o.OnEvent(ev)
	}
}

func posPtr(v Vec2) *Vec2 { return &v }
