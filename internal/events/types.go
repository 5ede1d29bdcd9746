package events

// Event type constants for kelindar/event.
const (
	TypeGroupsLoaded uint32 = iota + 1
	TypeGroupsLoadFailed
	TypeServiceStateChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// GroupsLoadedEvent is published after a configuration load replaced the group map.
type GroupsLoadedEvent struct {
	Source    string `json:"source" example:"/usr/share/phosphor-led-manager/led-group-config.json" doc:"Configuration file path"`
	Groups    int    `json:"groups" example:"4" doc:"Number of groups loaded"`
	LEDs      int    `json:"leds" example:"6" doc:"Number of distinct LEDs referenced"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Load timestamp"`
}

// Type returns the event type identifier for GroupsLoadedEvent.
func (e GroupsLoadedEvent) Type() uint32 { return TypeGroupsLoaded }

// GroupsLoadFailedEvent is published when a load was rejected.
type GroupsLoadFailedEvent struct {
	Source    string `json:"source" example:"/etc/phosphor-led-manager/led-group-config.json" doc:"Configuration file path"`
	Kind      string `json:"kind" example:"priority_conflict" doc:"Error kind"`
	Error     string `json:"error" example:"priority conflict for LED led0: On != Blink" doc:"Error message"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Failure timestamp"`
}

// Type returns the event type identifier for GroupsLoadFailedEvent.
func (e GroupsLoadFailedEvent) Type() uint32 { return TypeGroupsLoadFailed }

// ServiceStateChangedEvent is published when the group service changes state.
type ServiceStateChangedEvent struct {
	OldState  string `json:"old_state" example:"loading" doc:"Previous state"`
	NewState  string `json:"new_state" example:"healthy" doc:"New state"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Transition timestamp"`
}

// Type returns the event type identifier for ServiceStateChangedEvent.
func (e ServiceStateChangedEvent) Type() uint32 { return TypeServiceStateChanged }
