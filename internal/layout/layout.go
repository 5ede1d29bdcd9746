// Package layout defines the in-memory LED group layout produced by the
// configuration loader and consumed by the group arbitration service.
package layout

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Action is the requested physical behavior of an LED. The same enumeration
// is used as a member's priority tier: when an LED belongs to several
// asserted groups, the member whose action matches the LED's priority wins.
type Action uint8

const (
	// On is a steady-on LED.
	On Action = iota + 1
	// Blink is a blinking LED.
	Blink
)

// Member defaults applied when the configuration omits a field.
const (
	DefaultDutyOn   uint32 = 50
	DefaultPeriod   uint32 = 0
	DefaultPriority        = Blink
)

// String returns the configuration literal for the action.
func (a Action) String() string {
	switch a {
	case On:
		return "On"
	case Blink:
		return "Blink"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	switch a {
	case On, Blink:
		return []byte(a.String()), nil
	default:
		return nil, fmt.Errorf("invalid action %d", uint8(a))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, ok := ParseAction(string(text))
	if !ok {
		return fmt.Errorf("invalid action %q", text)
	}
	*a = parsed
	return nil
}

// ParseAction maps a configuration literal to an Action.
// Only the exact literals "On" and "Blink" are recognized.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "On":
		return On, true
	case "Blink":
		return Blink, true
	default:
		return 0, false
	}
}

// LedAction is one LED member of a group.
type LedAction struct {
	Name     string `json:"name" yaml:"name" doc:"LED name"`
	Action   Action `json:"action" yaml:"action" doc:"Requested behavior (On, Blink)"`
	DutyOn   uint32 `json:"duty_on" yaml:"duty_on" doc:"Percentage of the period the LED is lit"`
	Period   uint32 `json:"period" yaml:"period" doc:"Blink period in milliseconds"`
	Priority Action `json:"priority" yaml:"priority" doc:"Tie-break tier when groups share the LED"`
}

// ActionSet is a set of members unique by LED name.
type ActionSet map[string]LedAction

// Add inserts a member unless one with the same name is already present.
// It reports whether the member was inserted.
func (s ActionSet) Add(a LedAction) bool {
	if _, exists := s[a.Name]; exists {
		return false
	}
	s[a.Name] = a
	return true
}

// Sorted returns the members ordered by name.
func (s ActionSet) Sorted() []LedAction {
	out := make([]LedAction, 0, len(s))
	for _, name := range slices.Sorted(maps.Keys(s)) {
		out = append(out, s[name])
	}
	return out
}

// GroupMap maps a group object path to its members.
// A GroupMap returned by the loader must be treated as read-only.
type GroupMap map[string]ActionSet

// Insert stores set under path unless path is already present.
// The first entry for a path wins; it reports whether set was stored.
func (m GroupMap) Insert(path string, set ActionSet) bool {
	if _, exists := m[path]; exists {
		return false
	}
	m[path] = set
	return true
}

// Paths returns the group paths in sorted order.
func (m GroupMap) Paths() []string {
	return slices.Sorted(maps.Keys(m))
}

// Equal reports whether both maps hold the same groups with the same members.
func (m GroupMap) Equal(other GroupMap) bool {
	return maps.EqualFunc(m, other, func(a, b ActionSet) bool {
		return maps.Equal(a, b)
	})
}

// LEDInfo is the per-LED view across all groups.
type LEDInfo struct {
	Name     string   `json:"name" doc:"LED name"`
	Priority Action   `json:"priority" doc:"Priority shared by every occurrence of the LED"`
	Groups   []string `json:"groups" doc:"Group paths that reference the LED"`
}

// LEDs returns every distinct LED with the groups that reference it,
// ordered by LED name.
func (m GroupMap) LEDs() []LEDInfo {
	byName := make(map[string]*LEDInfo)
	for _, path := range m.Paths() {
		for _, member := range m[path] {
			info, ok := byName[member.Name]
			if !ok {
				info = &LEDInfo{Name: member.Name, Priority: member.Priority}
				byName[member.Name] = info
			}
			info.Groups = append(info.Groups, path)
		}
	}

	out := make([]LEDInfo, 0, len(byName))
	for _, name := range slices.Sorted(maps.Keys(byName)) {
		out = append(out, *byName[name])
	}
	return out
}

// GroupName returns the last element of a group object path.
func GroupName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
