package groups

// State is the lifecycle state of the group service.
type State int32

const (
	// StateLoading means no load has completed yet.
	StateLoading State = iota

	// StateHealthy means the last load succeeded.
	StateHealthy

	// StateDegraded means the last load failed and the previous map is still served.
	StateDegraded

	// StateEmpty means no load has ever succeeded.
	StateEmpty
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
