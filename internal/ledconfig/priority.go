package ledconfig

import "github.com/smazurov/ledmanager/internal/layout"

// PriorityRecord tracks the priority seen for each LED name during one parse.
// An LED may appear in many groups but its priority must match everywhere.
type PriorityRecord map[string]layout.Action

// NewPriorityRecord returns an empty record for a single parse.
func NewPriorityRecord() PriorityRecord {
	return make(PriorityRecord)
}

// Check records the priority for name on first sight and rejects any later
// occurrence with a different priority.
func (r PriorityRecord) Check(name string, priority layout.Action) error {
	previous, seen := r[name]
	if !seen {
		r[name] = priority
		return nil
	}

	if previous != priority {
		return &PriorityConflictError{
			Name:     name,
			Previous: previous,
			Observed: priority,
		}
	}

	return nil
}
