package ledconfig

import (
	"errors"
	"fmt"

	"github.com/smazurov/ledmanager/internal/layout"
)

// Load failure classes. Every error returned by this package matches exactly
// one of these with errors.Is.
var (
	ErrNotFound           = errors.New("incorrect file path or empty file")
	ErrParse              = errors.New("failed to parse config file")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrInvalidAction      = errors.New("invalid action")
	ErrPriorityConflict   = errors.New("priority of LED is not same across groups")
)

// Error kinds reported by Kind.
const (
	KindNotFound           = "not_found"
	KindParse              = "parse"
	KindUnsupportedVersion = "unsupported_version"
	KindInvalidAction      = "invalid_action"
	KindPriorityConflict   = "priority_conflict"
	KindLocator            = "locator"
	KindUnknown            = "unknown"
)

// LoadError records the source that failed to load.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LocatorError wraps a failure of the configuration locator.
type LocatorError struct {
	Err error
}

func (e *LocatorError) Error() string {
	return fmt.Sprintf("resolve config path: %v", e.Err)
}

func (e *LocatorError) Unwrap() error {
	return e.Err
}

// UnsupportedVersionError is returned for a schema version with no parser.
type UnsupportedVersionError struct {
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported JSON version: %d", e.Version)
}

func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// InvalidActionError is returned when an Action or Priority field holds
// anything other than "On" or "Blink".
type InvalidActionError struct {
	Group  string
	Member string
	Field  string
	Value  string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid %s %q for LED %q in group %q, expected \"On\" or \"Blink\"",
		e.Field, e.Value, e.Member, e.Group)
}

func (e *InvalidActionError) Is(target error) bool {
	return target == ErrInvalidAction
}

// PriorityConflictError is returned when an LED is configured with different
// priorities in different groups.
type PriorityConflictError struct {
	Name     string
	Previous layout.Action
	Observed layout.Action
}

func (e *PriorityConflictError) Error() string {
	return fmt.Sprintf("priority of LED %q is not same across groups: %s != %s",
		e.Name, e.Previous, e.Observed)
}

func (e *PriorityConflictError) Is(target error) bool {
	return target == ErrPriorityConflict
}

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	var locErr *LocatorError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &locErr):
		return KindLocator
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrUnsupportedVersion):
		return KindUnsupportedVersion
	case errors.Is(err, ErrInvalidAction):
		return KindInvalidAction
	case errors.Is(err, ErrPriorityConflict):
		return KindPriorityConflict
	default:
		return KindUnknown
	}
}
