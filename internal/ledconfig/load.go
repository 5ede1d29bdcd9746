// Package ledconfig loads LED group configuration documents into a
// layout.GroupMap.
//
// A load reads the document, dispatches on its "version" marker and parses
// every group and member, checking that each LED carries the same priority
// in every group that references it. A load either returns a complete map or
// an error; nothing is retained between calls.
package ledconfig

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smazurov/ledmanager/internal/layout"
	"github.com/smazurov/ledmanager/internal/logging"
)

// DefaultGroupPrefix is the object path under which groups are published.
const DefaultGroupPrefix = "/xyz/openbmc_project/led/groups"

// Locator supplies a configuration path when the caller has none.
type Locator interface {
	Resolve(ctx context.Context) (string, error)
}

type options struct {
	groupPrefix string
	logger      *slog.Logger
}

// Option configures a load.
type Option func(*options)

// WithGroupPrefix sets the object path prefix for group paths.
func WithGroupPrefix(prefix string) Option {
	return func(o *options) {
		o.groupPrefix = prefix
	}
}

// WithLogger sets the logger used to report load failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{groupPrefix: DefaultGroupPrefix}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.GetLogger("ledconfig")
	}
	return o
}

// Load reads and validates the configuration at path.
func Load(path string, opts ...Option) (layout.GroupMap, error) {
	o := newOptions(opts)

	doc, err := ReadDocument(path)
	if err != nil {
		return nil, o.fail(path, err)
	}

	groups, err := dispatch(doc, o)
	if err != nil {
		return nil, o.fail(path, err)
	}

	o.logger.Debug("LED group config loaded", "path", path, "groups", len(groups))
	return groups, nil
}

// Parse validates an in-memory document. source names it in errors and logs.
func Parse(data []byte, format Format, source string, opts ...Option) (layout.GroupMap, error) {
	o := newOptions(opts)

	doc, err := ParseDocument(data, format, source)
	if err != nil {
		return nil, o.fail(source, err)
	}

	groups, err := dispatch(doc, o)
	if err != nil {
		return nil, o.fail(source, err)
	}
	return groups, nil
}

// LoadDefault loads the configuration found by loc.
func LoadDefault(ctx context.Context, loc Locator, opts ...Option) (layout.GroupMap, error) {
	return LoadSystem(ctx, "", loc, opts...)
}

// LoadSystem loads path, asking loc for a path first when path is empty.
func LoadSystem(ctx context.Context, path string, loc Locator, opts ...Option) (layout.GroupMap, error) {
	resolved, err := ResolvePath(ctx, path, loc)
	if err != nil {
		newOptions(opts).logger.Error("Failed to locate LED group config", "error", err)
		return nil, err
	}
	return Load(resolved, opts...)
}

// ResolvePath returns path, or the locator's answer when path is empty.
func ResolvePath(ctx context.Context, path string, loc Locator) (string, error) {
	if path != "" {
		return path, nil
	}
	if loc == nil {
		return "", &LocatorError{Err: errors.New("no config path given and no locator configured")}
	}

	resolved, err := loc.Resolve(ctx)
	if err != nil {
		return "", &LocatorError{Err: err}
	}
	return resolved, nil
}

// fail logs err with its details and wraps it with the source path.
func (o *options) fail(path string, err error) error {
	attrs := []any{"path", path, "kind", Kind(err), "error", err}

	var conflict *PriorityConflictError
	var version *UnsupportedVersionError
	var action *InvalidActionError
	switch {
	case errors.As(err, &conflict):
		o.logger.Error("Priority of LED is not same across all groups",
			append(attrs, "name", conflict.Name,
				"old_priority", conflict.Previous.String(),
				"new_priority", conflict.Observed.String())...)
	case errors.As(err, &version):
		o.logger.Error("Unsupported LED config version", append(attrs, "version", version.Version)...)
	case errors.As(err, &action):
		o.logger.Error("Invalid LED action",
			append(attrs, "group", action.Group, "name", action.Member,
				"field", action.Field, "value", action.Value)...)
	case errors.Is(err, ErrNotFound):
		o.logger.Error("Incorrect file path or empty file", attrs...)
	default:
		o.logger.Error("Failed to parse LED group config", attrs...)
	}

	return &LoadError{Path: path, Err: err}
}
