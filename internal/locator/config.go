package locator

import (
	"log/slog"

	"github.com/smazurov/ledmanager/internal/logging"
)

// Config selects the files and name sources of a Locator.
type Config struct {
	OverrideFile   string
	DataDir        string
	DeviceTreePath string
	DBusEnabled    bool
}

// FromConfig builds a Locator with the D-Bus source first, when enabled and
// reachable, followed by the device tree. The returned func releases the bus
// connection.
func FromConfig(cfg Config, logger *slog.Logger) (*Locator, func()) {
	if logger == nil {
		logger = logging.GetLogger("locator")
	}

	var sources []NameSource
	closer := func() {}

	if cfg.DBusEnabled {
		bus, err := NewDBusSource()
		if err != nil {
			logger.Warn("D-Bus compatible name source unavailable", "error", err)
		} else {
			sources = append(sources, bus)
			closer = func() {
				if err := bus.Close(); err != nil {
					logger.Debug("Failed to close D-Bus connection", "error", err)
				}
			}
		}
	}
	sources = append(sources, NewDeviceTreeSource(cfg.DeviceTreePath))

	loc := New(
		WithOverrideFile(cfg.OverrideFile),
		WithDataDir(cfg.DataDir),
		WithSources(sources...),
		WithLogger(logger),
	)
	return loc, closer
}
