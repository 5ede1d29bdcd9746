// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (BMC and other journald systems)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"ledconfig": "debug",
//			"api":       "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("ledconfig")
//	logger.Error("Priority of LED is not same across all groups",
//		"name", "led0", "old_priority", "On", "new_priority", "Blink")
//
// # Viewing Logs
//
//	journalctl -t ledmanager                   # All ledmanager logs
//	journalctl -t ledmanager MODULE=ledconfig  # Config loader only
//	journalctl -t ledmanager NAME=led0         # Entries about one LED
//
// # Configuration
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	ledconfig = "debug"
//	locator = "warn"
package logging
