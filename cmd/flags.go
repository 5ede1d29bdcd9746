// Package cmd holds the ledmanager subcommands.
package cmd

import (
	"context"

	"github.com/smazurov/ledmanager/internal/layout"
	"github.com/smazurov/ledmanager/internal/ledconfig"
	"github.com/smazurov/ledmanager/internal/locator"
	"github.com/smazurov/ledmanager/internal/logging"
	"github.com/spf13/cobra"
)

// loadFlags are the configuration lookup flags shared by subcommands.
type loadFlags struct {
	groupPrefix    string
	overrideFile   string
	dataDir        string
	deviceTreePath string
	dbus           bool
	logLevel       string
	logJSON        bool
}

func (f *loadFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.groupPrefix, "group-prefix", ledconfig.DefaultGroupPrefix, "Object path prefix of the groups")
	flags.StringVar(&f.overrideFile, "override-file", locator.DefaultOverrideFile, "Override configuration checked before the system ones")
	flags.StringVar(&f.dataDir, "data-dir", locator.DefaultDataDir, "Directory holding the per-system configurations")
	flags.StringVar(&f.deviceTreePath, "device-tree", locator.DefaultDeviceTreePath, "Device tree compatible file")
	flags.BoolVar(&f.dbus, "dbus", false, "Query compatible system names over D-Bus")
	flags.StringVar(&f.logLevel, "log-level", "warn", "Logging level (debug, info, warn, error)")
	flags.BoolVar(&f.logJSON, "log-json", false, "Log in JSON format")
}

func (f *loadFlags) initLogging() {
	cfg := logging.Config{Level: f.logLevel, Format: "text"}
	if f.logJSON {
		cfg.Format = "json"
	}
	logging.Initialize(cfg)
}

// load resolves path through the locator when it is empty and loads it.
func (f *loadFlags) load(ctx context.Context, path string) (string, layout.GroupMap, error) {
	loc, closeFn := locator.FromConfig(locator.Config{
		OverrideFile:   f.overrideFile,
		DataDir:        f.dataDir,
		DeviceTreePath: f.deviceTreePath,
		DBusEnabled:    f.dbus,
	}, nil)
	defer closeFn()

	resolved, err := ledconfig.ResolvePath(ctx, path, loc)
	if err != nil {
		return "", nil, err
	}

	groups, err := ledconfig.Load(resolved, ledconfig.WithGroupPrefix(f.groupPrefix))
	return resolved, groups, err
}

// pathArg returns the optional file argument.
func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
