package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/ledmanager/cmd"
	"github.com/smazurov/ledmanager/internal/api"
	"github.com/smazurov/ledmanager/internal/config"
	"github.com/smazurov/ledmanager/internal/events"
	"github.com/smazurov/ledmanager/internal/groups"
	"github.com/smazurov/ledmanager/internal/ledconfig"
	"github.com/smazurov/ledmanager/internal/locator"
	"github.com/smazurov/ledmanager/internal/logging"
	"github.com/smazurov/ledmanager/internal/metrics/exporters"
	"github.com/smazurov/ledmanager/internal/systemd"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"/etc/ledmanager/ledmanager.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// LED group settings
	LedsConfigFile      string `help:"LED group config file, located automatically when empty" default:"" toml:"leds.config_file" env:"LEDS_CONFIG_FILE"`
	LedsGroupPrefix     string `help:"Object path prefix of the groups" default:"/xyz/openbmc_project/led/groups" toml:"leds.group_prefix" env:"LEDS_GROUP_PREFIX"`
	LedsOverrideFile    string `help:"Override LED group config" default:"/etc/phosphor-led-manager/led-group-config.json" toml:"leds.override_file" env:"LEDS_OVERRIDE_FILE"`
	LedsDataDir         string `help:"Directory of per-system LED group configs" default:"/usr/share/phosphor-led-manager" toml:"leds.data_dir" env:"LEDS_DATA_DIR"`
	LedsWatch           bool   `help:"Reload the LED group config when it changes" default:"true" toml:"leds.watch" env:"LEDS_WATCH"`
	LedsWatchDebounceMs int    `help:"Quiet period before a changed config is reloaded" default:"1500" toml:"leds.watch_debounce_ms" env:"LEDS_WATCH_DEBOUNCE_MS"`

	// Locator settings
	LocatorDbusEnabled    bool   `help:"Query compatible system names over D-Bus" default:"true" toml:"locator.dbus_enabled" env:"LOCATOR_DBUS_ENABLED"`
	LocatorDeviceTreePath string `help:"Device tree compatible file" default:"/proc/device-tree/compatible" toml:"locator.device_tree_path" env:"LOCATOR_DEVICE_TREE_PATH"`

	// Auth settings
	AuthUsername string `help:"Basic auth username, auth is disabled when empty" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLedconfig string `help:"Config loader logging level" default:"info" toml:"logging.ledconfig" env:"LOGGING_LEDCONFIG"`
	LoggingLocator   string `help:"Locator logging level" default:"info" toml:"logging.locator" env:"LOGGING_LOCATOR"`
	LoggingGroups    string `help:"Group service logging level" default:"info" toml:"logging.groups" env:"LOGGING_GROUPS"`
	LoggingWatcher   string `help:"File watcher logging level" default:"info" toml:"logging.watcher" env:"LOGGING_WATCHER"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP      string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"ledconfig": opts.LoggingLedconfig,
				"locator":   opts.LoggingLocator,
				"groups":    opts.LoggingGroups,
				"watcher":   opts.LoggingWatcher,
				"api":       opts.LoggingAPI,
				"http":      opts.LoggingHTTP,
			},
		})

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()
		notifier := systemd.NewNotifier()

		// Keep the systemctl status line current
		unsubscribeStatus := eventBus.Subscribe(func(e events.GroupsLoadedEvent) {
			if err := notifier.Status("%d groups, %d LEDs from %s", e.Groups, e.LEDs, e.Source); err != nil {
				logger.Debug("Failed to update systemd status", "error", err)
			}
		})

		var (
			server       *api.Server
			groupService *groups.Service
			closeLocator = func() {}
			stopSignals  = make(chan struct{})
		)

		hooks.OnStart(func() {
			ctx := context.Background()

			var loc *locator.Locator
			loc, closeLocator = locator.FromConfig(locator.Config{
				OverrideFile:   opts.LedsOverrideFile,
				DataDir:        opts.LedsDataDir,
				DeviceTreePath: opts.LocatorDeviceTreePath,
				DBusEnabled:    opts.LocatorDbusEnabled,
			}, nil)

			groupService = groups.New(
				groups.WithPath(opts.LedsConfigFile),
				groups.WithLocator(loc),
				groups.WithBus(eventBus),
				groups.WithDebounce(time.Duration(opts.LedsWatchDebounceMs)*time.Millisecond),
				groups.WithLoadOptions(ledconfig.WithGroupPrefix(opts.LedsGroupPrefix)),
			)

			// A failed first load leaves the service empty but running, so a fixed file is picked up later
			if loadErr := groupService.Load(ctx); loadErr != nil {
				logger.Error("Initial LED group config load failed", "error", loadErr)
			}

			if opts.LedsWatch {
				if watchErr := groupService.Watch(); watchErr != nil {
					logger.Warn("Failed to watch LED group config", "error", watchErr)
				}
			}

			reloader := &notifyingReloader{Service: groupService, notifier: notifier, logger: logger}
			go reloadOnHangup(ctx, reloader, logger, stopSignals)

			server = api.NewServer(&api.Options{
				AuthUsername:      opts.AuthUsername,
				AuthPassword:      opts.AuthPassword,
				Groups:            reloader,
				EventBus:          eventBus,
				PrometheusHandler: exporters.HTTPHandler(),
			})

			if notifyErr := notifier.Ready(); notifyErr != nil {
				logger.Warn("Failed to notify systemd", "error", notifyErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if notifyErr := notifier.Stopping(); notifyErr != nil {
				logger.Debug("Failed to notify systemd", "error", notifyErr)
			}
			close(stopSignals)

			if server != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if stopErr := server.Stop(ctx); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			}

			if groupService != nil {
				if stopErr := groupService.Stop(); stopErr != nil {
					logger.Error("Error stopping config watcher", "error", stopErr)
				}
			}
			unsubscribeStatus()
			closeLocator()
		})
	})

	cli.Root().AddCommand(cmd.CreateValidateCmd())
	cli.Root().AddCommand(cmd.CreateDumpCmd())

	cli.Run()
}

// notifyingReloader brackets reloads with systemd RELOADING and READY notifications.
type notifyingReloader struct {
	*groups.Service
	notifier *systemd.Notifier
	logger   *slog.Logger
}

func (r *notifyingReloader) Reload(ctx context.Context) error {
	if err := r.notifier.Reloading(); err != nil {
		r.logger.Debug("Failed to notify systemd", "error", err)
	}
	defer func() {
		if err := r.notifier.Ready(); err != nil {
			r.logger.Debug("Failed to notify systemd", "error", err)
		}
	}()
	return r.Service.Reload(ctx)
}

// reloadOnHangup reloads the group config on SIGHUP, as systemctl reload sends.
func reloadOnHangup(ctx context.Context, r *notifyingReloader, logger *slog.Logger, stop <-chan struct{}) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-stop:
			return
		case <-hup:
			logger.Info("SIGHUP received, reloading LED group config")
			if err := r.Reload(ctx); err != nil {
				logger.Error("Reload failed, keeping previous LED group config", "error", err)
			}
		}
	}
}
