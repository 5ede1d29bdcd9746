// Package locator finds the LED group configuration file for this system.
package locator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/smazurov/ledmanager/internal/logging"
)

const (
	// ConfigFileName is the file name searched for in every candidate directory.
	ConfigFileName = "led-group-config.json"

	// DefaultOverrideFile takes precedence over everything else when present.
	DefaultOverrideFile = "/etc/phosphor-led-manager/" + ConfigFileName

	// DefaultDataDir holds the shipped per-system configurations.
	DefaultDataDir = "/usr/share/phosphor-led-manager"
)

// NameSource reports the compatible system names of the running machine,
// most specific first.
type NameSource interface {
	Name() string
	Names(ctx context.Context) ([]string, error)
}

// Locator resolves the configuration path.
type Locator struct {
	overrideFile string
	dataDir      string
	sources      []NameSource
	logger       *slog.Logger
}

// Option configures a Locator.
type Option func(*Locator)

// WithOverrideFile sets the override file path. An empty path disables it.
func WithOverrideFile(path string) Option {
	return func(l *Locator) {
		l.overrideFile = path
	}
}

// WithDataDir sets the directory holding per-system configurations.
func WithDataDir(dir string) Option {
	return func(l *Locator) {
		if dir != "" {
			l.dataDir = dir
		}
	}
}

// WithSources sets the compatible-name sources, consulted in order.
func WithSources(sources ...NameSource) Option {
	return func(l *Locator) {
		l.sources = sources
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) {
		l.logger = logger
	}
}

// New creates a Locator with the system defaults and no name sources.
func New(opts ...Option) *Locator {
	l := &Locator{
		overrideFile: DefaultOverrideFile,
		dataDir:      DefaultDataDir,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logging.GetLogger("locator")
	}
	return l
}

// Resolve returns the first existing candidate: the override file, then
// <dataDir>/<name>/led-group-config.json for every compatible name, and
// finally <dataDir>/led-group-config.json whether or not it exists.
func (l *Locator) Resolve(ctx context.Context) (string, error) {
	if l.overrideFile != "" && isFile(l.overrideFile) {
		l.logger.Info("Using override LED group config", "path", l.overrideFile)
		return l.overrideFile, nil
	}

	for _, source := range l.sources {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		names, err := source.Names(ctx)
		if err != nil {
			l.logger.Warn("Compatible name source failed", "source", source.Name(), "error", err)
			continue
		}

		for _, name := range names {
			candidate := filepath.Join(l.dataDir, name, ConfigFileName)
			if isFile(candidate) {
				l.logger.Info("Using system LED group config",
					"path", candidate, "source", source.Name(), "compatible", name)
				return candidate, nil
			}
			l.logger.Debug("No LED group config for compatible name", "compatible", name, "path", candidate)
		}
	}

	path := filepath.Join(l.dataDir, ConfigFileName)
	l.logger.Info("Using default LED group config", "path", path)
	return path, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
