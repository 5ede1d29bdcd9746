// Package groups serves the active LED group map and keeps it current.
//
// The map is swapped atomically on every successful load; readers never
// block and never see a partially built map. A failed load leaves the
// previous map in place and moves the service to StateDegraded, or to
// StateEmpty when nothing has loaded yet.
package groups

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/ledmanager/internal/config"
	"github.com/smazurov/ledmanager/internal/events"
	"github.com/smazurov/ledmanager/internal/layout"
	"github.com/smazurov/ledmanager/internal/ledconfig"
	"github.com/smazurov/ledmanager/internal/logging"
	"github.com/smazurov/ledmanager/internal/metrics"
)

// ErrNoSource is returned by Watch before a source path is known.
var ErrNoSource = errors.New("no configuration source resolved")

// Status describes the service for reporting.
type Status struct {
	State         State
	Source        string
	LoadedAt      time.Time
	Groups        int
	LEDs          int
	LastError     string
	LastErrorKind string
}

// Service owns the active group map.
type Service struct {
	path     string
	locator  ledconfig.Locator
	loadOpts []ledconfig.Option
	bus      *events.Bus
	logger   *slog.Logger
	debounce time.Duration
	now      func() time.Time

	current atomic.Pointer[layout.GroupMap]
	state   atomic.Int32

	// mu serializes loads and guards the fields below
	mu       sync.Mutex
	source   string
	loadedAt time.Time
	lastErr  error
	watcher  *config.Watcher[layout.GroupMap]
}

// Option configures a Service.
type Option func(*Service)

// WithPath sets an explicit configuration path. The locator is not consulted.
func WithPath(path string) Option {
	return func(s *Service) {
		s.path = path
	}
}

// WithLocator sets the locator used when no explicit path is set.
func WithLocator(loc ledconfig.Locator) Option {
	return func(s *Service) {
		s.locator = loc
	}
}

// WithLoadOptions sets options passed to every load.
func WithLoadOptions(opts ...ledconfig.Option) Option {
	return func(s *Service) {
		s.loadOpts = opts
	}
}

// WithBus sets the event bus. Without one, no events are published.
func WithBus(bus *events.Bus) Option {
	return func(s *Service) {
		s.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithDebounce sets the file watcher debounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		s.debounce = d
	}
}

// New creates a Service in StateLoading.
func New(opts ...Option) *Service {
	s := &Service{
		debounce: config.DefaultDebounce,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.GetLogger("groups")
	}
	s.state.Store(int32(StateLoading))
	return s
}

// Load resolves the configuration source and loads it.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	path, err := ledconfig.ResolvePath(ctx, s.path, s.locator)
	if err != nil {
		s.fail("", err, s.now().Sub(start))
		return err
	}
	return s.loadLocked(path, start)
}

// Reload loads the current source again, resolving it first if no load
// has picked one yet.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	source := s.source
	s.mu.Unlock()

	if source == "" {
		return s.Load(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(source, s.now())
}

// Validate parses data without touching the active map.
func (s *Service) Validate(data []byte, format ledconfig.Format, source string) (layout.GroupMap, error) {
	return ledconfig.Parse(data, format, source, s.loadOpts...)
}

// Current returns the active map, or nil before the first successful load.
// The map is shared and must not be modified.
func (s *Service) Current() layout.GroupMap {
	if p := s.current.Load(); p != nil {
		return *p
	}
	return nil
}

// Group looks a group up by its name, the last element of its path. When
// several paths end in the same name, the first path in sorted order wins.
func (s *Service) Group(name string) (string, layout.ActionSet, bool) {
	groups := s.Current()
	for _, path := range groups.Paths() {
		if layout.GroupName(path) == name {
			return path, groups[path], true
		}
	}
	return "", nil, false
}

// State returns the current state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Status returns a snapshot of the service state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := s.Current()
	st := Status{
		State:    s.State(),
		Source:   s.source,
		LoadedAt: s.loadedAt,
		Groups:   len(groups),
		LEDs:     len(groups.LEDs()),
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
		st.LastErrorKind = ledconfig.Kind(s.lastErr)
	}
	return st
}

// Watch reloads the source whenever it changes on disk.
func (s *Service) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == "" {
		return ErrNoSource
	}
	if s.watcher != nil {
		return nil
	}

	w := config.NewConfigWatcher(s.source, s.loadFile, logging.GetLogger("watcher"),
		config.WithDebounce[layout.GroupMap](s.debounce))
	w.OnReload(func(groups layout.GroupMap) {
		s.logger.Info("LED group config reloaded from disk", "path", w.Path(), "groups", len(groups))
	})
	if err := w.Start(); err != nil {
		return err
	}
	s.watcher = w
	return nil
}

// Stop stops watching the source.
func (s *Service) Stop() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Stop()
}

// loadFile is the watcher loader.
func (s *Service) loadFile(path string) (layout.GroupMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(path, s.now()); err != nil {
		return nil, err
	}
	return s.Current(), nil
}

func (s *Service) loadLocked(path string, start time.Time) error {
	groups, err := ledconfig.Load(path, s.loadOpts...)
	if err != nil {
		s.fail(path, err, s.now().Sub(start))
		return err
	}
	s.apply(path, groups, s.now().Sub(start))
	return nil
}

func (s *Service) apply(path string, groups layout.GroupMap, elapsed time.Duration) {
	now := s.now()
	leds := len(groups.LEDs())

	s.current.Store(&groups)
	s.source = path
	s.loadedAt = now
	s.lastErr = nil
	s.transition(StateHealthy)

	metrics.ObserveLoadSuccess(elapsed, len(groups), leds, now)
	s.logger.Info("LED group config applied", "path", path, "groups", len(groups), "leds", leds,
		"duration", elapsed)

	s.publish(events.GroupsLoadedEvent{
		Source:    path,
		Groups:    len(groups),
		LEDs:      leds,
		Timestamp: now.Format(time.RFC3339),
	})
}

func (s *Service) fail(path string, err error, elapsed time.Duration) {
	kind := ledconfig.Kind(err)

	if path != "" && s.source == "" {
		s.source = path
	}
	s.lastErr = err
	if s.current.Load() == nil {
		s.transition(StateEmpty)
	} else {
		s.transition(StateDegraded)
		s.logger.Warn("Keeping previous LED group config", "path", path, "kind", kind)
	}

	metrics.ObserveLoadFailure(elapsed, kind)

	s.publish(events.GroupsLoadFailedEvent{
		Source:    path,
		Kind:      kind,
		Error:     err.Error(),
		Timestamp: s.now().Format(time.RFC3339),
	})
}

func (s *Service) transition(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev == next {
		return
	}

	s.logger.Info("Group service state changed", "old_state", prev.String(), "new_state", next.String())
	s.publish(events.ServiceStateChangedEvent{
		OldState:  prev.String(),
		NewState:  next.String(),
		Timestamp: s.now().Format(time.RFC3339),
	})
}

func (s *Service) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
