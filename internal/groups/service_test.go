package groups

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smazurov/ledmanager/internal/events"
	"github.com/smazurov/ledmanager/internal/ledconfig"
)

const validConfig = `{
  "leds": [
    {"group": "enclosure_identify", "members": [{"Name": "led1", "Action": "Blink", "Priority": "On"}]},
    {"group": "power_on", "members": [{"Name": "led1", "Action": "On", "Priority": "On"}, {"Name": "led2", "Action": "On"}]}
  ]
}`

const conflictConfig = `{
  "leds": [
    {"group": "a", "members": [{"Name": "led1", "Action": "On", "Priority": "On"}]},
    {"group": "b", "members": [{"Name": "led1", "Action": "On", "Priority": "Blink"}]}
  ]
}`

const reloadedConfig = `{
  "leds": [
    {"group": "fault", "members": [{"Name": "led3", "Action": "Blink"}]}
  ]
}`

type fakeLocator struct {
	path string
	err  error
}

func (f fakeLocator) Resolve(context.Context) (string, error) {
	return f.path, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestService(t *testing.T, content string, opts ...Option) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "led-group-config.json")
	if content != "" {
		writeConfig(t, path, content)
	}
	opts = append([]Option{
		WithPath(path),
		WithLogger(quietLogger()),
		WithLoadOptions(ledconfig.WithLogger(quietLogger())),
	}, opts...)
	return New(opts...), path
}

func TestService_InitialState(t *testing.T) {
	svc, _ := newTestService(t, validConfig)

	if svc.State() != StateLoading {
		t.Errorf("expected loading, got %s", svc.State())
	}
	if svc.Current() != nil {
		t.Error("expected nil map before first load")
	}
}

func TestService_LoadHealthy(t *testing.T) {
	bus := events.New()
	loaded := make(chan events.GroupsLoadedEvent, 1)
	changed := make(chan events.ServiceStateChangedEvent, 1)
	defer bus.Subscribe(func(e events.GroupsLoadedEvent) { loaded <- e })()
	defer bus.Subscribe(func(e events.ServiceStateChangedEvent) { changed <- e })()

	svc, path := newTestService(t, validConfig, WithBus(bus))

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if svc.State() != StateHealthy {
		t.Errorf("expected healthy, got %s", svc.State())
	}

	groups := svc.Current()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if _, ok := groups[ledconfig.DefaultGroupPrefix+"/power_on"]; !ok {
		t.Errorf("missing power_on group: %v", groups.Paths())
	}

	st := svc.Status()
	if st.Source != path || st.Groups != 2 || st.LEDs != 2 || st.LastError != "" || st.LoadedAt.IsZero() {
		t.Errorf("unexpected status: %+v", st)
	}

	select {
	case e := <-loaded:
		if e.Source != path || e.Groups != 2 || e.LEDs != 2 {
			t.Errorf("unexpected loaded event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for GroupsLoadedEvent")
	}

	select {
	case e := <-changed:
		if e.OldState != "loading" || e.NewState != "healthy" {
			t.Errorf("unexpected transition: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ServiceStateChangedEvent")
	}
}

func TestService_LoadMissingIsEmpty(t *testing.T) {
	bus := events.New()
	failed := make(chan events.GroupsLoadFailedEvent, 1)
	defer bus.Subscribe(func(e events.GroupsLoadFailedEvent) { failed <- e })()

	svc, path := newTestService(t, "", WithBus(bus))

	err := svc.Load(context.Background())
	if !errors.Is(err, ledconfig.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if svc.State() != StateEmpty {
		t.Errorf("expected empty, got %s", svc.State())
	}
	if svc.Current() != nil {
		t.Error("expected nil map after failed first load")
	}

	st := svc.Status()
	if st.LastErrorKind != ledconfig.KindNotFound || st.Source != path {
		t.Errorf("unexpected status: %+v", st)
	}

	select {
	case e := <-failed:
		if e.Kind != ledconfig.KindNotFound || e.Source != path {
			t.Errorf("unexpected failed event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for GroupsLoadFailedEvent")
	}
}

func TestService_ReloadFailureKeepsPrevious(t *testing.T) {
	svc, path := newTestService(t, validConfig)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := svc.Current()

	writeConfig(t, path, conflictConfig)
	err := svc.Reload(context.Background())
	if !errors.Is(err, ledconfig.ErrPriorityConflict) {
		t.Fatalf("expected ErrPriorityConflict, got %v", err)
	}

	if svc.State() != StateDegraded {
		t.Errorf("expected degraded, got %s", svc.State())
	}
	if !svc.Current().Equal(before) {
		t.Error("previous map should remain active")
	}
	if st := svc.Status(); st.LastErrorKind != ledconfig.KindPriorityConflict {
		t.Errorf("unexpected error kind %q", st.LastErrorKind)
	}

	// Fixing the file recovers
	writeConfig(t, path, reloadedConfig)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if svc.State() != StateHealthy {
		t.Errorf("expected healthy after recovery, got %s", svc.State())
	}
	if _, _, ok := svc.Group("fault"); !ok {
		t.Error("expected reloaded group fault")
	}
	if st := svc.Status(); st.LastError != "" {
		t.Errorf("last error not cleared: %q", st.LastError)
	}
}

func TestService_ReloadSwapsMap(t *testing.T) {
	svc, path := newTestService(t, validConfig)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	old := svc.Current()

	writeConfig(t, path, reloadedConfig)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Readers holding the old map keep a consistent view
	if len(old) != 2 {
		t.Errorf("old map mutated: %v", old.Paths())
	}
	if got := svc.Current(); len(got) != 1 {
		t.Errorf("expected 1 group after reload, got %v", got.Paths())
	}
}

func TestService_Locator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "led-group-config.json")
	writeConfig(t, path, validConfig)

	svc := New(
		WithLocator(fakeLocator{path: path}),
		WithLogger(quietLogger()),
		WithLoadOptions(ledconfig.WithLogger(quietLogger())),
	)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if st := svc.Status(); st.Source != path {
		t.Errorf("expected source %q, got %q", path, st.Source)
	}
}

func TestService_LocatorError(t *testing.T) {
	locErr := errors.New("no inventory")
	svc := New(
		WithLocator(fakeLocator{err: locErr}),
		WithLogger(quietLogger()),
	)

	err := svc.Load(context.Background())
	if !errors.Is(err, locErr) {
		t.Fatalf("expected locator error, got %v", err)
	}
	if svc.State() != StateEmpty {
		t.Errorf("expected empty, got %s", svc.State())
	}
	if st := svc.Status(); st.LastErrorKind != ledconfig.KindLocator {
		t.Errorf("expected kind %q, got %q", ledconfig.KindLocator, st.LastErrorKind)
	}
}

func TestService_GroupPrefix(t *testing.T) {
	svc, _ := newTestService(t, validConfig,
		WithLoadOptions(ledconfig.WithGroupPrefix("/custom"), ledconfig.WithLogger(quietLogger())))
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	path, actions, ok := svc.Group("power_on")
	if !ok {
		t.Fatal("group power_on not found")
	}
	if path != "/custom/power_on" {
		t.Errorf("unexpected path %q", path)
	}
	if _, ok := actions["led2"]; !ok {
		t.Error("expected led2 in power_on")
	}

	if _, _, ok := svc.Group("missing"); ok {
		t.Error("unexpected group missing")
	}
}

func TestService_GroupSharedNameIsDeterministic(t *testing.T) {
	svc, _ := newTestService(t, `{"leds":[
		{"group": "b/x", "members": [{"Name": "led1", "Action": "On"}]},
		{"group": "a/x", "members": [{"Name": "led2", "Action": "On"}]}
	]}`)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := ledconfig.DefaultGroupPrefix + "/a/x"
	for range 50 {
		path, actions, ok := svc.Group("x")
		if !ok {
			t.Fatal("group x not found")
		}
		if path != want {
			t.Fatalf("Group(x) path = %q, want %q", path, want)
		}
		if _, ok := actions["led2"]; !ok {
			t.Fatalf("Group(x) returned members of the wrong group: %v", actions)
		}
	}
}

func TestService_Validate(t *testing.T) {
	svc, _ := newTestService(t, validConfig)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := svc.Current()

	groups, err := svc.Validate([]byte(reloadedConfig), ledconfig.FormatJSON, "request")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("expected 1 group, got %d", len(groups))
	}

	if _, err := svc.Validate([]byte(conflictConfig), ledconfig.FormatJSON, "request"); !errors.Is(err, ledconfig.ErrPriorityConflict) {
		t.Errorf("expected ErrPriorityConflict, got %v", err)
	}

	if !svc.Current().Equal(before) || svc.State() != StateHealthy {
		t.Error("Validate must not change the active map or state")
	}
}

func TestService_Watch(t *testing.T) {
	svc, path := newTestService(t, validConfig, WithDebounce(50*time.Millisecond))

	if err := svc.Watch(); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := svc.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer svc.Stop()

	time.Sleep(100 * time.Millisecond)
	writeConfig(t, path, reloadedConfig)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, ok := svc.Group("fault"); ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("watcher did not reload, groups = %v", svc.Current().Paths())
}

func TestService_StopWithoutWatch(t *testing.T) {
	svc, _ := newTestService(t, validConfig)
	if err := svc.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateLoading:  "loading",
		StateHealthy:  "healthy",
		StateDegraded: "degraded",
		StateEmpty:    "empty",
		State(42):     "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
		text, _ := state.MarshalText()
		if string(text) != want {
			t.Errorf("State(%d).MarshalText() = %q, want %q", state, text, want)
		}
	}
}
