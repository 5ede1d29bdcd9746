package locator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

type fakeSource struct {
	name  string
	names []string
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Names(context.Context) ([]string, error) {
	f.calls++
	return f.names, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		override bool
		files    []string
		sources  []*fakeSource
		want     string
	}{
		{
			name:     "override wins",
			override: true,
			files:    []string{"board-a/" + ConfigFileName, ConfigFileName},
			sources:  []*fakeSource{{name: "dt", names: []string{"board-a"}}},
			want:     "override",
		},
		{
			name:    "first matching compatible name",
			files:   []string{"board-b/" + ConfigFileName, "board-c/" + ConfigFileName},
			sources: []*fakeSource{{name: "dt", names: []string{"board-a", "board-b", "board-c"}}},
			want:    "board-b/" + ConfigFileName,
		},
		{
			name:  "earlier source wins",
			files: []string{"from-dbus/" + ConfigFileName, "from-dt/" + ConfigFileName},
			sources: []*fakeSource{
				{name: "dbus", names: []string{"from-dbus"}},
				{name: "dt", names: []string{"from-dt"}},
			},
			want: "from-dbus/" + ConfigFileName,
		},
		{
			name:  "failing source is skipped",
			files: []string{"from-dt/" + ConfigFileName},
			sources: []*fakeSource{
				{name: "dbus", err: errors.New("no bus")},
				{name: "dt", names: []string{"from-dt"}},
			},
			want: "from-dt/" + ConfigFileName,
		},
		{
			name:    "falls back to default",
			sources: []*fakeSource{{name: "dt", names: []string{"unknown-board"}}},
			want:    ConfigFileName,
		},
		{
			name: "directory named like the config is ignored",
			files: []string{
				ConfigFileName,
			},
			sources: []*fakeSource{{name: "dt", names: []string{"dir-board"}}},
			want:    ConfigFileName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := t.TempDir()
			override := filepath.Join(t.TempDir(), ConfigFileName)
			if tt.override {
				touch(t, override)
			}
			for _, f := range tt.files {
				touch(t, filepath.Join(dataDir, f))
			}
			if err := os.MkdirAll(filepath.Join(dataDir, "dir-board", ConfigFileName), 0o755); err != nil {
				t.Fatal(err)
			}

			sources := make([]NameSource, len(tt.sources))
			for i, s := range tt.sources {
				sources[i] = s
			}

			loc := New(
				WithOverrideFile(override),
				WithDataDir(dataDir),
				WithSources(sources...),
				WithLogger(quietLogger()),
			)

			got, err := loc.Resolve(context.Background())
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			want := filepath.Join(dataDir, tt.want)
			if tt.want == "override" {
				want = override
			}
			if got != want {
				t.Errorf("Resolve() = %q, want %q", got, want)
			}
		})
	}
}

func TestResolve_OverrideSkipsSources(t *testing.T) {
	override := filepath.Join(t.TempDir(), ConfigFileName)
	touch(t, override)

	source := &fakeSource{name: "dt", names: []string{"board"}}
	loc := New(WithOverrideFile(override), WithDataDir(t.TempDir()),
		WithSources(source), WithLogger(quietLogger()))

	if _, err := loc.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if source.calls != 0 {
		t.Errorf("sources consulted %d times despite override", source.calls)
	}
}

func TestResolve_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loc := New(WithOverrideFile(""), WithDataDir(t.TempDir()),
		WithSources(&fakeSource{name: "dt"}), WithLogger(quietLogger()))

	if _, err := loc.Resolve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	loc := New(WithLogger(quietLogger()))
	if loc.overrideFile != DefaultOverrideFile {
		t.Errorf("overrideFile = %q", loc.overrideFile)
	}
	if loc.dataDir != DefaultDataDir {
		t.Errorf("dataDir = %q", loc.dataDir)
	}

	// Empty data dir keeps the default
	loc = New(WithDataDir(""), WithLogger(quietLogger()))
	if loc.dataDir != DefaultDataDir {
		t.Errorf("dataDir = %q after empty option", loc.dataDir)
	}
}

func TestDeviceTreeSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compatible")
	if err := os.WriteFile(path, []byte("vendor,board-rev2\x00vendor,board\x00\x00"), 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := NewDeviceTreeSource(path).Names(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"vendor,board-rev2", "vendor,board"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %q, want %q", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestDeviceTreeSource_Missing(t *testing.T) {
	source := NewDeviceTreeSource(filepath.Join(t.TempDir(), "compatible"))
	if _, err := source.Names(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}

	if NewDeviceTreeSource("").Path != DefaultDeviceTreePath {
		t.Error("empty path should use the default")
	}
}

func TestFromConfig_DeviceTreeOnly(t *testing.T) {
	dataDir := t.TempDir()
	dtPath := filepath.Join(t.TempDir(), "compatible")
	if err := os.WriteFile(dtPath, []byte("vendor,board\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dataDir, "vendor,board", ConfigFileName)
	touch(t, want)

	loc, closeFn := FromConfig(Config{
		OverrideFile:   filepath.Join(t.TempDir(), "none.json"),
		DataDir:        dataDir,
		DeviceTreePath: dtPath,
	}, quietLogger())
	defer closeFn()

	got, err := loc.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}
