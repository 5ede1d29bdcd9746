package locator

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// DefaultDeviceTreePath lists the board's compatible strings.
const DefaultDeviceTreePath = "/proc/device-tree/compatible"

// DeviceTreeSource reads compatible names from the device tree.
type DeviceTreeSource struct {
	Path string
}

// NewDeviceTreeSource returns a source reading path, or the default path when empty.
func NewDeviceTreeSource(path string) *DeviceTreeSource {
	if path == "" {
		path = DefaultDeviceTreePath
	}
	return &DeviceTreeSource{Path: path}
}

// Name implements NameSource.
func (s *DeviceTreeSource) Name() string {
	return "device-tree"
}

// Names implements NameSource. The file holds NUL-separated strings.
func (s *DeviceTreeSource) Names(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}

	var names []string
	for _, name := range strings.Split(string(data), "\x00") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
