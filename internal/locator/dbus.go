package locator

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/godbus/dbus/v5"
)

const (
	mapperService   = "xyz.openbmc_project.ObjectMapper"
	mapperPath      = "/xyz/openbmc_project/object_mapper"
	mapperInterface = "xyz.openbmc_project.ObjectMapper"

	propertiesGet = "org.freedesktop.DBus.Properties.Get"

	inventoryRoot       = "/xyz/openbmc_project/inventory"
	compatibleInterface = "xyz.openbmc_project.Inventory.Decorator.Compatible"
)

// BusConn is the subset of *dbus.Conn used by DBusSource.
type BusConn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
}

// DBusSource reads compatible names published in the inventory.
type DBusSource struct {
	conn BusConn
}

// NewDBusSource connects to the system bus.
func NewDBusSource() (*DBusSource, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &DBusSource{conn: conn}, nil
}

// NewDBusSourceWithConn wraps an existing connection.
func NewDBusSourceWithConn(conn BusConn) *DBusSource {
	return &DBusSource{conn: conn}
}

// Name implements NameSource.
func (s *DBusSource) Name() string {
	return "dbus"
}

// Close closes the underlying connection if it owns one.
func (s *DBusSource) Close() error {
	if c, ok := s.conn.(*dbus.Conn); ok {
		return c.Close()
	}
	return nil
}

// Names implements NameSource. Names from every inventory object that
// implements the Compatible decorator are returned in object path order.
func (s *DBusSource) Names(ctx context.Context) ([]string, error) {
	// object path -> service -> interfaces
	var subtree map[dbus.ObjectPath]map[string][]string

	mapper := s.conn.Object(mapperService, mapperPath)
	call := mapper.CallWithContext(ctx, mapperInterface+".GetSubTree", 0,
		inventoryRoot, int32(0), []string{compatibleInterface})
	if call.Err != nil {
		return nil, fmt.Errorf("GetSubTree: %w", call.Err)
	}
	if err := call.Store(&subtree); err != nil {
		return nil, fmt.Errorf("decode GetSubTree reply: %w", err)
	}

	var names []string
	for _, path := range sortedPaths(subtree) {
		for _, service := range sortedKeys(subtree[path]) {
			var prop dbus.Variant
			call := s.conn.Object(service, path).CallWithContext(ctx, propertiesGet, 0, compatibleInterface, "Names")
			if call.Err != nil {
				return nil, fmt.Errorf("read Names of %s: %w", path, call.Err)
			}
			if err := call.Store(&prop); err != nil {
				return nil, fmt.Errorf("decode Names of %s: %w", path, err)
			}

			var values []string
			if err := prop.Store(&values); err != nil {
				return nil, fmt.Errorf("decode Names of %s: %w", path, err)
			}
			names = append(names, values...)
		}
	}
	return names, nil
}

func sortedPaths[V any](m map[dbus.ObjectPath]V) []dbus.ObjectPath {
	return slices.Sorted(maps.Keys(m))
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
