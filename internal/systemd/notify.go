// Package systemd reports service lifecycle to the systemd manager.
package systemd

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify messages. Outside systemd every call is a no-op.
type Notifier struct {
	unsetEnv bool
	send     func(unsetEnv bool, state string) (bool, error)
}

// NewNotifier creates a Notifier using the NOTIFY_SOCKET of the environment.
func NewNotifier() *Notifier {
	return &Notifier{send: daemon.SdNotify}
}

// Ready reports that startup finished.
func (n *Notifier) Ready() error {
	return n.notify(daemon.SdNotifyReady)
}

// Reloading reports that a configuration reload started.
func (n *Notifier) Reloading() error {
	return n.notify(daemon.SdNotifyReloading)
}

// Stopping reports that shutdown started.
func (n *Notifier) Stopping() error {
	return n.notify(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl.
func (n *Notifier) Status(format string, args ...any) error {
	return n.notify("STATUS=" + fmt.Sprintf(format, args...))
}

func (n *Notifier) notify(state string) error {
	if _, err := n.send(n.unsetEnv, state); err != nil {
		return fmt.Errorf("sd_notify %q: %w", state, err)
	}
	return nil
}
