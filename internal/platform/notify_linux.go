//go:build linux

package platform

import (
	"sync/atomic"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod = notifyDest + ".Notify"
)

// lastID is the id the service returned for our previous notification.
var lastID atomic.Uint32

// Notify sends a desktop notification using the Freedesktop.org notification spec.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	var replaces uint32
	if opts.Replace {
		replaces = lastID.Load()
	}
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(opts.Urgency)),
	}
	obj := conn.Object(notifyDest, notifyPath)
	call := obj.Call(notifyMethod, 0,
		AppName, replaces, opts.IconPath, title, body, []string{}, hints,
		int32(opts.timeout().Milliseconds()))
	if call.Err != nil {
		return call.Err
	}
	var id uint32
	if err := call.Store(&id); err == nil {
		lastID.Store(id)
	}
	return nil
}
