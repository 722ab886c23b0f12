package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	notifyObj          = "org.freedesktop.Notifications"
	notifyPath         = "/org/freedesktop/Notifications"
	notifyMethod       = "org.freedesktop.Notifications.Notify"
	capabilitiesMethod = "org.freedesktop.Notifications.GetCapabilities"
)

// Permission is the alert permission as known to a notifier.
type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// busObject is the subset of dbus.BusObject the notifier calls.
type busObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// recheckAfter is how long a failed capability check is trusted before the
// bus is asked again.
const recheckAfter = time.Minute

// Desktop posts alerts through the freedesktop notification service on the
// session bus.
type Desktop struct {
	appName string
	obj     busObject
	now     func() time.Time

	mu         sync.Mutex
	permission Permission
	deniedAt   time.Time
}

// NewDesktop connects to the session bus.
func NewDesktop(appName string) (*Desktop, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	return &Desktop{
		appName: appName,
		obj:     conn.Object(notifyObj, dbus.ObjectPath(notifyPath)),
		now:     time.Now,
	}, nil
}

// Permission asks the bus whether a notification server answers. A grant
// is kept for the life of the notifier; a failure is kept for recheckAfter.
// A check cut short by ctx leaves the permission unknown.
func (d *Desktop) Permission(ctx context.Context) Permission {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.permission {
	case PermissionGranted:
		return d.permission
	case PermissionDenied:
		if d.clock().Sub(d.deniedAt) < recheckAfter {
			return d.permission
		}
	}

	var caps []string
	err := d.obj.CallWithContext(ctx, capabilitiesMethod, 0).Store(&caps)
	switch {
	case err == nil:
		d.permission = PermissionGranted
	case ctx.Err() != nil:
		return PermissionUnknown
	default:
		d.permission = PermissionDenied
		d.deniedAt = d.clock()
	}
	return d.permission
}

func (d *Desktop) clock() time.Time {
	if d.now == nil {
		return time.Now()
	}
	return d.now()
}

// Notify posts a notification with the given title and body.
func (d *Desktop) Notify(ctx context.Context, title, body string) error {
	if d.Permission(ctx) != PermissionGranted {
		return ErrPermissionDenied
	}

	call := d.obj.CallWithContext(ctx,
		notifyMethod,
		0,
		d.appName,
		uint32(0),
		"",
		title,
		body,
		[]string{},
		map[string]dbus.Variant{},
		int32(-1),
	)
	if call.Err != nil {
		return fmt.Errorf("sending notification %q: %w", title, call.Err)
	}
	return nil
}
