// Package reminder arranges one-shot hydration triggers for a plan and
// defines the contracts of the trigger table and the notification handler.
package reminder

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultTitle          = "Time to drink water! 💧"
	DefaultMessage        = "Drink 200ml to hit today's goal."
	DefaultNotificationID = 1

	// ReservedSlots is the smallest range the cancel sweep covers. The sweep also
	// covers every slot a plan can use (hydration.MaxServings), so triggers
	// left by another process are found without remembering them.
	ReservedSlots = 50
	// TestSlot holds the manual test notification; the sweep leaves it alone.
	TestSlot = 999
)

// ErrPermissionDenied is returned by a Registry that is not allowed to
// register exact wake-up triggers.
var ErrPermissionDenied = errors.New("exact trigger permission denied")

// Payload travels with a trigger to the Dispatcher. Zero fields mean
// "use the default".
type Payload struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	ID      int    `json:"id,omitempty"`
}

// Resolve returns p with defaults filled in.
func (p Payload) Resolve() Payload {
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.Message == "" {
		p.Message = DefaultMessage
	}
	if p.ID == 0 {
		p.ID = DefaultNotificationID
	}
	return p
}

// Registry is the table of pending one-shot triggers, keyed by slot.
// Register replaces whatever the slot held. Cancel on an empty slot is a no-op.
type Registry interface {
	Register(slot int, at time.Time, payload Payload) error
	Cancel(slot int) error
	Exists(slot int) bool
}

// Dispatcher turns a fired trigger into a user-visible notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload Payload) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, payload Payload) error

func (f DispatcherFunc) Dispatch(ctx context.Context, payload Payload) error {
	return f(ctx, payload)
}
