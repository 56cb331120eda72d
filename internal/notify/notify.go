// Package notify holds the reminder.Dispatcher implementations that turn a
// fired trigger into something the user sees or that is kept as history.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/sadopc/gymbuddy/internal/reminder"
	"github.com/sadopc/gymbuddy/internal/store"
)

const (
	ChannelID   = "gymbuddy_channel"
	ChannelName = "GymBuddy notifications"
)

// Desktop posts reminders as desktop notifications.
type Desktop struct {
	logger *zap.SugaredLogger
	notify func(title, message string, icon any) error

	channelOnce sync.Once
}

func NewDesktop(logger *zap.SugaredLogger) *Desktop {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Desktop{logger: logger, notify: beeep.Notify}
}

// ensureChannel names the notification source. Safe on every dispatch.
func (d *Desktop) ensureChannel() {
	d.channelOnce.Do(func() {
		beeep.AppName = ChannelName
		d.logger.Debugf("notify: channel %s ready", ChannelID)
	})
}

func (d *Desktop) Dispatch(ctx context.Context, p reminder.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.ensureChannel()
	p = p.Resolve()
	if err := d.notify(p.Title, p.Message, ""); err != nil {
		return fmt.Errorf("desktop notification %d: %w", p.ID, err)
	}
	return nil
}

// DeliveryStore is the subset of the store the Recorder writes to.
type DeliveryStore interface {
	AddDelivery(d *store.Delivery) error
}

// Recorder appends every dispatched payload to the delivery history.
type Recorder struct {
	store  DeliveryStore
	userID string
}

// NewRecorder records under userID unless the dispatch context names a user.
func NewRecorder(st DeliveryStore, userID string) *Recorder {
	return &Recorder{store: st, userID: userID}
}

func (r *Recorder) Dispatch(ctx context.Context, p reminder.Payload) error {
	p = p.Resolve()
	userID := reminder.UserFrom(ctx)
	if userID == "" {
		userID = r.userID
	}
	slot, ok := reminder.SlotFrom(ctx)
	if !ok {
		slot = -1
	}
	return r.store.AddDelivery(&store.Delivery{
		UserID:         userID,
		Slot:           slot,
		NotificationID: p.ID,
		Title:          p.Title,
		Message:        p.Message,
	})
}

// Log only writes the payload to the logger; used when notifier is "none".
type Log struct {
	logger *zap.SugaredLogger
}

func NewLog(logger *zap.SugaredLogger) *Log {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Log{logger: logger}
}

func (l *Log) Dispatch(ctx context.Context, p reminder.Payload) error {
	p = p.Resolve()
	l.logger.Infow("reminder", "title", p.Title, "message", p.Message, "id", p.ID,
		"delivery_id", reminder.DeliveryIDFrom(ctx))
	return nil
}

// Multi dispatches to every handler in order. All handlers run even if one
// fails; the errors are joined.
type Multi []reminder.Dispatcher

func (m Multi) Dispatch(ctx context.Context, p reminder.Payload) error {
	var errs []error
	for _, d := range m {
		if d == nil {
			continue
		}
		if err := d.Dispatch(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
