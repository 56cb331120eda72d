// Package trigger implements the one-shot trigger table: every registered
// slot is a sqlite row plus an in-process timer that dispatches the payload
// when it fires.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sadopc/gymbuddy/internal/metrics"
	"github.com/sadopc/gymbuddy/internal/reminder"
	"github.com/sadopc/gymbuddy/internal/store"
)

// ErrStopped is returned by Register after Stop.
var ErrStopped = errors.New("trigger table stopped")

// Store is the persistence the table needs.
type Store interface {
	SaveTrigger(t *store.TriggerRow) error
	DeleteTrigger(userID string, slot int) error
	ListTriggers(userID string) ([]store.TriggerRow, error)
}

type Options struct {
	UserID string
	// Allowed reports whether exact triggers may be registered. Nil allows all.
	Allowed func() bool
	Now     func() time.Time
	// DispatchTimeout bounds one delivery; 0 means 30s.
	DispatchTimeout time.Duration
	Logger          *zap.SugaredLogger
	Metrics         *metrics.Metrics
}

type armed struct {
	timer *time.Timer
	gen   uint64
	row   store.TriggerRow
}

// AlarmTable implements reminder.Registry for one user.
type AlarmTable struct {
	store      Store
	dispatcher reminder.Dispatcher
	userID     string
	allowed    func() bool
	now        func() time.Time
	timeout    time.Duration
	logger     *zap.SugaredLogger
	metrics    *metrics.Metrics

	mu      sync.Mutex
	slots   map[int]*armed
	gen     uint64
	stopped bool
}

func New(st Store, dispatcher reminder.Dispatcher, opts Options) *AlarmTable {
	if opts.Allowed == nil {
		opts.Allowed = func() bool { return true }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &AlarmTable{
		store:      st,
		dispatcher: dispatcher,
		userID:     opts.UserID,
		allowed:    opts.Allowed,
		now:        opts.Now,
		timeout:    opts.DispatchTimeout,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		slots:      make(map[int]*armed),
	}
}

// Register persists the trigger, then arms it, replacing whatever the slot held.
func (t *AlarmTable) Register(slot int, at time.Time, payload reminder.Payload) error {
	if !t.allowed() {
		return fmt.Errorf("register slot %d: %w", slot, reminder.ErrPermissionDenied)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return fmt.Errorf("register slot %d: %w", slot, ErrStopped)
	}

	row := store.TriggerRow{
		UserID:         t.userID,
		Slot:           slot,
		FireAt:         at.Truncate(time.Second),
		Title:          payload.Title,
		Message:        payload.Message,
		NotificationID: payload.ID,
	}
	// Persist first so a crash between the two steps is recovered by Restore.
	if err := t.store.SaveTrigger(&row); err != nil {
		return fmt.Errorf("register slot %d: %w", slot, err)
	}
	t.armLocked(row)
	return nil
}

// Cancel disarms the slot and drops its row. Empty slots are a no-op.
func (t *AlarmTable) Cancel(slot int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disarmLocked(slot)
	if err := t.store.DeleteTrigger(t.userID, slot); err != nil {
		return fmt.Errorf("cancel slot %d: %w", slot, err)
	}
	return nil
}

func (t *AlarmTable) Exists(slot int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.slots[slot]
	return ok
}

// Pending returns the armed triggers ordered by fire time.
func (t *AlarmTable) Pending() []store.TriggerRow {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]store.TriggerRow, 0, len(t.slots))
	for _, a := range t.slots {
		out = append(out, a.row)
	}
	sortRows(out)
	return out
}

// Restore re-arms persisted triggers that are still ahead and deletes the
// ones whose time has passed. Missed triggers are not fired late.
func (t *AlarmTable) Restore() (int, error) {
	n, err := t.Reconcile()
	if err != nil {
		return 0, err
	}
	t.logger.Infof("trigger: restored %d pending triggers for %s", n, t.userID)
	return n, nil
}

// Reconcile makes the armed timers match the persisted table, which another
// process (the CLI) may have rewritten. It returns the number armed.
func (t *AlarmTable) Reconcile() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return 0, ErrStopped
	}

	rows, err := t.store.ListTriggers(t.userID)
	if err != nil {
		return 0, fmt.Errorf("reconcile triggers: %w", err)
	}

	now := t.now()
	seen := make(map[int]bool, len(rows))
	for _, row := range rows {
		seen[row.Slot] = true
		if a, ok := t.slots[row.Slot]; ok && sameTrigger(a.row, row) {
			continue
		}
		if !row.FireAt.After(now) {
			t.disarmLocked(row.Slot)
			if err := t.store.DeleteTrigger(t.userID, row.Slot); err != nil {
				t.logger.Warnf("trigger: drop missed slot %d: %v", row.Slot, err)
			}
			t.logger.Infof("trigger: slot %d missed at %s, dropped", row.Slot, row.FireAt.Local().Format(time.RFC3339))
			continue
		}
		t.armLocked(row)
	}
	for slot := range t.slots {
		if !seen[slot] {
			t.disarmLocked(slot)
		}
	}
	return len(t.slots), nil
}

// Stop disarms every timer but keeps the rows for the next Restore.
func (t *AlarmTable) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	for slot := range t.slots {
		t.disarmLocked(slot)
	}
}

// Must be called with t.mu held.
func (t *AlarmTable) armLocked(row store.TriggerRow) {
	t.disarmLocked(row.Slot)

	t.gen++
	gen := t.gen
	delay := row.FireAt.Sub(t.now())
	if delay < 0 {
		delay = 0
	}
	slot := row.Slot
	t.slots[slot] = &armed{
		timer: time.AfterFunc(delay, func() { t.fire(slot, gen) }),
		gen:   gen,
		row:   row,
	}
	t.metrics.SetArmed(len(t.slots))
}

// Must be called with t.mu held.
func (t *AlarmTable) disarmLocked(slot int) {
	a, ok := t.slots[slot]
	if !ok {
		return
	}
	a.timer.Stop()
	delete(t.slots, slot)
	t.metrics.SetArmed(len(t.slots))
}

func (t *AlarmTable) fire(slot int, gen uint64) {
	t.mu.Lock()
	a, ok := t.slots[slot]
	if !ok || a.gen != gen {
		// Replaced or cancelled after the timer started.
		t.mu.Unlock()
		return
	}
	delete(t.slots, slot)
	t.metrics.SetArmed(len(t.slots))
	// Without a dispatcher the row stays for a process that can deliver it.
	if t.dispatcher != nil {
		if err := t.store.DeleteTrigger(t.userID, slot); err != nil {
			t.logger.Warnf("trigger: remove fired slot %d: %v", slot, err)
		}
	}
	t.mu.Unlock()

	payload := reminder.Payload{
		Title:   a.row.Title,
		Message: a.row.Message,
		ID:      a.row.NotificationID,
	}.Resolve()

	deliveryID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	ctx = reminder.WithUser(ctx, t.userID)
	ctx = reminder.WithSlot(ctx, slot)
	ctx = reminder.WithDeliveryID(ctx, deliveryID)

	if t.dispatcher == nil {
		t.logger.Infow("trigger: fired without dispatcher, row kept", "slot", slot, "delivery_id", deliveryID)
		return
	}
	err := t.dispatcher.Dispatch(ctx, payload)
	t.metrics.Delivered(err)
	if err != nil {
		t.logger.Errorw("trigger: dispatch failed", "slot", slot, "delivery_id", deliveryID, "error", err)
		return
	}
	t.logger.Infow("trigger: delivered", "slot", slot, "delivery_id", deliveryID, "notification_id", payload.ID)
}

func sameTrigger(a, b store.TriggerRow) bool {
	return a.FireAt.Equal(b.FireAt) &&
		a.Title == b.Title &&
		a.Message == b.Message &&
		a.NotificationID == b.NotificationID
}

func sortRows(rows []store.TriggerRow) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].FireAt.Equal(rows[j].FireAt) {
			return rows[i].FireAt.Before(rows[j].FireAt)
		}
		return rows[i].Slot < rows[j].Slot
	})
}
