package reminder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/gymbuddy/internal/hydration"
	"github.com/sadopc/gymbuddy/internal/metrics"
)

// Clock returns the current local time.
type Clock func() time.Time

// Report lists the slots of one Arrange call by outcome.
type Report struct {
	Registered []int
	Skipped    []int
	Denied     []int
	Failed     []int
}

// Partial reports whether some future serving could not be registered.
func (r Report) Partial() bool {
	return len(r.Denied) > 0 || len(r.Failed) > 0
}

// Arranger owns one user's hydration triggers. Arrange and CancelAll are
// serialized, so at most one plan is active at a time.
type Arranger struct {
	registry Registry
	now      Clock
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	highest int
}

func NewArranger(registry Registry, now Clock, logger *zap.SugaredLogger, m *metrics.Metrics) *Arranger {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Arranger{
		registry: registry,
		now:      now,
		logger:   logger,
		metrics:  m,
		highest:  max(ReservedSlots, hydration.MaxServings-1),
	}
}

// Arrange replaces the active triggers with one per serving still ahead of
// the current minute. Earlier servings are dropped, not moved to tomorrow.
// Registration failures are logged per slot and never stop the batch.
func (a *Arranger) Arrange(plan hydration.Plan) Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancelAllLocked()

	var report Report
	now := a.now()
	nowMinute := now.Hour()*60 + now.Minute()
	count := len(plan.Servings)

	for _, s := range plan.Servings {
		if s.MinuteOfDay <= nowMinute {
			report.Skipped = append(report.Skipped, s.Index)
			a.metrics.Trigger(metrics.OutcomeSkipped)
			continue
		}

		at := time.Date(now.Year(), now.Month(), now.Day(), s.MinuteOfDay/60, s.MinuteOfDay%60, 0, 0, now.Location())
		payload := Payload{
			Message: fmt.Sprintf("Serving %d of %d: drink %dml to hit today's goal.", s.Index+1, count, plan.Goal.ServingMl),
		}

		err := a.registry.Register(s.Index, at, payload)
		switch {
		case err == nil:
			report.Registered = append(report.Registered, s.Index)
			a.metrics.Trigger(metrics.OutcomeRegistered)
			if s.Index > a.highest {
				a.highest = s.Index
			}
			a.logger.Debugf("reminder: slot %d armed for %s", s.Index, at.Format(time.RFC3339))
		case errors.Is(err, ErrPermissionDenied):
			report.Denied = append(report.Denied, s.Index)
			a.metrics.Trigger(metrics.OutcomeDenied)
			a.logger.Warnf("reminder: no permission to arm slot %d: %v", s.Index, err)
		default:
			report.Failed = append(report.Failed, s.Index)
			a.metrics.Trigger(metrics.OutcomeFailed)
			a.logger.Errorf("reminder: arm slot %d: %v", s.Index, err)
		}
	}

	a.logger.Infof("reminder: arranged %d of %d servings (%d past, %d denied, %d failed)",
		len(report.Registered), count, len(report.Skipped), len(report.Denied), len(report.Failed))
	return report
}

// CancelAll removes every hydration trigger this arranger may have set.
// It is a no-op when nothing is registered.
func (a *Arranger) CancelAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelAllLocked()
}

func (a *Arranger) cancelAllLocked() {
	cancelled := 0
	for slot := 0; slot <= a.highest; slot++ {
		if !a.registry.Exists(slot) {
			continue
		}
		if err := a.registry.Cancel(slot); err != nil {
			a.logger.Warnf("reminder: cancel slot %d: %v", slot, err)
			continue
		}
		cancelled++
		a.metrics.Trigger(metrics.OutcomeCancelled)
	}
	if cancelled > 0 {
		a.logger.Infof("reminder: cancelled %d triggers", cancelled)
	}
}

// ScheduleTest arms the test notification delay from now.
func (a *Arranger) ScheduleTest(delay time.Duration) error {
	at := a.now().Add(delay)
	payload := Payload{
		Title:   "GymBuddy test notification",
		Message: "Notifications are working.",
		ID:      TestSlot,
	}
	if err := a.registry.Register(TestSlot, at, payload); err != nil {
		return fmt.Errorf("schedule test notification: %w", err)
	}
	return nil
}
