// Package service wires the planner, the arranger and the trigger table to
// the stored profile. Every surface (TUI, CLI, daemon) goes through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sadopc/gymbuddy/internal/fitness"
	"github.com/sadopc/gymbuddy/internal/hydration"
	"github.com/sadopc/gymbuddy/internal/metrics"
	"github.com/sadopc/gymbuddy/internal/profile"
	"github.com/sadopc/gymbuddy/internal/reminder"
	"github.com/sadopc/gymbuddy/internal/store"
	"github.com/sadopc/gymbuddy/internal/trigger"
)

const TestNotificationDelay = 5 * time.Second

type Options struct {
	UserID     string
	Dispatcher reminder.Dispatcher
	Now        reminder.Clock
	Logger     *zap.SugaredLogger
	Metrics    *metrics.Metrics
	// DailySpec is the cron spec of the daily replan; empty disables it.
	DailySpec string
	// ReconcileEvery re-reads the trigger table; 0 disables it.
	ReconcileEvery time.Duration
}

// Hydration is one user's reminder service.
type Hydration struct {
	store    *store.Store
	table    *trigger.AlarmTable
	arranger *reminder.Arranger
	userID   string
	now      reminder.Clock
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics

	dailySpec      string
	reconcileEvery time.Duration
	cron           *cron.Cron
}

func New(st *store.Store, opts Options) *Hydration {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	table := trigger.New(st, opts.Dispatcher, trigger.Options{
		UserID: opts.UserID,
		Allowed: func() bool {
			return st.GetBool(store.SettingExactAlarms, true)
		},
		Now:     opts.Now,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	return &Hydration{
		store:          st,
		table:          table,
		arranger:       reminder.NewArranger(table, opts.Now, opts.Logger, opts.Metrics),
		userID:         opts.UserID,
		now:            opts.Now,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		dailySpec:      opts.DailySpec,
		reconcileEvery: opts.ReconcileEvery,
	}
}

func (h *Hydration) UserID() string { return h.userID }

// Restore re-arms the triggers persisted by an earlier run.
func (h *Hydration) Restore() (int, error) {
	return h.table.Restore()
}

// Plan computes today's plan from the stored profile.
func (h *Hydration) Plan() (*store.Profile, hydration.Plan, bool, error) {
	p, err := h.store.GetProfile(h.userID)
	if err != nil {
		return nil, hydration.Plan{}, false, fmt.Errorf("load profile: %w", err)
	}
	plan, ok := hydration.PlanReminders(p.WeightKg, p.ActiveStart, p.ActiveEnd)
	return p, plan, ok, nil
}

// Replan arranges today's remaining servings, replacing earlier triggers.
// An empty plan clears everything.
func (h *Hydration) Replan(ctx context.Context) (reminder.Report, error) {
	if err := ctx.Err(); err != nil {
		return reminder.Report{}, err
	}
	_, plan, ok, err := h.Plan()
	if err != nil {
		return reminder.Report{}, err
	}
	h.metrics.Planned(ok)
	if !ok {
		h.logger.Infof("service: nothing to plan for %s (weight or window out of range)", h.userID)
	}
	return h.arranger.Arrange(plan), nil
}

// SaveProfile validates and stores the profile, then replans.
func (h *Hydration) SaveProfile(ctx context.Context, p *store.Profile) (reminder.Report, error) {
	p.UserID = h.userID
	if err := profile.Validate(p); err != nil {
		return reminder.Report{}, err
	}
	if err := h.store.SaveProfile(p); err != nil {
		return reminder.Report{}, err
	}
	return h.Replan(ctx)
}

// SaveObjectives stores the weekly goal and focus, then replans.
func (h *Hydration) SaveObjectives(ctx context.Context, weeklyGoal int, goalType string) (reminder.Report, error) {
	if err := h.store.UpdateObjectives(h.userID, weeklyGoal, goalType); err != nil {
		return reminder.Report{}, err
	}
	return h.Replan(ctx)
}

// CheckIn records body metrics. The new weight changes the water target,
// so a profile with a window is replanned.
func (h *Hydration) CheckIn(ctx context.Context, weightKg float64, heightCm int) (*store.CheckIn, reminder.Report, error) {
	if err := profile.ValidateCheckIn(weightKg, heightCm); err != nil {
		return nil, reminder.Report{}, err
	}
	c, err := h.store.AddCheckIn(h.userID, weightKg, heightCm)
	if err != nil {
		return nil, reminder.Report{}, err
	}
	report, err := h.Replan(ctx)
	return c, report, err
}

// Logout removes every hydration trigger.
func (h *Hydration) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.arranger.CancelAll()
	return nil
}

func (h *Hydration) TestNotification(delay time.Duration) error {
	if delay <= 0 {
		delay = TestNotificationDelay
	}
	return h.arranger.ScheduleTest(delay)
}

func (h *Hydration) LogWorkout() (*store.WorkoutResult, error) {
	return h.store.LogWorkout(h.userID, fitness.Day(h.now()))
}

// Drink logs one serving as drunk.
func (h *Hydration) Drink(ml int) (*store.Intake, error) {
	if ml <= 0 {
		ml = hydration.ServingMl
	}
	return h.store.LogIntake(h.userID, ml, h.now())
}

func (h *Hydration) Pending() []store.TriggerRow {
	return h.table.Pending()
}

// Today summarizes the current day for the dashboard and the status command.
type Today struct {
	Profile  *store.Profile
	Plan     hydration.Plan
	Planned  bool
	IntakeMl int
	Pending  []store.TriggerRow
	Next     *store.TriggerRow
	Progress store.Progress
}

func (h *Hydration) Today() (*Today, error) {
	now := h.now()
	t := &Today{}

	p, plan, ok, err := h.Plan()
	switch {
	case err == nil:
		t.Profile, t.Plan, t.Planned = p, plan, ok
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, err
	}

	if t.IntakeMl, err = h.store.TodayIntake(h.userID, now); err != nil {
		return nil, err
	}
	if t.Progress, err = h.store.WorkoutProgress(h.userID, now); err != nil {
		return nil, err
	}
	for _, row := range h.table.Pending() {
		if row.Slot == reminder.TestSlot {
			continue
		}
		t.Pending = append(t.Pending, row)
	}
	if len(t.Pending) > 0 {
		next := t.Pending[0]
		t.Next = &next
	}
	return t, nil
}

// Start runs the daily replan and the reconcile loop until ctx is done.
func (h *Hydration) Start(ctx context.Context) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	if h.dailySpec != "" {
		_, err := c.AddFunc(h.dailySpec, func() {
			if !h.store.GetBool(store.SettingDailyReplan, true) {
				return
			}
			report, err := h.Replan(ctx)
			if err != nil {
				h.logger.Warnf("service: daily replan: %v", err)
				return
			}
			h.logger.Infof("service: daily replan armed %d triggers", len(report.Registered))
		})
		if err != nil {
			return fmt.Errorf("schedule daily replan %q: %w", h.dailySpec, err)
		}
	}
	if h.reconcileEvery > 0 {
		_, err := c.AddFunc(fmt.Sprintf("@every %s", h.reconcileEvery), func() {
			if _, err := h.table.Reconcile(); err != nil && !errors.Is(err, trigger.ErrStopped) {
				h.logger.Warnf("service: reconcile triggers: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule reconcile: %w", err)
		}
	}

	h.cron = c
	c.Start()
	go func() {
		<-ctx.Done()
		h.Stop()
	}()
	return nil
}

// Stop halts the scheduler and disarms timers; persisted rows are kept.
func (h *Hydration) Stop() {
	if h.cron != nil {
		<-h.cron.Stop().Done()
	}
	h.table.Stop()
}
