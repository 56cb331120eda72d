package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/gymbuddy/internal/metrics"
	"github.com/sadopc/gymbuddy/internal/reminder"
	"github.com/sadopc/gymbuddy/internal/store"
)

// 2026-03-14 10:00:30 local.
func fixedNow() time.Time {
	return time.Date(2026, time.March, 14, 10, 0, 30, 0, time.Local)
}

func newService(t *testing.T) (*Hydration, *store.Store) {
	t.Helper()
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := New(st, Options{UserID: "u1", Now: fixedNow})
	t.Cleanup(h.Stop)
	return h, st
}

func saveDefaultProfile(t *testing.T, h *Hydration) reminder.Report {
	t.Helper()
	report, err := h.SaveProfile(context.Background(), &store.Profile{
		Name:        "Ana",
		WeightKg:    70,
		HeightCm:    175,
		ActiveStart: "08:00",
		ActiveEnd:   "22:00",
		WeeklyGoal:  3,
		GoalType:    "lose_weight",
	})
	require.NoError(t, err)
	return report
}

func TestSaveProfileArrangesRemainingServings(t *testing.T) {
	h, st := newService(t)

	report := saveDefaultProfile(t, h)

	// 480 and 550 are before 10:00; 620 (10:20) onwards are armed.
	assert.Equal(t, []int{0, 1}, report.Skipped)
	assert.Len(t, report.Registered, 10)
	assert.Equal(t, 2, report.Registered[0])

	rows, err := st.ListTriggers("u1")
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.Equal(t, 10, rows[0].FireAt.Local().Hour())
	assert.Equal(t, 20, rows[0].FireAt.Local().Minute())
}

func TestSaveProfileRejectsMalformedWindow(t *testing.T) {
	h, st := newService(t)

	_, err := h.SaveProfile(context.Background(), &store.Profile{
		WeightKg: 70, ActiveStart: "8am", ActiveEnd: "22:00", WeeklyGoal: 3, GoalType: "lose_weight",
	})
	require.Error(t, err)

	_, err = st.GetProfile("u1")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestReplanWithoutProfile(t *testing.T) {
	h, _ := newService(t)
	_, err := h.Replan(context.Background())
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestReplanIsIdempotent(t *testing.T) {
	h, st := newService(t)
	saveDefaultProfile(t, h)

	_, err := h.Replan(context.Background())
	require.NoError(t, err)

	rows, _ := st.ListTriggers("u1")
	assert.Len(t, rows, 10)
	assert.Len(t, h.Pending(), 10)
}

func TestInvertedWindowClearsTriggers(t *testing.T) {
	h, st := newService(t)
	saveDefaultProfile(t, h)

	report, err := h.SaveProfile(context.Background(), &store.Profile{
		WeightKg: 70, ActiveStart: "22:00", ActiveEnd: "07:00", WeeklyGoal: 3, GoalType: "lose_weight",
	})
	require.NoError(t, err)
	assert.Empty(t, report.Registered)

	rows, _ := st.ListTriggers("u1")
	assert.Empty(t, rows)
}

func TestPermissionOffDeniesEverySlot(t *testing.T) {
	h, st := newService(t)
	require.NoError(t, st.SetBool(store.SettingExactAlarms, false))

	report := saveDefaultProfile(t, h)
	assert.Empty(t, report.Registered)
	assert.Len(t, report.Denied, 10)
	assert.True(t, report.Partial())
}

func TestSaveObjectivesReplans(t *testing.T) {
	h, st := newService(t)
	saveDefaultProfile(t, h)
	require.NoError(t, h.Logout(context.Background()))

	report, err := h.SaveObjectives(context.Background(), 5, "gain_weight")
	require.NoError(t, err)
	assert.Len(t, report.Registered, 10)

	p, _ := st.GetProfile("u1")
	assert.Equal(t, 5, p.WeeklyGoal)
	assert.Equal(t, "gain_weight", p.GoalType)
}

func TestCheckInChangesTarget(t *testing.T) {
	h, _ := newService(t)
	saveDefaultProfile(t, h)

	// 50 kg -> 8 servings every 105 minutes from 08:00: 480, 585, 690, ...
	c, report, err := h.CheckIn(context.Background(), 50, 175)
	require.NoError(t, err)
	assert.InDelta(t, 16.3, c.BMI, 0.1)
	assert.Equal(t, []int{0, 1}, report.Skipped)
	assert.Len(t, report.Registered, 6)
}

func TestCheckInRejectsOutOfRangeWeight(t *testing.T) {
	h, st := newService(t)
	saveDefaultProfile(t, h)

	for _, w := range []float64{5000, 1e15} {
		_, _, err := h.CheckIn(context.Background(), w, 175)
		require.Error(t, err, "weight %g", w)
	}

	checkIns, err := st.ListCheckIns("u1")
	require.NoError(t, err)
	assert.Empty(t, checkIns)
	p, err := st.GetProfile("u1")
	require.NoError(t, err)
	assert.Equal(t, 70.0, p.WeightKg)

	_, err = h.Replan(context.Background())
	assert.NoError(t, err)
}

func TestLogoutAfterRestartCancelsHighSlots(t *testing.T) {
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	first := New(st, Options{UserID: "u1", Now: fixedNow})
	// 400 kg -> 70 servings every 20 minutes; slots 31..69 are still ahead at 10:00.
	report, err := first.SaveProfile(context.Background(), &store.Profile{
		WeightKg: 400, ActiveStart: "00:00", ActiveEnd: "23:59", WeeklyGoal: 3, GoalType: "lose_weight",
	})
	require.NoError(t, err)
	require.Len(t, report.Registered, 39)
	assert.Equal(t, 69, report.Registered[len(report.Registered)-1])
	first.Stop()

	second := New(st, Options{UserID: "u1", Now: fixedNow})
	t.Cleanup(second.Stop)
	_, err = second.Restore()
	require.NoError(t, err)
	require.NoError(t, second.Logout(context.Background()))

	rows, err := st.ListTriggers("u1")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, second.Pending())
}

func TestLogoutKeepsTestNotification(t *testing.T) {
	h, _ := newService(t)
	saveDefaultProfile(t, h)
	require.NoError(t, h.TestNotification(0))

	require.NoError(t, h.Logout(context.Background()))

	pending := h.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, reminder.TestSlot, pending[0].Slot)
	assert.True(t, pending[0].FireAt.Equal(fixedNow().Add(TestNotificationDelay).Truncate(time.Second)))
}

func TestToday(t *testing.T) {
	h, _ := newService(t)

	empty, err := h.Today()
	require.NoError(t, err)
	assert.Nil(t, empty.Profile)
	assert.Nil(t, empty.Next)

	saveDefaultProfile(t, h)
	_, err = h.Drink(0)
	require.NoError(t, err)
	_, err = h.LogWorkout()
	require.NoError(t, err)
	require.NoError(t, h.TestNotification(time.Second))

	today, err := h.Today()
	require.NoError(t, err)
	assert.True(t, today.Planned)
	assert.Equal(t, 2450, today.Plan.Goal.DailyTargetMl)
	assert.Equal(t, 200, today.IntakeMl)
	assert.Len(t, today.Pending, 10, "test notification is not part of the plan")
	require.NotNil(t, today.Next)
	assert.Equal(t, 2, today.Next.Slot)
	assert.Equal(t, 1, today.Progress.Streak)
	assert.Equal(t, 3, today.Progress.WeeklyGoal)
}

func TestRestoreAfterRestart(t *testing.T) {
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	first := New(st, Options{UserID: "u1", Now: fixedNow})
	saveDefaultProfile(t, first)
	first.Stop()

	second := New(st, Options{UserID: "u1", Now: fixedNow})
	t.Cleanup(second.Stop)
	assert.Empty(t, second.Pending())

	n, err := second.Restore()
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestMetricsRecorded(t *testing.T) {
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	h := New(st, Options{UserID: "u1", Now: fixedNow, Metrics: m})
	t.Cleanup(h.Stop)
	saveDefaultProfile(t, h)

	count, err := testutil.GatherAndCount(reg, "gymbuddy_triggers_armed")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStartRejectsBadSpec(t *testing.T) {
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := New(st, Options{UserID: "u1", DailySpec: "whenever"})
	t.Cleanup(h.Stop)
	assert.Error(t, h.Start(context.Background()))
}

func TestStartStopsWithContext(t *testing.T) {
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := New(st, Options{UserID: "u1", Now: fixedNow, DailySpec: "0 0 * * *", ReconcileEvery: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.Start(ctx))
	saveDefaultProfile(t, h)

	cancel()
	require.Eventually(t, func() bool { return len(h.Pending()) == 0 }, time.Second, 10*time.Millisecond)

	rows, _ := st.ListTriggers("u1")
	assert.Len(t, rows, 10, "rows survive shutdown")
}
