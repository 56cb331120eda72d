package reminder

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/gymbuddy/internal/hydration"
)

type registered struct {
	at      time.Time
	payload Payload
}

// fakeRegistry is an in-memory trigger table. Slots listed in deny refuse
// registration with ErrPermissionDenied, slots in fail with a plain error.
type fakeRegistry struct {
	mu      sync.Mutex
	slots   map[int]registered
	deny    map[int]bool
	fail    map[int]bool
	cancels int
	lookups []int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		slots: make(map[int]registered),
		deny:  make(map[int]bool),
		fail:  make(map[int]bool),
	}
}

func (f *fakeRegistry) Register(slot int, at time.Time, p Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deny[slot] {
		return ErrPermissionDenied
	}
	if f.fail[slot] {
		return errors.New("disk full")
	}
	f.slots[slot] = registered{at: at, payload: p}
	return nil
}

func (f *fakeRegistry) Cancel(slot int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.slots[slot]; ok {
		f.cancels++
	}
	delete(f.slots, slot)
	return nil
}

func (f *fakeRegistry) Exists(slot int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, slot)
	_, ok := f.slots[slot]
	return ok
}

func (f *fakeRegistry) keys() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for k := range f.slots {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func fixedClock(hour, minute int) Clock {
	at := time.Date(2026, time.March, 14, hour, minute, 30, 0, time.Local)
	return func() time.Time { return at }
}

func seventyKiloPlan(t *testing.T) hydration.Plan {
	t.Helper()
	p, ok := hydration.PlanReminders(70, "08:00", "22:00")
	require.True(t, ok)
	return p
}

// ============================================================
// Arrange
// ============================================================

func TestArrangeBeforeWindowRegistersEveryServing(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)

	report := a.Arrange(seventyKiloPlan(t))

	assert.Len(t, report.Registered, 12)
	assert.Empty(t, report.Skipped)
	assert.False(t, report.Partial())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, reg.keys())

	first := reg.slots[0]
	assert.Equal(t, time.Date(2026, time.March, 14, 8, 0, 0, 0, time.Local), first.at)
	last := reg.slots[11]
	assert.Equal(t, time.Date(2026, time.March, 14, 20, 50, 0, 0, time.Local), last.at)
}

func TestArrangeZeroesSeconds(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(7, 59), nil, nil)
	a.Arrange(seventyKiloPlan(t))

	for slot, r := range reg.slots {
		assert.Zero(t, r.at.Second(), "slot %d", slot)
		assert.Zero(t, r.at.Nanosecond(), "slot %d", slot)
	}
}

func TestArrangeSkipsPastAndCurrentMinute(t *testing.T) {
	reg := newFakeRegistry()
	// 10:20 is serving #2; it is not strictly in the future.
	a := NewArranger(reg, fixedClock(10, 20), nil, nil)

	report := a.Arrange(seventyKiloPlan(t))

	assert.Equal(t, []int{0, 1, 2}, report.Skipped)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8, 9, 10, 11}, report.Registered)
	assert.Equal(t, report.Registered, reg.keys())
}

func TestArrangeAfterWindowRegistersNothing(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(23, 0), nil, nil)

	report := a.Arrange(seventyKiloPlan(t))

	assert.Empty(t, report.Registered)
	assert.Len(t, report.Skipped, 12)
	assert.Empty(t, reg.keys())
}

func TestArrangeEmptyPlanClearsPreviousTriggers(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)
	a.Arrange(seventyKiloPlan(t))
	require.NotEmpty(t, reg.keys())

	empty, ok := hydration.PlanReminders(1, "08:00", "22:00")
	require.False(t, ok)
	report := a.Arrange(empty)

	assert.Empty(t, report.Registered)
	assert.Empty(t, reg.keys())
}

func TestArrangeReplacesPreviousPlan(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)
	a.Arrange(seventyKiloPlan(t))

	smaller, ok := hydration.PlanReminders(50, "08:00", "20:00")
	require.True(t, ok)
	a.Arrange(smaller)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, reg.keys())
	assert.Equal(t, time.Date(2026, time.March, 14, 18, 30, 0, 0, time.Local), reg.slots[7].at)
}

func TestArrangeTwiceIsIdempotent(t *testing.T) {
	once := newFakeRegistry()
	NewArranger(once, fixedClock(9, 0), nil, nil).Arrange(seventyKiloPlan(t))

	twice := newFakeRegistry()
	a := NewArranger(twice, fixedClock(9, 0), nil, nil)
	a.Arrange(seventyKiloPlan(t))
	a.Arrange(seventyKiloPlan(t))

	assert.Equal(t, once.keys(), twice.keys())
	for slot, r := range once.slots {
		assert.Equal(t, r, twice.slots[slot])
	}
}

func TestArrangeContinuesAfterPermissionDenied(t *testing.T) {
	reg := newFakeRegistry()
	reg.deny[2] = true
	reg.deny[5] = true
	reg.fail[7] = true
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)

	report := a.Arrange(seventyKiloPlan(t))

	assert.Equal(t, []int{2, 5}, report.Denied)
	assert.Equal(t, []int{7}, report.Failed)
	assert.Len(t, report.Registered, 9)
	assert.True(t, report.Partial())
	assert.NotContains(t, reg.keys(), 2)
	assert.Contains(t, reg.keys(), 11)
}

func TestArrangePayloadLeavesTitleAndIDToDefaults(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)
	a.Arrange(seventyKiloPlan(t))

	p := reg.slots[2].payload
	assert.Empty(t, p.Title)
	assert.Zero(t, p.ID)
	assert.Equal(t, "Serving 3 of 12: drink 200ml to hit today's goal.", p.Message)
}

// ============================================================
// CancelAll
// ============================================================

func TestCancelAllOnEmptyRegistry(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)

	a.CancelAll()
	a.CancelAll()

	assert.Empty(t, reg.keys())
	assert.Zero(t, reg.cancels)
}

func TestCancelAllSweepsEveryPlannableSlot(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)

	a.CancelAll()

	require.Len(t, reg.lookups, hydration.MaxServings)
	assert.Equal(t, 0, reg.lookups[0])
	assert.Equal(t, hydration.MaxServings-1, reg.lookups[len(reg.lookups)-1])
}

func TestFreshArrangerCancelsHighestPlannableSlot(t *testing.T) {
	reg := newFakeRegistry()
	// Left over from a 500 kg plan armed by another process.
	reg.slots[hydration.MaxServings-1] = registered{}
	reg.slots[60] = registered{}
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)

	a.CancelAll()

	assert.Empty(t, reg.keys())
}

func TestCancelAllRemovesSlotsRegisteredElsewhere(t *testing.T) {
	reg := newFakeRegistry()
	// Left over from a previous process.
	reg.slots[4] = registered{}
	reg.slots[50] = registered{}
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)

	a.CancelAll()

	assert.Empty(t, reg.keys())
	assert.Equal(t, 2, reg.cancels)
}

func TestCancelAllIsIdempotent(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)
	a.Arrange(seventyKiloPlan(t))

	a.CancelAll()
	cancels := reg.cancels
	a.CancelAll()

	assert.Empty(t, reg.keys())
	assert.Equal(t, cancels, reg.cancels)
}

func TestCancelAllLeavesTestSlot(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)
	require.NoError(t, a.ScheduleTest(5*time.Second))

	a.CancelAll()

	assert.Equal(t, []int{TestSlot}, reg.keys())
}

func TestCancelAllCoversSlotsAboveReservedRange(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(0, 0), nil, nil)

	// 300 kg -> 10500 ml -> 52 servings.
	big, ok := hydration.PlanReminders(300, "06:00", "23:00")
	require.True(t, ok)
	require.Len(t, big.Servings, 52)
	a.Arrange(big)
	require.Contains(t, reg.keys(), 51)

	a.CancelAll()
	assert.Empty(t, reg.keys())
}

func TestArrangeAndCancelAllConcurrently(t *testing.T) {
	reg := newFakeRegistry()
	a := NewArranger(reg, fixedClock(6, 0), nil, nil)
	plan := seventyKiloPlan(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.Arrange(plan)
		}()
		go func() {
			defer wg.Done()
			a.CancelAll()
		}()
	}
	wg.Wait()

	// Whatever ran last, the table holds either the full plan or nothing.
	keys := reg.keys()
	if len(keys) != 0 {
		assert.Len(t, keys, 12)
	}
}

// ============================================================
// Test notification and payload defaults
// ============================================================

func TestScheduleTest(t *testing.T) {
	reg := newFakeRegistry()
	clock := fixedClock(12, 0)
	a := NewArranger(reg, clock, nil, nil)

	require.NoError(t, a.ScheduleTest(5*time.Second))

	r := reg.slots[TestSlot]
	assert.Equal(t, clock().Add(5*time.Second), r.at)
	assert.Equal(t, TestSlot, r.payload.ID)
}

func TestScheduleTestDenied(t *testing.T) {
	reg := newFakeRegistry()
	reg.deny[TestSlot] = true
	a := NewArranger(reg, fixedClock(12, 0), nil, nil)

	err := a.ScheduleTest(time.Second)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestPayloadResolve(t *testing.T) {
	p := Payload{}.Resolve()
	assert.Equal(t, DefaultTitle, p.Title)
	assert.Equal(t, DefaultMessage, p.Message)
	assert.Equal(t, DefaultNotificationID, p.ID)

	custom := Payload{Title: "Stretch", Message: "Stand up", ID: 7}.Resolve()
	assert.Equal(t, Payload{Title: "Stretch", Message: "Stand up", ID: 7}, custom)
}
