package store

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedProfile(t *testing.T, s *Store, userID string) *Profile {
	t.Helper()
	p := &Profile{
		UserID:      userID,
		Name:        "Ana",
		WeightKg:    70,
		HeightCm:    175,
		Sex:         "female",
		ActiveStart: "08:00",
		ActiveEnd:   "22:00",
		WeeklyGoal:  4,
		GoalType:    "lose_weight",
	}
	if err := s.SaveProfile(p); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	return p
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s := newTestStore(t)

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestNewWithPath(t *testing.T) {
	path := t.TempDir() + "/sub/gymbuddy.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting("probe", "1"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	v, err := s2.GetSetting("probe")
	if err != nil || v != "1" {
		t.Fatalf("expected persisted setting, got %q (%v)", v, err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Profiles
// ============================================================

func TestGetProfileNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetProfile("nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveAndGetProfile(t *testing.T) {
	s := newTestStore(t)
	seedProfile(t, s, "u1")

	p, err := s.GetProfile("u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Ana" || p.WeightKg != 70 || p.HeightCm != 175 {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if p.ActiveStart != "08:00" || p.ActiveEnd != "22:00" {
		t.Fatalf("unexpected window: %s-%s", p.ActiveStart, p.ActiveEnd)
	}
	if p.Level != 1 || p.XP != 0 {
		t.Fatalf("expected fresh progression, got level %d xp %d", p.Level, p.XP)
	}
}

func TestSaveProfileKeepsProgression(t *testing.T) {
	s := newTestStore(t)
	p := seedProfile(t, s, "u1")
	if _, err := s.LogWorkout("u1", "2026-05-10"); err != nil {
		t.Fatal(err)
	}

	p.WeightKg = 68
	if err := s.SaveProfile(p); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetProfile("u1")
	if got.WeightKg != 68 {
		t.Fatalf("expected weight 68, got %v", got.WeightKg)
	}
	if got.XP != 50 {
		t.Fatalf("save profile reset xp to %d", got.XP)
	}
}

func TestUpdateObjectives(t *testing.T) {
	s := newTestStore(t)
	seedProfile(t, s, "u1")

	if err := s.UpdateObjectives("u1", 6, "gain_weight"); err != nil {
		t.Fatal(err)
	}
	p, _ := s.GetProfile("u1")
	if p.WeeklyGoal != 6 || p.GoalType != "gain_weight" {
		t.Fatalf("objectives not saved: %+v", p)
	}

	if err := s.UpdateObjectives("nobody", 3, "lose_weight"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Check-ins
// ============================================================

func TestAddCheckInUpdatesProfile(t *testing.T) {
	s := newTestStore(t)

	c, err := s.AddCheckIn("u1", 80, 180)
	if err != nil {
		t.Fatal(err)
	}
	if c.BMI < 24.6 || c.BMI > 24.8 {
		t.Fatalf("expected bmi ~24.7, got %v", c.BMI)
	}

	p, err := s.GetProfile("u1")
	if err != nil {
		t.Fatalf("check-in should create profile: %v", err)
	}
	if p.WeightKg != 80 || p.HeightCm != 180 {
		t.Fatalf("profile metrics not copied: %+v", p)
	}
}

func TestListCheckIns(t *testing.T) {
	s := newTestStore(t)
	s.AddCheckIn("u1", 80, 180)
	s.AddCheckIn("u1", 79, 180)
	s.AddCheckIn("u2", 60, 160)

	list, err := s.ListCheckIns("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 check-ins, got %d", len(list))
	}
	if list[0].WeightKg != 80 || list[1].WeightKg != 79 {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestGetCheckInNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetCheckIn(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Workouts
// ============================================================

func TestLogWorkoutAwardsXPOncePerDay(t *testing.T) {
	s := newTestStore(t)
	seedProfile(t, s, "u1")

	r, err := s.LogWorkout("u1", "2026-05-10")
	if err != nil {
		t.Fatal(err)
	}
	if !r.Logged || r.XPGained != 50 || r.LevelUp {
		t.Fatalf("unexpected first result: %+v", r)
	}

	r, err = s.LogWorkout("u1", "2026-05-10")
	if err != nil {
		t.Fatal(err)
	}
	if r.Logged || r.XPGained != 0 {
		t.Fatalf("second log on same day should be a no-op: %+v", r)
	}
	if r.Profile.XP != 50 {
		t.Fatalf("expected xp 50, got %d", r.Profile.XP)
	}
}

func TestLogWorkoutLevelUp(t *testing.T) {
	s := newTestStore(t)
	s.LogWorkout("u1", "2026-05-09")
	r, err := s.LogWorkout("u1", "2026-05-10")
	if err != nil {
		t.Fatal(err)
	}
	if !r.LevelUp || r.Profile.Level != 2 || r.Profile.XP != 0 {
		t.Fatalf("expected level 2 with 0 xp, got %+v", r.Profile)
	}
}

func TestWorkoutProgress(t *testing.T) {
	s := newTestStore(t)
	seedProfile(t, s, "u1")
	for _, d := range []string{"2026-05-01", "2026-05-08", "2026-05-09", "2026-05-10"} {
		if _, err := s.LogWorkout("u1", d); err != nil {
			t.Fatal(err)
		}
	}

	// Sunday, May 10 2026; week starts Monday May 4.
	now := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.Local)
	p, err := s.WorkoutProgress("u1", now)
	if err != nil {
		t.Fatal(err)
	}
	if p.Streak != 3 || p.WeekCount != 3 || p.WeeklyGoal != 4 {
		t.Fatalf("unexpected progress: %+v", p)
	}

	s.SetSetting(SettingWeekStart, "sunday")
	p, _ = s.WorkoutProgress("u1", now)
	if p.WeekCount != 1 {
		t.Fatalf("expected 1 workout since Sunday, got %d", p.WeekCount)
	}
}

// ============================================================
// Triggers
// ============================================================

func TestSaveTriggerUpsert(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2026, time.May, 10, 14, 0, 0, 0, time.UTC)

	if err := s.SaveTrigger(&TriggerRow{UserID: "u1", Slot: 3, FireAt: at, Message: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTrigger(&TriggerRow{UserID: "u1", Slot: 3, FireAt: at.Add(time.Hour), Message: "second"}); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ListTriggers("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row per slot, got %d", len(rows))
	}
	if rows[0].Message != "second" || !rows[0].FireAt.Equal(at.Add(time.Hour)) {
		t.Fatalf("upsert did not replace row: %+v", rows[0])
	}
}

func TestListTriggersOrderAndIsolation(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, time.May, 10, 8, 0, 0, 0, time.UTC)
	s.SaveTrigger(&TriggerRow{UserID: "u1", Slot: 1, FireAt: base.Add(2 * time.Hour)})
	s.SaveTrigger(&TriggerRow{UserID: "u1", Slot: 0, FireAt: base.Add(time.Hour)})
	s.SaveTrigger(&TriggerRow{UserID: "u2", Slot: 0, FireAt: base})

	rows, _ := s.ListTriggers("u1")
	if len(rows) != 2 || rows[0].Slot != 0 || rows[1].Slot != 1 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestDeleteTrigger(t *testing.T) {
	s := newTestStore(t)
	s.SaveTrigger(&TriggerRow{UserID: "u1", Slot: 5, FireAt: time.Now()})

	if err := s.DeleteTrigger("u1", 5); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTrigger("u1", 5); err != nil {
		t.Fatalf("deleting an empty slot should not fail: %v", err)
	}
	rows, _ := s.ListTriggers("u1")
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

// ============================================================
// Deliveries
// ============================================================

func TestAddAndListDeliveries(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, time.May, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		d := &Delivery{UserID: "u1", Slot: i, NotificationID: 1, Title: "t", Message: "m", DeliveredAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.AddDelivery(d); err != nil {
			t.Fatal(err)
		}
		if d.ID == 0 {
			t.Fatal("expected id to be set")
		}
	}

	all, err := s.ListDeliveries("u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Slot != 2 {
		t.Fatalf("expected newest first, got %+v", all)
	}

	limited, _ := s.ListDeliveries("u1", 2)
	if len(limited) != 2 {
		t.Fatalf("expected 2 with limit, got %d", len(limited))
	}
}

// ============================================================
// Intake
// ============================================================

func TestLogIntakeRejectsNonPositive(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LogIntake("u1", 0, time.Now()); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestTodayIntake(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, time.May, 10, 15, 0, 0, 0, time.UTC)
	s.LogIntake("u1", 200, now.Add(-2*time.Hour))
	s.LogIntake("u1", 300, now.Add(-time.Hour))
	s.LogIntake("u1", 500, now.AddDate(0, 0, -1))
	s.LogIntake("u2", 200, now)

	total, err := s.TodayIntake("u1", now)
	if err != nil {
		t.Fatal(err)
	}
	if total != 500 {
		t.Fatalf("expected 500ml today, got %d", total)
	}
}

func TestGetDailyIntake(t *testing.T) {
	s := newTestStore(t)
	day1 := time.Date(2026, time.May, 9, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	s.LogIntake("u1", 200, day1)
	s.LogIntake("u1", 200, day1.Add(time.Hour))
	s.LogIntake("u1", 250, day2)

	from := time.Date(2026, time.May, 9, 0, 0, 0, 0, time.UTC)
	days, err := s.GetDailyIntake("u1", from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Date != "2026-05-09" || days[0].TotalMl != 400 || days[0].Servings != 2 {
		t.Fatalf("unexpected first day: %+v", days[0])
	}
	if days[1].TotalMl != 250 {
		t.Fatalf("unexpected second day: %+v", days[1])
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingDefaults(t *testing.T) {
	s := newTestStore(t)
	if !s.GetBool(SettingExactAlarms, false) {
		t.Fatal("exact alarms should default to allowed")
	}
	if v, _ := s.GetSetting(SettingWeekStart); v != "monday" {
		t.Fatalf("expected monday, got %q", v)
	}
}

func TestGetBool(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetBool(SettingExactAlarms, false); err != nil {
		t.Fatal(err)
	}
	if s.GetBool(SettingExactAlarms, true) {
		t.Fatal("expected false after SetBool")
	}
	if !s.GetBool("missing", true) {
		t.Fatal("missing key should use default")
	}
	s.SetSetting("garbage", "maybe")
	if s.GetBool("garbage", false) {
		t.Fatal("unparsable value should use default")
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSetting("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 default settings, got %d", len(all))
	}
}
