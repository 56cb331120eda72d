package store

import "time"

type Profile struct {
	UserID      string
	Name        string
	WeightKg    float64
	HeightCm    int
	Sex         string
	ActiveStart string // "HH:MM"
	ActiveEnd   string // "HH:MM"
	WeeklyGoal  int    // workouts per week, 1-7
	GoalType    string // lose_weight, gain_weight
	Level       int
	XP          int
	UpdatedAt   time.Time
}

type CheckIn struct {
	ID        int64
	UserID    string
	WeightKg  float64
	HeightCm  int
	BMI       float64
	CreatedAt time.Time
}

type Workout struct {
	ID        int64
	UserID    string
	Day       string // YYYY-MM-DD, local
	CreatedAt time.Time
}

// TriggerRow is the persisted form of an armed one-shot trigger.
type TriggerRow struct {
	UserID         string
	Slot           int
	FireAt         time.Time
	Title          string
	Message        string
	NotificationID int
	CreatedAt      time.Time
}

type Delivery struct {
	ID             int64
	UserID         string
	Slot           int
	NotificationID int
	Title          string
	Message        string
	DeliveredAt    time.Time
}

type Intake struct {
	ID        int64
	UserID    string
	AmountMl  int
	CreatedAt time.Time
}

type Setting struct {
	Key   string
	Value string
}

// DailyIntake is the water logged on one local day.
type DailyIntake struct {
	Date     string
	TotalMl  int
	Servings int
}

// WorkoutResult describes what logging a workout changed.
type WorkoutResult struct {
	Logged   bool // false when today was already logged
	XPGained int
	LevelUp  bool
	Profile  *Profile
}
