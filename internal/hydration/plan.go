// Package hydration turns a body weight and an active-hours window into a
// day of evenly spaced water servings.
package hydration

import "math"

const (
	// MlPerKg is the daily water target per kilogram of body weight.
	MlPerKg = 35
	// ServingMl is the size of one reminder.
	ServingMl = 200
	// MaxWeightKg is the heaviest weight a profile may hold.
	MaxWeightKg = 500
	// MaxServings bounds the servings of one plan and so the slots it uses.
	MaxServings = MaxWeightKg * MlPerKg / ServingMl
)

// Goal is the daily intake derived from a body weight.
type Goal struct {
	WeightKg      float64
	DailyTargetMl int
	ServingMl     int
}

func NewGoal(weightKg float64) Goal {
	return Goal{
		WeightKg:      weightKg,
		DailyTargetMl: int(math.Round(weightKg * MlPerKg)),
		ServingMl:     ServingMl,
	}
}

// Servings is the number of whole servings that fit in the daily target.
func (g Goal) Servings() int {
	if g.DailyTargetMl <= 0 {
		return 0
	}
	return g.DailyTargetMl / g.ServingMl
}

// Window is the part of the local day reminders may fire in.
type Window struct {
	StartMinute int
	EndMinute   int
}

func ParseWindow(start, end string) Window {
	return Window{StartMinute: ParseClock(start), EndMinute: ParseClock(end)}
}

// Span is the window length in minutes. Windows crossing midnight are not
// wrapped, so an inverted window has a non-positive span.
func (w Window) Span() int {
	return w.EndMinute - w.StartMinute
}

func (w Window) Valid() bool {
	return w.Span() > 0
}

// Serving is one planned reminder.
type Serving struct {
	Index       int
	MinuteOfDay int
}

// Clock returns the serving time as "HH:MM".
func (s Serving) Clock() string {
	return FormatClock(s.MinuteOfDay)
}

// Plan is an immutable day of servings.
type Plan struct {
	Goal            Goal
	Window          Window
	IntervalMinutes int
	Servings        []Serving
}

func (p Plan) Empty() bool {
	return len(p.Servings) == 0
}

// PlanReminders computes today's serving offsets. ok is false when there is
// nothing to schedule: the goal is under one serving or above MaxServings,
// or the window is empty, inverted or shorter than one minute per serving.
// The result does not depend on the current time.
func PlanReminders(weightKg float64, start, end string) (plan Plan, ok bool) {
	goal := NewGoal(weightKg)
	count := goal.Servings()
	if count <= 0 || count > MaxServings {
		return Plan{Goal: goal}, false
	}

	window := ParseWindow(start, end)
	if !window.Valid() || window.Span() < count {
		return Plan{Goal: goal, Window: window}, false
	}

	// Integer spacing: the last serving may land before the window end.
	interval := window.Span() / count
	servings := make([]Serving, count)
	for i := range servings {
		servings[i] = Serving{Index: i, MinuteOfDay: window.StartMinute + interval*i}
	}

	return Plan{
		Goal:            goal,
		Window:          window,
		IntervalMinutes: interval,
		Servings:        servings,
	}, true
}
