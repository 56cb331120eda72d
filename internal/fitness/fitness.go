// Package fitness holds the body-metric and progression rules shared by the
// store and the UI.
package fitness

import (
	"sort"
	"time"
)

// WorkoutXP is awarded once per day a workout is logged.
const WorkoutXP = 50

const dayLayout = "2006-01-02"

// BMI returns weight / height² with height in centimetres; 0 if height is unknown.
func BMI(weightKg float64, heightCm int) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := float64(heightCm) / 100
	return weightKg / (m * m)
}

type BMIClass string

const (
	Underweight BMIClass = "Underweight"
	Normal      BMIClass = "Normal weight"
	Overweight  BMIClass = "Overweight"
	Obese       BMIClass = "Obesity"
)

func ClassifyBMI(bmi float64) BMIClass {
	switch {
	case bmi < 18.5:
		return Underweight
	case bmi < 25:
		return Normal
	case bmi < 30:
		return Overweight
	default:
		return Obese
	}
}

// XPForNextLevel is the XP needed to leave level.
func XPForNextLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return level * 100
}

// AddXP applies gained XP, carrying the surplus over each level-up.
func AddXP(level, xp, gained int) (newLevel, newXP int) {
	if level < 1 {
		level = 1
	}
	xp += gained
	for xp >= XPForNextLevel(level) {
		xp -= XPForNextLevel(level)
		level++
	}
	return level, xp
}

// Day formats t as a local calendar day key.
func Day(t time.Time) string {
	return t.Format(dayLayout)
}

// Streak counts consecutive workout days ending today, or yesterday when
// today has not been logged yet.
func Streak(days []string, today time.Time) int {
	set := make(map[string]bool, len(days))
	for _, d := range days {
		set[d] = true
	}

	cursor := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if !set[Day(cursor)] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	n := 0
	for set[Day(cursor)] {
		n++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return n
}

// WeekStart returns midnight of the first day of t's week.
func WeekStart(t time.Time, firstDay time.Weekday) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) - int(firstDay) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// CountSince counts the days on or after from.
func CountSince(days []string, from time.Time) int {
	sorted := append([]string(nil), days...)
	sort.Strings(sorted)
	cut := Day(from)
	i := sort.SearchStrings(sorted, cut)
	return len(sorted) - i
}
