package store

import (
	"fmt"
	"time"

	"github.com/sadopc/gymbuddy/internal/fitness"
)

// LogWorkout marks day as trained and awards WorkoutXP. A second call for the
// same day changes nothing and reports Logged=false.
func (s *Store) LogWorkout(userID, day string) (*WorkoutResult, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin workout: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT OR IGNORE INTO workouts (user_id, day, created_at) VALUES (?, ?, ?)`,
		userID, day, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert workout: %w", err)
	}
	inserted, _ := res.RowsAffected()

	_, err = tx.Exec(`INSERT OR IGNORE INTO profiles (user_id, updated_at) VALUES (?, ?)`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}

	var level, xp int
	if err := tx.QueryRow(`SELECT level, xp FROM profiles WHERE user_id = ?`, userID).Scan(&level, &xp); err != nil {
		return nil, fmt.Errorf("read progression: %w", err)
	}

	result := &WorkoutResult{Logged: inserted > 0}
	if result.Logged {
		newLevel, newXP := fitness.AddXP(level, xp, fitness.WorkoutXP)
		result.XPGained = fitness.WorkoutXP
		result.LevelUp = newLevel > level
		_, err = tx.Exec(
			`UPDATE profiles SET level = ?, xp = ?, updated_at = ? WHERE user_id = ?`,
			newLevel, newXP, now, userID,
		)
		if err != nil {
			return nil, fmt.Errorf("update progression: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit workout: %w", err)
	}

	result.Profile, err = s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListWorkoutDays returns the user's trained days, oldest first.
func (s *Store) ListWorkoutDays(userID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT day FROM workouts WHERE user_id = ? ORDER BY day`, userID)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Progress summarizes workout activity as of now.
type Progress struct {
	Streak     int
	WeekCount  int
	WeeklyGoal int
}

func (s *Store) WorkoutProgress(userID string, now time.Time) (Progress, error) {
	days, err := s.ListWorkoutDays(userID)
	if err != nil {
		return Progress{}, err
	}
	first := time.Monday
	if v, err := s.GetSetting(SettingWeekStart); err == nil && v == "sunday" {
		first = time.Sunday
	}
	p := Progress{
		Streak:    fitness.Streak(days, now),
		WeekCount: fitness.CountSince(days, fitness.WeekStart(now, first)),
	}
	if prof, err := s.GetProfile(userID); err == nil {
		p.WeeklyGoal = prof.WeeklyGoal
	}
	return p, nil
}
