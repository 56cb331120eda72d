package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const profileColumns = `user_id, name, weight_kg, height_cm, sex, active_start, active_end, weekly_goal, goal_type, level, xp, updated_at`

// GetProfile returns ErrNotFound if the user has never saved a profile.
func (s *Store) GetProfile(userID string) (*Profile, error) {
	p := &Profile{}
	var updatedAt string
	err := s.db.QueryRow(
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Name, &p.WeightKg, &p.HeightCm, &p.Sex, &p.ActiveStart, &p.ActiveEnd,
		&p.WeeklyGoal, &p.GoalType, &p.Level, &p.XP, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %q: %w", userID, err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

// SaveProfile upserts the editable profile fields. Level and XP are owned by
// LogWorkout and are left untouched on update.
func (s *Store) SaveProfile(p *Profile) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO profiles (user_id, name, weight_kg, height_cm, sex, active_start, active_end, weekly_goal, goal_type, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			weight_kg = excluded.weight_kg,
			height_cm = excluded.height_cm,
			sex = excluded.sex,
			active_start = excluded.active_start,
			active_end = excluded.active_end,
			weekly_goal = excluded.weekly_goal,
			goal_type = excluded.goal_type,
			updated_at = excluded.updated_at`,
		p.UserID, p.Name, p.WeightKg, p.HeightCm, p.Sex, p.ActiveStart, p.ActiveEnd, p.WeeklyGoal, p.GoalType, now,
	)
	if err != nil {
		return fmt.Errorf("save profile %q: %w", p.UserID, err)
	}
	return nil
}

// UpdateObjectives changes only the weekly goal and focus, as the
// objectives screen does.
func (s *Store) UpdateObjectives(userID string, weeklyGoal int, goalType string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE profiles SET weekly_goal = ?, goal_type = ?, updated_at = ? WHERE user_id = ?`,
		weeklyGoal, goalType, now, userID,
	)
	if err != nil {
		return fmt.Errorf("update objectives %q: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update objectives %q: %w", userID, ErrNotFound)
	}
	return nil
}
