package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sadopc/gymbuddy/internal/fitness"
)

// AddCheckIn records a body-metrics check-in and copies weight and height
// onto the profile, creating the profile if needed. Both writes share a
// transaction.
func (s *Store) AddCheckIn(userID string, weightKg float64, heightCm int) (*CheckIn, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	bmi := fitness.BMI(weightKg, heightCm)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin check-in: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO checkins (user_id, weight_kg, height_cm, bmi, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, weightKg, heightCm, bmi, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert check-in: %w", err)
	}
	id, _ := res.LastInsertId()

	_, err = tx.Exec(`
		INSERT INTO profiles (user_id, weight_kg, height_cm, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			weight_kg = excluded.weight_kg,
			height_cm = excluded.height_cm,
			updated_at = excluded.updated_at`,
		userID, weightKg, heightCm, now,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile metrics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit check-in: %w", err)
	}
	return s.GetCheckIn(id)
}

func (s *Store) GetCheckIn(id int64) (*CheckIn, error) {
	c := &CheckIn{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, user_id, weight_kg, height_cm, bmi, created_at FROM checkins WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.WeightKg, &c.HeightCm, &c.BMI, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get check-in %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get check-in %d: %w", id, err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return c, nil
}

// ListCheckIns returns the user's check-ins oldest first.
func (s *Store) ListCheckIns(userID string) ([]CheckIn, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, weight_kg, height_cm, bmi, created_at
		 FROM checkins WHERE user_id = ? ORDER BY created_at, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	var out []CheckIn
	for rows.Next() {
		var c CheckIn
		var createdAt string
		if err := rows.Scan(&c.ID, &c.UserID, &c.WeightKg, &c.HeightCm, &c.BMI, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}
