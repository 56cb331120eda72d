package store

import (
	"fmt"
	"time"
)

// LogIntake records amountMl of water drunk at "at".
func (s *Store) LogIntake(userID string, amountMl int, at time.Time) (*Intake, error) {
	if amountMl <= 0 {
		return nil, fmt.Errorf("log intake: amount must be positive, got %d", amountMl)
	}
	res, err := s.db.Exec(
		`INSERT INTO intake (user_id, amount_ml, created_at) VALUES (?, ?, ?)`,
		userID, amountMl, at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("log intake: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Intake{ID: id, UserID: userID, AmountMl: amountMl, CreatedAt: at}, nil
}

// IntakeBetween returns the total ml logged in [from, to).
func (s *Store) IntakeBetween(userID string, from, to time.Time) (int, error) {
	var total int
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount_ml), 0) FROM intake WHERE user_id = ? AND created_at >= ? AND created_at < ?`,
		userID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum intake: %w", err)
	}
	return total, nil
}

// TodayIntake sums the local calendar day containing now.
func (s *Store) TodayIntake(userID string, now time.Time) (int, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.IntakeBetween(userID, start, start.AddDate(0, 0, 1))
}

// ListIntake returns raw intake rows in [from, to), oldest first.
func (s *Store) ListIntake(userID string, from, to time.Time) ([]Intake, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, amount_ml, created_at FROM intake
		WHERE user_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at, id`,
		userID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("list intake: %w", err)
	}
	defer rows.Close()

	var out []Intake
	for rows.Next() {
		var in Intake
		var at string
		if err := rows.Scan(&in.ID, &in.UserID, &in.AmountMl, &at); err != nil {
			return nil, err
		}
		in.CreatedAt, _ = time.Parse(time.RFC3339, at)
		out = append(out, in)
	}
	return out, rows.Err()
}

// GetDailyIntake buckets intake in [from, to) by local day in from's
// location. Days with nothing logged are omitted.
func (s *Store) GetDailyIntake(userID string, from, to time.Time) ([]DailyIntake, error) {
	entries, err := s.ListIntake(userID, from, to)
	if err != nil {
		return nil, err
	}

	var out []DailyIntake
	index := make(map[string]int)
	for _, e := range entries {
		day := e.CreatedAt.In(from.Location()).Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(out)
			index[day] = i
			out = append(out, DailyIntake{Date: day})
		}
		out[i].TotalMl += e.AmountMl
		out[i].Servings++
	}
	return out, nil
}
