package store

import (
	"fmt"
	"time"
)

// SaveTrigger upserts the row for (UserID, Slot); re-registering a slot
// replaces it.
func (s *Store) SaveTrigger(t *TriggerRow) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO triggers (user_id, slot, fire_at, title, message, notification_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, slot) DO UPDATE SET
			fire_at = excluded.fire_at,
			title = excluded.title,
			message = excluded.message,
			notification_id = excluded.notification_id,
			created_at = excluded.created_at`,
		t.UserID, t.Slot, t.FireAt.UTC().Format(time.RFC3339), t.Title, t.Message, t.NotificationID, now,
	)
	if err != nil {
		return fmt.Errorf("save trigger %d: %w", t.Slot, err)
	}
	return nil
}

// DeleteTrigger is a no-op for slots that hold nothing.
func (s *Store) DeleteTrigger(userID string, slot int) error {
	_, err := s.db.Exec(`DELETE FROM triggers WHERE user_id = ? AND slot = ?`, userID, slot)
	if err != nil {
		return fmt.Errorf("delete trigger %d: %w", slot, err)
	}
	return nil
}

// ListTriggers returns the user's armed triggers ordered by fire time.
func (s *Store) ListTriggers(userID string) ([]TriggerRow, error) {
	rows, err := s.db.Query(`
		SELECT user_id, slot, fire_at, title, message, notification_id, created_at
		FROM triggers WHERE user_id = ? ORDER BY fire_at, slot`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list triggers: %w", err)
	}
	defer rows.Close()

	var out []TriggerRow
	for rows.Next() {
		var t TriggerRow
		var fireAt, createdAt string
		if err := rows.Scan(&t.UserID, &t.Slot, &fireAt, &t.Title, &t.Message, &t.NotificationID, &createdAt); err != nil {
			return nil, err
		}
		t.FireAt, _ = time.Parse(time.RFC3339, fireAt)
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}
