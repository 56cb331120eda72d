package store

import (
	"fmt"
	"time"
)

func (s *Store) AddDelivery(d *Delivery) error {
	at := d.DeliveredAt
	if at.IsZero() {
		at = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO deliveries (user_id, slot, notification_id, title, message, delivered_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.UserID, d.Slot, d.NotificationID, d.Title, d.Message, at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("add delivery: %w", err)
	}
	d.ID, _ = res.LastInsertId()
	d.DeliveredAt = at
	return nil
}

// ListDeliveries returns the most recent deliveries first. limit <= 0 means all.
func (s *Store) ListDeliveries(userID string, limit int) ([]Delivery, error) {
	query := `SELECT id, user_id, slot, notification_id, title, message, delivered_at
		FROM deliveries WHERE user_id = ? ORDER BY delivered_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		var at string
		if err := rows.Scan(&d.ID, &d.UserID, &d.Slot, &d.NotificationID, &d.Title, &d.Message, &at); err != nil {
			return nil, err
		}
		d.DeliveredAt, _ = time.Parse(time.RFC3339, at)
		out = append(out, d)
	}
	return out, rows.Err()
}
