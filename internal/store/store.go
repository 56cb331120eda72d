package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Trigger callbacks write from timer goroutines; one connection keeps
	// SQLite writes serialized.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id       TEXT PRIMARY KEY,
		name          TEXT NOT NULL DEFAULT '',
		weight_kg     REAL NOT NULL DEFAULT 0,
		height_cm     INTEGER NOT NULL DEFAULT 0,
		sex           TEXT NOT NULL DEFAULT '',
		active_start  TEXT NOT NULL DEFAULT '08:00',
		active_end    TEXT NOT NULL DEFAULT '22:00',
		weekly_goal   INTEGER NOT NULL DEFAULT 3,
		goal_type     TEXT NOT NULL DEFAULT 'lose_weight',
		level         INTEGER NOT NULL DEFAULT 1,
		xp            INTEGER NOT NULL DEFAULT 0,
		updated_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS checkins (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     TEXT NOT NULL,
		weight_kg   REAL NOT NULL,
		height_cm   INTEGER NOT NULL,
		bmi         REAL NOT NULL,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_checkins_user ON checkins(user_id, created_at);

	CREATE TABLE IF NOT EXISTS workouts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     TEXT NOT NULL,
		day         TEXT NOT NULL,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		UNIQUE(user_id, day)
	);

	CREATE TABLE IF NOT EXISTS triggers (
		user_id          TEXT NOT NULL,
		slot             INTEGER NOT NULL,
		fire_at          TEXT NOT NULL,
		title            TEXT NOT NULL DEFAULT '',
		message          TEXT NOT NULL DEFAULT '',
		notification_id  INTEGER NOT NULL DEFAULT 0,
		created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		PRIMARY KEY (user_id, slot)
	);

	CREATE TABLE IF NOT EXISTS deliveries (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id          TEXT NOT NULL,
		slot             INTEGER NOT NULL,
		notification_id  INTEGER NOT NULL,
		title            TEXT NOT NULL,
		message          TEXT NOT NULL,
		delivered_at     TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deliveries_user ON deliveries(user_id, delivered_at);

	CREATE TABLE IF NOT EXISTS intake (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     TEXT NOT NULL,
		amount_ml   INTEGER NOT NULL,
		created_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_intake_user ON intake(user_id, created_at);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('exact_alarms', '1'),
		('daily_replan', '1'),
		('week_start',   'monday');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/gymbuddy/gymbuddy.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "gymbuddy", "gymbuddy.db"), nil
}
