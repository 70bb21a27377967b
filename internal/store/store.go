// Package store persists committed notifications, todos, and calendar
// events in SQLite. Reconciliation loops scan it for due items; the
// event worker writes confirmed records into it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at dbPath, enables WAL mode,
// and applies the schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS notifications (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			event_time TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notification_times (
			notification_id TEXT NOT NULL REFERENCES notifications(id) ON DELETE CASCADE,
			fire_at         TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_times_fire_at
			ON notification_times(fire_at)`,
		`CREATE TABLE IF NOT EXISTS todos (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			content      TEXT NOT NULL,
			created_at   TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS calendar_events (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			channel_id  TEXT NOT NULL,
			starts_at   TIMESTAMP NOT NULL,
			notified    INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Notification is a committed, scheduled notification record.
type Notification struct {
	ID        string    `db:"id"`
	Content   string    `db:"content"`
	UserID    string    `db:"user_id"`
	ChannelID string    `db:"channel_id"`
	EventTime time.Time `db:"event_time"`
	CreatedAt time.Time `db:"created_at"`
}

// DueNotification is a notification together with the schedule slot
// that made it due.
type DueNotification struct {
	Notification
	FireAt time.Time `db:"fire_at"`
}

// CreateNotification commits a confirmed notification and builds its
// delivery schedule: one day before and one hour before the event,
// keeping only slots still in the future. When the event is too close
// for either, the event time itself becomes the single slot.
func (s *Store) CreateNotification(ctx context.Context, content, userID string, eventTime time.Time, channelID string) (string, error) {
	now := time.Now()
	var times []time.Time
	for _, lead := range []time.Duration{24 * time.Hour, time.Hour} {
		if t := eventTime.Add(-lead); t.After(now) {
			times = append(times, t)
		}
	}
	if len(times) == 0 {
		times = append(times, eventTime)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (id, content, user_id, channel_id, event_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, content, userID, channelID, eventTime.UTC(), now.UTC(),
	); err != nil {
		return "", fmt.Errorf("failed to insert notification: %w", err)
	}

	for _, t := range times {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notification_times (notification_id, fire_at) VALUES (?, ?)`,
			id, t.UTC(),
		); err != nil {
			return "", fmt.Errorf("failed to insert notification time: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit notification: %w", err)
	}
	return id, nil
}

// ListDueNotifications returns every notification with a schedule slot
// at or before the given time, earliest slot first. A notification with
// several overdue slots appears once, under its earliest slot.
func (s *Store) ListDueNotifications(ctx context.Context, before time.Time) ([]DueNotification, error) {
	var rows []DueNotification
	err := s.db.SelectContext(ctx, &rows, `
		SELECT n.id, n.content, n.user_id, n.channel_id, n.event_time, n.created_at, t.fire_at
		FROM notifications n
		JOIN notification_times t ON t.notification_id = n.id
		WHERE t.fire_at <= ?
		ORDER BY t.fire_at`,
		before.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due notifications: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	due := make([]DueNotification, 0, len(rows))
	for _, row := range rows {
		if seen[row.ID] {
			continue
		}
		seen[row.ID] = true
		due = append(due, row)
	}
	return due, nil
}

// MarkDelivered removes the delivered schedule slot. When it was the
// last slot, the notification record is removed as well; the returned
// count is the number of remaining slots.
func (s *Store) MarkDelivered(ctx context.Context, notificationID string, fireAt time.Time) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM notification_times WHERE notification_id = ? AND fire_at = ?`,
		notificationID, fireAt.UTC(),
	); err != nil {
		return 0, fmt.Errorf("failed to remove delivered slot: %w", err)
	}

	var remaining int
	if err := tx.GetContext(ctx, &remaining, `
		SELECT COUNT(*) FROM notification_times WHERE notification_id = ?`,
		notificationID,
	); err != nil {
		return 0, fmt.Errorf("failed to count remaining slots: %w", err)
	}
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, notificationID); err != nil {
			return 0, fmt.Errorf("failed to expire notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delivery: %w", err)
	}
	return remaining, nil
}

// NextNotificationTime returns the earliest remaining slot for a
// notification, used when rendering hours-remaining copy.
func (s *Store) NextNotificationTime(ctx context.Context, notificationID string) (time.Time, bool, error) {
	var next time.Time
	err := s.db.GetContext(ctx, &next, `
		SELECT fire_at FROM notification_times
		WHERE notification_id = ? ORDER BY fire_at LIMIT 1`,
		notificationID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read next slot: %w", err)
	}
	return next, true, nil
}
