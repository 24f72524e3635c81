// Package reminder provides the reminder store the assistant's reminder
// tools operate on.
package reminder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Reminder is a single reminder entry.
type Reminder struct {
	ID        string
	Title     string
	Due       time.Time
	Notes     string
	Completed bool
	CreatedAt time.Time
}

// Ref identifies an existing reminder by its opaque ID or, when the caller
// does not know the ID, by exact title match.
type Ref struct {
	ID    string
	Title string
}

// Changes describes a partial update to a reminder. Nil fields are left
// untouched.
type Changes struct {
	Title     *string
	Due       *time.Time
	Notes     *string
	Completed *bool
}

// IsZero reports whether the change set would modify nothing.
func (c Changes) IsZero() bool {
	return c.Title == nil && c.Due == nil && c.Notes == nil && c.Completed == nil
}

// Store persists reminders in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens the reminder database at the given path (":memory:" for
// tests) and verifies connectivity.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// InitSchema creates the reminders table if it doesn't exist.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS reminders (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			due_at TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			completed INTEGER NOT NULL DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(due_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Add creates a new reminder.
func (s *Store) Add(ctx context.Context, title string, due time.Time, notes string) (Reminder, error) {
	if title == "" {
		title = "Untitled Reminder"
	}

	r := Reminder{
		ID:        uuid.NewString(),
		Title:     title,
		Due:       due,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO reminders (id, title, due_at, notes, completed, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Title, r.Due.Format(time.RFC3339), r.Notes, r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return Reminder{}, fmt.Errorf("failed to insert reminder: %w", err)
	}

	return r, nil
}

// resolveID resolves a Ref to a reminder ID: ID match first, then exact
// title match. Returns "" when nothing matches.
func (s *Store) resolveID(ctx context.Context, ref Ref) (string, error) {
	if ref.ID != "" {
		var id string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM reminders WHERE id = ?`, ref.ID).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to resolve reminder id: %w", err)
		}
	}
	if ref.Title != "" {
		var id string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM reminders WHERE title = ? LIMIT 1`, ref.Title).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to resolve reminder title: %w", err)
		}
	}
	return "", nil
}

// Modify applies a partial change to the referenced reminder, reporting
// whether a record was actually modified.
func (s *Store) Modify(ctx context.Context, ref Ref, changes Changes) (bool, error) {
	if changes.IsZero() {
		return false, nil
	}

	id, err := s.resolveID(ctx, ref)
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, nil
	}

	query := `UPDATE reminders SET id = id`
	var args []any
	if changes.Title != nil {
		query += `, title = ?`
		args = append(args, *changes.Title)
	}
	if changes.Due != nil {
		query += `, due_at = ?`
		args = append(args, changes.Due.Format(time.RFC3339))
	}
	if changes.Notes != nil {
		query += `, notes = ?`
		args = append(args, *changes.Notes)
	}
	if changes.Completed != nil {
		query += `, completed = ?`
		completed := 0
		if *changes.Completed {
			completed = 1
		}
		args = append(args, completed)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update reminder: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Delete removes the referenced reminder, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, ref Ref) (bool, error) {
	id, err := s.resolveID(ctx, ref)
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete reminder: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Pending returns incomplete reminders, earliest due first.
func (s *Store) Pending(ctx context.Context, limit int) ([]Reminder, error) {
	query := `
		SELECT id, title, due_at, notes, completed, created_at
		FROM reminders
		WHERE completed = 0
		ORDER BY due_at
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		var due, created string
		var completed int
		if err := rows.Scan(&r.ID, &r.Title, &due, &r.Notes, &completed, &created); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		r.Due, _ = time.Parse(time.RFC3339, due)
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		r.Completed = completed != 0
		reminders = append(reminders, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
