// Package calendar provides the calendar event store the assistant's
// calendar tools operate on.
package calendar

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Event is a single calendar entry.
type Event struct {
	ID        string
	Title     string
	Start     time.Time
	End       time.Time
	Notes     string
	CreatedAt time.Time
}

// Ref identifies an existing event by its opaque ID or, when the caller
// does not know the ID, by exact title match.
type Ref struct {
	ID    string
	Title string
}

// Changes describes a partial update to an event. Nil fields are left
// untouched.
type Changes struct {
	Title *string
	Start *time.Time
	End   *time.Time
	Notes *string
}

// IsZero reports whether the change set would modify nothing.
func (c Changes) IsZero() bool {
	return c.Title == nil && c.Start == nil && c.End == nil && c.Notes == nil
}

// Store persists calendar events in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens the calendar database at the given path (":memory:" for
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

// InitSchema creates the events table if it doesn't exist.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			start_at TEXT NOT NULL,
			end_at TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Add creates a new event. End times not after the start are pushed one
// hour past it so a malformed payload still yields a usable entry.
func (s *Store) Add(ctx context.Context, title string, start, end time.Time, notes string) (Event, error) {
	if title == "" {
		title = "Untitled Event"
	}
	if !end.After(start) {
		end = start.Add(time.Hour)
	}

	e := Event{
		ID:        uuid.NewString(),
		Title:     title,
		Start:     start,
		End:       end,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO events (id, title, start_at, end_at, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Title, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339),
		e.Notes, e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return Event{}, fmt.Errorf("failed to insert event: %w", err)
	}

	return e, nil
}

// resolveID resolves a Ref to an event ID: ID match first, then exact
// title match. Returns "" when nothing matches.
func (s *Store) resolveID(ctx context.Context, ref Ref) (string, error) {
	if ref.ID != "" {
		var id string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM events WHERE id = ?`, ref.ID).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to resolve event id: %w", err)
		}
	}
	if ref.Title != "" {
		var id string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM events WHERE title = ? LIMIT 1`, ref.Title).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to resolve event title: %w", err)
		}
	}
	return "", nil
}

// Modify applies a partial change to the referenced event, reporting
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

	query := `UPDATE events SET id = id`
	var args []any
	if changes.Title != nil {
		query += `, title = ?`
		args = append(args, *changes.Title)
	}
	if changes.Start != nil {
		query += `, start_at = ?`
		args = append(args, changes.Start.Format(time.RFC3339))
	}
	if changes.End != nil {
		query += `, end_at = ?`
		args = append(args, changes.End.Format(time.RFC3339))
	}
	if changes.Notes != nil {
		query += `, notes = ?`
		args = append(args, *changes.Notes)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update event: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Delete removes the referenced event, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, ref Ref) (bool, error) {
	id, err := s.resolveID(ctx, ref)
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete event: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Upcoming returns events ending at or after the given time, soonest first.
func (s *Store) Upcoming(ctx context.Context, from time.Time, limit int) ([]Event, error) {
	query := `
		SELECT id, title, start_at, end_at, notes, created_at
		FROM events
		WHERE end_at >= ?
		ORDER BY start_at
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, from.Format(time.RFC3339), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var start, end, created string
		if err := rows.Scan(&e.ID, &e.Title, &start, &end, &e.Notes, &created); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Start, _ = time.Parse(time.RFC3339, start)
		e.End, _ = time.Parse(time.RFC3339, end)
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
