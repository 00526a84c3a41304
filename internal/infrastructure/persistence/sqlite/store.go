// Package sqlite stores the tracking record in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/habitbot/habit-bot/internal/domain/tracking"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "habit.db"

const schema = `
CREATE TABLE IF NOT EXISTS tracking_record (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	start_date TEXT
);
CREATE TABLE IF NOT EXISTS check_ins (
	seq INTEGER PRIMARY KEY,
	date TEXT NOT NULL,
	response TEXT NOT NULL
);
`

// Store implements tracking.Repository using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at path.
// Use ":memory:" for an in-memory database.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Load reads the record. An empty database is an empty record.
func (s *Store) Load(ctx context.Context) (*tracking.Record, error) {
	rec := tracking.NewRecord()

	var start sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT start_date FROM tracking_record WHERE id = 1").Scan(&start)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("query tracking_record: %w", err)
	case start.Valid:
		rec.StartDate = &start.String
	}

	rows, err := s.db.QueryContext(ctx, "SELECT date, response FROM check_ins ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query check_ins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day tracking.CheckIn
		if err := rows.Scan(&day.Date, &day.Response); err != nil {
			return nil, fmt.Errorf("scan check_in: %w", err)
		}
		rec.Days = append(rec.Days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check_ins: %w", err)
	}

	return rec, nil
}

// Save replaces both tables in one transaction.
func (s *Store) Save(ctx context.Context, rec *tracking.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var start sql.NullString
	if rec.StartDate != nil {
		start = sql.NullString{String: *rec.StartDate, Valid: true}
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO tracking_record (id, start_date) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET start_date = excluded.start_date",
		start,
	); err != nil {
		return fmt.Errorf("upsert tracking_record: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM check_ins"); err != nil {
		return fmt.Errorf("clear check_ins: %w", err)
	}

	if len(rec.Days) > 0 {
		stmt, prepErr := tx.PrepareContext(ctx, "INSERT INTO check_ins (seq, date, response) VALUES (?, ?, ?)")
		if prepErr != nil {
			err = prepErr
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, day := range rec.Days {
			if _, err = stmt.ExecContext(ctx, i, day.Date, day.Response); err != nil {
				return fmt.Errorf("insert check_in %d: %w", i, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
