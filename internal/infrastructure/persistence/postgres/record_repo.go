package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/habitbot/habit-bot/internal/domain/tracking"
)

// RecordRepository implements tracking.Repository on two tables:
// a singleton tracking_record row and the ordered check_ins journal.
type RecordRepository struct {
	conn *Connection
}

// NewRecordRepository creates a repository on an open connection.
func NewRecordRepository(conn *Connection) *RecordRepository {
	return &RecordRepository{conn: conn}
}

// Load reads the record. No rows at all is an empty record.
func (r *RecordRepository) Load(ctx context.Context) (*tracking.Record, error) {
	rec := tracking.NewRecord()

	err := r.conn.inTx(ctx, snapshotTx, func(tx pgx.Tx) error {
		var start *string
		err := tx.QueryRow(ctx, `SELECT start_date FROM tracking_record WHERE id = 1`).Scan(&start)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return fmt.Errorf("select tracking_record: %w", err)
		default:
			rec.StartDate = start
		}

		rows, err := tx.Query(ctx, `SELECT date, response FROM check_ins ORDER BY seq`)
		if err != nil {
			return fmt.Errorf("select check_ins: %w", err)
		}
		days, err := pgx.CollectRows(rows, pgx.RowToStructByPos[tracking.CheckIn])
		if err != nil {
			return fmt.Errorf("scan check_ins: %w", err)
		}
		if len(days) > 0 {
			rec.Days = days
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Save replaces both tables wholesale in one transaction.
func (r *RecordRepository) Save(ctx context.Context, rec *tracking.Record) error {
	return r.conn.inTx(ctx, writeTx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO tracking_record (id, start_date) VALUES (1, $1)
			ON CONFLICT (id) DO UPDATE SET start_date = EXCLUDED.start_date
		`, rec.StartDate)
		if err != nil {
			return fmt.Errorf("upsert tracking_record: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM check_ins`); err != nil {
			return fmt.Errorf("clear check_ins: %w", err)
		}
		if len(rec.Days) == 0 {
			return nil
		}

		rows := make([][]any, len(rec.Days))
		for i, day := range rec.Days {
			rows[i] = []any{int32(i), day.Date, day.Response}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"check_ins"},
			[]string{"seq", "date", "response"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("insert check_ins: %w", err)
		}
		return nil
	})
}

// Ping checks database reachability.
func (r *RecordRepository) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

// Close releases the pool.
func (r *RecordRepository) Close() error {
	r.conn.Close()
	return nil
}
