// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"

	"github.com/habitbot/habit-bot/internal/domain/tracking"
)

// RecordStore performs a serialized read-modify-write of the tracking record.
// fn returning tracking.ErrNoChange skips the save.
type RecordStore interface {
	Update(ctx context.Context, fn func(*tracking.Record) error) (*tracking.Record, error)
}
