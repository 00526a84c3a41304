// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"

	"github.com/habitbot/habit-bot/internal/domain/tracking"
)

// RecordReader returns the current tracking record. Implementations never
// fail: unreadable state is reported as an empty record.
type RecordReader interface {
	Load(ctx context.Context) *tracking.Record
}
