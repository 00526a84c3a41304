package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/habitbot/habit-bot/internal/domain/tracking"
	"github.com/habitbot/habit-bot/internal/infrastructure/metrics"
	"github.com/habitbot/habit-bot/pkg/logger"
	"github.com/habitbot/habit-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD CHECK-IN COMMAND
// Appends the user's free-text answer for today to the journal.
// The text is stored verbatim and never interpreted at write time.
// ══════════════════════════════════════════════════════════════════════════════

// RecordCheckInCommand carries one free-text answer.
type RecordCheckInCommand struct {
	Response    string
	RequestedBy int64
}

// RecordCheckInResult reports the stored entry.
type RecordCheckInResult struct {
	CheckIn tracking.CheckIn

	// Total is the journal length after the append.
	Total int
}

// RecordCheckInHandler handles RecordCheckInCommand.
type RecordCheckInHandler struct {
	store    RecordStore
	calendar *timeutil.Calendar
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewRecordCheckInHandler creates a new RecordCheckInHandler. Metrics may be nil.
func NewRecordCheckInHandler(
	store RecordStore,
	calendar *timeutil.Calendar,
	m *metrics.Metrics,
	logger *slog.Logger,
) *RecordCheckInHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordCheckInHandler{store: store, calendar: calendar, metrics: m, logger: logger}
}

// Handle executes the command.
func (h *RecordCheckInHandler) Handle(ctx context.Context, cmd RecordCheckInCommand) (*RecordCheckInResult, error) {
	today := h.calendar.Today()
	var entry tracking.CheckIn

	rec, err := h.store.Update(ctx, func(r *tracking.Record) error {
		entry = r.AddCheckIn(today, cmd.Response)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record_checkin: %w", err)
	}

	h.metrics.RecordCheckIn()
	h.logger.DebugContext(ctx, "check-in recorded",
		logger.TelegramID(cmd.RequestedBy),
		slog.String("date", entry.Date),
		slog.Int("total", len(rec.Days)),
	)

	return &RecordCheckInResult{CheckIn: entry, Total: len(rec.Days)}, nil
}
