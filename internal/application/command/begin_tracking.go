package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/habitbot/habit-bot/internal/domain/tracking"
	"github.com/habitbot/habit-bot/pkg/logger"
	"github.com/habitbot/habit-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// BEGIN TRACKING COMMAND
// Sets the start date to today on first use. Later calls change nothing.
// ══════════════════════════════════════════════════════════════════════════════

// BeginTrackingCommand requests the start of the day count.
type BeginTrackingCommand struct {
	// RequestedBy is the Telegram user ID, for logging only.
	RequestedBy int64
}

// BeginTrackingResult reports what happened.
type BeginTrackingResult struct {
	// Started is true when this call set the start date.
	Started bool

	// StartDate is the effective start date (YYYY-MM-DD).
	StartDate string
}

// BeginTrackingHandler handles BeginTrackingCommand.
type BeginTrackingHandler struct {
	store    RecordStore
	calendar *timeutil.Calendar
	logger   *slog.Logger
}

// NewBeginTrackingHandler creates a new BeginTrackingHandler.
func NewBeginTrackingHandler(store RecordStore, calendar *timeutil.Calendar, logger *slog.Logger) *BeginTrackingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BeginTrackingHandler{store: store, calendar: calendar, logger: logger}
}

// Handle executes the command.
func (h *BeginTrackingHandler) Handle(ctx context.Context, cmd BeginTrackingCommand) (*BeginTrackingResult, error) {
	today := h.calendar.Today()
	result := &BeginTrackingResult{}

	rec, err := h.store.Update(ctx, func(r *tracking.Record) error {
		if err := r.Begin(today); err != nil {
			if errors.Is(err, tracking.ErrAlreadyStarted) {
				return tracking.ErrNoChange
			}
			return err
		}
		result.Started = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("begin_tracking: %w", err)
	}

	if rec.StartDate != nil {
		result.StartDate = *rec.StartDate
	}

	if result.Started {
		h.logger.InfoContext(ctx, "tracking started",
			logger.TelegramID(cmd.RequestedBy),
			slog.String("start_date", result.StartDate),
		)
	}

	return result, nil
}
