package query

import (
	"context"
	"errors"

	"github.com/habitbot/habit-bot/internal/domain/tracking"
	"github.com/habitbot/habit-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CURRENT DAY QUERY
// Номер текущего дня отсчёта: день начала - это день 1.
// ══════════════════════════════════════════════════════════════════════════════

// CurrentDayDTO - результат запроса.
type CurrentDayDTO struct {
	// Started - начат ли отсчёт. Если нет, Day равен 0.
	Started bool

	// Day - номер текущего дня.
	Day int

	// StartDate - дата начала (YYYY-MM-DD) или пустая строка.
	StartDate string
}

// GetCurrentDayHandler обрабатывает запрос номера дня.
type GetCurrentDayHandler struct {
	reader   RecordReader
	calendar *timeutil.Calendar
}

// NewGetCurrentDayHandler создаёт обработчик.
func NewGetCurrentDayHandler(reader RecordReader, calendar *timeutil.Calendar) *GetCurrentDayHandler {
	return &GetCurrentDayHandler{reader: reader, calendar: calendar}
}

// Handle выполняет запрос. Неразборчивая дата начала возвращается как
// ошибка tracking.ErrInvalidDate.
func (h *GetCurrentDayHandler) Handle(ctx context.Context) (CurrentDayDTO, error) {
	rec := h.reader.Load(ctx)

	day, err := rec.CurrentDay(h.calendar.Today())
	if errors.Is(err, tracking.ErrNotStarted) {
		return CurrentDayDTO{}, nil
	}
	if err != nil {
		return CurrentDayDTO{}, err
	}

	return CurrentDayDTO{Started: true, Day: day, StartDate: *rec.StartDate}, nil
}
