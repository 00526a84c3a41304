package query

import (
	"context"

	"github.com/habitbot/habit-bot/internal/domain/tracking"
	"github.com/habitbot/habit-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATS QUERY
// Считает сводку по журналу на сегодняшнюю дату.
// ══════════════════════════════════════════════════════════════════════════════

// StatsDTO - статистика для ответа на /stats.
type StatsDTO struct {
	tracking.Stats

	// Date - дата, на которую посчитана статистика.
	Date string
}

// GetStatsHandler обрабатывает запрос статистики.
type GetStatsHandler struct {
	reader          RecordReader
	calendar        *timeutil.Calendar
	negativeKeyword string
}

// NewGetStatsHandler создаёт обработчик. Пустой keyword означает
// tracking.DefaultNegativeKeyword.
func NewGetStatsHandler(reader RecordReader, calendar *timeutil.Calendar, negativeKeyword string) *GetStatsHandler {
	if negativeKeyword == "" {
		negativeKeyword = tracking.DefaultNegativeKeyword
	}
	return &GetStatsHandler{
		reader:          reader,
		calendar:        calendar,
		negativeKeyword: negativeKeyword,
	}
}

// Handle выполняет запрос. Ошибок не бывает: пустое хранилище даёт нули.
func (h *GetStatsHandler) Handle(ctx context.Context) StatsDTO {
	today := h.calendar.Today()
	rec := h.reader.Load(ctx)

	return StatsDTO{
		Stats: tracking.ComputeStats(rec, today, h.negativeKeyword),
		Date:  timeutil.FormatDateStr(today),
	}
}
