package handler

import (
	"context"

	"github.com/habitbot/habit-bot/internal/application/query"
	"github.com/habitbot/habit-bot/internal/interface/telegram/presenter"
)

// StatsQuerier computes journal statistics.
type StatsQuerier interface {
	Handle(ctx context.Context) query.StatsDTO
}

// StatsHandler handles /stats.
type StatsHandler struct {
	stats StatsQuerier
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats StatsQuerier) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Handle replies with the four counters.
func (h *StatsHandler) Handle(ctx context.Context, _ Request) (*Response, error) {
	return &Response{Text: presenter.FormatStats(h.stats.Handle(ctx))}, nil
}
