package handler

import (
	"context"

	"github.com/habitbot/habit-bot/internal/application/command"
	"github.com/habitbot/habit-bot/internal/interface/telegram/presenter"
)

// TrackingStarter begins the day count.
type TrackingStarter interface {
	Handle(ctx context.Context, cmd command.BeginTrackingCommand) (*command.BeginTrackingResult, error)
}

// StartHandler handles /start.
type StartHandler struct {
	starter TrackingStarter
}

// NewStartHandler creates a new StartHandler.
func NewStartHandler(starter TrackingStarter) *StartHandler {
	return &StartHandler{starter: starter}
}

// Handle sets the start date on first use and reports whether it was set.
func (h *StartHandler) Handle(ctx context.Context, req Request) (*Response, error) {
	result, err := h.starter.Handle(ctx, command.BeginTrackingCommand{RequestedBy: req.TelegramID})
	if err != nil {
		return nil, err
	}

	if result.Started {
		return &Response{Text: presenter.TrackingStarted}, nil
	}
	return &Response{Text: presenter.TrackingAlreadyStarted}, nil
}
