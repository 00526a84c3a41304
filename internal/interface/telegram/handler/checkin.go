package handler

import (
	"context"

	"github.com/habitbot/habit-bot/internal/application/command"
	"github.com/habitbot/habit-bot/internal/interface/telegram/presenter"
)

// CheckInRecorder appends a free-text answer.
type CheckInRecorder interface {
	Handle(ctx context.Context, cmd command.RecordCheckInCommand) (*command.RecordCheckInResult, error)
}

// CheckInHandler handles any non-command text.
type CheckInHandler struct {
	recorder CheckInRecorder
}

// NewCheckInHandler creates a new CheckInHandler.
func NewCheckInHandler(recorder CheckInRecorder) *CheckInHandler {
	return &CheckInHandler{recorder: recorder}
}

// Handle stores the message text verbatim. A failed save produces no reply.
func (h *CheckInHandler) Handle(ctx context.Context, req Request) (*Response, error) {
	_, err := h.recorder.Handle(ctx, command.RecordCheckInCommand{
		Response:    req.Text,
		RequestedBy: req.TelegramID,
	})
	if err != nil {
		return nil, err
	}
	return &Response{Text: presenter.CheckInSaved}, nil
}
