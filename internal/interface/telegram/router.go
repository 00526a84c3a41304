// Package telegram implements the Telegram bot interface of the habit tracker.
package telegram

import (
	"context"
	"log/slog"
	"sync"

	"github.com/habitbot/habit-bot/internal/infrastructure/external/telegram"
	"github.com/habitbot/habit-bot/internal/interface/telegram/handler"
	"github.com/habitbot/habit-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// MessageHandler handles a command or a text message.
type MessageHandler interface {
	Handle(ctx context.Context, req handler.Request) (*handler.Response, error)
}

// Update kinds, used as metric labels.
const (
	KindCheckIn      = "checkin"
	KindIgnored      = "ignored"
	KindUnauthorized = "unauthorized"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Routes incoming messages to handlers: registered commands by name,
// everything that is not a command to the text handler. Unknown commands
// are ignored.
// ══════════════════════════════════════════════════════════════════════════════

// Router routes Telegram messages to handlers.
type Router struct {
	mu              sync.RWMutex
	commandHandlers map[string]MessageHandler
	textHandler     MessageHandler
}

// NewRouter creates a new router.
func NewRouter() *Router {
	return &Router{
		commandHandlers: make(map[string]MessageHandler),
	}
}

// RegisterCommand registers a handler for a command given without the "/".
func (r *Router) RegisterCommand(command string, h MessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commandHandlers[command] = h
}

// RegisterTextHandler registers the handler for non-command text.
func (r *Router) RegisterTextHandler(h MessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.textHandler = h
}

// Commands returns the registered command names.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commandHandlers))
	for name := range r.commandHandlers {
		names = append(names, name)
	}
	return names
}

// Route dispatches msg and returns the handler's response together with the
// update kind: the command name, KindCheckIn or KindIgnored.
func (r *Router) Route(ctx context.Context, msg *telegram.Message) (*handler.Response, string, error) {
	req := handler.Request{
		TelegramID: msg.FromID,
		ChatID:     msg.ChatID,
		MessageID:  msg.ID,
		Text:       msg.Text,
		Args:       msg.Args,
	}

	r.mu.RLock()
	var h MessageHandler
	kind := KindIgnored
	if msg.IsCommand() {
		if ch, ok := r.commandHandlers[msg.Command]; ok {
			h, kind = ch, msg.Command
		}
	} else if r.textHandler != nil {
		h, kind = r.textHandler, KindCheckIn
	}
	r.mu.RUnlock()

	if h == nil {
		logger.FromContext(ctx).DebugContext(ctx, "no handler for message", slog.String("command", msg.Command))
		return nil, KindIgnored, nil
	}

	resp, err := h.Handle(ctx, req)
	return resp, kind, err
}
