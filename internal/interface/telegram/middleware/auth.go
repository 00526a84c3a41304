// Package middleware contains Telegram bot middlewares for request processing.
// They run for every incoming update before it reaches a handler.
package middleware

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/habitbot/habit-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT KEYS
// Used to pass data through the request context.
// ══════════════════════════════════════════════════════════════════════════════

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// TelegramIDContextKey is the context key for the Telegram user ID.
	TelegramIDContextKey contextKey = "telegram_id"

	// RequestIDContextKey is the context key for request tracing.
	RequestIDContextKey contextKey = "request_id"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH MIDDLEWARE
// The bot serves exactly one user. Everyone else is dropped without a reply.
// ══════════════════════════════════════════════════════════════════════════════

// AuthMiddleware decides whether a sender may use the bot.
type AuthMiddleware struct {
	authorizedID int64
	logger       *slog.Logger
}

// NewAuthMiddleware creates an auth middleware for a single authorized user.
func NewAuthMiddleware(authorizedID int64, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{authorizedID: authorizedID, logger: log}
}

// AuthorizedID returns the only user ID the bot answers to.
func (m *AuthMiddleware) AuthorizedID() int64 {
	return m.authorizedID
}

// Authorize reports whether telegramID is the authorized user.
// Rejections are logged at DEBUG only.
func (m *AuthMiddleware) Authorize(ctx context.Context, telegramID int64) bool {
	if telegramID == m.authorizedID {
		return true
	}
	m.logger.DebugContext(ctx, "ignoring message from unauthorized user",
		logger.TelegramID(telegramID),
		logger.RequestID(RequestIDFromContext(ctx)),
	)
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// ContextWithTelegramID adds the Telegram ID to the context.
func ContextWithTelegramID(ctx context.Context, telegramID int64) context.Context {
	return context.WithValue(ctx, TelegramIDContextKey, telegramID)
}

// TelegramIDFromContext retrieves the Telegram ID from context.
func TelegramIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(TelegramIDContextKey).(int64); ok {
		return id
	}
	return 0
}

// ContextWithRequestID adds a fresh request ID to the context.
func ContextWithRequestID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, RequestIDContextKey, id), id
}

// RequestIDFromContext retrieves the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}
