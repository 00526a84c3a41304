package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/habitbot/habit-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in handlers so that one bad update cannot stop the polling
// loop. Nothing is sent to the user.
// ══════════════════════════════════════════════════════════════════════════════

// ErrPanic is wrapped by errors produced from recovered panics.
var ErrPanic = errors.New("handler panicked")

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// EnableStackTrace adds the stack trace to the log entry.
	EnableStackTrace bool
}

// DefaultRecoveryConfig returns sensible defaults for recovery middleware.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{EnableStackTrace: true}
}

// RecoveryMiddleware recovers from panics.
type RecoveryMiddleware struct {
	config RecoveryConfig
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(config RecoveryConfig) *RecoveryMiddleware {
	return &RecoveryMiddleware{config: config}
}

// Run executes fn. A panic is logged and returned as an error wrapping ErrPanic.
// The report goes to the request logger in ctx, which already carries the
// request and sender IDs.
func (m *RecoveryMiddleware) Run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		err = fmt.Errorf("%w: %v", ErrPanic, r)

		attrs := []any{slog.Any("panic", r)}
		if m.config.EnableStackTrace {
			attrs = append(attrs, slog.String("stack", string(debug.Stack())))
		}
		logger.FromContext(ctx).ErrorContext(ctx, "recovered from panic", attrs...)
	}()

	return fn(ctx)
}
